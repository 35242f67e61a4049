package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/digibuy-next/internal/config"
	"github.com/digibuy-next/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	rabbitPrefetch       = 10
	rabbitRequeueBackoff = 2 * time.Second
)

// RabbitService 消费 RabbitMQ 中的结算邮件消息
type RabbitService struct {
	url      string
	queue    string
	consumer *Consumer
	backoff  time.Duration

	mu   sync.Mutex
	conn *amqp.Connection
}

// NewRabbitService 创建 RabbitMQ 消费服务
func NewRabbitService(cfg *config.RabbitMQConfig, consumer *Consumer) (*RabbitService, error) {
	if cfg == nil || strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is empty")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	queueName := strings.TrimSpace(cfg.Queue)
	if queueName == "" {
		queueName = "process-email-jobs"
	}
	return &RabbitService{
		url:      strings.TrimSpace(cfg.URL),
		queue:    queueName,
		consumer: consumer,
		backoff:  rabbitRequeueBackoff,
	}, nil
}

// Name 服务名称
func (s *RabbitService) Name() string {
	return "rabbitmq-worker"
}

// Start 建立连接并阻塞消费，直到 ctx 结束或连接断开
func (s *RabbitService) Start(ctx context.Context) error {
	conn, err := amqp.Dial(s.url)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel: %w", err)
	}
	defer ch.Close()
	if _, err := ch.QueueDeclare(s.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare rabbitmq queue: %w", err)
	}
	if err := ch.Qos(rabbitPrefetch, 0, false); err != nil {
		return fmt.Errorf("set rabbitmq qos: %w", err)
	}
	deliveries, err := ch.Consume(s.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume rabbitmq queue: %w", err)
	}
	logger.Infow("worker_rabbitmq_consuming", "queue", s.queue)

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("rabbitmq delivery channel closed")
			}
			s.handleDelivery(ctx, delivery)
		}
	}
}

// handleDelivery 成功确认；永久失败丢弃；临时失败延迟后重新入队
func (s *RabbitService) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	err := s.consumer.processSettlementEmail(ctx, delivery.Body)
	switch {
	case err == nil:
		if ackErr := delivery.Ack(false); ackErr != nil {
			logger.Warnw("worker_rabbitmq_ack_failed", "message_id", delivery.MessageId, "error", ackErr)
		}
	case errors.Is(err, errPermanent):
		if nackErr := delivery.Nack(false, false); nackErr != nil {
			logger.Warnw("worker_rabbitmq_nack_failed", "message_id", delivery.MessageId, "error", nackErr)
		}
	default:
		if s.backoff > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.backoff):
			}
		}
		if nackErr := delivery.Nack(false, true); nackErr != nil {
			logger.Warnw("worker_rabbitmq_requeue_failed", "message_id", delivery.MessageId, "error", nackErr)
		}
	}
}

// Stop 关闭连接
func (s *RabbitService) Stop(ctx context.Context) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || s.conn.IsClosed() {
		return nil
	}
	return s.conn.Close()
}
