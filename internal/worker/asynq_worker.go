package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/digibuy-next/internal/logger"
	"github.com/digibuy-next/internal/provider"
	"github.com/digibuy-next/internal/queue"
	"github.com/digibuy-next/internal/service"

	"github.com/hibiken/asynq"
)

// settlementMailer 投递结算邮件的能力
type settlementMailer interface {
	Enabled() bool
	SendSettlementEmail(payload queue.SettlementEmailPayload) error
}

// errPermanent 标记重试无意义的失败
var errPermanent = errors.New("permanent failure")

// Consumer 异步任务消费者
type Consumer struct {
	mailer settlementMailer
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	if c == nil || c.EmailService == nil {
		return &Consumer{}
	}
	return &Consumer{mailer: c.EmailService}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskSettlementEmail, c.handleSettlementEmail)
}

func (c *Consumer) handleSettlementEmail(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_settlement_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	err := c.processSettlementEmail(ctx, task.Payload())
	if errors.Is(err, errPermanent) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

// processSettlementEmail 解析并发送结算邮件，asynq 与 RabbitMQ 消费端共用
func (c *Consumer) processSettlementEmail(ctx context.Context, body []byte) error {
	payload, err := queue.ParseSettlementEmailPayload(body)
	if err != nil {
		logger.Warnw("worker_settlement_email_invalid_payload", "error", err)
		return fmt.Errorf("%w: %v", errPermanent, err)
	}
	log := logger.Ctx(ctx, "order_id", payload.OrderID, "order_no", payload.OrderNo)
	if c.mailer == nil || !c.mailer.Enabled() {
		log.Debugw("worker_settlement_email_skip_disabled")
		return nil
	}
	if err := c.mailer.SendSettlementEmail(payload); err != nil {
		if errors.Is(err, service.ErrEmailRecipientRejected) || errors.Is(err, service.ErrInvalidEmail) {
			log.Warnw("worker_settlement_email_recipient_rejected", "receiver_email", payload.ToEmail, "error", err)
			return fmt.Errorf("%w: %v", errPermanent, err)
		}
		log.Warnw("worker_settlement_email_send_failed", "receiver_email", payload.ToEmail, "error", err)
		return err
	}
	log.Infow("worker_settlement_email_sent")
	return nil
}
