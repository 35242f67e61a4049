package queue

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
)

const (
	// TaskSettlementEmail 结算完成邮件通知任务
	TaskSettlementEmail = "checkout:settled_email"
)

// SettlementEmailPayload 结算完成邮件载荷（asynq 与 RabbitMQ 共用）
type SettlementEmailPayload struct {
	OrderID uint   `json:"order_id"`
	OrderNo string `json:"order_no"`
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Validate 校验载荷完整性
func (p SettlementEmailPayload) Validate() error {
	if strings.TrimSpace(p.ToEmail) == "" {
		return fmt.Errorf("settlement email payload: to_email is required")
	}
	if strings.TrimSpace(p.Subject) == "" {
		return fmt.Errorf("settlement email payload: subject is required")
	}
	return nil
}

// taskID 同一订单的结算通知只入队一次
func (p SettlementEmailPayload) taskID() string {
	return fmt.Sprintf("settled-email:%d", p.OrderID)
}

// NewSettlementEmailTask 创建结算邮件任务
func NewSettlementEmailTask(payload SettlementEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSettlementEmail, body), nil
}

// ParseSettlementEmailPayload 解析任务载荷
func ParseSettlementEmailPayload(body []byte) (SettlementEmailPayload, error) {
	var payload SettlementEmailPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return payload, err
	}
	return payload, payload.Validate()
}
