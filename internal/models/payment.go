package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment 支付记录（每次结算按钱包/银行卡分别落一条）
type Payment struct {
	ID          uint           `gorm:"primarykey" json:"id"`                      // 主键
	OrderID     uint           `gorm:"index;not null" json:"order_id"`            // 订单ID
	UserID      uint           `gorm:"index;not null" json:"user_id"`             // 用户ID
	Provider    string         `gorm:"not null" json:"provider"`                  // 支付方式（wallet/card）
	Amount      Money          `gorm:"type:decimal(20,2);not null" json:"amount"` // 支付金额
	Status      string         `gorm:"index;not null" json:"status"`              // 支付状态
	ProviderRef string         `gorm:"index" json:"provider_ref"`                 // 授权流水号
	CardBrand   string         `gorm:"type:varchar(32)" json:"card_brand"`        // 卡组织
	CardLast4   string         `gorm:"type:varchar(4)" json:"card_last4"`         // 卡号后四位
	PaidAt      *time.Time     `gorm:"index" json:"paid_at"`                      // 支付时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                   // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                   // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                            // 软删除时间
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
