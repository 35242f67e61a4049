package models

import "time"

// BalanceTransaction 余额流水（钱包与积分共用）
type BalanceTransaction struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                    // 主键
	UserID        uint      `gorm:"index;not null" json:"user_id"`                           // 用户ID
	OrderID       *uint     `gorm:"index" json:"order_id,omitempty"`                         // 关联订单ID
	Asset         string    `gorm:"type:varchar(16);index;not null" json:"asset"`            // 资产类型（wallet/points）
	Type          string    `gorm:"type:varchar(32);index;not null" json:"type"`             // 流水类型
	Direction     string    `gorm:"type:varchar(8);not null" json:"direction"`               // 方向（in/out）
	Amount        Money     `gorm:"type:decimal(20,2);not null" json:"amount"`               // 变动金额
	BalanceBefore Money     `gorm:"type:decimal(20,2);not null" json:"balance_before"`       // 变动前余额
	BalanceAfter  Money     `gorm:"type:decimal(20,2);not null" json:"balance_after"`        // 变动后余额
	Reference     string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"reference"` // 业务幂等键
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                                 // 创建时间
}

// TableName 指定表名
func (BalanceTransaction) TableName() string {
	return "balance_transactions"
}
