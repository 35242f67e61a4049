package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                            // 主键
	OrderNo          string         `gorm:"uniqueIndex;not null" json:"order_no"`                            // 订单编号
	UserID           uint           `gorm:"index;not null" json:"user_id"`                                   // 用户ID
	OriginalAmount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"original_amount"`    // 商品原始总额
	DiscountAmount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`    // 优惠券抵扣金额
	CouponID         *uint          `gorm:"index" json:"coupon_id,omitempty"`                                // 优惠券ID
	CouponCode       *string        `gorm:"type:varchar(64)" json:"coupon_code,omitempty"`                   // 优惠码
	PointsUsed       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"points_used"`        // 使用积分
	PointsEarned     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"points_earned"`      // 获得积分
	WalletPaidAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"wallet_paid_amount"` // 钱包支付金额
	CardPaidAmount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"card_paid_amount"`   // 银行卡支付金额
	TotalAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`       // 应付金额
	IsActive         bool           `gorm:"not null;default:true;index" json:"is_active"`                    // 是否待结算
	SettledAt        *time.Time     `gorm:"index" json:"settled_at"`                                         // 结算时间
	Version          uint           `gorm:"not null;default:0" json:"-"`                                     // 乐观锁版本号
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                         // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                                  // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
