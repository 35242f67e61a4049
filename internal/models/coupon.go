package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon 优惠券（一次性使用）
type Coupon struct {
	ID        uint           `gorm:"primarykey" json:"id"`                        // 主键
	Code      string         `gorm:"uniqueIndex;not null" json:"code"`            // 优惠码
	Amount    Money          `gorm:"type:decimal(20,2);not null" json:"amount"`   // 抵扣金额
	ExpiresAt time.Time      `gorm:"index;not null" json:"expires_at"`            // 失效时间
	IsUsed    bool           `gorm:"not null;default:false;index" json:"is_used"` // 是否已使用
	UsedAt    *time.Time     `json:"used_at,omitempty"`                           // 使用时间
	Version   uint           `gorm:"not null;default:0" json:"version"`           // 乐观锁版本号
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                     // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}
