package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/digibuy-next/internal/repository"

	"github.com/shopspring/decimal"
)

// AppliedCoupon 已通过校验的优惠券快照
type AppliedCoupon struct {
	ID      uint
	Code    string
	Amount  decimal.Decimal
	Version uint
}

// CouponValidator 结算时校验优惠码，只读不核销
type CouponValidator struct {
	repo repository.CouponRepository
	now  func() time.Time
}

// NewCouponValidator 创建优惠码校验器
func NewCouponValidator(repo repository.CouponRepository) *CouponValidator {
	return &CouponValidator{repo: repo, now: time.Now}
}

// Resolve 空优惠码返回 (nil, nil)；不存在、已使用或已过期返回 ErrCouponInvalidOrExpired
func (v *CouponValidator) Resolve(ctx context.Context, code string) (*AppliedCoupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	coupon, err := v.repo.WithContext(ctx).GetByCode(code)
	if err != nil {
		return nil, fmt.Errorf("%w: load coupon: %v", ErrPersistenceFailure, err)
	}
	if coupon == nil || coupon.IsUsed {
		return nil, ErrCouponInvalidOrExpired
	}
	// 到期时刻当天仍可使用，严格晚于到期时间才算过期
	if coupon.ExpiresAt.Before(v.now()) {
		return nil, ErrCouponInvalidOrExpired
	}
	amount := coupon.Amount.Decimal
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return &AppliedCoupon{
		ID:      coupon.ID,
		Code:    coupon.Code,
		Amount:  amount,
		Version: coupon.Version,
	}, nil
}
