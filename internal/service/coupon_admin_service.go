package service

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/digibuy-next/internal/constants"
	"github.com/digibuy-next/internal/models"
	"github.com/digibuy-next/internal/repository"
)

// CouponAdminService 优惠券管理服务
type CouponAdminService struct {
	repo repository.CouponRepository
	now  func() time.Time
}

// NewCouponAdminService 创建优惠券管理服务
func NewCouponAdminService(repo repository.CouponRepository) *CouponAdminService {
	return &CouponAdminService{repo: repo, now: time.Now}
}

// CreateCouponInput 创建优惠券输入
type CreateCouponInput struct {
	Code      string
	Amount    models.Money
	ExpiresAt time.Time
}

// UpdateCouponInput 更新优惠券输入，Version 为空时不做版本比对
type UpdateCouponInput struct {
	Code      string
	Amount    models.Money
	ExpiresAt time.Time
	Version   *uint
}

// Create 创建优惠券
func (s *CouponAdminService) Create(input CreateCouponInput) (*models.Coupon, error) {
	code, err := s.validateCouponFields(input.Code, input.Amount, input.ExpiresAt)
	if err != nil {
		return nil, err
	}

	exist, err := s.repo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrCouponCodeExists
	}

	coupon := &models.Coupon{
		Code:      code,
		Amount:    input.Amount,
		ExpiresAt: input.ExpiresAt,
		IsUsed:    false,
	}
	if err := s.repo.Create(coupon); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrCouponCodeExists
		}
		return nil, err
	}
	return coupon, nil
}

// Get 获取优惠券
func (s *CouponAdminService) Get(id uint) (*models.Coupon, error) {
	if id == 0 {
		return nil, ErrCouponNotFound
	}
	coupon, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// Update 更新优惠券，已使用的券不可修改
func (s *CouponAdminService) Update(id uint, input UpdateCouponInput) (*models.Coupon, error) {
	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if existing.IsUsed {
		return nil, ErrCouponAlreadyUsed
	}
	if input.Version != nil && *input.Version != existing.Version {
		return nil, ErrCouponVersionStaled
	}

	code, err := s.validateCouponFields(input.Code, input.Amount, input.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if code != existing.Code {
		dup, err := s.repo.GetByCode(code)
		if err != nil {
			return nil, err
		}
		if dup != nil {
			return nil, ErrCouponCodeExists
		}
	}

	existing.Code = code
	existing.Amount = input.Amount
	existing.ExpiresAt = input.ExpiresAt

	if err := s.repo.Update(existing); err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleVersion):
			return nil, ErrCouponVersionStaled
		case repository.IsUniqueViolation(err):
			return nil, ErrCouponCodeExists
		}
		return nil, ErrCouponUpdateFailed
	}
	return existing, nil
}

// Delete 作废优惠券：标记为已使用，保留记录供订单追溯
func (s *CouponAdminService) Delete(id uint) error {
	existing, err := s.Get(id)
	if err != nil {
		return err
	}
	if existing.IsUsed {
		return nil
	}
	rows, err := s.repo.MarkUsedWithVersion(existing.ID, existing.Version, s.now())
	if err != nil {
		return err
	}
	if rows == 0 {
		// 并发核销或修改，重新读取判断最终状态
		current, err := s.Get(id)
		if err != nil {
			return err
		}
		if current.IsUsed {
			return nil
		}
		return ErrCouponVersionStaled
	}
	return nil
}

// List 获取优惠券列表
func (s *CouponAdminService) List(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	filter.Code = strings.TrimSpace(filter.Code)
	return s.repo.List(filter)
}

func (s *CouponAdminService) validateCouponFields(rawCode string, amount models.Money, expiresAt time.Time) (string, error) {
	code := strings.TrimSpace(rawCode)
	if code == "" || utf8.RuneCountInString(code) > constants.CouponCodeMaxLength {
		return "", ErrCouponInvalid
	}
	if !amount.Decimal.IsPositive() {
		return "", ErrCouponInvalid
	}
	if expiresAt.IsZero() || !expiresAt.After(s.now()) {
		return "", ErrCouponInvalid
	}
	return code, nil
}
