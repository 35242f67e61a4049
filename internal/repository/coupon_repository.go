package repository

import (
	"context"
	"errors"
	"time"

	"github.com/digibuy-next/internal/models"

	"gorm.io/gorm"
)

// CouponRepository 优惠券数据访问接口
type CouponRepository interface {
	GetByID(id uint) (*models.Coupon, error)
	GetByCode(code string) (*models.Coupon, error)
	Create(coupon *models.Coupon) error
	Update(coupon *models.Coupon) error
	List(filter CouponListFilter) ([]models.Coupon, int64, error)
	MarkUsedWithVersion(id uint, version uint, usedAt time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormCouponRepository
	WithContext(ctx context.Context) *GormCouponRepository
}

// CouponListFilter 优惠券列表筛选
type CouponListFilter struct {
	Code     string
	IsUsed   *bool
	Page     int
	PageSize int
}

// GormCouponRepository GORM 实现
type GormCouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓库
func NewCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponRepository) WithTx(tx *gorm.DB) *GormCouponRepository {
	if tx == nil {
		return r
	}
	return &GormCouponRepository{db: tx}
}

// WithContext 绑定请求上下文
func (r *GormCouponRepository) WithContext(ctx context.Context) *GormCouponRepository {
	if ctx == nil {
		return r
	}
	return &GormCouponRepository{db: r.db.WithContext(ctx)}
}

// GetByID 根据ID获取优惠券
func (r *GormCouponRepository) GetByID(id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// GetByCode 根据优惠码获取优惠券
func (r *GormCouponRepository) GetByCode(code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// Create 创建优惠券
func (r *GormCouponRepository) Create(coupon *models.Coupon) error {
	return r.db.Create(coupon).Error
}

// Update 更新优惠券（仅允许修改未使用的券，按版本号校验）
func (r *GormCouponRepository) Update(coupon *models.Coupon) error {
	result := r.db.Model(&models.Coupon{}).
		Where("id = ? AND version = ?", coupon.ID, coupon.Version).
		Updates(map[string]interface{}{
			"code":       coupon.Code,
			"amount":     coupon.Amount,
			"expires_at": coupon.ExpiresAt,
			"is_used":    coupon.IsUsed,
			"used_at":    coupon.UsedAt,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}
	coupon.Version++
	return nil
}

// List 优惠券列表
func (r *GormCouponRepository) List(filter CouponListFilter) ([]models.Coupon, int64, error) {
	query := r.db.Model(&models.Coupon{})
	query = applyLikeSearch(query, filter.Code, "code")
	if filter.IsUsed != nil {
		query = query.Where("is_used = ?", *filter.IsUsed)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var coupons []models.Coupon
	if err := query.Order("id desc").Find(&coupons).Error; err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}

// MarkUsedWithVersion 核销优惠券，返回受影响行数（0 表示已被并发核销或版本变化）
func (r *GormCouponRepository) MarkUsedWithVersion(id uint, version uint, usedAt time.Time) (int64, error) {
	result := r.db.Model(&models.Coupon{}).
		Where("id = ? AND version = ? AND is_used = ?", id, version, false).
		Updates(map[string]interface{}{
			"is_used":    true,
			"used_at":    usedAt,
			"version":    gorm.Expr("version + 1"),
			"updated_at": usedAt,
		})
	return result.RowsAffected, result.Error
}
