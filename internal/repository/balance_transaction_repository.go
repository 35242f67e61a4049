package repository

import (
	"github.com/digibuy-next/internal/models"

	"gorm.io/gorm"
)

// BalanceTransactionRepository 余额流水数据访问接口
type BalanceTransactionRepository interface {
	Create(txn *models.BalanceTransaction) error
	List(filter BalanceTransactionListFilter) ([]models.BalanceTransaction, int64, error)
	WithTx(tx *gorm.DB) *GormBalanceTransactionRepository
}

// GormBalanceTransactionRepository GORM 实现
type GormBalanceTransactionRepository struct {
	db *gorm.DB
}

// NewBalanceTransactionRepository 创建余额流水仓库
func NewBalanceTransactionRepository(db *gorm.DB) *GormBalanceTransactionRepository {
	return &GormBalanceTransactionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBalanceTransactionRepository) WithTx(tx *gorm.DB) *GormBalanceTransactionRepository {
	if tx == nil {
		return r
	}
	return &GormBalanceTransactionRepository{db: tx}
}

// Create 写入流水
func (r *GormBalanceTransactionRepository) Create(txn *models.BalanceTransaction) error {
	return r.db.Create(txn).Error
}

// List 分页查询流水
func (r *GormBalanceTransactionRepository) List(filter BalanceTransactionListFilter) ([]models.BalanceTransaction, int64, error) {
	query := r.db.Model(&models.BalanceTransaction{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Asset != "" {
		query = query.Where("asset = ?", filter.Asset)
	}
	if filter.Direction != "" {
		query = query.Where("direction = ?", filter.Direction)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var txns []models.BalanceTransaction
	if err := query.Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}
