package repository

import (
	"errors"
	"time"
)

// ErrStaleVersion 乐观锁版本号不匹配
var ErrStaleVersion = errors.New("stale version")

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	Search     string
	OnlyActive bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	OrderNo     string
	IsActive    *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// BalanceTransactionListFilter 查询余额流水的过滤条件
type BalanceTransactionListFilter struct {
	Page      int
	PageSize  int
	UserID    uint
	OrderID   uint
	Asset     string
	Direction string
}
