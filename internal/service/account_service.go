package service

import (
	"strings"

	"github.com/digibuy-next/internal/constants"
	"github.com/digibuy-next/internal/models"
	"github.com/digibuy-next/internal/repository"
)

// AccountService 用户侧只读查询：商品目录、余额流水、订单支付记录
type AccountService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	paymentRepo repository.PaymentRepository
	balanceRepo repository.BalanceTransactionRepository
}

// NewAccountService 创建账户查询服务
func NewAccountService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	paymentRepo repository.PaymentRepository,
	balanceRepo repository.BalanceTransactionRepository,
) *AccountService {
	return &AccountService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		paymentRepo: paymentRepo,
		balanceRepo: balanceRepo,
	}
}

// ListProducts 上架商品列表
func (s *AccountService) ListProducts(search string, page, pageSize int) ([]models.Product, int64, error) {
	products, total, err := s.productRepo.List(repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		Search:     strings.TrimSpace(search),
		OnlyActive: true,
	})
	if err != nil {
		return nil, 0, ErrAccountFetchFailed
	}
	return products, total, nil
}

// ListBalanceTransactions 用户余额流水，asset 为空时返回钱包与积分全部流水
func (s *AccountService) ListBalanceTransactions(filter repository.BalanceTransactionListFilter) ([]models.BalanceTransaction, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, ErrUserNotFound
	}
	asset := strings.ToLower(strings.TrimSpace(filter.Asset))
	switch asset {
	case "", constants.BalanceAssetWallet, constants.BalanceAssetPoints:
	default:
		return []models.BalanceTransaction{}, 0, nil
	}
	filter.Asset = asset
	txns, total, err := s.balanceRepo.List(filter)
	if err != nil {
		return nil, 0, ErrAccountFetchFailed
	}
	return txns, total, nil
}

// ListOrderPayments 订单支付记录（仅订单所属用户可查）
func (s *AccountService) ListOrderPayments(orderID, userID uint) ([]models.Payment, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	payments, err := s.paymentRepo.ListByOrderID(order.ID)
	if err != nil {
		return nil, ErrAccountFetchFailed
	}
	return payments, nil
}
