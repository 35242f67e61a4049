package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/digibuy-next/internal/logger"
	"github.com/digibuy-next/internal/models"
	"github.com/digibuy-next/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	orderNoPrefix       = "DB"
	orderNoRandomDigits = 6
	orderNoMaxAttempts  = 3
	maxOrderItemQty     = 999
)

// OrderService 订单服务
type OrderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	now         func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		now:         time.Now,
	}
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	UserID uint
	Items  []CreateOrderItem
}

// CreateOrderItem 创建订单项输入
type CreateOrderItem struct {
	ProductID uint
	Quantity  int
}

// CreateOrder 创建待结算订单，单价按当前商品价格快照
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if input.UserID == 0 {
		return nil, ErrUserNotFound
	}
	items, err := mergeCreateOrderItems(input.Items)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrInvalidOrderItem
	}

	productIDs := make([]uint, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := s.productRepo.ListByIDs(productIDs)
	if err != nil {
		return nil, ErrOrderCreateFailed
	}
	productMap := make(map[uint]models.Product, len(products))
	for _, product := range products {
		productMap[product.ID] = product
	}

	orderItems := make([]models.OrderItem, 0, len(items))
	subtotal := decimal.Zero
	for _, item := range items {
		product, ok := productMap[item.ProductID]
		if !ok || !product.IsActive {
			return nil, ErrProductNotAvailable
		}
		if !product.Price.Decimal.IsPositive() {
			return nil, ErrProductNotAvailable
		}
		lineTotal := normalizeOrderAmount(product.Price.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity))))
		subtotal = subtotal.Add(lineTotal)
		orderItems = append(orderItems, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    item.Quantity,
			TotalPrice:  models.NewMoneyFromDecimal(lineTotal),
			IsActive:    true,
		})
	}

	subtotalMoney := models.NewMoneyFromDecimal(subtotal)
	var lastErr error
	for attempt := 0; attempt < orderNoMaxAttempts; attempt++ {
		order := &models.Order{
			OrderNo:          generateOrderNo(s.now()),
			UserID:           input.UserID,
			OriginalAmount:   subtotalMoney,
			DiscountAmount:   models.ZeroMoney(),
			PointsUsed:       models.ZeroMoney(),
			PointsEarned:     models.ZeroMoney(),
			WalletPaidAmount: models.ZeroMoney(),
			CardPaidAmount:   models.ZeroMoney(),
			TotalAmount:      subtotalMoney,
			IsActive:         true,
		}
		lineCopy := make([]models.OrderItem, len(orderItems))
		copy(lineCopy, orderItems)
		err := s.orderRepo.Create(order, lineCopy)
		if err == nil {
			order.Items = lineCopy
			logger.Infow("order_created",
				"order_id", order.ID,
				"order_no", order.OrderNo,
				"user_id", order.UserID,
				"total_amount", order.TotalAmount.String(),
			)
			return order, nil
		}
		lastErr = err
		if !repository.IsUniqueViolation(err) {
			break
		}
	}
	logger.Warnw("order_create_failed", "user_id", input.UserID, "error", lastErr)
	return nil, ErrOrderCreateFailed
}

// GetOrderByUser 获取订单详情
func (s *OrderService) GetOrderByUser(orderID uint, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrderByUserOrderNo 按订单号获取用户订单详情
func (s *OrderService) GetOrderByUserOrderNo(orderNo string, userID uint) (*models.Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByOrderNoAndUser(orderNo, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrdersByUser 获取订单列表
func (s *OrderService) ListOrdersByUser(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, ErrOrderFetchFailed
	}
	orders, total, err := s.orderRepo.ListByUser(filter)
	if err != nil {
		return nil, 0, ErrOrderFetchFailed
	}
	return orders, total, nil
}

// generateOrderNo 订单号：DB + yyMMddHH(UTC) + 6 位随机数
func generateOrderNo(now time.Time) string {
	return fmt.Sprintf("%s%s%s", orderNoPrefix, now.UTC().Format("06010215"), randNumeric(orderNoRandomDigits))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}

// mergeCreateOrderItems 合并重复商品的下单项，保持首次出现的顺序
func mergeCreateOrderItems(items []CreateOrderItem) ([]CreateOrderItem, error) {
	if len(items) == 0 {
		return nil, nil
	}
	merged := make([]CreateOrderItem, 0, len(items))
	indexMap := make(map[uint]int)
	for _, item := range items {
		if item.ProductID == 0 {
			return nil, ErrInvalidOrderItem
		}
		if item.Quantity <= 0 {
			return nil, ErrInvalidOrderQuantity
		}
		if idx, ok := indexMap[item.ProductID]; ok {
			merged[idx].Quantity += item.Quantity
			if merged[idx].Quantity > maxOrderItemQty {
				return nil, ErrInvalidOrderQuantity
			}
			continue
		}
		if item.Quantity > maxOrderItemQty {
			return nil, ErrInvalidOrderQuantity
		}
		indexMap[item.ProductID] = len(merged)
		merged = append(merged, CreateOrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return merged, nil
}

func normalizeOrderAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}
