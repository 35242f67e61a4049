package service

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/digibuy-next/internal/models"
	"github.com/digibuy-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewOrderService(repository.NewOrderRepository(db), repository.NewProductRepository(db)), db
}

func TestMergeCreateOrderItems(t *testing.T) {
	items := []CreateOrderItem{
		{ProductID: 2, Quantity: 1},
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 3},
	}
	merged, err := mergeCreateOrderItems(items)
	if err != nil {
		t.Fatalf("mergeCreateOrderItems error: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("expected 2 items, got %d", len(merged))
	}
	if merged[0].ProductID != 2 || merged[0].Quantity != 4 {
		t.Fatalf("unexpected merged item: %+v", merged[0])
	}

	if _, err := mergeCreateOrderItems([]CreateOrderItem{{ProductID: 0, Quantity: 1}}); !errors.Is(err, ErrInvalidOrderItem) {
		t.Fatalf("expected ErrInvalidOrderItem, got %v", err)
	}
	if _, err := mergeCreateOrderItems([]CreateOrderItem{{ProductID: 1, Quantity: 0}}); !errors.Is(err, ErrInvalidOrderQuantity) {
		t.Fatalf("expected ErrInvalidOrderQuantity, got %v", err)
	}
	if _, err := mergeCreateOrderItems([]CreateOrderItem{{ProductID: 1, Quantity: 600}, {ProductID: 1, Quantity: 600}}); !errors.Is(err, ErrInvalidOrderQuantity) {
		t.Fatalf("expected ErrInvalidOrderQuantity for oversized merge, got %v", err)
	}
}

func TestGenerateOrderNo(t *testing.T) {
	now := time.Date(2026, 10, 18, 7, 30, 0, 0, time.UTC)
	orderNo := generateOrderNo(now)
	if !regexp.MustCompile(`^DB26101807\d{6}$`).MatchString(orderNo) {
		t.Fatalf("unexpected order no: %s", orderNo)
	}
}

func TestCreateOrderSnapshotsPrices(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	book := &models.Product{Name: "E-Book", Price: money("12.50"), IsActive: true}
	course := &models.Product{Name: "Course", Price: money("40"), IsActive: true}
	if err := db.Create(book).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if err := db.Create(course).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID: 3,
		Items: []CreateOrderItem{
			{ProductID: course.ID, Quantity: 1},
			{ProductID: book.ID, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	assertMoney(t, "original amount", order.OriginalAmount, "65")
	assertMoney(t, "total amount", order.TotalAmount, "65")
	if !order.IsActive {
		t.Fatalf("new order should be active")
	}

	// 改价不影响已下单快照
	if err := db.Model(&models.Product{}).Where("id = ?", book.ID).Update("price", money("99")).Error; err != nil {
		t.Fatalf("update price failed: %v", err)
	}
	got, err := svc.GetOrderByUser(order.ID, 3)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if len(got.Items) != 2 || got.Items[0].ProductID != course.ID {
		t.Fatalf("items should keep request order: %+v", got.Items)
	}
	assertMoney(t, "book unit price", got.Items[1].UnitPrice, "12.5")
	assertMoney(t, "book line total", got.Items[1].TotalPrice, "25")

	if _, err := svc.GetOrderByUser(order.ID, 4); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("foreign order want ErrOrderNotFound got %v", err)
	}
	byNo, err := svc.GetOrderByUserOrderNo(order.OrderNo, 3)
	if err != nil || byNo.ID != order.ID {
		t.Fatalf("get by order no failed: %+v %v", byNo, err)
	}

	orders, total, err := svc.ListOrdersByUser(repository.OrderListFilter{UserID: 3, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list orders failed: %v", err)
	}
	if total != 1 || len(orders) != 1 {
		t.Fatalf("unexpected orders: total=%d len=%d", total, len(orders))
	}
}

func TestCreateOrderRejectsUnavailableProducts(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	inactive := &models.Product{Name: "Retired", Price: money("10"), IsActive: true}
	if err := db.Create(inactive).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if err := db.Model(inactive).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	if _, err := svc.CreateOrder(CreateOrderInput{UserID: 1, Items: []CreateOrderItem{{ProductID: inactive.ID, Quantity: 1}}}); !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("inactive product want ErrProductNotAvailable got %v", err)
	}
	if _, err := svc.CreateOrder(CreateOrderInput{UserID: 1, Items: []CreateOrderItem{{ProductID: 404, Quantity: 1}}}); !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("missing product want ErrProductNotAvailable got %v", err)
	}
	if _, err := svc.CreateOrder(CreateOrderInput{UserID: 1}); !errors.Is(err, ErrInvalidOrderItem) {
		t.Fatalf("empty order want ErrInvalidOrderItem got %v", err)
	}
}
