package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/digibuy-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderRepositoryTest(t *testing.T) (*GormOrderRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewOrderRepository(db), db
}

func createRepoTestOrder(t *testing.T, repo *GormOrderRepository, orderNo string, userID uint, prices ...int64) *models.Order {
	t.Helper()
	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(prices))
	for idx, price := range prices {
		unit := decimal.NewFromInt(price)
		total = total.Add(unit)
		items = append(items, models.OrderItem{
			ProductID:   uint(idx + 1),
			ProductName: fmt.Sprintf("product-%d", idx+1),
			UnitPrice:   models.NewMoneyFromDecimal(unit),
			Quantity:    1,
			TotalPrice:  models.NewMoneyFromDecimal(unit),
			IsActive:    true,
		})
	}
	order := &models.Order{
		OrderNo:        orderNo,
		UserID:         userID,
		OriginalAmount: models.NewMoneyFromDecimal(total),
		TotalAmount:    models.NewMoneyFromDecimal(total),
		IsActive:       true,
	}
	if err := repo.Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestOrderRepositoryItemsKeepInsertionOrder(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	created := createRepoTestOrder(t, repo, "DB0001", 7, 30, 10, 20)

	got, err := repo.GetByIDAndUser(created.ID, 7)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got == nil || len(got.Items) != 3 {
		t.Fatalf("expected order with 3 items, got %+v", got)
	}
	for i := 1; i < len(got.Items); i++ {
		if got.Items[i-1].ID >= got.Items[i].ID {
			t.Fatalf("items should be ordered by id asc: %d then %d", got.Items[i-1].ID, got.Items[i].ID)
		}
	}
	if !got.Items[0].UnitPrice.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("first item price want 30 got %s", got.Items[0].UnitPrice.String())
	}
}

func TestOrderRepositoryScopedToUser(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	created := createRepoTestOrder(t, repo, "DB0002", 7, 10)

	got, err := repo.GetByIDAndUser(created.ID, 8)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got != nil {
		t.Fatalf("order of another user should not be visible")
	}
}

func TestOrderRepositorySettleWithVersion(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	created := createRepoTestOrder(t, repo, "DB0003", 7, 10, 20)

	now := time.Now()
	rows, err := repo.SettleWithVersion(created.ID, created.Version, map[string]interface{}{
		"total_amount": models.NewMoneyFromDecimal(decimal.NewFromInt(25)),
		"settled_at":   now,
	})
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if rows != 1 {
		t.Fatalf("rows affected want 1 got %d", rows)
	}
	if err := repo.DeactivateItems(created.ID); err != nil {
		t.Fatalf("deactivate items failed: %v", err)
	}

	rows, err = repo.SettleWithVersion(created.ID, created.Version, map[string]interface{}{"settled_at": now})
	if err != nil {
		t.Fatalf("second settle failed: %v", err)
	}
	if rows != 0 {
		t.Fatalf("stale version should not update, rows=%d", rows)
	}

	var reloaded models.Order
	if err := db.Preload("Items").First(&reloaded, created.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.IsActive {
		t.Fatalf("order should be inactive after settle")
	}
	if reloaded.Version != created.Version+1 {
		t.Fatalf("version want %d got %d", created.Version+1, reloaded.Version)
	}
	if !reloaded.TotalAmount.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("total amount want 25 got %s", reloaded.TotalAmount.String())
	}
	for _, item := range reloaded.Items {
		if item.IsActive {
			t.Fatalf("order item %d should be inactive", item.ID)
		}
	}
}

func TestOrderRepositoryListByUser(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	createRepoTestOrder(t, repo, "DB0010", 7, 10)
	second := createRepoTestOrder(t, repo, "DB0011", 7, 20)
	createRepoTestOrder(t, repo, "DB0012", 9, 30)

	if _, err := repo.SettleWithVersion(second.ID, second.Version, nil); err != nil {
		t.Fatalf("settle failed: %v", err)
	}

	orders, total, err := repo.ListByUser(OrderListFilter{UserID: 7, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(orders) != 2 {
		t.Fatalf("want 2 orders got total=%d len=%d", total, len(orders))
	}
	if orders[0].OrderNo != "DB0011" {
		t.Fatalf("newest order should come first, got %s", orders[0].OrderNo)
	}

	active := true
	orders, total, err = repo.ListByUser(OrderListFilter{UserID: 7, IsActive: &active})
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if total != 1 || orders[0].OrderNo != "DB0010" {
		t.Fatalf("active filter mismatch: total=%d orders=%v", total, orders)
	}
}
