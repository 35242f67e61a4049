//go:build integration
// +build integration

package repository

import (
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/digibuy-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	tables := models.AllModels()
	_ = db.Migrator().DropTable(tables...)
	if err := db.AutoMigrate(tables...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(tables...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresProductSearchUsesILike(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewProductRepository(db)

	product := &models.Product{
		Name:        "Rocket Booster Pack",
		Description: "digital add-on",
		Price:       models.NewMoneyFromDecimal(decimal.NewFromInt(99)),
		IsActive:    true,
	}
	if err := repo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	rows, total, err := repo.List(ProductListFilter{Page: 1, Search: "booster", OnlyActive: true})
	if err != nil {
		t.Fatalf("product search failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("product search want 1 got total=%d len=%d", total, len(rows))
	}
}

func TestPostgresCouponRedeemedOnceUnderContention(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewCouponRepository(db)

	coupon := &models.Coupon{
		Code:      "RUSH",
		Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := repo.Create(coupon); err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				affected, err := repo.WithTx(tx).MarkUsedWithVersion(coupon.ID, coupon.Version, time.Now())
				if err != nil {
					return err
				}
				if affected == 0 {
					return ErrStaleVersion
				}
				return nil
			})
			if err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			} else if !errors.Is(err, ErrStaleVersion) {
				t.Errorf("unexpected redeem error: %v", err)
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("coupon should be redeemed exactly once, got %d", winners)
	}
	got, err := repo.GetByID(coupon.ID)
	if err != nil || got == nil || !got.IsUsed {
		t.Fatalf("coupon should be marked used: %+v err=%v", got, err)
	}
}

func TestPostgresUserRowLockSerializesBalanceUpdates(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewUserRepository(db)

	user := &models.User{
		Email:         "pg_lock@example.com",
		PasswordHash:  "hash",
		WalletBalance: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		PointsBalance: models.ZeroMoney(),
	}
	if err := repo.Create(user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	const workers = 5
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				txRepo := repo.WithTx(tx)
				locked, err := txRepo.GetByIDForUpdate(user.ID)
				if err != nil {
					return err
				}
				wallet := models.NewMoneyFromDecimal(locked.WalletBalance.Sub(decimal.NewFromInt(10)))
				affected, err := txRepo.UpdateBalancesWithVersion(locked.ID, locked.Version, wallet, locked.PointsBalance)
				if err != nil {
					return err
				}
				if affected != 1 {
					return ErrStaleVersion
				}
				return nil
			})
			if err != nil {
				t.Errorf("locked update failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := repo.GetByID(user.ID)
	if err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if !got.WalletBalance.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("wallet want 50 got %s", got.WalletBalance)
	}
	if got.Version != workers {
		t.Fatalf("version want %d got %d", workers, got.Version)
	}
}

func TestPostgresUniqueViolationDetected(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewOrderRepository(db)

	first := &models.Order{OrderNo: "DB26101800000001", UserID: 1, IsActive: true}
	if err := repo.Create(first, nil); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	dup := &models.Order{OrderNo: first.OrderNo, UserID: 2, IsActive: true}
	err := repo.Create(dup, nil)
	if !IsUniqueViolation(err) {
		t.Fatalf("duplicate order_no should be a unique violation, got %v", err)
	}
}
