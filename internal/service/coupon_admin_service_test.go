package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/digibuy-next/internal/models"
	"github.com/digibuy-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCouponServiceTest(t *testing.T) (*CouponAdminService, *CouponValidator, *gorm.DB, time.Time) {
	t.Helper()
	dsn := fmt.Sprintf("file:coupon_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Coupon{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	repo := repository.NewCouponRepository(db)
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	admin := NewCouponAdminService(repo)
	admin.now = func() time.Time { return now }
	validator := NewCouponValidator(repo)
	validator.now = func() time.Time { return now }
	return admin, validator, db, now
}

func TestCouponValidatorResolve(t *testing.T) {
	admin, validator, db, now := setupCouponServiceTest(t)
	valid, err := admin.Create(CreateCouponInput{Code: "VALID", Amount: money("12.5"), ExpiresAt: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	if err := db.Create(&models.Coupon{Code: "USED", Amount: money("5"), ExpiresAt: now.Add(time.Hour), IsUsed: true}).Error; err != nil {
		t.Fatalf("create used coupon failed: %v", err)
	}
	if err := db.Create(&models.Coupon{Code: "EXPIRED", Amount: money("5"), ExpiresAt: now.Add(-time.Minute)}).Error; err != nil {
		t.Fatalf("create expired coupon failed: %v", err)
	}
	if err := db.Create(&models.Coupon{Code: "EDGE", Amount: money("5"), ExpiresAt: now}).Error; err != nil {
		t.Fatalf("create edge coupon failed: %v", err)
	}

	applied, err := validator.Resolve(context.Background(), "   ")
	if err != nil || applied != nil {
		t.Fatalf("blank code means no coupon, got %+v %v", applied, err)
	}

	applied, err = validator.Resolve(context.Background(), " VALID ")
	if err != nil {
		t.Fatalf("resolve valid coupon failed: %v", err)
	}
	if applied.ID != valid.ID || !applied.Amount.Equal(dec("12.5")) {
		t.Fatalf("unexpected applied coupon: %+v", applied)
	}

	// 到期时刻本身仍有效
	if _, err := validator.Resolve(context.Background(), "EDGE"); err != nil {
		t.Fatalf("coupon expiring now should be valid: %v", err)
	}

	for _, code := range []string{"MISSING", "USED", "EXPIRED"} {
		if _, err := validator.Resolve(context.Background(), code); !errors.Is(err, ErrCouponInvalidOrExpired) {
			t.Fatalf("code %s expected ErrCouponInvalidOrExpired, got %v", code, err)
		}
	}

	var reloaded models.Coupon
	if err := db.First(&reloaded, valid.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if reloaded.IsUsed {
		t.Fatalf("validation must not consume the coupon")
	}
}

func TestCouponAdminCreateValidation(t *testing.T) {
	admin, _, _, now := setupCouponServiceTest(t)
	tests := []struct {
		name  string
		input CreateCouponInput
		want  error
	}{
		{name: "empty_code", input: CreateCouponInput{Code: " ", Amount: money("5"), ExpiresAt: now.Add(time.Hour)}, want: ErrCouponInvalid},
		{name: "code_too_long", input: CreateCouponInput{Code: "ABCDEFGHIJK", Amount: money("5"), ExpiresAt: now.Add(time.Hour)}, want: ErrCouponInvalid},
		{name: "zero_amount", input: CreateCouponInput{Code: "ZERO", Amount: money("0"), ExpiresAt: now.Add(time.Hour)}, want: ErrCouponInvalid},
		{name: "past_expiry", input: CreateCouponInput{Code: "PAST", Amount: money("5"), ExpiresAt: now.Add(-time.Hour)}, want: ErrCouponInvalid},
		{name: "ok_max_length", input: CreateCouponInput{Code: "ABCDEFGHIJ", Amount: money("5"), ExpiresAt: now.Add(time.Hour)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := admin.Create(tt.input)
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("want %v got %v", tt.want, err)
			}
		})
	}

	if _, err := admin.Create(CreateCouponInput{Code: "ABCDEFGHIJ", Amount: money("1"), ExpiresAt: now.Add(time.Hour)}); !errors.Is(err, ErrCouponCodeExists) {
		t.Fatalf("duplicate code want ErrCouponCodeExists got %v", err)
	}
}

func TestCouponAdminUpdateAndDelete(t *testing.T) {
	admin, _, _, now := setupCouponServiceTest(t)
	first, err := admin.Create(CreateCouponInput{Code: "FIRST", Amount: money("5"), ExpiresAt: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	if _, err := admin.Create(CreateCouponInput{Code: "SECOND", Amount: money("5"), ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	initialVersion := first.Version
	if initialVersion != 0 {
		t.Fatalf("new coupon version want 0 got %d", initialVersion)
	}
	updated, err := admin.Update(first.ID, UpdateCouponInput{Code: "FIRST2", Amount: money("8"), ExpiresAt: now.Add(48 * time.Hour), Version: &initialVersion})
	if err != nil {
		t.Fatalf("update coupon failed: %v", err)
	}
	if updated.Code != "FIRST2" || !updated.Amount.Equal(dec("8")) || updated.Version != initialVersion+1 {
		t.Fatalf("unexpected updated coupon: %+v", updated)
	}

	// 持有初始版本 0 的客户端不能覆盖已更新的记录
	if _, err := admin.Update(first.ID, UpdateCouponInput{Code: "FIRST3", Amount: money("9"), ExpiresAt: now.Add(time.Hour), Version: &initialVersion}); !errors.Is(err, ErrCouponVersionStaled) {
		t.Fatalf("stale version want ErrCouponVersionStaled got %v", err)
	}
	current, err := admin.Get(first.ID)
	if err != nil {
		t.Fatalf("get coupon failed: %v", err)
	}
	if current.Code != "FIRST2" || !current.Amount.Equal(dec("8")) {
		t.Fatalf("stale update must not overwrite: %+v", current)
	}
	currentVersion := current.Version
	if _, err := admin.Update(first.ID, UpdateCouponInput{Code: "FIRST2", Amount: money("7"), ExpiresAt: now.Add(48 * time.Hour), Version: &currentVersion}); err != nil {
		t.Fatalf("update with current version failed: %v", err)
	}
	if _, err := admin.Update(first.ID, UpdateCouponInput{Code: "SECOND", Amount: money("8"), ExpiresAt: now.Add(time.Hour)}); !errors.Is(err, ErrCouponCodeExists) {
		t.Fatalf("duplicate code want ErrCouponCodeExists got %v", err)
	}
	if _, err := admin.Update(999, UpdateCouponInput{Code: "X", Amount: money("1"), ExpiresAt: now.Add(time.Hour)}); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("missing coupon want ErrCouponNotFound got %v", err)
	}

	if err := admin.Delete(first.ID); err != nil {
		t.Fatalf("delete coupon failed: %v", err)
	}
	got, err := admin.Get(first.ID)
	if err != nil {
		t.Fatalf("get coupon failed: %v", err)
	}
	if !got.IsUsed {
		t.Fatalf("deleted coupon should be marked used")
	}
	if err := admin.Delete(first.ID); err != nil {
		t.Fatalf("delete should be idempotent: %v", err)
	}
	if _, err := admin.Update(first.ID, UpdateCouponInput{Code: "FIRST4", Amount: money("1"), ExpiresAt: now.Add(time.Hour)}); !errors.Is(err, ErrCouponAlreadyUsed) {
		t.Fatalf("used coupon want ErrCouponAlreadyUsed got %v", err)
	}

	used := true
	coupons, total, err := admin.List(repository.CouponListFilter{IsUsed: &used, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list coupons failed: %v", err)
	}
	if total != 1 || len(coupons) != 1 || coupons[0].ID != first.ID {
		t.Fatalf("unexpected used coupons: total=%d %+v", total, coupons)
	}
	coupons, total, err = admin.List(repository.CouponListFilter{Code: "SEC", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("search coupons failed: %v", err)
	}
	if total != 1 || coupons[0].Code != "SECOND" {
		t.Fatalf("unexpected search result: total=%d %+v", total, coupons)
	}
}
