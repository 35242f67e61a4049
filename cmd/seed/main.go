package main

import (
	"time"

	"github.com/digibuy-next/internal/authz"
	"github.com/digibuy-next/internal/config"
	"github.com/digibuy-next/internal/logger"
	"github.com/digibuy-next/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const demoPassword = "digibuy123"

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash demo password: %v", err)
	}
	passwordHash := string(hash)

	// 管理员与角色
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		stdLog.Fatalf("Failed to init authz: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		stdLog.Fatalf("Failed to bootstrap roles: %v", err)
	}
	admins := []struct {
		admin models.Admin
		roles []string
	}{
		{admin: models.Admin{Username: "coupon-ops", PasswordHash: passwordHash}, roles: []string{authz.RoleCouponOperator}},
		{admin: models.Admin{Username: "auditor", PasswordHash: passwordHash}, roles: []string{authz.RoleReadonlyAuditor}},
	}
	for _, item := range admins {
		admin := item.admin
		var existing models.Admin
		if err := models.DB.Where("username = ?", admin.Username).First(&existing).Error; err == nil {
			stdLog.Printf("Admin already exists: %s", admin.Username)
			admin = existing
		} else if err := models.DB.Create(&admin).Error; err != nil {
			stdLog.Printf("Failed to create admin %s: %v", admin.Username, err)
			continue
		} else {
			stdLog.Printf("Created admin: %s", admin.Username)
		}
		if err := authzService.SetAdminRoles(admin.ID, item.roles); err != nil {
			stdLog.Printf("Failed to assign roles for %s: %v", admin.Username, err)
		}
	}

	// 用户（钱包与积分余额）
	users := []models.User{
		{Email: "alice@example.com", DisplayName: "Alice", Status: "active", WalletBalance: money("20.00"), PointsBalance: money("0")},
		{Email: "bob@example.com", DisplayName: "Bob", Status: "active", WalletBalance: money("0"), PointsBalance: money("30.00")},
		{Email: "carol@example.com", DisplayName: "Carol", Status: "active", WalletBalance: money("500.00"), PointsBalance: money("150.00")},
	}
	for _, user := range users {
		user.PasswordHash = passwordHash
		var existing models.User
		if err := models.DB.Where("email = ?", user.Email).First(&existing).Error; err == nil {
			stdLog.Printf("User already exists: %s", user.Email)
			continue
		}
		if err := models.DB.Create(&user).Error; err != nil {
			stdLog.Printf("Failed to create user %s: %v", user.Email, err)
			continue
		}
		stdLog.Printf("Created user: %s", user.Email)
	}

	// 商品（含返积分规则）
	products := []models.Product{
		{Name: "E-Book: Go in Practice", Description: "Digital edition, instant download", Price: money("25.00"), RewardPercentage: money("10"), MaxRewardPoints: money("5"), IsActive: true},
		{Name: "Stock Photo Pack", Description: "120 royalty-free photos", Price: money("100.00"), RewardPercentage: money("10"), MaxRewardPoints: money("5"), IsActive: true},
		{Name: "Font License", Description: "Desktop license for one seat", Price: money("15.00"), RewardPercentage: money("20"), MaxRewardPoints: money("100"), IsActive: true},
		{Name: "Legacy Theme", Description: "Discontinued", Price: money("9.99"), IsActive: false},
	}
	for _, product := range products {
		var existing models.Product
		if err := models.DB.Where("name = ?", product.Name).First(&existing).Error; err == nil {
			stdLog.Printf("Product already exists: %s", product.Name)
			continue
		}
		if err := models.DB.Create(&product).Error; err != nil {
			stdLog.Printf("Failed to create product %s: %v", product.Name, err)
			continue
		}
		stdLog.Printf("Created product: %s", product.Name)
	}

	// 优惠券
	now := time.Now()
	coupons := []models.Coupon{
		{Code: "SAVE20", Amount: money("20.00"), ExpiresAt: now.AddDate(0, 3, 0)},
		{Code: "BIG40", Amount: money("40.00"), ExpiresAt: now.AddDate(0, 3, 0)},
		{Code: "OLD10", Amount: money("10.00"), ExpiresAt: now.AddDate(0, 0, -1)},
	}
	for _, coupon := range coupons {
		var existing models.Coupon
		if err := models.DB.Where("code = ?", coupon.Code).First(&existing).Error; err == nil {
			stdLog.Printf("Coupon already exists: %s", coupon.Code)
			continue
		}
		if err := models.DB.Create(&coupon).Error; err != nil {
			stdLog.Printf("Failed to create coupon %s: %v", coupon.Code, err)
			continue
		}
		stdLog.Printf("Created coupon: %s", coupon.Code)
	}

	stdLog.Printf("Seed completed, demo password: %s", demoPassword)
}

func money(raw string) models.Money {
	return models.NewMoneyFromDecimal(decimal.RequireFromString(raw))
}
