package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/digibuy-next/internal/config"
	"github.com/digibuy-next/internal/constants"
	"github.com/digibuy-next/internal/models"
	"github.com/digibuy-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthServiceTest(t *testing.T) (*UserAuthService, *AuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Admin{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	cfg := &config.Config{
		JWT:     config.JWTConfig{SecretKey: "admin-secret", ExpireHours: 2},
		UserJWT: config.JWTConfig{SecretKey: "user-secret", ExpireHours: 1},
	}
	userAuth := NewUserAuthService(cfg, repository.NewUserRepository(db))
	adminAuth := NewAuthService(cfg, repository.NewAdminRepository(db))
	return userAuth, adminAuth, db
}

func TestUserLoginIssuesToken(t *testing.T) {
	svc, _, db := setupAuthServiceTest(t)
	created, err := svc.RegisterUser(" Buyer@Example.com ", "s3cret!", "")
	if err != nil {
		t.Fatalf("register user failed: %v", err)
	}
	if created.Email != "buyer@example.com" || created.DisplayName != "buyer" {
		t.Fatalf("unexpected user: %+v", created)
	}

	user, token, expiresAt, err := svc.Login("BUYER@example.com", "s3cret!")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.ID != created.ID || token == "" || !expiresAt.After(time.Now()) {
		t.Fatalf("unexpected login result: user=%+v token=%q exp=%v", user, token, expiresAt)
	}
	claims, err := svc.ParseUserJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != created.ID || claims.Email != "buyer@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	var reloaded models.User
	if err := db.First(&reloaded, created.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.LastLoginAt == nil {
		t.Fatalf("last login should be recorded")
	}

	if _, _, _, err := svc.Login("buyer@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password want ErrInvalidCredentials got %v", err)
	}
	if _, _, _, err := svc.Login("nobody@example.com", "s3cret!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user want ErrInvalidCredentials got %v", err)
	}
	if _, _, _, err := svc.Login("not-an-email", "s3cret!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("invalid email want ErrInvalidCredentials got %v", err)
	}
}

func TestUserLoginRejectsDisabledUser(t *testing.T) {
	svc, _, db := setupAuthServiceTest(t)
	user, err := svc.RegisterUser("blocked@example.com", "pw", "Blocked")
	if err != nil {
		t.Fatalf("register user failed: %v", err)
	}
	if err := db.Model(user).Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}
	if _, _, _, err := svc.Login("blocked@example.com", "pw"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("disabled user want ErrUserDisabled got %v", err)
	}
}

func TestParseUserJWTRejectsForeignTokens(t *testing.T) {
	userAuth, adminAuth, db := setupAuthServiceTest(t)
	hash, err := hashPassword("admin-pw")
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	admin := &models.Admin{Username: "root", PasswordHash: hash, IsSuper: true}
	if err := db.Create(admin).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	_, adminToken, _, err := adminAuth.Login("root", "admin-pw")
	if err != nil {
		t.Fatalf("admin login failed: %v", err)
	}
	claims, err := adminAuth.ParseJWT(adminToken)
	if err != nil || claims.AdminID != admin.ID {
		t.Fatalf("parse admin token failed: %+v %v", claims, err)
	}

	// 管理员令牌使用不同密钥签发，不能作为用户令牌
	if _, err := userAuth.ParseUserJWT(adminToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("admin token should be rejected as user token, got %v", err)
	}
	if _, err := adminAuth.ParseJWT("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token want ErrInvalidToken got %v", err)
	}
	if _, _, _, err := adminAuth.Login("root", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong admin password want ErrInvalidCredentials got %v", err)
	}
}

func TestRegisterUserRejectsDuplicateEmail(t *testing.T) {
	svc, _, _ := setupAuthServiceTest(t)
	if _, err := svc.RegisterUser("dup@example.com", "pw", "Dup"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.RegisterUser(" DUP@example.com", "pw", ""); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("want ErrEmailExists got %v", err)
	}
	if _, err := svc.RegisterUser("not-an-email", "pw", ""); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("want ErrInvalidEmail got %v", err)
	}
}

func TestTokenSubjectSeparatesAdminAndUser(t *testing.T) {
	cfg := &config.Config{
		JWT:     config.JWTConfig{SecretKey: "same-secret", ExpireHours: 1},
		UserJWT: config.JWTConfig{SecretKey: "same-secret", ExpireHours: 1},
	}
	userAuth := NewUserAuthService(cfg, nil)
	adminAuth := NewAuthService(cfg, nil)

	userToken, _, err := userAuth.GenerateUserJWT(&models.User{ID: 7, Email: "u@example.com"})
	if err != nil {
		t.Fatalf("generate user token failed: %v", err)
	}
	adminToken, _, err := adminAuth.GenerateJWT(&models.Admin{ID: 7, Username: "root"})
	if err != nil {
		t.Fatalf("generate admin token failed: %v", err)
	}
	if _, err := userAuth.ParseUserJWT(adminToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("admin token as user token want ErrInvalidToken got %v", err)
	}
	if _, err := adminAuth.ParseJWT(userToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("user token as admin token want ErrInvalidToken got %v", err)
	}
	if claims, err := userAuth.ParseUserJWT(userToken); err != nil || claims.UserID != 7 {
		t.Fatalf("parse user token failed: %+v %v", claims, err)
	}

	empty := NewUserAuthService(&config.Config{}, nil)
	if _, err := empty.ParseUserJWT(userToken); !errors.Is(err, ErrJWTSecretMissing) {
		t.Fatalf("missing secret want ErrJWTSecretMissing got %v", err)
	}
}
