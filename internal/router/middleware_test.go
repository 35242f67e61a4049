package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/digibuy-next/internal/authz"
	"github.com/digibuy-next/internal/config"
	"github.com/digibuy-next/internal/constants"
	"github.com/digibuy-next/internal/i18n"
	"github.com/digibuy-next/internal/models"
	"github.com/digibuy-next/internal/repository"
	"github.com/digibuy-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type authFixture struct {
	db        *gorm.DB
	userAuth  *service.UserAuthService
	adminAuth *service.AuthService
	userRepo  *repository.GormUserRepository
	adminRepo *repository.GormAdminRepository
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func setupAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:router_auth_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Admin{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	// 两类令牌共用同一密钥，仅靠 sub 区分
	cfg := &config.Config{
		JWT:     config.JWTConfig{SecretKey: "shared-secret", ExpireHours: 1},
		UserJWT: config.JWTConfig{SecretKey: "shared-secret", ExpireHours: 1},
	}
	userRepo := repository.NewUserRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	return &authFixture{
		db:        db,
		userAuth:  service.NewUserAuthService(cfg, userRepo),
		adminAuth: service.NewAuthService(cfg, adminRepo),
		userRepo:  userRepo,
		adminRepo: adminRepo,
	}
}

func (f *authFixture) createUser(t *testing.T, email, status string) (*models.User, string) {
	t.Helper()
	user, err := f.userAuth.RegisterUser(email, "pw-123456", "")
	if err != nil {
		t.Fatalf("register user failed: %v", err)
	}
	if status != "" {
		if err := f.db.Model(&models.User{}).Where("id = ?", user.ID).Update("status", status).Error; err != nil {
			t.Fatalf("update status failed: %v", err)
		}
	}
	token, _, err := f.userAuth.GenerateUserJWT(user)
	if err != nil {
		t.Fatalf("generate user token failed: %v", err)
	}
	return user, token
}

func (f *authFixture) createAdmin(t *testing.T, username string, isSuper bool) (*models.Admin, string) {
	t.Helper()
	admin := &models.Admin{Username: username, PasswordHash: "x", IsSuper: isSuper}
	if err := f.db.Create(admin).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	token, _, err := f.adminAuth.GenerateJWT(admin)
	if err != nil {
		t.Fatalf("generate admin token failed: %v", err)
	}
	return admin, token
}

func serve(t *testing.T, r http.Handler, method, path, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body envelope
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body failed: %v (%s)", err, w.Body.String())
	}
	return w, body
}

func TestUserJWTAuthMiddleware(t *testing.T) {
	f := setupAuthFixture(t)
	active, activeToken := f.createUser(t, "active@example.com", "")
	_, disabledToken := f.createUser(t, "disabled@example.com", constants.UserStatusDisabled)
	_, adminToken := f.createAdmin(t, "root", true)

	r := gin.New()
	r.Use(UserJWTAuthMiddleware(f.userAuth, f.userRepo))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0, "data": gin.H{"user_id": c.GetUint(userIDContextKey)}})
	})

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantKey  string
	}{
		{name: "valid_token", header: "Bearer " + activeToken, wantCode: 0},
		{name: "lowercase_scheme", header: "bearer " + activeToken, wantCode: 0},
		{name: "missing_header", header: "", wantCode: 401, wantKey: "error.auth_header_missing"},
		{name: "wrong_scheme", header: "Token " + activeToken, wantCode: 401, wantKey: "error.auth_header_invalid"},
		{name: "garbage_token", header: "Bearer not-a-jwt", wantCode: 401, wantKey: "error.token_invalid"},
		{name: "admin_token", header: "Bearer " + adminToken, wantCode: 401, wantKey: "error.token_invalid"},
		{name: "disabled_user", header: "Bearer " + disabledToken, wantCode: 401, wantKey: "error.user_disabled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, body := serve(t, r, http.MethodGet, "/me", tt.header)
			if body.StatusCode != tt.wantCode {
				t.Fatalf("status_code want %d got %d (%s)", tt.wantCode, body.StatusCode, body.Msg)
			}
			if tt.wantKey != "" && body.Msg != i18n.T(i18n.DefaultLocale, tt.wantKey) {
				t.Fatalf("msg want %s got %s", tt.wantKey, body.Msg)
			}
			if tt.wantCode == 0 && !strings.Contains(string(body.Data), fmt.Sprintf(`"user_id":%d`, active.ID)) {
				t.Fatalf("user id not set in context: %s", body.Data)
			}
		})
	}
}

func TestUserJWTAuthMiddlewareDeletedUser(t *testing.T) {
	f := setupAuthFixture(t)
	user, token := f.createUser(t, "gone@example.com", "")
	if err := f.db.Delete(&models.User{}, user.ID).Error; err != nil {
		t.Fatalf("delete user failed: %v", err)
	}

	r := gin.New()
	r.Use(UserJWTAuthMiddleware(f.userAuth, f.userRepo))
	r.GET("/me", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status_code": 0}) })

	if _, body := serve(t, r, http.MethodGet, "/me", "Bearer "+token); body.StatusCode != 401 {
		t.Fatalf("deleted user want 401 got %d", body.StatusCode)
	}
}

func TestUserJWTAuthMiddlewareWithoutService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(UserJWTAuthMiddleware(nil, nil))
	r.GET("/me", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status_code": 0}) })

	_, body := serve(t, r, http.MethodGet, "/me", "Bearer x")
	if body.StatusCode != 401 || body.Msg != i18n.T(i18n.DefaultLocale, "error.jwt_secret_missing") {
		t.Fatalf("unexpected response: %+v", body)
	}
}

func TestAdminJWTAuthAndRBACMiddleware(t *testing.T) {
	f := setupAuthFixture(t)
	_, superToken := f.createAdmin(t, "root", true)
	viewer, viewerToken := f.createAdmin(t, "viewer", false)
	_, userToken := f.createUser(t, "buyer@example.com", "")

	authzService, err := authz.NewService(f.db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := authzService.GrantRolePolicy("coupon_viewer", "/admin/coupons/:id", http.MethodGet); err != nil {
		t.Fatalf("grant policy failed: %v", err)
	}
	if err := authzService.SetAdminRoles(viewer.ID, []string{"coupon_viewer"}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}

	r := gin.New()
	admin := r.Group("/api/v1/admin")
	admin.Use(AdminJWTAuthMiddleware(f.adminAuth, f.adminRepo), AdminRBACMiddleware(authzService))
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status_code": 0}) }
	admin.GET("/coupons/:id", ok)
	admin.DELETE("/coupons/:id", ok)

	tests := []struct {
		name     string
		method   string
		token    string
		wantCode int
	}{
		{name: "super_admin_bypasses_rbac", method: http.MethodDelete, token: superToken, wantCode: 0},
		{name: "viewer_allowed", method: http.MethodGet, token: viewerToken, wantCode: 0},
		{name: "viewer_forbidden", method: http.MethodDelete, token: viewerToken, wantCode: 403},
		{name: "user_token_rejected", method: http.MethodGet, token: userToken, wantCode: 401},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, body := serve(t, r, tt.method, "/api/v1/admin/coupons/7", "Bearer "+tt.token)
			if body.StatusCode != tt.wantCode {
				t.Fatalf("status_code want %d got %d (%s)", tt.wantCode, body.StatusCode, body.Msg)
			}
		})
	}
}

// countingLimiter 内存固定窗口，记录每次命中的 key
type countingLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
	keys   []string
}

func (l *countingLimiter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts == nil {
		l.counts = make(map[string]int64)
	}
	l.counts[key]++
	l.keys = append(l.keys, key)
	return l.counts[key], window, nil
}

func TestCheckoutRateLimitKeyedByUser(t *testing.T) {
	f := setupAuthFixture(t)
	first, firstToken := f.createUser(t, "first@example.com", "")
	second, secondToken := f.createUser(t, "second@example.com", "")

	limiter := &countingLimiter{}
	rule := RateLimitRule{Prefix: "digibuy:rate:checkout", WindowSeconds: 60, MaxRequests: 1}
	r := gin.New()
	r.Use(UserJWTAuthMiddleware(f.userAuth, f.userRepo))
	r.POST("/orders/:id/checkout", RateLimitMiddleware(limiter, rule, KeyByUserID), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})

	if _, body := serve(t, r, http.MethodPost, "/orders/1/checkout", "Bearer "+firstToken); body.StatusCode != 0 {
		t.Fatalf("first request want 0 got %d", body.StatusCode)
	}
	w, body := serve(t, r, http.MethodPost, "/orders/1/checkout", "Bearer "+firstToken)
	if body.StatusCode != 429 {
		t.Fatalf("second request want 429 got %d", body.StatusCode)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Fatalf("retry-after want 60 got %q", w.Header().Get("Retry-After"))
	}
	// 同一 IP 的其他用户不受影响
	if _, body := serve(t, r, http.MethodPost, "/orders/2/checkout", "Bearer "+secondToken); body.StatusCode != 0 {
		t.Fatalf("other user want 0 got %d", body.StatusCode)
	}
	// 未通过鉴权的请求不计数
	serve(t, r, http.MethodPost, "/orders/1/checkout", "")

	want := []string{
		fmt.Sprintf("digibuy:rate:checkout:user:%d", first.ID),
		fmt.Sprintf("digibuy:rate:checkout:user:%d", first.ID),
		fmt.Sprintf("digibuy:rate:checkout:user:%d", second.ID),
	}
	if strings.Join(limiter.keys, ",") != strings.Join(want, ",") {
		t.Fatalf("keys want %v got %v", want, limiter.keys)
	}
}

func TestResolveAllowedOrigin(t *testing.T) {
	tests := []struct {
		name        string
		origin      string
		allowed     []string
		credentials bool
		want        string
	}{
		{name: "wildcard", origin: "https://shop.test", allowed: []string{"*"}, want: "*"},
		{name: "wildcard_with_credentials", origin: "https://shop.test", allowed: []string{"*"}, credentials: true, want: "https://shop.test"},
		{name: "listed", origin: "https://Admin.shop.test", allowed: []string{"https://admin.shop.test"}, want: "https://Admin.shop.test"},
		{name: "not_listed", origin: "https://evil.test", allowed: []string{"https://admin.shop.test"}, want: ""},
		{name: "no_origin", origin: "", allowed: []string{"https://admin.shop.test"}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveAllowedOrigin(tt.origin, tt.allowed, tt.credentials); got != tt.want {
				t.Fatalf("origin want %q got %q", tt.want, got)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "checkout-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "checkout-42" || w.Header().Get(requestIDHeader) != "checkout-42" {
		t.Fatalf("request id should pass through, body=%s header=%s", w.Body.String(), w.Header().Get(requestIDHeader))
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", 200))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); len(got) != 36 {
		t.Fatalf("oversized request id should be replaced by uuid, got %q", got)
	}
}
