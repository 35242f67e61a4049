package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/digibuy-next/internal/config"
	"github.com/digibuy-next/internal/logger"
	"github.com/digibuy-next/internal/provider"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.L = zap.NewNop()
	cfg := &config.Config{
		Server:  config.ServerConfig{Mode: "debug"},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	return SetupRouter(cfg, &provider.Container{Config: cfg})
}

func TestHealthzWithoutRedis(t *testing.T) {
	r := setupTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body failed: %v", err)
	}
	if body["status"] != "ok" || body["redis"] != "disabled" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestMetricsEndpointMounted(t *testing.T) {
	r := setupTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status want 200 got %d", w.Code)
	}
}

func TestBuildAdminPermissionCatalog(t *testing.T) {
	r := setupTestRouter(t)
	items := buildAdminPermissionCatalog(r)

	index := make(map[string]adminPermission, len(items))
	for _, item := range items {
		index[item.Permission] = item
	}
	for _, want := range []string{
		"POST:/admin/coupons",
		"PUT:/admin/coupons/:id",
		"GET:/admin/authz/me",
		"PUT:/admin/authz/admins/:id/roles",
	} {
		if _, ok := index[want]; !ok {
			t.Fatalf("catalog missing %s: %+v", want, items)
		}
	}
	if _, ok := index["POST:/admin/login"]; ok {
		t.Fatalf("login route must not be part of the catalog")
	}
	if _, ok := index["POST:/orders/:id/checkout"]; ok {
		t.Fatalf("user routes must not be part of the catalog")
	}
	if got := index["DELETE:/admin/coupons/:id"].Module; got != "coupons" {
		t.Fatalf("module want coupons got %s", got)
	}
	if got := index["GET:/admin/authz/me"].Module; got != "authz" {
		t.Fatalf("module want authz got %s", got)
	}
	for i := 1; i < len(items); i++ {
		if items[i-1].Module > items[i].Module {
			t.Fatalf("catalog not sorted by module: %+v", items)
		}
	}
}
