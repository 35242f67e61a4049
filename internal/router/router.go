package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/digibuy-next/internal/cache"
	"github.com/digibuy-next/internal/config"
	adminhandlers "github.com/digibuy-next/internal/http/handlers/admin"
	publichandlers "github.com/digibuy-next/internal/http/handlers/public"
	"github.com/digibuy-next/internal/http/response"
	"github.com/digibuy-next/internal/logger"
	"github.com/digibuy-next/internal/metrics"
	"github.com/digibuy-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "digibuy"
	}
	var limiter Limiter
	if redisClient := cache.Client(); redisClient != nil {
		limiter = NewRedisLimiter(redisClient)
	}
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: 300,
		MaxRequests:   10,
		MessageKey:    "error.rate_limited",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: 300,
		MaxRequests:   10,
		MessageKey:    "error.rate_limited",
	}
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: cfg.Checkout.RateLimit.WindowSeconds,
		MaxRequests:   cfg.Checkout.RateLimit.MaxRequests,
		MessageKey:    "error.rate_limited",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	if cfg.Metrics.Enabled {
		r.Use(metrics.GinMiddleware(cfg.Metrics.Path))
		r.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/products", publicHandler.ListProducts)

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", RateLimitMiddleware(limiter, loginRule, KeyByIP), publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(limiter, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(c.UserAuthService, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetCurrentUser)
			user.GET("/me/balance-transactions", publicHandler.ListBalanceTransactions)
			user.POST("/orders", publicHandler.CreateOrder)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.GET("/orders/by-order-no/:order_no", publicHandler.GetOrderByOrderNo)
			user.GET("/orders/:id/payments", publicHandler.ListOrderPayments)
			user.POST("/orders/:id/checkout", RateLimitMiddleware(limiter, checkoutRule, KeyByUserID), publicHandler.SettleOrder)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(limiter, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			authorized := admin.Use(AdminJWTAuthMiddleware(c.AuthService, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				// 优惠券管理
				authorized.POST("/coupons", adminHandler.CreateCoupon)
				authorized.GET("/coupons", adminHandler.GetAdminCoupons)
				authorized.GET("/coupons/:id", adminHandler.GetAdminCoupon)
				authorized.PUT("/coupons/:id", adminHandler.UpdateCoupon)
				authorized.DELETE("/coupons/:id", adminHandler.DeleteCoupon)

				// 邮件
				authorized.POST("/email/test", adminHandler.SendTestEmail)

				// 权限管理
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
			}
		}
	}

	// 健康检查
	r.GET("/healthz", func(ctx *gin.Context) {
		status := gin.H{"status": "ok", "redis": "disabled"}
		if cache.Enabled() {
			pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
			defer cancel()
			if err := cache.Ping(pingCtx); err != nil {
				status["status"] = "degraded"
				status["redis"] = "unreachable"
			} else {
				status["redis"] = "ok"
			}
		}
		ctx.JSON(200, status)
	})

	return r
}
