package router

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/digibuy-next/internal/authz"
	"github.com/digibuy-next/internal/config"
	"github.com/digibuy-next/internal/constants"
	"github.com/digibuy-next/internal/http/response"
	"github.com/digibuy-next/internal/i18n"
	"github.com/digibuy-next/internal/logger"
	"github.com/digibuy-next/internal/repository"
	"github.com/digibuy-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDKey           = "request_id"
	requestIDHeader        = "X-Request-ID"
	userIDContextKey       = "user_id"
	userEmailContextKey    = "user_email"
	adminIDContextKey      = "admin_id"
	adminNameContextKey    = "username"
	adminIsSuperContextKey = "admin_is_super"
)

var defaultCORSHeaders = []string{
	"Content-Type",
	"Authorization",
	"Accept-Language",
	"X-Locale",
	requestIDHeader,
}

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = defaultCORSHeaders
	}
	methodsHeader := strings.Join(methods, ", ")
	headersHeader := strings.Join(headers, ", ")

	return func(c *gin.Context) {
		h := c.Writer.Header()
		if allowed := resolveAllowedOrigin(c.GetHeader("Origin"), origins, cfg.AllowCredentials); allowed != "" {
			h.Set("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				h.Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		h.Set("Access-Control-Allow-Headers", headersHeader)
		h.Set("Access-Control-Allow-Methods", methodsHeader)
		h.Set("Access-Control-Expose-Headers", requestIDHeader)
		if cfg.MaxAge > 0 {
			h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// resolveAllowedOrigin 通配符在携带凭证时回显请求来源
func resolveAllowedOrigin(origin string, allowed []string, allowCredentials bool) string {
	for _, item := range allowed {
		if item != "*" {
			continue
		}
		if allowCredentials && origin != "" {
			return origin
		}
		return "*"
	}
	if origin == "" {
		return ""
	}
	for _, item := range allowed {
		if strings.EqualFold(item, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件，透传客户端的 X-Request-ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志，附带已认证的用户或管理员 ID
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.L()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("client_ip", c.ClientIP()),
		}
		if userID := c.GetUint(userIDContextKey); userID != 0 {
			fields = append(fields, zap.Uint("user_id", userID))
		}
		if adminID := c.GetUint(adminIDContextKey); adminID != 0 {
			fields = append(fields, zap.Uint("admin_id", adminID))
		}
		if len(c.Errors) > 0 {
			log.Error("http_request", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		log.Info("http_request", fields...)
	}
}

// UserJWTAuthMiddleware 用户鉴权：校验用户令牌并确认账号仍处于启用状态
func UserJWTAuthMiddleware(auth *service.UserAuthService, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil || userRepo == nil {
			abortUnauthorized(c, "error.jwt_secret_missing")
			return
		}
		token, msgKey := bearerToken(c)
		if msgKey != "" {
			abortUnauthorized(c, msgKey)
			return
		}
		claims, err := auth.ParseUserJWT(token)
		if err != nil {
			abortUnauthorized(c, tokenErrorKey(err))
			return
		}
		user, err := userRepo.GetByID(claims.UserID)
		if err != nil {
			logger.Errorw("user_auth_load_failed", "user_id", claims.UserID, "error", err)
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		if user == nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		if !isActiveUserStatus(user.Status) {
			abortUnauthorized(c, "error.user_disabled")
			return
		}
		c.Set(userIDContextKey, user.ID)
		c.Set(userEmailContextKey, user.Email)
		c.Next()
	}
}

// AdminJWTAuthMiddleware 管理员鉴权
func AdminJWTAuthMiddleware(auth *service.AuthService, adminRepo repository.AdminRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil || adminRepo == nil {
			abortUnauthorized(c, "error.jwt_secret_missing")
			return
		}
		token, msgKey := bearerToken(c)
		if msgKey != "" {
			abortUnauthorized(c, msgKey)
			return
		}
		claims, err := auth.ParseJWT(token)
		if err != nil {
			abortUnauthorized(c, tokenErrorKey(err))
			return
		}
		admin, err := adminRepo.GetByID(claims.AdminID)
		if err != nil || admin == nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		c.Set(adminIDContextKey, admin.ID)
		c.Set(adminNameContextKey, admin.Username)
		c.Set(adminIsSuperContextKey, admin.IsSuper)
		c.Next()
	}
}

// AdminRBACMiddleware 管理端 RBAC，超级管理员直接放行
func AdminRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("admin_rbac_service_unavailable")
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		if c.GetBool(adminIsSuperContextKey) {
			c.Next()
			return
		}
		adminID := c.GetUint(adminIDContextKey)
		if adminID == 0 {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		resource := strings.TrimSpace(c.FullPath())
		if resource == "" {
			resource = c.Request.URL.Path
		}
		allowed, err := authzService.EnforceAdmin(adminID, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("admin_rbac_enforce_failed", "admin_id", adminID, "resource", resource, "error", err)
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		if !allowed {
			logger.Warnw("admin_rbac_permission_denied",
				"admin_id", adminID,
				"method", c.Request.Method,
				"resource", authz.NormalizeObject(resource),
			)
			response.Forbidden(c, i18n.T(i18n.ResolveLocale(c), "error.forbidden"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// bearerToken 读取 Authorization: Bearer <token>，失败时返回错误消息 key
func bearerToken(c *gin.Context) (string, string) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return "", "error.auth_header_missing"
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", "error.auth_header_invalid"
	}
	return token, ""
}

func tokenErrorKey(err error) string {
	if errors.Is(err, service.ErrJWTSecretMissing) {
		return "error.jwt_secret_missing"
	}
	return "error.token_invalid"
}

func abortUnauthorized(c *gin.Context, msgKey string) {
	response.Unauthorized(c, i18n.T(i18n.ResolveLocale(c), msgKey))
	c.Abort()
}

func isActiveUserStatus(status string) bool {
	normalized := strings.ToLower(strings.TrimSpace(status))
	return normalized == "" || normalized == constants.UserStatusActive
}
