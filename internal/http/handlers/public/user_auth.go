package public

import (
	"errors"
	"time"

	"github.com/digibuy-next/internal/http/response"
	"github.com/digibuy-next/internal/service"

	"github.com/gin-gonic/gin"
)

// UserLoginRequest 用户登录请求
type UserLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserRegisterRequest 用户注册请求
type UserRegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

// UserProfile 当前用户信息
type UserProfile struct {
	ID            uint       `json:"id"`
	Email         string     `json:"email"`
	DisplayName   string     `json:"display_name"`
	WalletBalance string     `json:"wallet_balance"`
	PointsBalance string     `json:"points_balance"`
	LastLoginAt   *time.Time `json:"last_login_at"`
}

// UserLogin 用户登录
func (h *Handler) UserLogin(c *gin.Context) {
	var req UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	user, token, expiresAt, err := h.UserAuthService.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeUnauthorized, "error.login_invalid", nil)
		case errors.Is(err, service.ErrUserDisabled):
			respondError(c, response.CodeUnauthorized, "error.user_disabled", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal_error", err)
		}
		return
	}

	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"user":       buildUserProfile(user.ID, user.Email, user.DisplayName, user.WalletBalance.String(), user.PointsBalance.String(), user.LastLoginAt),
	})
}

// UserRegister 用户注册
func (h *Handler) UserRegister(c *gin.Context) {
	var req UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	user, err := h.UserAuthService.RegisterUser(req.Email, req.Password, req.DisplayName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			respondError(c, response.CodeBadRequest, "error.email_invalid", nil)
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		case errors.Is(err, service.ErrEmailExists):
			respondError(c, response.CodeConflict, "error.email_exists", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal_error", err)
		}
		return
	}

	response.Success(c, buildUserProfile(user.ID, user.Email, user.DisplayName, user.WalletBalance.String(), user.PointsBalance.String(), user.LastLoginAt))
}

// GetCurrentUser 获取当前登录用户（含钱包与积分余额）
func (h *Handler) GetCurrentUser(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetUserByID(uid)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, response.CodeNotFound, "error.user_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal_error", err)
		return
	}
	response.Success(c, buildUserProfile(user.ID, user.Email, user.DisplayName, user.WalletBalance.String(), user.PointsBalance.String(), user.LastLoginAt))
}

func buildUserProfile(id uint, email, displayName, wallet, points string, lastLoginAt *time.Time) UserProfile {
	return UserProfile{
		ID:            id,
		Email:         email,
		DisplayName:   displayName,
		WalletBalance: wallet,
		PointsBalance: points,
		LastLoginAt:   lastLoginAt,
	}
}
