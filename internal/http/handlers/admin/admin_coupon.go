package admin

import (
	"errors"
	"strconv"
	"strings"

	handlershared "github.com/digibuy-next/internal/http/handlers/shared"
	"github.com/digibuy-next/internal/http/response"
	"github.com/digibuy-next/internal/models"
	"github.com/digibuy-next/internal/repository"
	"github.com/digibuy-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CouponRequest 创建/更新优惠券请求
type CouponRequest struct {
	Code      string       `json:"code" binding:"required"`
	Amount    models.Money `json:"amount"`
	ExpiresAt string       `json:"expires_at" binding:"required"`
	Version   *uint        `json:"version"`
}

// CreateCoupon 创建优惠券
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	expiresAt, err := handlershared.ParseTime(req.ExpiresAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	coupon, err := h.CouponAdminService.Create(service.CreateCouponInput{
		Code:      req.Code,
		Amount:    req.Amount,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponInvalid):
			respondError(c, response.CodeBadRequest, "error.coupon_invalid", nil)
		case errors.Is(err, service.ErrCouponCodeExists):
			respondError(c, response.CodeConflict, "error.coupon_code_exists", nil)
		default:
			respondError(c, response.CodeInternal, "error.coupon_create_failed", err)
		}
		return
	}

	response.Success(c, coupon)
}

// GetAdminCoupons 优惠券列表
func (h *Handler) GetAdminCoupons(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.CouponListFilter{
		Code:     strings.TrimSpace(c.Query("code")),
		Page:     page,
		PageSize: pageSize,
	}
	if raw := strings.TrimSpace(c.Query("is_used")); raw != "" {
		used, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		filter.IsUsed = &used
	}

	coupons, total, err := h.CouponAdminService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.coupon_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, coupons, response.BuildPagination(page, pageSize, total))
}

// GetAdminCoupon 优惠券详情
func (h *Handler) GetAdminCoupon(c *gin.Context) {
	couponID, ok := parseCouponID(c)
	if !ok {
		return
	}
	coupon, err := h.CouponAdminService.Get(couponID)
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			respondError(c, response.CodeNotFound, "error.coupon_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.coupon_fetch_failed", err)
		return
	}
	response.Success(c, coupon)
}

// UpdateCoupon 更新优惠券
func (h *Handler) UpdateCoupon(c *gin.Context) {
	couponID, ok := parseCouponID(c)
	if !ok {
		return
	}
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	expiresAt, err := handlershared.ParseTime(req.ExpiresAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	coupon, err := h.CouponAdminService.Update(couponID, service.UpdateCouponInput{
		Code:      req.Code,
		Amount:    req.Amount,
		ExpiresAt: expiresAt,
		Version:   req.Version,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			respondError(c, response.CodeNotFound, "error.coupon_not_found", nil)
		case errors.Is(err, service.ErrCouponInvalid):
			respondError(c, response.CodeBadRequest, "error.coupon_invalid", nil)
		case errors.Is(err, service.ErrCouponCodeExists):
			respondError(c, response.CodeConflict, "error.coupon_code_exists", nil)
		case errors.Is(err, service.ErrCouponAlreadyUsed):
			respondError(c, response.CodeConflict, "error.coupon_already_used", nil)
		case errors.Is(err, service.ErrCouponVersionStaled):
			respondError(c, response.CodeConflict, "error.coupon_version_staled", nil)
		default:
			respondError(c, response.CodeInternal, "error.coupon_update_failed", err)
		}
		return
	}

	response.Success(c, coupon)
}

// DeleteCoupon 作废优惠券
func (h *Handler) DeleteCoupon(c *gin.Context) {
	couponID, ok := parseCouponID(c)
	if !ok {
		return
	}
	if err := h.CouponAdminService.Delete(couponID); err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			respondError(c, response.CodeNotFound, "error.coupon_not_found", nil)
		case errors.Is(err, service.ErrCouponVersionStaled):
			respondError(c, response.CodeConflict, "error.coupon_version_staled", nil)
		default:
			respondError(c, response.CodeInternal, "error.coupon_delete_failed", err)
		}
		return
	}
	response.Success(c, nil)
}

func parseCouponID(c *gin.Context) (uint, bool) {
	couponID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || couponID == 0 {
		respondError(c, response.CodeBadRequest, "error.coupon_id_invalid", nil)
		return 0, false
	}
	return uint(couponID), true
}
