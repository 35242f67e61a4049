package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/digibuy-next/internal/http/response"
	"github.com/digibuy-next/internal/repository"
	"github.com/digibuy-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListProducts 上架商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	products, total, err := h.AccountService.ListProducts(c.Query("search"), page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.account_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(page, pageSize, total))
}

// ListBalanceTransactions 当前用户的钱包与积分流水
func (h *Handler) ListBalanceTransactions(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.BalanceTransactionListFilter{
		Page:      page,
		PageSize:  pageSize,
		UserID:    uid,
		Asset:     strings.TrimSpace(c.Query("asset")),
		Direction: strings.TrimSpace(c.Query("direction")),
	}
	if raw := strings.TrimSpace(c.Query("order_id")); raw != "" {
		orderID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.order_id_invalid", nil)
			return
		}
		filter.OrderID = uint(orderID)
	}

	txns, total, err := h.AccountService.ListBalanceTransactions(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.account_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, txns, response.BuildPagination(page, pageSize, total))
}

// ListOrderPayments 订单支付记录
func (h *Handler) ListOrderPayments(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "error.order_id_invalid", nil)
		return
	}

	payments, err := h.AccountService.ListOrderPayments(uint(orderID), uid)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.account_fetch_failed", err)
		return
	}
	response.Success(c, payments)
}
