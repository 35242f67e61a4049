package public

import (
	"context"
	"strconv"
	"time"

	"github.com/digibuy-next/internal/http/response"
	"github.com/digibuy-next/internal/payment/card"
	"github.com/digibuy-next/internal/service"

	"github.com/gin-gonic/gin"
)

// SettleOrderRequest 结算请求
type SettleOrderRequest struct {
	CouponCode string           `json:"coupon_code"`
	UsePoints  bool             `json:"use_points"`
	Card       *card.Instrument `json:"card"`
}

// SettleOrder 结算订单：优惠券、积分、钱包、银行卡依次抵扣
func (h *Handler) SettleOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "error.order_id_invalid", nil)
		return
	}

	var req SettleOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	ctx := c.Request.Context()
	if seconds := h.Config.Checkout.SettleTimeoutSeconds; seconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
		defer cancel()
	}

	result, err := h.CheckoutService.Settle(ctx, service.SettleInput{
		OrderID:    uint(orderID),
		UserID:     uid,
		CouponCode: req.CouponCode,
		UsePoints:  req.UsePoints,
		Card:       req.Card,
	})
	if err != nil {
		respondSettlementError(c, err)
		return
	}

	response.Success(c, result)
}
