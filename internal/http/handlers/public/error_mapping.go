package public

import (
	"errors"

	"github.com/digibuy-next/internal/http/response"
	"github.com/digibuy-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var orderCreateErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, key: "error.order_item_invalid"},
	{target: service.ErrInvalidOrderQuantity, code: response.CodeBadRequest, key: "error.order_quantity_invalid"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, key: "error.product_not_available"},
	{target: service.ErrUserNotFound, code: response.CodeUnauthorized, key: "error.user_not_found"},
}

// settlementErrorRules 结算失败映射：冲突类可重试，拒付与卡信息错误需用户处理
var settlementErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrOrderAlreadySettled, code: response.CodeConflict, key: "error.order_already_settled"},
	{target: service.ErrUserNotFound, code: response.CodeNotFound, key: "error.user_not_found"},
	{target: service.ErrCouponInvalidOrExpired, code: response.CodeUnprocessable, key: "error.coupon_invalid_or_expired"},
	{target: service.ErrPaymentInstrumentInvalid, code: response.CodeUnprocessable, key: "error.payment_instrument_invalid"},
	{target: service.ErrPaymentDeclined, code: response.CodePaymentRequired, key: "error.payment_declined"},
	{target: service.ErrConcurrencyConflict, code: response.CodeConflict, key: "error.concurrency_conflict"},
	{target: service.ErrSettlementTimeout, code: response.CodeTimeout, key: "error.settlement_timeout"},
	{target: service.ErrPersistenceFailure, code: response.CodeUnavailable, key: "error.persistence_failure"},
}

func respondSettlementError(c *gin.Context, err error) {
	// 持久化失败需要记录原始错误
	if errors.Is(err, service.ErrPersistenceFailure) {
		respondError(c, response.CodeUnavailable, "error.persistence_failure", err)
		return
	}
	respondWithMappedError(c, err, settlementErrorRules, response.CodeInternal, "error.internal_error")
}
