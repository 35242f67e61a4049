package service

import "errors"

// 结算错误
var (
	ErrOrderNotFound            = errors.New("order not found")
	ErrOrderAlreadySettled      = errors.New("order already settled")
	ErrUserNotFound             = errors.New("user not found")
	ErrCouponInvalidOrExpired   = errors.New("coupon invalid or expired")
	ErrPaymentInstrumentInvalid = errors.New("payment instrument invalid")
	ErrPaymentDeclined          = errors.New("payment declined")
	ErrConcurrencyConflict      = errors.New("concurrent modification, retry")
	ErrPersistenceFailure       = errors.New("persistence failure, retry")
	ErrSettlementTimeout        = errors.New("settlement deadline exceeded")
)

// 订单错误
var (
	ErrInvalidOrderItem     = errors.New("invalid order item")
	ErrProductNotAvailable  = errors.New("product not available")
	ErrOrderCreateFailed    = errors.New("order create failed")
	ErrOrderFetchFailed     = errors.New("order fetch failed")
	ErrInvalidOrderQuantity = errors.New("invalid order quantity")
	ErrAccountFetchFailed   = errors.New("account fetch failed")
)

// 优惠券管理错误
var (
	ErrCouponInvalid       = errors.New("coupon invalid")
	ErrCouponCodeExists    = errors.New("coupon code exists")
	ErrCouponNotFound      = errors.New("coupon not found")
	ErrCouponAlreadyUsed   = errors.New("coupon already used")
	ErrCouponUpdateFailed  = errors.New("coupon update failed")
	ErrCouponVersionStaled = errors.New("coupon modified concurrently")
)

// 认证错误
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user disabled")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid token")
	ErrJWTSecretMissing   = errors.New("jwt secret missing")
	ErrAdminNotFound      = errors.New("admin not found")
)

// 邮件错误
var (
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
	ErrInvalidEmail              = errors.New("invalid email")
)

// IsRetryableSettlementError 判断结算失败是否可由调用方重试
func IsRetryableSettlementError(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict) ||
		errors.Is(err, ErrPersistenceFailure) ||
		errors.Is(err, ErrSettlementTimeout)
}
