package constants

// 支付状态常量
const (
	PaymentStatusSuccess = "success"
	PaymentStatusVoided  = "voided"
)

// 支付方式常量
const (
	PaymentProviderWallet = "wallet"
	PaymentProviderCard   = "card"
)

// 余额资产类型常量
const (
	BalanceAssetWallet = "wallet"
	BalanceAssetPoints = "points"
)

// 余额流水类型常量
const (
	BalanceTxnTypeOrderPay     = "order_pay"
	BalanceTxnTypePointsRedeem = "points_redeem"
	BalanceTxnTypePointsEarn   = "points_earn"
)

// 余额流水方向常量
const (
	BalanceTxnDirectionIn  = "in"
	BalanceTxnDirectionOut = "out"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 积分分配顺序常量
const (
	PointsAllocationInsertion = "insertion"
	PointsAllocationPriceDesc = "price_desc"
	PointsAllocationPriceAsc  = "price_asc"
)

// 通知投递方式常量
const (
	NotifyDriverAsynq    = "asynq"
	NotifyDriverRabbitMQ = "rabbitmq"
	NotifyDriverNone     = "none"
)

// 优惠码长度上限
const CouponCodeMaxLength = 10
