package i18n

var messages = map[string]map[string]string{
	LocaleZH: {
		"error.bad_request":                "请求参数错误",
		"error.unauthorized":               "未登录或登录已过期",
		"error.forbidden":                  "无权限访问",
		"error.not_found":                  "资源不存在",
		"error.internal_error":             "服务器内部错误",
		"error.too_many_requests":          "请求过于频繁，请稍后再试",
		"error.jwt_secret_missing":         "服务端鉴权配置缺失",
		"error.auth_header_missing":        "缺少 Authorization 请求头",
		"error.auth_header_invalid":        "Authorization 格式错误",
		"error.rate_limit_unavailable":     "限流服务暂不可用",
		"error.rate_limited":               "请求过于频繁，请 %d 秒后再试",
		"error.login_invalid":              "邮箱或密码错误",
		"error.admin_login_invalid":        "用户名或密码错误",
		"error.user_disabled":              "账号已被禁用",
		"error.token_invalid":              "登录凭证无效",
		"error.user_id_invalid":            "用户ID无效",
		"error.user_id_type_invalid":       "用户ID类型错误",
		"error.admin_id_invalid":           "管理员ID无效",
		"error.admin_id_type_invalid":      "管理员ID类型错误",
		"error.user_not_found":             "用户不存在",
		"error.order_id_invalid":           "订单ID无效",
		"error.order_not_found":            "订单不存在",
		"error.order_already_settled":      "订单已结算",
		"error.order_item_invalid":         "订单商品无效",
		"error.order_quantity_invalid":     "购买数量无效",
		"error.product_not_available":      "商品不可购买",
		"error.order_create_failed":        "创建订单失败",
		"error.order_fetch_failed":         "获取订单失败",
		"error.coupon_invalid_or_expired":  "优惠券无效或已过期",
		"error.payment_instrument_invalid": "银行卡信息无效",
		"error.payment_declined":           "银行卡支付被拒绝",
		"error.concurrency_conflict":       "订单正在处理中，请稍后重试",
		"error.persistence_failure":        "结算暂时失败，请重试",
		"error.settlement_timeout":         "结算超时，请重试",
		"error.coupon_invalid":             "优惠券参数无效",
		"error.coupon_code_exists":         "优惠码已存在",
		"error.coupon_not_found":           "优惠券不存在",
		"error.coupon_already_used":        "优惠券已使用，无法修改",
		"error.coupon_version_staled":      "优惠券已被修改，请刷新后重试",
		"error.coupon_id_invalid":          "优惠券ID无效",
		"error.coupon_create_failed":       "创建优惠券失败",
		"error.coupon_update_failed":       "更新优惠券失败",
		"error.coupon_delete_failed":       "删除优惠券失败",
		"error.coupon_fetch_failed":        "获取优惠券失败",
		"error.account_fetch_failed":       "获取账户信息失败",
		"error.email_exists":               "邮箱已注册",
		"error.email_invalid":              "邮箱格式错误",
		"error.email_disabled":             "邮件服务未启用",
		"error.email_send_failed":          "邮件发送失败",
		"email.settlement.subject":         "订单 %s 支付成功",
		"email.settlement.body":            "您的订单已完成结算。\n\n订单号：%s\n应付金额：%s\n优惠抵扣：%s\n积分抵扣：%s\n钱包支付：%s\n银行卡支付：%s\n本单获得积分：%s",
	},
	LocaleTW: {
		"error.bad_request":                "請求參數錯誤",
		"error.unauthorized":               "未登入或登入已過期",
		"error.forbidden":                  "無權限訪問",
		"error.not_found":                  "資源不存在",
		"error.internal_error":             "伺服器內部錯誤",
		"error.too_many_requests":          "請求過於頻繁，請稍後再試",
		"error.auth_header_missing":        "缺少 Authorization 請求頭",
		"error.auth_header_invalid":        "Authorization 格式錯誤",
		"error.rate_limited":               "請求過於頻繁，請 %d 秒後再試",
		"error.login_invalid":              "郵箱或密碼錯誤",
		"error.admin_login_invalid":        "用戶名或密碼錯誤",
		"error.user_disabled":              "帳號已被停用",
		"error.token_invalid":              "登入憑證無效",
		"error.user_not_found":             "用戶不存在",
		"error.order_id_invalid":           "訂單ID無效",
		"error.order_not_found":            "訂單不存在",
		"error.order_already_settled":      "訂單已結算",
		"error.order_item_invalid":         "訂單商品無效",
		"error.product_not_available":      "商品不可購買",
		"error.coupon_invalid_or_expired":  "優惠券無效或已過期",
		"error.payment_instrument_invalid": "銀行卡資訊無效",
		"error.payment_declined":           "銀行卡支付被拒絕",
		"error.concurrency_conflict":       "訂單正在處理中，請稍後重試",
		"error.persistence_failure":        "結算暫時失敗，請重試",
		"error.settlement_timeout":         "結算逾時，請重試",
		"error.coupon_code_exists":         "優惠碼已存在",
		"error.coupon_not_found":           "優惠券不存在",
		"error.user_id_invalid":            "用戶ID無效",
		"error.user_id_type_invalid":       "用戶ID類型錯誤",
		"error.admin_id_invalid":           "管理員ID無效",
		"error.admin_id_type_invalid":      "管理員ID類型錯誤",
		"error.jwt_secret_missing":         "JWT 密鑰未配置",
		"error.rate_limit_unavailable":     "限流服務暫不可用",
		"error.order_quantity_invalid":     "商品數量無效",
		"error.order_create_failed":        "訂單建立失敗",
		"error.order_fetch_failed":         "訂單查詢失敗",
		"error.account_fetch_failed":       "帳戶資料查詢失敗",
		"error.coupon_invalid":             "優惠券參數無效",
		"error.coupon_already_used":        "優惠券已使用",
		"error.coupon_version_staled":      "優惠券已被修改，請刷新後重試",
		"error.coupon_id_invalid":          "優惠券ID無效",
		"error.coupon_create_failed":       "優惠券建立失敗",
		"error.coupon_update_failed":       "優惠券更新失敗",
		"error.coupon_delete_failed":       "優惠券刪除失敗",
		"error.coupon_fetch_failed":        "優惠券查詢失敗",
		"error.email_exists":               "郵箱已註冊",
		"error.email_invalid":              "郵箱地址無效",
		"error.email_disabled":             "郵件服務未啟用",
		"error.email_send_failed":          "郵件發送失敗",
		"email.settlement.subject":         "訂單 %s 支付成功",
		"email.settlement.body":            "您的訂單已完成結算。\n\n訂單號：%s\n應付金額：%s\n優惠抵扣：%s\n積分抵扣：%s\n錢包支付：%s\n銀行卡支付：%s\n本單獲得積分：%s",
	},
	LocaleEN: {
		"error.bad_request":                "Invalid request",
		"error.unauthorized":               "Not signed in or session expired",
		"error.forbidden":                  "Forbidden",
		"error.not_found":                  "Not found",
		"error.internal_error":             "Internal server error",
		"error.too_many_requests":          "Too many requests, please retry later",
		"error.jwt_secret_missing":         "Server auth configuration missing",
		"error.auth_header_missing":        "Missing Authorization header",
		"error.auth_header_invalid":        "Malformed Authorization header",
		"error.rate_limit_unavailable":     "Rate limiter unavailable",
		"error.rate_limited":               "Too many requests, retry in %d seconds",
		"error.login_invalid":              "Invalid email or password",
		"error.admin_login_invalid":        "Invalid username or password",
		"error.user_disabled":              "Account disabled",
		"error.token_invalid":              "Invalid token",
		"error.user_id_invalid":            "Invalid user id",
		"error.user_id_type_invalid":       "Invalid user id type",
		"error.admin_id_invalid":           "Invalid admin id",
		"error.admin_id_type_invalid":      "Invalid admin id type",
		"error.user_not_found":             "User not found",
		"error.order_id_invalid":           "Invalid order id",
		"error.order_not_found":            "Order not found",
		"error.order_already_settled":      "Order already settled",
		"error.order_item_invalid":         "Invalid order item",
		"error.order_quantity_invalid":     "Invalid quantity",
		"error.product_not_available":      "Product not available",
		"error.order_create_failed":        "Failed to create order",
		"error.order_fetch_failed":         "Failed to fetch order",
		"error.coupon_invalid_or_expired":  "Coupon invalid or expired",
		"error.payment_instrument_invalid": "Invalid card details",
		"error.payment_declined":           "Card payment declined",
		"error.concurrency_conflict":       "Order is being processed, please retry",
		"error.persistence_failure":        "Settlement temporarily failed, please retry",
		"error.settlement_timeout":         "Settlement timed out, please retry",
		"error.coupon_invalid":             "Invalid coupon parameters",
		"error.coupon_code_exists":         "Coupon code already exists",
		"error.coupon_not_found":           "Coupon not found",
		"error.coupon_already_used":        "Coupon already used",
		"error.coupon_version_staled":      "Coupon was modified, refresh and retry",
		"error.coupon_id_invalid":          "Invalid coupon id",
		"error.coupon_create_failed":       "Failed to create coupon",
		"error.coupon_update_failed":       "Failed to update coupon",
		"error.coupon_delete_failed":       "Failed to delete coupon",
		"error.coupon_fetch_failed":        "Failed to fetch coupon",
		"error.account_fetch_failed":       "Failed to fetch account data",
		"error.email_exists":               "Email already registered",
		"error.email_invalid":              "Invalid email address",
		"error.email_disabled":             "Email service is disabled",
		"error.email_send_failed":          "Failed to send email",
		"email.settlement.subject":         "Order %s paid",
		"email.settlement.body":            "Your order has been settled.\n\nOrder No: %s\nPayable: %s\nCoupon discount: %s\nPoints redeemed: %s\nWallet paid: %s\nCard charged: %s\nPoints earned: %s",
	},
}
