package i18n

var messagesEN = map[string]string{
	"error.bad_request":       "Invalid request",
	"error.validation_failed": "Some fields are invalid",
	"error.internal":          "Something went wrong, please try again later",
	"error.unauthorized":      "Please sign in first",
	"error.forbidden":         "You do not have permission to do this",
	"error.save_failed":       "Save failed",

	"error.jwt_secret_missing":  "Authentication is not configured",
	"error.auth_header_missing": "Missing Authorization header",
	"error.auth_header_invalid": "Authorization header must be a Bearer token",
	"error.token_invalid":       "Invalid or expired token",
	"error.token_revoked":       "Token has been revoked, please sign in again",
	"error.user_disabled":       "This account has been disabled",

	"error.rate_limit_unavailable": "Rate limiter unavailable, please try again later",
	"error.rate_limited":           "Too many requests, retry in %d seconds",
	"error.login_too_many":         "Too many sign-in attempts, retry in %d seconds",
	"error.verify_too_many":        "Too many verification attempts, retry in %d seconds",
	"error.payment_too_many":       "Too many payment attempts, retry in %d seconds",

	"error.login_failed":            "Sign in failed",
	"error.login_invalid":           "Incorrect email or password",
	"error.admin_login_invalid":     "Incorrect username or password",
	"error.register_failed":         "Registration failed",
	"error.email_exists":            "Email is already registered",
	"error.password_min_length":     "Password must be at least %d characters",
	"error.password_require_letter": "Password must contain a letter",
	"error.password_require_number": "Password must contain a number",

	"error.user_id_invalid":       "Invalid user",
	"error.user_id_type_invalid":  "Invalid user",
	"error.user_not_found":        "User not found",
	"error.user_fetch_failed":     "Failed to load users",
	"error.user_update_failed":    "Failed to update user",
	"error.admin_id_invalid":      "Invalid admin",
	"error.admin_id_type_invalid": "Invalid admin",
	"error.admin_not_found":       "Admin not found",
	"error.authz_fetch_failed":    "Failed to load permissions",
	"error.authz_role_invalid":    "Invalid role",
	"error.authz_role_builtin":    "Builtin roles cannot be deleted",

	"error.captcha_required":        "Please complete the captcha",
	"error.captcha_invalid":         "Captcha is incorrect or expired",
	"error.captcha_unavailable":     "Captcha is unavailable",
	"error.captcha_generate_failed": "Failed to generate captcha",

	"error.product_fetch_failed":  "Failed to load products",
	"error.product_not_found":     "Product not found",
	"error.product_not_available": "Product is no longer available",
	"error.product_slug_exists":   "Product slug already exists",
	"error.cart_item_invalid":     "Invalid cart item",
	"error.cart_update_failed":    "Failed to update cart",
	"error.empty_cart":            "Your cart is empty",
	"error.insufficient_stock":    "Some items are out of stock",
	"error.upload_failed":         "Upload failed",
	"error.upload_invalid":        "Unsupported file",
	"error.upload_too_large":      "File is too large",

	"error.zone_fetch_failed":     "Failed to load delivery zones",
	"error.zone_check_failed":     "Failed to check delivery zone",
	"error.coordinates_invalid":   "Invalid coordinates",
	"error.outside_delivery_zone": "This address is outside our delivery zones",
	"error.location_invalid":      "Invalid delivery zone",
	"error.location_not_found":    "Delivery zone not found",

	"error.order_create_failed": "Failed to place order",
	"error.order_fetch_failed":  "Failed to load orders",
	"error.order_not_found":     "Order not found",

	"error.payment_invalid":         "Invalid payment request",
	"error.payment_create_failed":   "Failed to start payment",
	"error.payment_fetch_failed":    "Failed to load payments",
	"error.payment_not_found":       "Payment not found",
	"error.payment_status_invalid":  "Payment cannot be changed in its current status",
	"error.payment_approve_failed":  "Failed to approve payment",
	"error.payment_reject_failed":   "Failed to reject payment",
	"error.payment_callback_failed": "Failed to process payment callback",
	"error.amount_mismatch":         "Paid amount does not match the order total",
	"error.network_not_supported":   "Mobile money network is not supported",
	"error.gateway_unavailable":     "Payment provider is unavailable, your payment stays pending",
	"error.gateway_rejected":        "Payment provider rejected the request",
	"error.signature_invalid":       "Invalid signature",

	"error.delivery_fetch_failed":     "Failed to load deliveries",
	"error.delivery_not_found":        "Delivery not found",
	"error.delivery_status_invalid":   "Delivery cannot be changed in its current status",
	"error.delivery_person_invalid":   "Selected user is not an active delivery person",
	"error.delivery_assign_failed":    "Failed to assign delivery",
	"error.delivery_update_failed":    "Failed to update delivery",
	"error.delivery_verify_failed":    "Failed to verify delivery",
	"error.challenge_failed":          "Verification failed",
	"error.verification_code_invalid": "Verification code is incorrect",

	"error.notification_fetch_failed": "Failed to load notifications",
	"error.notification_not_found":    "Notification not found",
	"error.broadcast_create_failed":   "Failed to create broadcast",
	"error.broadcast_fetch_failed":    "Failed to load broadcast",
	"error.broadcast_not_found":       "Broadcast not found",
	"error.queue_unavailable":         "Background queue is unavailable",
}

var messagesZH = map[string]string{
	"error.bad_request":       "请求参数错误",
	"error.validation_failed": "部分字段校验失败",
	"error.internal":          "系统繁忙，请稍后重试",
	"error.unauthorized":      "请先登录",
	"error.forbidden":         "无权限执行该操作",
	"error.save_failed":       "保存失败",

	"error.jwt_secret_missing":  "鉴权未配置",
	"error.auth_header_missing": "缺少 Authorization 请求头",
	"error.auth_header_invalid": "Authorization 格式应为 Bearer Token",
	"error.token_invalid":       "Token 无效或已过期",
	"error.token_revoked":       "Token 已失效，请重新登录",
	"error.user_disabled":       "账号已被禁用",

	"error.rate_limit_unavailable": "限流服务不可用，请稍后重试",
	"error.rate_limited":           "请求过于频繁，请 %d 秒后重试",
	"error.login_too_many":         "登录尝试过多，请 %d 秒后重试",
	"error.verify_too_many":        "核验尝试过多，请 %d 秒后重试",
	"error.payment_too_many":       "支付请求过多，请 %d 秒后重试",

	"error.login_failed":            "登录失败",
	"error.login_invalid":           "邮箱或密码错误",
	"error.admin_login_invalid":     "用户名或密码错误",
	"error.register_failed":         "注册失败",
	"error.email_exists":            "邮箱已注册",
	"error.password_min_length":     "密码长度至少 %d 位",
	"error.password_require_letter": "密码需包含字母",
	"error.password_require_number": "密码需包含数字",

	"error.user_id_invalid":       "用户无效",
	"error.user_id_type_invalid":  "用户无效",
	"error.user_not_found":        "用户不存在",
	"error.user_fetch_failed":     "获取用户失败",
	"error.user_update_failed":    "更新用户失败",
	"error.admin_id_invalid":      "管理员无效",
	"error.admin_id_type_invalid": "管理员无效",
	"error.admin_not_found":       "管理员不存在",
	"error.authz_fetch_failed":    "获取权限失败",
	"error.authz_role_invalid":    "角色无效",
	"error.authz_role_builtin":    "预置角色不可删除",

	"error.captcha_required":        "请完成图形验证码",
	"error.captcha_invalid":         "验证码错误或已过期",
	"error.captcha_unavailable":     "验证码服务不可用",
	"error.captcha_generate_failed": "生成验证码失败",

	"error.product_fetch_failed":  "获取商品失败",
	"error.product_not_found":     "商品不存在",
	"error.product_not_available": "商品已下架",
	"error.product_slug_exists":   "商品标识已存在",
	"error.cart_item_invalid":     "购物车商品无效",
	"error.cart_update_failed":    "更新购物车失败",
	"error.empty_cart":            "购物车为空",
	"error.insufficient_stock":    "部分商品库存不足",
	"error.upload_failed":         "上传失败",
	"error.upload_invalid":        "不支持的文件",
	"error.upload_too_large":      "文件过大",

	"error.zone_fetch_failed":     "获取配送区域失败",
	"error.zone_check_failed":     "配送区域校验失败",
	"error.coordinates_invalid":   "坐标无效",
	"error.outside_delivery_zone": "该地址不在配送范围内",
	"error.location_invalid":      "配送区域无效",
	"error.location_not_found":    "配送区域不存在",

	"error.order_create_failed": "下单失败",
	"error.order_fetch_failed":  "获取订单失败",
	"error.order_not_found":     "订单不存在",

	"error.payment_invalid":         "支付请求无效",
	"error.payment_create_failed":   "发起支付失败",
	"error.payment_fetch_failed":    "获取支付记录失败",
	"error.payment_not_found":       "支付记录不存在",
	"error.payment_status_invalid":  "当前支付状态不允许该操作",
	"error.payment_approve_failed":  "审核通过失败",
	"error.payment_reject_failed":   "驳回失败",
	"error.payment_callback_failed": "支付回调处理失败",
	"error.amount_mismatch":         "支付金额与订单金额不符",
	"error.network_not_supported":   "不支持该移动支付网络",
	"error.gateway_unavailable":     "支付渠道暂不可用，支付保持待处理",
	"error.gateway_rejected":        "支付渠道拒绝了请求",
	"error.signature_invalid":       "签名无效",

	"error.delivery_fetch_failed":     "获取配送单失败",
	"error.delivery_not_found":        "配送单不存在",
	"error.delivery_status_invalid":   "当前配送状态不允许该操作",
	"error.delivery_person_invalid":   "所选用户不是有效的配送员",
	"error.delivery_assign_failed":    "分配配送失败",
	"error.delivery_update_failed":    "更新配送单失败",
	"error.delivery_verify_failed":    "收货核验失败",
	"error.challenge_failed":          "核验未通过",
	"error.verification_code_invalid": "收货码错误",

	"error.notification_fetch_failed": "获取通知失败",
	"error.notification_not_found":    "通知不存在",
	"error.broadcast_create_failed":   "创建群发失败",
	"error.broadcast_fetch_failed":    "获取群发失败",
	"error.broadcast_not_found":       "群发任务不存在",
	"error.queue_unavailable":         "后台队列不可用",
}
