package i18n

var messages = map[string]map[string]string{
	LocaleZhCN: {
		"error.bad_request":               "请求参数错误",
		"error.unauthorized":              "未登录或登录已失效",
		"error.forbidden":                 "无权限访问",
		"error.jwt_secret_missing":        "服务端未配置令牌密钥",
		"error.auth_header_missing":       "缺少 Authorization 请求头",
		"error.auth_header_invalid":       "Authorization 格式错误",
		"error.token_invalid":             "令牌无效",
		"error.user_id_invalid":           "用户ID无效",
		"error.user_id_type_invalid":      "用户ID类型错误",
		"error.admin_id_invalid":          "管理员ID无效",
		"error.admin_id_type_invalid":     "管理员ID类型错误",
		"error.rate_limited":              "操作过于频繁，请在 %d 秒后重试",
		"error.rate_limit_unavailable":    "限流服务暂不可用",
		"error.invalid_quantity":          "数量无效",
		"error.invalid_stock_key":         "商品、仓库或计量单位无效",
		"error.insufficient_stock":        "库存不足",
		"error.cart_item_not_found":       "购物车中没有该商品",
		"error.cart_empty":                "购物车为空",
		"error.reservation_missing":       "购物车商品尚未预占库存",
		"error.cart_fetch_failed":         "获取购物车失败",
		"error.cart_update_failed":        "更新购物车失败",
		"error.checkout_failed":           "下单失败",
		"error.warehouse_not_found":       "仓库不存在",
		"error.warehouse_invalid":         "仓库参数无效",
		"error.warehouse_code_exists":     "仓库编码已存在",
		"error.warehouse_in_use":          "仓库仍有预占库存，无法删除",
		"error.warehouse_save_failed":     "保存仓库失败",
		"error.warehouse_fetch_failed":    "获取仓库失败",
		"error.stock_fetch_failed":        "获取库存失败",
		"error.stock_save_failed":         "保存库存失败",
		"error.stock_sync_invalid":        "库存同步数据无效",
		"error.stock_sync_failed":         "库存同步失败",
		"error.sweep_in_progress":         "过期清理正在执行",
		"error.sweep_failed":              "过期清理失败",
		"error.order_not_found":           "订单不存在",
		"error.order_status_invalid":      "订单状态不允许该操作",
		"error.order_reduce_shortfall":    "实物库存不足以扣减，需人工对账",
		"error.order_settle_failed":       "订单库存结算失败",
		"error.order_fetch_failed":        "获取订单失败",
		"error.audit_log_fetch_failed":    "获取审计日志失败",
		"error.queue_unavailable":         "任务队列不可用",
		"error.priority_invariant_broken": "存在多个默认仓库",
	},
	LocaleEnUS: {
		"error.bad_request":               "Bad request",
		"error.unauthorized":              "Unauthorized",
		"error.forbidden":                 "Forbidden",
		"error.jwt_secret_missing":        "Token secret is not configured",
		"error.auth_header_missing":       "Missing Authorization header",
		"error.auth_header_invalid":       "Invalid Authorization header",
		"error.token_invalid":             "Invalid token",
		"error.user_id_invalid":           "Invalid user id",
		"error.user_id_type_invalid":      "Invalid user id type",
		"error.admin_id_invalid":          "Invalid admin id",
		"error.admin_id_type_invalid":     "Invalid admin id type",
		"error.rate_limited":              "Too many requests, retry in %d seconds",
		"error.rate_limit_unavailable":    "Rate limiter unavailable",
		"error.invalid_quantity":          "Invalid quantity",
		"error.invalid_stock_key":         "Invalid product, warehouse or unit",
		"error.insufficient_stock":        "Insufficient stock",
		"error.cart_item_not_found":       "Cart item not found",
		"error.cart_empty":                "Cart is empty",
		"error.reservation_missing":       "Cart item has no stock reservation",
		"error.cart_fetch_failed":         "Failed to load cart",
		"error.cart_update_failed":        "Failed to update cart",
		"error.checkout_failed":           "Checkout failed",
		"error.warehouse_not_found":       "Warehouse not found",
		"error.warehouse_invalid":         "Invalid warehouse",
		"error.warehouse_code_exists":     "Warehouse code already exists",
		"error.warehouse_in_use":          "Warehouse still holds reservations",
		"error.warehouse_save_failed":     "Failed to save warehouse",
		"error.warehouse_fetch_failed":    "Failed to load warehouses",
		"error.stock_fetch_failed":        "Failed to load stock",
		"error.stock_save_failed":         "Failed to save stock",
		"error.stock_sync_invalid":        "Invalid stock sync payload",
		"error.stock_sync_failed":         "Stock sync failed",
		"error.sweep_in_progress":         "Expiry sweep already running",
		"error.sweep_failed":              "Expiry sweep failed",
		"error.order_not_found":           "Order not found",
		"error.order_status_invalid":      "Order status does not allow this action",
		"error.order_reduce_shortfall":    "Physical stock shortfall, manual reconciliation required",
		"error.order_settle_failed":       "Order stock settlement failed",
		"error.order_fetch_failed":        "Failed to load order",
		"error.audit_log_fetch_failed":    "Failed to load audit logs",
		"error.queue_unavailable":         "Task queue unavailable",
		"error.priority_invariant_broken": "More than one default warehouse",
	},
}
