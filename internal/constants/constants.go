package constants

// 仓库优先级常量
const (
	// WarehousePriorityDefault 默认仓库优先级（全局仅允许一个）
	WarehousePriorityDefault = 1
	// WarehousePrioritySentinel 设置默认仓库时其他仓库被重置的优先级
	WarehousePrioritySentinel = 999
)

// 预占状态常量
const (
	ReservationStateNone     = "none"
	ReservationStateReserved = "reserved"
)

// 购物车项移除原因
const (
	CartRemoveReasonUser     = "user_remove"
	CartRemoveReasonClear    = "cart_clear"
	CartRemoveReasonExpired  = "expired"
	CartRemoveReasonCheckout = "checkout"
)

// 订单状态常量
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusCompleted      = "completed"
	OrderStatusFailed         = "failed"
)

// 领域事件名称
const (
	EventCartItemRemoved = "cart_item_removed"
	EventOrderCompleted  = "order_completed"
	EventOrderFailed     = "order_failed"
)

// 预占过期时间范围（分钟）
const (
	ReservationExpireMinutesDefault = 1440
	ReservationExpireMinutesMin     = 1
	ReservationExpireMinutesMax     = 10080
)

// 库存同步批大小默认值
const (
	StockSyncBatchSizeDefault = 500
)

// 队列名称
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型
const (
	TaskReservationSweep    = "reservation:sweep_expired"
	TaskOrderStockCompleted = "order:stock_completed"
	TaskOrderStockFailed    = "order:stock_failed"
	TaskStockSyncBatch      = "stock:sync_batch"
)
