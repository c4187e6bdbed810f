package repository

import "time"

// WarehouseListFilter 查询仓库列表的过滤条件
type WarehouseListFilter struct {
	Page     int
	PageSize int
	Search   string
	IsActive *bool
}

// StockRecordListFilter 查询库存台账列表的过滤条件
type StockRecordListFilter struct {
	Page          int
	PageSize      int
	ProductID     uint
	WarehouseID   uint
	Unit          string
	OnlyBelowMin  bool
	WithWarehouse bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ReservationAuditLogListFilter 查询预占审计日志列表的过滤条件
type ReservationAuditLogListFilter struct {
	Page        int
	PageSize    int
	Event       string
	UserID      uint
	OrderID     uint
	ProductID   uint
	WarehouseID uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
