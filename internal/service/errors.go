package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity            = errors.New("invalid quantity")
	ErrInvalidStockKey            = errors.New("invalid stock key")
	ErrInsufficientStock          = errors.New("insufficient stock")
	ErrLedgerReduceShortfall      = errors.New("ledger reduce shortfall")
	ErrReservationMissing         = errors.New("cart item has no reservation")
	ErrCartItemNotFound           = errors.New("cart item not found")
	ErrCartEmpty                  = errors.New("cart is empty")
	ErrWarehouseNotFound          = errors.New("warehouse not found")
	ErrWarehouseInvalid           = errors.New("invalid warehouse")
	ErrWarehouseCodeExists        = errors.New("warehouse code already exists")
	ErrWarehouseInUse             = errors.New("warehouse still holds reservations")
	ErrPriorityInvariantViolation = errors.New("more than one active default warehouse")
	ErrOrderNotFound              = errors.New("order not found")
	ErrOrderStatusInvalid         = errors.New("order status invalid")
	ErrStockSyncInvalid           = errors.New("invalid stock sync payload")
	ErrSweepInProgress            = errors.New("reservation sweep already running")
)

// InsufficientStockError 库存不足，携带跨仓可用总量用于提示
type InsufficientStockError struct {
	ProductID uint
	Unit      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d unit %s: requested %d, available %d",
		e.ProductID, e.Unit, e.Requested, e.Available)
}

// Unwrap 支持 errors.Is(err, ErrInsufficientStock)
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// ReduceShortfallError 订单完成扣减时实物库存不足（ERP 与预占不一致，需人工对账）
type ReduceShortfallError struct {
	OrderID     uint
	ProductID   uint
	WarehouseID uint
	Unit        string
	Requested   int
	Stock       int
}

func (e *ReduceShortfallError) Error() string {
	return fmt.Sprintf("reduce shortfall on order %d: product %d warehouse %d unit %s requested %d, stock %d",
		e.OrderID, e.ProductID, e.WarehouseID, e.Unit, e.Requested, e.Stock)
}

// Unwrap 支持 errors.Is(err, ErrLedgerReduceShortfall)
func (e *ReduceShortfallError) Unwrap() error {
	return ErrLedgerReduceShortfall
}
