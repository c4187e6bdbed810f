package queue

import (
	"encoding/json"
	"fmt"

	"github.com/stockhold-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskReservationSweep 过期预占清理任务
	TaskReservationSweep = constants.TaskReservationSweep
	// TaskOrderStockCompleted 订单完成扣减库存任务
	TaskOrderStockCompleted = constants.TaskOrderStockCompleted
	// TaskOrderStockFailed 订单失败释放库存任务
	TaskOrderStockFailed = constants.TaskOrderStockFailed
	// TaskStockSyncBatch ERP 库存同步任务
	TaskStockSyncBatch = constants.TaskStockSyncBatch
)

// ReservationSweepPayload 过期清理任务载荷
type ReservationSweepPayload struct {
	DryRun bool `json:"dry_run"`
}

// OrderStockPayload 订单终态任务载荷
type OrderStockPayload struct {
	OrderID uint `json:"order_id"`
}

// StockSyncRow ERP 库存行
type StockSyncRow struct {
	WarehouseCode string  `json:"warehouse_code"`
	ProductID     uint    `json:"product_id"`
	Unit          string  `json:"unit"`
	Quantity      string  `json:"quantity"`
	MinStock      *string `json:"min_stock,omitempty"`
}

// StockSyncPayload ERP 库存同步任务载荷
type StockSyncPayload struct {
	Rows         []StockSyncRow `json:"rows"`
	ResetMissing bool           `json:"reset_missing"`
}

// NewReservationSweepTask 创建过期清理任务
func NewReservationSweepTask(payload ReservationSweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReservationSweep, body), nil
}

// NewOrderStockTask 创建订单终态任务，taskType 为完成或失败
func NewOrderStockTask(taskType string, payload OrderStockPayload) (*asynq.Task, error) {
	if taskType != TaskOrderStockCompleted && taskType != TaskOrderStockFailed {
		return nil, fmt.Errorf("unsupported order stock task: %s", taskType)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body), nil
}

// NewStockSyncTask 创建库存同步任务
func NewStockSyncTask(payload StockSyncPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockSyncBatch, body), nil
}

// orderStockTaskID 同一订单同一终态只入队一次
func orderStockTaskID(taskType string, orderID uint) string {
	return fmt.Sprintf("%s:%d", taskType, orderID)
}
