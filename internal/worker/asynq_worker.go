package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/stockhold-next/internal/logger"
	"github.com/stockhold-next/internal/provider"
	"github.com/stockhold-next/internal/queue"
	"github.com/stockhold-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskReservationSweep, c.handleReservationSweep)
	mux.HandleFunc(queue.TaskOrderStockCompleted, c.handleOrderStock)
	mux.HandleFunc(queue.TaskOrderStockFailed, c.handleOrderStock)
	mux.HandleFunc(queue.TaskStockSyncBatch, c.handleStockSync)
}

func (c *Consumer) handleReservationSweep(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_reservation_sweep_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ReservationSweepPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Warnw("worker_reservation_sweep_unmarshal_failed", "error", err)
			return err
		}
	}
	if c.ReservationService == nil {
		logger.Warnw("worker_reservation_sweep_skip_service_nil")
		return nil
	}
	result, err := c.ReservationService.SweepExpired(ctx, time.Now(), payload.DryRun)
	if err != nil {
		if errors.Is(err, service.ErrSweepInProgress) {
			logger.Debugw("worker_reservation_sweep_skip_in_progress")
			return nil
		}
		logger.Warnw("worker_reservation_sweep_failed", "dry_run", payload.DryRun, "error", err)
		return err
	}
	logger.Debugw("worker_reservation_sweep_done",
		"dry_run", result.DryRun,
		"candidates", len(result.Candidates),
		"released", result.Released,
		"failed", result.Failed,
	)
	return nil
}

func (c *Consumer) handleOrderStock(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_stock_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStockPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_stock_unmarshal_failed", "task", task.Type(), "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_stock_skip_invalid_payload", "task", task.Type(), "order_id", payload.OrderID)
		return nil
	}
	if c.ReservationService == nil {
		logger.Warnw("worker_order_stock_skip_service_nil", "order_id", payload.OrderID)
		return nil
	}

	var err error
	switch task.Type() {
	case queue.TaskOrderStockCompleted:
		_, err = c.ReservationService.CompleteOrder(ctx, payload.OrderID)
	case queue.TaskOrderStockFailed:
		_, err = c.ReservationService.FailOrder(ctx, payload.OrderID)
	default:
		logger.Warnw("worker_order_stock_unknown_task", "task", task.Type())
		return nil
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_order_stock_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrOrderStatusInvalid):
			logger.Warnw("worker_order_stock_skip_invalid_status", "order_id", payload.OrderID, "task", task.Type())
			return nil
		case errors.Is(err, service.ErrLedgerReduceShortfall):
			// 需人工对账，重试无意义
			logger.Errorw("worker_order_stock_reduce_shortfall", "order_id", payload.OrderID, "error", err)
			return asynq.SkipRetry
		default:
			logger.Warnw("worker_order_stock_failed", "order_id", payload.OrderID, "task", task.Type(), "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleStockSync(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_stock_sync_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.StockSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_stock_sync_unmarshal_failed", "error", err)
		return err
	}
	if c.StockSyncService == nil {
		logger.Warnw("worker_stock_sync_skip_service_nil")
		return nil
	}
	result, err := c.StockSyncService.Apply(ctx, toServiceStockSyncRows(payload.Rows), payload.ResetMissing)
	if err != nil {
		logger.Warnw("worker_stock_sync_failed", "rows", len(payload.Rows), "error", err)
		return err
	}
	if len(result.Rejected) > 0 {
		logger.Warnw("worker_stock_sync_rows_rejected", "rejected", len(result.Rejected), "applied", result.Applied)
	}
	return nil
}

func toServiceStockSyncRows(rows []queue.StockSyncRow) []service.StockSyncRow {
	result := make([]service.StockSyncRow, 0, len(rows))
	for _, row := range rows {
		result = append(result, service.StockSyncRow{
			WarehouseCode: row.WarehouseCode,
			ProductID:     row.ProductID,
			Unit:          row.Unit,
			Quantity:      row.Quantity,
			MinStock:      row.MinStock,
		})
	}
	return result
}
