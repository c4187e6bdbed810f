package admin

import (
	"strings"

	handlershared "github.com/stockhold-next/internal/http/handlers/shared"
	"github.com/stockhold-next/internal/http/response"
	"github.com/stockhold-next/internal/queue"
	"github.com/stockhold-next/internal/repository"
	"github.com/stockhold-next/internal/service"

	"github.com/gin-gonic/gin"
)

// SetStockRequest 手工录入库存请求
type SetStockRequest struct {
	ProductID   uint   `json:"product_id" binding:"required"`
	WarehouseID uint   `json:"warehouse_id" binding:"required"`
	Unit        string `json:"unit" binding:"required"`
	Stock       int    `json:"stock"`
	MinStock    *int   `json:"min_stock"`
}

// StockSyncRequest ERP 库存同步请求
type StockSyncRequest struct {
	Rows         []service.StockSyncRow `json:"rows" binding:"required"`
	ResetMissing bool                   `json:"reset_missing"`
}

// ListStockRecords 库存台账列表
func (h *Handler) ListStockRecords(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	records, total, err := h.StockRepo.List(repository.StockRecordListFilter{
		Page:          page,
		PageSize:      pageSize,
		ProductID:     handlershared.QueryUint(c, "product_id"),
		WarehouseID:   handlershared.QueryUint(c, "warehouse_id"),
		Unit:          strings.TrimSpace(c.Query("unit")),
		OnlyBelowMin:  c.Query("below_min") == "true",
		WithWarehouse: true,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.stock_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, records, handlershared.BuildPagination(page, pageSize, total))
}

// SetStock 手工设置某仓库某单位的实物库存
func (h *Handler) SetStock(c *gin.Context) {
	var req SetStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	record, err := h.StockSyncService.SetStock(c.Request.Context(), service.SetStockInput{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Unit:        req.Unit,
		Stock:       req.Stock,
		MinStock:    req.MinStock,
	})
	if err != nil {
		respondStockError(c, err)
		return
	}
	response.Success(c, record)
}

// SyncStock ERP 覆盖同步；async=true 时投递到任务队列
func (h *Handler) SyncStock(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req StockSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if len(req.Rows) == 0 {
		respondError(c, response.CodeBadRequest, "error.stock_sync_invalid", nil)
		return
	}
	if c.Query("async") == "true" {
		if !h.QueueClient.Enabled() {
			respondError(c, response.CodeUnavailable, "error.queue_unavailable", nil)
			return
		}
		rows := make([]queue.StockSyncRow, 0, len(req.Rows))
		for _, row := range req.Rows {
			rows = append(rows, queue.StockSyncRow{
				WarehouseCode: row.WarehouseCode,
				ProductID:     row.ProductID,
				Unit:          row.Unit,
				Quantity:      row.Quantity,
				MinStock:      row.MinStock,
			})
		}
		if err := h.QueueClient.EnqueueStockSync(queue.StockSyncPayload{Rows: rows, ResetMissing: req.ResetMissing}); err != nil {
			respondError(c, response.CodeInternal, "error.queue_unavailable", err)
			return
		}
		response.Success(c, gin.H{"queued": true, "rows": len(rows)})
		return
	}
	result, err := h.StockSyncService.Apply(c.Request.Context(), req.Rows, req.ResetMissing)
	if err != nil {
		handlershared.RespondWithMappedError(c, err, stockErrorRules, response.CodeInternal, "error.stock_sync_failed")
		return
	}
	requestLog(c).Infow("admin_stock_sync_applied",
		"admin_id", adminID,
		"applied", result.Applied,
		"rejected", len(result.Rejected),
		"reset", result.Reset,
	)
	response.Success(c, result)
}
