package admin

import (
	"strings"
	"time"

	handlershared "github.com/stockhold-next/internal/http/handlers/shared"
	"github.com/stockhold-next/internal/http/response"
	"github.com/stockhold-next/internal/queue"
	"github.com/stockhold-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// SweepReservations 触发过期预占清理；dry_run=true 只返回候选，async=true 投递到任务队列
func (h *Handler) SweepReservations(c *gin.Context) {
	dryRun := c.Query("dry_run") == "true"
	if c.Query("async") == "true" {
		if !h.QueueClient.Enabled() {
			respondError(c, response.CodeUnavailable, "error.queue_unavailable", nil)
			return
		}
		if err := h.QueueClient.EnqueueReservationSweep(queue.ReservationSweepPayload{DryRun: dryRun}); err != nil {
			respondError(c, response.CodeInternal, "error.queue_unavailable", err)
			return
		}
		response.Success(c, gin.H{"queued": true, "dry_run": dryRun})
		return
	}
	result, err := h.ReservationService.SweepExpired(c.Request.Context(), time.Now(), dryRun)
	if err != nil {
		respondSweepError(c, err)
		return
	}
	response.Success(c, result)
}

// ListAuditLogs 预占审计日志
func (h *Handler) ListAuditLogs(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	createdFrom, err := parseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdTo, err := parseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	logs, total, err := h.AuditLogRepo.List(repository.ReservationAuditLogListFilter{
		Page:        page,
		PageSize:    pageSize,
		Event:       strings.TrimSpace(c.Query("event")),
		UserID:      handlershared.QueryUint(c, "user_id"),
		OrderID:     handlershared.QueryUint(c, "order_id"),
		ProductID:   handlershared.QueryUint(c, "product_id"),
		WarehouseID: handlershared.QueryUint(c, "warehouse_id"),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.audit_log_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, logs, handlershared.BuildPagination(page, pageSize, total))
}

// CheckWarehouseInvariant 检查默认仓库唯一性
func (h *Handler) CheckWarehouseInvariant(c *gin.Context) {
	if err := h.WarehouseService.CheckDefaultInvariant(); err != nil {
		respondError(c, response.CodeConflict, "error.priority_invariant_broken", nil)
		return
	}
	response.Success(c, gin.H{"ok": true})
}
