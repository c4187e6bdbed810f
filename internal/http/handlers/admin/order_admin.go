package admin

import (
	"strings"

	handlershared "github.com/stockhold-next/internal/http/handlers/shared"
	"github.com/stockhold-next/internal/http/response"
	"github.com/stockhold-next/internal/queue"
	"github.com/stockhold-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListOrders 订单列表
func (h *Handler) ListOrders(c *gin.Context) {
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
	orders, total, err := h.OrderRepo.ListAdmin(repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      handlershared.QueryUint(c, "user_id"),
		Status:      strings.TrimSpace(c.Query("status")),
		OrderNo:     strings.TrimSpace(c.Query("order_no")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, orders, handlershared.BuildPagination(page, pageSize, total))
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := handlershared.ParamUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	order, err := h.OrderRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	if order == nil {
		respondError(c, response.CodeNotFound, "error.order_not_found", nil)
		return
	}
	response.Success(c, order)
}

// CompleteOrder 订单完成：扣减实物库存
func (h *Handler) CompleteOrder(c *gin.Context) {
	h.settleOrder(c, queue.TaskOrderStockCompleted)
}

// FailOrder 订单失败：释放预占
func (h *Handler) FailOrder(c *gin.Context) {
	h.settleOrder(c, queue.TaskOrderStockFailed)
}

// settleOrder async=true 时按订单去重投递，否则同步结算
func (h *Handler) settleOrder(c *gin.Context, taskType string) {
	id, ok := handlershared.ParamUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if c.Query("async") == "true" {
		if !h.QueueClient.Enabled() {
			respondError(c, response.CodeUnavailable, "error.queue_unavailable", nil)
			return
		}
		if err := h.QueueClient.EnqueueOrderStock(taskType, queue.OrderStockPayload{OrderID: id}); err != nil {
			respondError(c, response.CodeInternal, "error.queue_unavailable", err)
			return
		}
		response.Success(c, gin.H{"queued": true, "order_id": id})
		return
	}

	ctx := c.Request.Context()
	var err error
	switch taskType {
	case queue.TaskOrderStockCompleted:
		_, err = h.ReservationService.CompleteOrder(ctx, id)
	default:
		_, err = h.ReservationService.FailOrder(ctx, id)
	}
	if err != nil {
		respondOrderSettleError(c, err)
		return
	}
	order, err := h.OrderRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.Success(c, order)
}
