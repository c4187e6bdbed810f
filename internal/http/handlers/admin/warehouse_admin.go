package admin

import (
	"strings"

	handlershared "github.com/stockhold-next/internal/http/handlers/shared"
	"github.com/stockhold-next/internal/http/response"
	"github.com/stockhold-next/internal/repository"
	"github.com/stockhold-next/internal/service"

	"github.com/gin-gonic/gin"
)

// WarehouseRequest 创建仓库请求
type WarehouseRequest struct {
	Name         string `json:"name" binding:"required"`
	Code         string `json:"code" binding:"required"`
	Address      string `json:"address"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
	Priority     int    `json:"priority"`
	IsActive     *bool  `json:"is_active"`
}

// WarehouseUpdateRequest 更新仓库请求，未传字段保持不变
type WarehouseUpdateRequest struct {
	Name         *string `json:"name"`
	Code         *string `json:"code"`
	Address      *string `json:"address"`
	ContactName  *string `json:"contact_name"`
	ContactPhone *string `json:"contact_phone"`
	Priority     *int    `json:"priority"`
	IsActive     *bool   `json:"is_active"`
}

// ListWarehouses 仓库列表
func (h *Handler) ListWarehouses(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	filter := repository.WarehouseListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   strings.TrimSpace(c.Query("search")),
	}
	switch strings.TrimSpace(c.Query("is_active")) {
	case "true", "1":
		active := true
		filter.IsActive = &active
	case "false", "0":
		inactive := false
		filter.IsActive = &inactive
	}
	warehouses, total, err := h.WarehouseService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.warehouse_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, warehouses, handlershared.BuildPagination(page, pageSize, total))
}

// GetWarehouse 仓库详情
func (h *Handler) GetWarehouse(c *gin.Context) {
	id, ok := handlershared.ParamUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	warehouse, err := h.WarehouseService.Get(id)
	if err != nil {
		respondWarehouseError(c, err)
		return
	}
	response.Success(c, warehouse)
}

// CreateWarehouse 创建仓库
func (h *Handler) CreateWarehouse(c *gin.Context) {
	var req WarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	warehouse, err := h.WarehouseService.Create(service.CreateWarehouseInput{
		Name:         req.Name,
		Code:         req.Code,
		Address:      req.Address,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		Priority:     req.Priority,
		IsActive:     isActive,
	})
	if err != nil {
		respondWarehouseError(c, err)
		return
	}
	response.Success(c, warehouse)
}

// UpdateWarehouse 更新仓库（优先级改为 1 时由模型钩子校正默认仓库）
func (h *Handler) UpdateWarehouse(c *gin.Context) {
	id, ok := handlershared.ParamUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req WarehouseUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	warehouse, err := h.WarehouseService.Update(id, service.UpdateWarehouseInput{
		Name:         req.Name,
		Code:         req.Code,
		Address:      req.Address,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		Priority:     req.Priority,
		IsActive:     req.IsActive,
	})
	if err != nil {
		respondWarehouseError(c, err)
		return
	}
	response.Success(c, warehouse)
}

// SetDefaultWarehouse 设为默认仓库
func (h *Handler) SetDefaultWarehouse(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParamUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	warehouse, err := h.WarehouseService.SetDefault(id)
	if err != nil {
		respondWarehouseError(c, err)
		return
	}
	requestLog(c).Infow("admin_warehouse_set_default", "admin_id", adminID, "warehouse_id", warehouse.ID)
	response.Success(c, warehouse)
}

// DeleteWarehouse 删除仓库（仍有预占时拒绝）
func (h *Handler) DeleteWarehouse(c *gin.Context) {
	id, ok := handlershared.ParamUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.WarehouseService.Delete(id); err != nil {
		respondWarehouseError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
