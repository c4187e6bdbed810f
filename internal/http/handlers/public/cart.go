package public

import (
	"strings"
	"time"

	handlershared "github.com/stockhold-next/internal/http/handlers/shared"
	"github.com/stockhold-next/internal/http/response"
	"github.com/stockhold-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 购物车项请求
type CartItemRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Unit      string `json:"unit" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// CartRemoveRequest 移除购物车项请求，quantity 为空或 <= 0 表示整行移除
type CartRemoveRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Unit      string `json:"unit" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// CheckoutRequest 下单请求
type CheckoutRequest struct {
	OrderNo string `json:"order_no"`
}

// CartItemResponse 购物车项响应
type CartItemResponse struct {
	ID          uint       `json:"id"`
	ProductID   uint       `json:"product_id"`
	Unit        string     `json:"unit"`
	Quantity    int        `json:"quantity"`
	State       string     `json:"reservation_state"`
	WarehouseID *uint      `json:"warehouse_id,omitempty"`
	ReservedAt  *time.Time `json:"reserved_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Available   int        `json:"available"`
}

// GetCart 获取购物车及预占状态
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	lines, err := h.ReservationService.ListCart(c.Request.Context(), uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.cart_fetch_failed", err)
		return
	}
	expireAfter := h.ReservationService.ExpireAfter()
	items := make([]CartItemResponse, 0, len(lines))
	for _, line := range lines {
		item := CartItemResponse{
			ID:        line.Item.ID,
			ProductID: line.Item.ProductID,
			Unit:      line.Item.Unit,
			Quantity:  line.Item.Quantity,
			State:     line.Reservation.State,
			Available: line.Available,
		}
		if line.Reservation.Active() {
			warehouseID := line.Reservation.WarehouseID
			reservedAt := line.Reservation.ReservedAt
			expiresAt := reservedAt.Add(expireAfter)
			item.WarehouseID = &warehouseID
			item.ReservedAt = &reservedAt
			item.ExpiresAt = &expiresAt
		}
		items = append(items, item)
	}
	response.Success(c, gin.H{"items": items})
}

// AddCartItem 加入购物车并预占库存
func (h *Handler) AddCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	item, err := h.ReservationService.AddToCart(c.Request.Context(), service.AddToCartInput{
		UserID:    uid,
		ProductID: req.ProductID,
		Unit:      strings.TrimSpace(req.Unit),
		Quantity:  req.Quantity,
	})
	if err != nil {
		respondCartWriteError(c, err)
		return
	}
	response.Success(c, item)
}

// RemoveCartItem 从购物车移除数量并释放预占
func (h *Handler) RemoveCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartRemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	item, err := h.ReservationService.RemoveFromCart(c.Request.Context(), service.RemoveFromCartInput{
		UserID:    uid,
		ProductID: req.ProductID,
		Unit:      strings.TrimSpace(req.Unit),
		Quantity:  req.Quantity,
	})
	if err != nil {
		respondCartWriteError(c, err)
		return
	}
	if item == nil {
		response.Success(c, gin.H{"deleted": true})
		return
	}
	response.Success(c, item)
}

// ClearCart 清空购物车并释放全部预占
func (h *Handler) ClearCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	removed, err := h.ReservationService.ClearCart(c.Request.Context(), uid)
	if err != nil {
		respondCartWriteError(c, err)
		return
	}
	response.Success(c, gin.H{"removed": removed})
}

// Checkout 购物车下单，预占转移到订单项
func (h *Handler) Checkout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}
	order, err := h.ReservationService.CheckoutCart(c.Request.Context(), uid, strings.TrimSpace(req.OrderNo))
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	requestLog(c).Infow("cart_checkout_created", "user_id", uid, "order_id", order.ID, "order_no", order.OrderNo)
	response.Success(c, order)
}

// GetAvailability 查询商品在全部启用仓库的可用总量
func (h *Handler) GetAvailability(c *gin.Context) {
	productID, ok := handlershared.ParamUint(c, "product_id")
	unit := strings.TrimSpace(c.Query("unit"))
	if !ok || unit == "" {
		respondError(c, response.CodeBadRequest, "error.invalid_stock_key", nil)
		return
	}
	available, err := h.ReservationService.AvailableFor(c.Request.Context(), productID, unit)
	if err != nil {
		respondError(c, response.CodeInternal, "error.stock_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{"product_id": productID, "unit": unit, "available": available})
}
