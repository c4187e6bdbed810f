package models

import (
	"time"

	"github.com/stockhold-next/internal/constants"
)

// CartItem 购物车项
// 预占信息（仓库 + 预占时间）挂在购物车项上，二者同时非空表示一条有效预占。
// 外部代码通过 Reservation() 读取显式状态，通过 Reserve/ClearReservation 迁移状态。
type CartItem struct {
	ID          uint       `gorm:"primarykey" json:"id"`                                                            // 主键
	UserID      uint       `gorm:"not null;uniqueIndex:idx_cart_user_product_unit" json:"user_id"`                  // 用户ID
	ProductID   uint       `gorm:"not null;uniqueIndex:idx_cart_user_product_unit" json:"product_id"`               // 商品ID
	Unit        string     `gorm:"type:varchar(32);not null;uniqueIndex:idx_cart_user_product_unit" json:"unit"`    // 计量单位
	Quantity    int        `gorm:"not null" json:"quantity"`                                                        // 数量
	WarehouseID *uint      `gorm:"index" json:"warehouse_id"`                                                       // 预占仓库
	ReservedAt  *time.Time `gorm:"index" json:"reserved_at"`                                                        // 预占时间
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`                                                         // 创建时间
	UpdatedAt   time.Time  `gorm:"index" json:"updated_at"`                                                         // 更新时间
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}

// Reservation 购物车项的预占状态
type Reservation struct {
	State       string
	WarehouseID uint
	Quantity    int
	ReservedAt  time.Time
}

// Active 是否处于已预占状态
func (r Reservation) Active() bool {
	return r.State == constants.ReservationStateReserved
}

// Reservation 返回显式的预占状态（none / reserved）
func (c *CartItem) Reservation() Reservation {
	if c == nil || c.WarehouseID == nil || *c.WarehouseID == 0 || c.ReservedAt == nil {
		return Reservation{State: constants.ReservationStateNone}
	}
	return Reservation{
		State:       constants.ReservationStateReserved,
		WarehouseID: *c.WarehouseID,
		Quantity:    c.Quantity,
		ReservedAt:  *c.ReservedAt,
	}
}

// Reserve 迁移到已预占状态
func (c *CartItem) Reserve(warehouseID uint, quantity int, at time.Time) {
	id := warehouseID
	ts := at
	c.WarehouseID = &id
	c.ReservedAt = &ts
	c.Quantity = quantity
}

// ClearReservation 迁移回未预占状态
func (c *CartItem) ClearReservation() {
	c.WarehouseID = nil
	c.ReservedAt = nil
}

// StockKey 返回当前预占对应的台账定位键，未预占时 ok 为 false
func (c *CartItem) StockKey() (StockKey, bool) {
	res := c.Reservation()
	if !res.Active() {
		return StockKey{}, false
	}
	return StockKey{ProductID: c.ProductID, WarehouseID: res.WarehouseID, Unit: c.Unit}, true
}
