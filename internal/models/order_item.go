package models

import (
	"time"
)

// OrderItem 订单项表
// WarehouseID 在下单时从购物车项的预占继承，订单结束时据此扣减或释放库存。
type OrderItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`                     // 主键
	OrderID     uint      `gorm:"index;not null" json:"order_id"`           // 订单ID
	ProductID   uint      `gorm:"index;not null" json:"product_id"`         // 商品ID
	Unit        string    `gorm:"type:varchar(32);not null" json:"unit"`    // 计量单位
	Quantity    int       `gorm:"not null" json:"quantity"`                 // 数量
	WarehouseID *uint     `gorm:"index" json:"warehouse_id"`                // 预占仓库
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                  // 创建时间
	UpdatedAt   time.Time `gorm:"index" json:"updated_at"`                  // 更新时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}

// StockKey 返回订单项对应的台账定位键，无仓库时 ok 为 false
func (i *OrderItem) StockKey() (StockKey, bool) {
	if i == nil || i.WarehouseID == nil || *i.WarehouseID == 0 {
		return StockKey{}, false
	}
	return StockKey{ProductID: i.ProductID, WarehouseID: *i.WarehouseID, Unit: i.Unit}, true
}
