package models

import (
	"time"
)

// Order 订单表（仅保留影响库存的字段，支付/价格由订单系统负责）
type Order struct {
	ID             uint       `gorm:"primarykey" json:"id"`                     // 主键
	OrderNo        string     `gorm:"uniqueIndex;not null" json:"order_no"`     // 订单编号
	UserID         uint       `gorm:"index;not null" json:"user_id"`            // 用户ID
	Status         string     `gorm:"index;not null" json:"status"`             // 订单状态
	StockSettledAt *time.Time `gorm:"index" json:"stock_settled_at"`            // 库存结算时间（扣减或释放后写入）
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`                  // 创建时间
	UpdatedAt      time.Time  `gorm:"index" json:"updated_at"`                  // 更新时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// StockSettled 库存是否已结算
func (o *Order) StockSettled() bool {
	return o != nil && o.StockSettledAt != nil
}
