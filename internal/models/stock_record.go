package models

import (
	"strings"
	"time"
)

// StockRecord 库存台账（商品 + 仓库 + 计量单位 唯一）
// 同一商品可按不同计量单位销售，每个单位拥有独立的库存池。
type StockRecord struct {
	ID            uint       `gorm:"primarykey" json:"id"`                                                               // 主键
	ProductID     uint       `gorm:"not null;uniqueIndex:idx_stock_product_warehouse_unit" json:"product_id"`            // 商品ID
	WarehouseID   uint       `gorm:"not null;index;uniqueIndex:idx_stock_product_warehouse_unit" json:"warehouse_id"`    // 仓库ID
	Unit          string     `gorm:"type:varchar(32);not null;uniqueIndex:idx_stock_product_warehouse_unit" json:"unit"` // 计量单位
	Stock         int        `gorm:"not null;default:0" json:"stock"`                                                    // 实物库存总量
	ReservedStock int        `gorm:"not null;default:0" json:"reserved_stock"`                                           // 已预占数量
	MinStock      *int       `json:"min_stock,omitempty"`                                                                // 补货阈值（仅展示）
	SyncedAt      *time.Time `gorm:"index" json:"synced_at,omitempty"`                                                   // 最近一次 ERP 同步时间
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`                                                            // 创建时间
	UpdatedAt     time.Time  `gorm:"index" json:"updated_at"`                                                            // 更新时间

	Warehouse *Warehouse `gorm:"foreignKey:WarehouseID" json:"warehouse,omitempty"` // 关联仓库
}

// TableName 指定表名
func (StockRecord) TableName() string {
	return "stock_records"
}

// Available 可用库存 = 总量 - 预占；外部同步缩减总量后可能为负
func (r *StockRecord) Available() int {
	if r == nil {
		return 0
	}
	return r.Stock - r.ReservedStock
}

// BelowMinStock 是否低于补货阈值
func (r *StockRecord) BelowMinStock() bool {
	if r == nil || r.MinStock == nil {
		return false
	}
	return r.Available() < *r.MinStock
}

// StockKey 台账定位键
type StockKey struct {
	ProductID   uint
	WarehouseID uint
	Unit        string
}

// NormalizeUnit 统一计量单位写法
func NormalizeUnit(unit string) string {
	return strings.ToLower(strings.TrimSpace(unit))
}

// Key 返回台账定位键
func (r *StockRecord) Key() StockKey {
	return StockKey{ProductID: r.ProductID, WarehouseID: r.WarehouseID, Unit: r.Unit}
}
