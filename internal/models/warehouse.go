package models

import (
	"errors"
	"time"

	"github.com/stockhold-next/internal/constants"

	"gorm.io/gorm"
)

// Warehouse 仓库表
type Warehouse struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                     // 主键
	Name         string         `gorm:"type:varchar(120);not null" json:"name"`                   // 仓库名称
	Code         string         `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`        // 外部编码（ERP）
	Address      string         `gorm:"type:varchar(255)" json:"address"`                         // 地址
	ContactName  string         `gorm:"type:varchar(64)" json:"contact_name"`                     // 联系人
	ContactPhone string         `gorm:"type:varchar(32)" json:"contact_phone"`                    // 联系电话
	Priority     int            `gorm:"not null;default:999;index" json:"priority"`               // 分配优先级（越小越优先，1 为默认仓库）
	IsActive     bool           `gorm:"not null;index" json:"is_active"`                          // 是否参与分配
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                                  // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                           // 软删除时间

	priorityTouched bool
}

// TableName 指定表名
func (Warehouse) TableName() string {
	return "warehouses"
}

// IsDefault 是否为默认仓库
func (w *Warehouse) IsDefault() bool {
	return w != nil && w.Priority == constants.WarehousePriorityDefault
}

// BeforeCreate 以优先级 1 创建时标记需要校正默认仓库
func (w *Warehouse) BeforeCreate(tx *gorm.DB) error {
	if w != nil {
		w.priorityTouched = w.Priority == constants.WarehousePriorityDefault
	}
	return nil
}

// BeforeUpdate 仅在本次写入改动了 priority 时标记校正
func (w *Warehouse) BeforeUpdate(tx *gorm.DB) error {
	if w != nil {
		w.priorityTouched = tx.Statement.Changed("Priority")
	}
	return nil
}

// AfterSave 优先级被写为 1 后统一校正默认仓库，保证至多一个仓库优先级为 1；
// 改名、改地址、启停等不涉及优先级的写入不会影响其他仓库的排序
func (w *Warehouse) AfterSave(tx *gorm.DB) error {
	if w == nil || !w.priorityTouched {
		return nil
	}
	w.priorityTouched = false
	return NormalizeDefaultWarehouse(tx, w.ID)
}

// NormalizeDefaultWarehouse 默认仓库校正
// changedID 非 0 且该仓库当前优先级为 1 时，其余仓库优先级全部重置为哨兵值；
// changedID 为 0（无主键的批量更新）时，保留最近更新的优先级 1 仓库，其余重置。
// 重置使用 UpdateColumn，不会再次触发钩子。
func NormalizeDefaultWarehouse(tx *gorm.DB, changedID uint) error {
	if tx == nil {
		return nil
	}
	if changedID != 0 {
		var current Warehouse
		if err := tx.Unscoped().Select("id", "priority", "deleted_at").First(&current, changedID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if current.Priority != constants.WarehousePriorityDefault || current.DeletedAt.Valid {
			return nil
		}
		return tx.Model(&Warehouse{}).
			Where("id <> ?", changedID).
			UpdateColumn("priority", constants.WarehousePrioritySentinel).Error
	}

	var defaults []Warehouse
	if err := tx.Select("id", "updated_at").
		Where("priority = ?", constants.WarehousePriorityDefault).
		Order("updated_at DESC, id DESC").
		Find(&defaults).Error; err != nil {
		return err
	}
	if len(defaults) <= 1 {
		return nil
	}
	return tx.Model(&Warehouse{}).
		Where("priority = ? AND id <> ?", constants.WarehousePriorityDefault, defaults[0].ID).
		UpdateColumn("priority", constants.WarehousePrioritySentinel).Error
}
