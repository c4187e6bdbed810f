package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ReservationAuditLog 预占审计日志
type ReservationAuditLog struct {
	ID          uint      `gorm:"primarykey" json:"id"`                         // 主键
	Event       string    `gorm:"type:varchar(64);not null;index" json:"event"` // 事件名
	UserID      uint      `gorm:"index" json:"user_id"`                         // 用户ID
	OrderID     uint      `gorm:"index" json:"order_id"`                        // 订单ID
	ProductID   uint      `gorm:"index" json:"product_id"`                      // 商品ID
	Unit        string    `gorm:"type:varchar(32)" json:"unit"`                 // 计量单位
	WarehouseID uint      `gorm:"index" json:"warehouse_id"`                    // 仓库ID
	Quantity    int       `json:"quantity"`                                     // 数量
	Reason      string    `gorm:"type:varchar(32)" json:"reason"`               // 原因
	Detail      JSON      `gorm:"type:text" json:"detail"`                      // 附加信息
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                      // 创建时间
}

// TableName 指定表名
func (ReservationAuditLog) TableName() string {
	return "reservation_audit_logs"
}

// JSON 以文本列存储的 JSON 对象
type JSON map[string]interface{}

// Value 实现 driver.Valuer
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan 实现 sql.Scanner
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = JSON{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported json column type")
	}
	if len(raw) == 0 {
		*j = JSON{}
		return nil
	}
	result := JSON{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*j = result
	return nil
}
