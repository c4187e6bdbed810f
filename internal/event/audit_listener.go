package event

import (
	"context"

	"github.com/stockhold-next/internal/models"
	"github.com/stockhold-next/internal/repository"

	"gorm.io/gorm"
)

// AuditListener 将事件写入预占审计日志（与业务同事务）
type AuditListener struct {
	repo repository.ReservationAuditLogRepository
}

// NewAuditListener 创建审计监听器
func NewAuditListener(repo repository.ReservationAuditLogRepository) *AuditListener {
	return &AuditListener{repo: repo}
}

// Handle 实现 Listener
func (l *AuditListener) Handle(_ context.Context, tx *gorm.DB, evt Event) error {
	if l == nil || l.repo == nil {
		return nil
	}
	repo := l.repo
	if tx != nil {
		repo = l.repo.WithTx(tx)
	}
	detail := models.JSON{}
	if evt.CartItemID != 0 {
		detail["cart_item_id"] = evt.CartItemID
	}
	return repo.Create(&models.ReservationAuditLog{
		Event:       evt.Name,
		UserID:      evt.UserID,
		OrderID:     evt.OrderID,
		ProductID:   evt.ProductID,
		Unit:        evt.Unit,
		WarehouseID: evt.WarehouseID,
		Quantity:    evt.Quantity,
		Reason:      evt.Reason,
		Detail:      detail,
		CreatedAt:   evt.OccurredAt,
	})
}
