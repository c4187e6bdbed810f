package repository

import (
	"errors"
	"strings"

	"github.com/stockhold-next/internal/models"

	"gorm.io/gorm"
)

// ReservationAuditLogRepository 预占审计日志数据访问接口
type ReservationAuditLogRepository interface {
	Create(log *models.ReservationAuditLog) error
	List(filter ReservationAuditLogListFilter) ([]models.ReservationAuditLog, int64, error)
	WithTx(tx *gorm.DB) *GormReservationAuditLogRepository
}

// GormReservationAuditLogRepository GORM 实现
type GormReservationAuditLogRepository struct {
	db *gorm.DB
}

// NewReservationAuditLogRepository 创建预占审计日志仓库
func NewReservationAuditLogRepository(db *gorm.DB) *GormReservationAuditLogRepository {
	return &GormReservationAuditLogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReservationAuditLogRepository) WithTx(tx *gorm.DB) *GormReservationAuditLogRepository {
	if tx == nil {
		return r
	}
	return &GormReservationAuditLogRepository{db: tx}
}

// Create 创建审计日志
func (r *GormReservationAuditLogRepository) Create(log *models.ReservationAuditLog) error {
	if log == nil {
		return errors.New("audit log is nil")
	}
	return r.db.Create(log).Error
}

// List 分页查询审计日志
func (r *GormReservationAuditLogRepository) List(filter ReservationAuditLogListFilter) ([]models.ReservationAuditLog, int64, error) {
	query := r.db.Model(&models.ReservationAuditLog{})
	if event := strings.TrimSpace(filter.Event); event != "" {
		query = query.Where("event = ?", event)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.WarehouseID != 0 {
		query = query.Where("warehouse_id = ?", filter.WarehouseID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.ReservationAuditLog
	if err := query.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
