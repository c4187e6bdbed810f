package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/stockhold-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockRecordRepository 库存台账数据访问接口
type StockRecordRepository interface {
	GetByID(id uint) (*models.StockRecord, error)
	GetByIDForUpdate(id uint) (*models.StockRecord, error)
	GetByKey(key models.StockKey) (*models.StockRecord, error)
	GetByKeyForUpdate(key models.StockKey) (*models.StockRecord, error)
	ListByProductUnit(productID uint, unit string) ([]models.StockRecord, error)
	SumAvailable(productID uint, unit string) (int, error)
	HasReservedInWarehouse(warehouseID uint) (bool, error)
	List(filter StockRecordListFilter) ([]models.StockRecord, int64, error)
	Reserve(id uint, quantity int) (int64, error)
	Release(id uint, quantity int) (int64, error)
	Reduce(id uint, quantity int) (int64, error)
	UpsertStock(key models.StockKey, stock int, minStock *int, syncedAt *time.Time) (*models.StockRecord, error)
	ResetUnsynced(before time.Time) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormStockRecordRepository
}

// GormStockRecordRepository GORM 实现
type GormStockRecordRepository struct {
	db *gorm.DB
}

// NewStockRecordRepository 创建库存台账仓储
func NewStockRecordRepository(db *gorm.DB) *GormStockRecordRepository {
	return &GormStockRecordRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStockRecordRepository) WithTx(tx *gorm.DB) *GormStockRecordRepository {
	if tx == nil {
		return r
	}
	return &GormStockRecordRepository{db: tx}
}

// Transaction 执行事务
func (r *GormStockRecordRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 根据 ID 获取台账
func (r *GormStockRecordRepository) GetByID(id uint) (*models.StockRecord, error) {
	if id == 0 {
		return nil, nil
	}
	var record models.StockRecord
	if err := r.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByIDForUpdate 根据 ID 加锁获取台账，需在事务内调用
func (r *GormStockRecordRepository) GetByIDForUpdate(id uint) (*models.StockRecord, error) {
	if id == 0 {
		return nil, nil
	}
	var record models.StockRecord
	if err := forUpdate(r.db).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *GormStockRecordRepository) byKey(query *gorm.DB, key models.StockKey) (*models.StockRecord, error) {
	if key.ProductID == 0 || key.WarehouseID == 0 {
		return nil, nil
	}
	var record models.StockRecord
	if err := query.Where("product_id = ? AND warehouse_id = ? AND unit = ?", key.ProductID, key.WarehouseID, models.NormalizeUnit(key.Unit)).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByKey 按（商品, 仓库, 单位）获取台账
func (r *GormStockRecordRepository) GetByKey(key models.StockKey) (*models.StockRecord, error) {
	return r.byKey(r.db, key)
}

// GetByKeyForUpdate 按（商品, 仓库, 单位）加锁获取台账，需在事务内调用
func (r *GormStockRecordRepository) GetByKeyForUpdate(key models.StockKey) (*models.StockRecord, error) {
	return r.byKey(forUpdate(r.db), key)
}

// ListByProductUnit 获取某商品某单位在所有仓库的台账
func (r *GormStockRecordRepository) ListByProductUnit(productID uint, unit string) ([]models.StockRecord, error) {
	if productID == 0 {
		return []models.StockRecord{}, nil
	}
	var rows []models.StockRecord
	if err := r.db.Where("product_id = ? AND unit = ?", productID, models.NormalizeUnit(unit)).
		Order("warehouse_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SumAvailable 汇总某商品某单位在所有仓库的可用库存（stock - reserved_stock）
func (r *GormStockRecordRepository) SumAvailable(productID uint, unit string) (int, error) {
	if productID == 0 {
		return 0, nil
	}
	var total int64
	row := r.db.Model(&models.StockRecord{}).
		Select("COALESCE(SUM(stock - reserved_stock), 0)").
		Where("product_id = ? AND unit = ?", productID, models.NormalizeUnit(unit)).
		Row()
	if err := row.Scan(&total); err != nil {
		return 0, err
	}
	return int(total), nil
}

// HasReservedInWarehouse 仓库下是否仍有预占
func (r *GormStockRecordRepository) HasReservedInWarehouse(warehouseID uint) (bool, error) {
	if warehouseID == 0 {
		return false, nil
	}
	var count int64
	if err := r.db.Model(&models.StockRecord{}).
		Where("warehouse_id = ? AND reserved_stock > 0", warehouseID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List 分页查询台账
func (r *GormStockRecordRepository) List(filter StockRecordListFilter) ([]models.StockRecord, int64, error) {
	query := r.db.Model(&models.StockRecord{})
	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.WarehouseID != 0 {
		query = query.Where("warehouse_id = ?", filter.WarehouseID)
	}
	if unit := models.NormalizeUnit(filter.Unit); unit != "" {
		query = query.Where("unit = ?", unit)
	}
	if filter.OnlyBelowMin {
		query = query.Where("min_stock IS NOT NULL AND stock - reserved_stock < min_stock")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if filter.WithWarehouse {
		query = query.Preload("Warehouse")
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.StockRecord
	if err := query.Order("product_id ASC, warehouse_id ASC, unit ASC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Reserve 预占库存：仅在可用库存充足时增加 reserved_stock
func (r *GormStockRecordRepository) Reserve(id uint, quantity int) (int64, error) {
	if id == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock reserve params")
	}
	result := r.db.Model(&models.StockRecord{}).
		Where("id = ? AND stock - reserved_stock >= ?", id, quantity).
		Updates(map[string]interface{}{
			"reserved_stock": gorm.Expr("reserved_stock + ?", quantity),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Release 释放预占：reserved_stock 扣减后下限为 0，多余的释放量被吸收
func (r *GormStockRecordRepository) Release(id uint, quantity int) (int64, error) {
	if id == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock release params")
	}
	result := r.db.Model(&models.StockRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reserved_stock": gorm.Expr("CASE WHEN reserved_stock > ? THEN reserved_stock - ? ELSE 0 END", quantity, quantity),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Reduce 扣减库存（订单完成）：实物库存必须充足，预占同步扣减且下限为 0
func (r *GormStockRecordRepository) Reduce(id uint, quantity int) (int64, error) {
	if id == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock reduce params")
	}
	result := r.db.Model(&models.StockRecord{}).
		Where("id = ? AND stock >= ?", id, quantity).
		Updates(map[string]interface{}{
			"stock":          gorm.Expr("stock - ?", quantity),
			"reserved_stock": gorm.Expr("CASE WHEN reserved_stock > ? THEN reserved_stock - ? ELSE 0 END", quantity, quantity),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpsertStock 覆盖写入实物库存（ERP 同步 / 手工录入），不改变预占数量
func (r *GormStockRecordRepository) UpsertStock(key models.StockKey, stock int, minStock *int, syncedAt *time.Time) (*models.StockRecord, error) {
	unit := models.NormalizeUnit(key.Unit)
	if key.ProductID == 0 || key.WarehouseID == 0 || strings.TrimSpace(unit) == "" {
		return nil, errors.New("invalid stock key")
	}
	if stock < 0 {
		return nil, errors.New("stock must not be negative")
	}
	record := &models.StockRecord{
		ProductID:   key.ProductID,
		WarehouseID: key.WarehouseID,
		Unit:        unit,
		Stock:       stock,
		MinStock:    minStock,
		SyncedAt:    syncedAt,
	}
	assign := []string{"stock", "updated_at"}
	if minStock != nil {
		assign = append(assign, "min_stock")
	}
	if syncedAt != nil {
		assign = append(assign, "synced_at")
	}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "warehouse_id"}, {Name: "unit"}},
		DoUpdates: clause.AssignmentColumns(assign),
	}).Create(record).Error; err != nil {
		return nil, err
	}
	return r.GetByKey(models.StockKey{ProductID: key.ProductID, WarehouseID: key.WarehouseID, Unit: unit})
}

// ResetUnsynced 将本轮同步未覆盖到的台账实物库存清零
func (r *GormStockRecordRepository) ResetUnsynced(before time.Time) (int64, error) {
	result := r.db.Model(&models.StockRecord{}).
		Where("synced_at IS NULL OR synced_at < ?", before).
		Updates(map[string]interface{}{
			"stock":     0,
			"synced_at": before,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
