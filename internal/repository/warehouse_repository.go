package repository

import (
	"errors"
	"strings"

	"github.com/stockhold-next/internal/constants"
	"github.com/stockhold-next/internal/models"

	"gorm.io/gorm"
)

// WarehouseRepository 仓库数据访问接口
type WarehouseRepository interface {
	ActiveByPriority() ([]models.Warehouse, error)
	GetByID(id uint) (*models.Warehouse, error)
	GetByCode(code string) (*models.Warehouse, error)
	ListByCodes(codes []string) ([]models.Warehouse, error)
	ListDefaults() ([]models.Warehouse, error)
	List(filter WarehouseListFilter) ([]models.Warehouse, int64, error)
	Create(warehouse *models.Warehouse) error
	Update(warehouse *models.Warehouse, updates map[string]interface{}) error
	SetDefault(id uint) error
	Delete(id uint) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormWarehouseRepository
}

// GormWarehouseRepository GORM 实现
type GormWarehouseRepository struct {
	db *gorm.DB
}

// NewWarehouseRepository 创建仓库仓储
func NewWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWarehouseRepository) WithTx(tx *gorm.DB) *GormWarehouseRepository {
	if tx == nil {
		return r
	}
	return &GormWarehouseRepository{db: tx}
}

// Transaction 执行事务
func (r *GormWarehouseRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// ActiveByPriority 按优先级升序返回启用仓库，同优先级按创建顺序
func (r *GormWarehouseRepository) ActiveByPriority() ([]models.Warehouse, error) {
	var rows []models.Warehouse
	if err := r.db.Where("is_active = ?", true).
		Order("priority ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetByID 根据 ID 获取仓库
func (r *GormWarehouseRepository) GetByID(id uint) (*models.Warehouse, error) {
	if id == 0 {
		return nil, nil
	}
	var warehouse models.Warehouse
	if err := r.db.First(&warehouse, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &warehouse, nil
}

// GetByCode 根据外部编码获取仓库
func (r *GormWarehouseRepository) GetByCode(code string) (*models.Warehouse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var warehouse models.Warehouse
	if err := r.db.Where("code = ?", code).First(&warehouse).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &warehouse, nil
}

// ListByCodes 批量按编码获取仓库
func (r *GormWarehouseRepository) ListByCodes(codes []string) ([]models.Warehouse, error) {
	if len(codes) == 0 {
		return []models.Warehouse{}, nil
	}
	var rows []models.Warehouse
	if err := r.db.Where("code IN ?", codes).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListDefaults 获取所有优先级为 1 的仓库
func (r *GormWarehouseRepository) ListDefaults() ([]models.Warehouse, error) {
	var rows []models.Warehouse
	if err := r.db.Where("priority = ?", constants.WarehousePriorityDefault).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List 分页查询仓库
func (r *GormWarehouseRepository) List(filter WarehouseListFilter) ([]models.Warehouse, int64, error) {
	query := r.db.Model(&models.Warehouse{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"name", "code"})
		query = query.Where(condition, repeatLikeArgs("%"+search+"%", argCount)...)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Warehouse
	if err := query.Order("priority ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Create 创建仓库
func (r *GormWarehouseRepository) Create(warehouse *models.Warehouse) error {
	if warehouse == nil {
		return errors.New("warehouse is nil")
	}
	return r.db.Create(warehouse).Error
}

// Update 按字段更新仓库（经过 AfterSave 钩子）
func (r *GormWarehouseRepository) Update(warehouse *models.Warehouse, updates map[string]interface{}) error {
	if warehouse == nil || warehouse.ID == 0 {
		return errors.New("invalid warehouse")
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(warehouse).Updates(updates).Error
}

// SetDefault 设为默认仓库：优先级 1 并启用，其余仓库由钩子重置
func (r *GormWarehouseRepository) SetDefault(id uint) error {
	if id == 0 {
		return errors.New("invalid warehouse id")
	}
	target := &models.Warehouse{ID: id}
	result := r.db.Model(target).Updates(map[string]interface{}{
		"priority":  constants.WarehousePriorityDefault,
		"is_active": true,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete 软删除仓库
func (r *GormWarehouseRepository) Delete(id uint) error {
	if id == 0 {
		return errors.New("invalid warehouse id")
	}
	return r.db.Delete(&models.Warehouse{}, id).Error
}
