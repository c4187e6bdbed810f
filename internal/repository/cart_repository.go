package repository

import (
	"errors"
	"time"

	"github.com/stockhold-next/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	ListByUser(userID uint) ([]models.CartItem, error)
	GetByUserProductUnit(userID, productID uint, unit string) (*models.CartItem, error)
	ListReservedBefore(cutoff time.Time, limit int) ([]models.CartItem, error)
	GetByID(id uint) (*models.CartItem, error)
	Save(item *models.CartItem) error
	Delete(item *models.CartItem) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// ListByUser 获取用户购物车项
func (r *GormCartRepository) ListByUser(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Where("user_id = ?", userID).Order("updated_at desc, id desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByUserProductUnit 获取用户某商品某单位的购物车项
func (r *GormCartRepository) GetByUserProductUnit(userID, productID uint, unit string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.Where("user_id = ? AND product_id = ? AND unit = ?", userID, productID, models.NormalizeUnit(unit)).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetByID 根据 ID 获取购物车项
func (r *GormCartRepository) GetByID(id uint) (*models.CartItem, error) {
	if id == 0 {
		return nil, nil
	}
	var item models.CartItem
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListReservedBefore 获取预占时间早于 cutoff 的购物车项
func (r *GormCartRepository) ListReservedBefore(cutoff time.Time, limit int) ([]models.CartItem, error) {
	query := r.db.Where("warehouse_id IS NOT NULL AND reserved_at IS NOT NULL AND reserved_at < ?", cutoff).
		Order("reserved_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var items []models.CartItem
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Save 新增或整体保存购物车项（包含预占字段的置空）
func (r *GormCartRepository) Save(item *models.CartItem) error {
	if item == nil {
		return nil
	}
	return r.db.Save(item).Error
}

// Delete 删除购物车项
func (r *GormCartRepository) Delete(item *models.CartItem) error {
	if item == nil || item.ID == 0 {
		return nil
	}
	return r.db.Delete(&models.CartItem{}, item.ID).Error
}
