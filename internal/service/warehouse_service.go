package service

import (
	"errors"
	"strings"

	"github.com/stockhold-next/internal/constants"
	"github.com/stockhold-next/internal/logger"
	"github.com/stockhold-next/internal/models"
	"github.com/stockhold-next/internal/repository"

	"gorm.io/gorm"
)

// WarehouseService 仓库目录服务
type WarehouseService struct {
	repo      repository.WarehouseRepository
	stockRepo repository.StockRecordRepository
}

// NewWarehouseService 创建仓库服务
func NewWarehouseService(repo repository.WarehouseRepository, stockRepo repository.StockRecordRepository) *WarehouseService {
	return &WarehouseService{repo: repo, stockRepo: stockRepo}
}

// CreateWarehouseInput 创建仓库输入
type CreateWarehouseInput struct {
	Name         string
	Code         string
	Address      string
	ContactName  string
	ContactPhone string
	Priority     int
	IsActive     bool
}

// UpdateWarehouseInput 更新仓库输入，nil 字段保持不变
type UpdateWarehouseInput struct {
	Name         *string
	Code         *string
	Address      *string
	ContactName  *string
	ContactPhone *string
	Priority     *int
	IsActive     *bool
}

// ActiveByPriority 返回参与分配的仓库，按优先级升序
func (s *WarehouseService) ActiveByPriority() ([]models.Warehouse, error) {
	return s.repo.ActiveByPriority()
}

// List 分页查询仓库
func (s *WarehouseService) List(filter repository.WarehouseListFilter) ([]models.Warehouse, int64, error) {
	return s.repo.List(filter)
}

// Get 获取仓库
func (s *WarehouseService) Get(id uint) (*models.Warehouse, error) {
	warehouse, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, ErrWarehouseNotFound
	}
	return warehouse, nil
}

// Create 创建仓库；优先级为 1 时由模型钩子重置其他仓库
func (s *WarehouseService) Create(input CreateWarehouseInput) (*models.Warehouse, error) {
	name := strings.TrimSpace(input.Name)
	code := strings.TrimSpace(input.Code)
	if name == "" || code == "" {
		return nil, ErrWarehouseInvalid
	}
	priority := input.Priority
	if priority <= 0 {
		priority = constants.WarehousePrioritySentinel
	}
	// 默认仓库必须参与分配
	if priority == constants.WarehousePriorityDefault && !input.IsActive {
		return nil, ErrWarehouseInvalid
	}

	warehouse := &models.Warehouse{
		Name:         name,
		Code:         code,
		Address:      strings.TrimSpace(input.Address),
		ContactName:  strings.TrimSpace(input.ContactName),
		ContactPhone: strings.TrimSpace(input.ContactPhone),
		Priority:     priority,
		IsActive:     input.IsActive,
	}
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.GetByCode(code)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrWarehouseCodeExists
		}
		return repo.Create(warehouse)
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("warehouse_created",
		"warehouse_id", warehouse.ID,
		"code", warehouse.Code,
		"priority", warehouse.Priority,
		"is_active", warehouse.IsActive,
	)
	return warehouse, nil
}

// Update 通用更新路径；把优先级改为 1 与 SetDefault 一样会重置其他仓库
func (s *WarehouseService) Update(id uint, input UpdateWarehouseInput) (*models.Warehouse, error) {
	var updated *models.Warehouse
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		warehouse, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		if warehouse == nil {
			return ErrWarehouseNotFound
		}

		updates := map[string]interface{}{}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return ErrWarehouseInvalid
			}
			updates["name"] = name
		}
		if input.Code != nil {
			code := strings.TrimSpace(*input.Code)
			if code == "" {
				return ErrWarehouseInvalid
			}
			if code != warehouse.Code {
				existing, err := repo.GetByCode(code)
				if err != nil {
					return err
				}
				if existing != nil && existing.ID != warehouse.ID {
					return ErrWarehouseCodeExists
				}
			}
			updates["code"] = code
		}
		if input.Address != nil {
			updates["address"] = strings.TrimSpace(*input.Address)
		}
		if input.ContactName != nil {
			updates["contact_name"] = strings.TrimSpace(*input.ContactName)
		}
		if input.ContactPhone != nil {
			updates["contact_phone"] = strings.TrimSpace(*input.ContactPhone)
		}
		if input.Priority != nil {
			if *input.Priority <= 0 {
				return ErrWarehouseInvalid
			}
			updates["priority"] = *input.Priority
		}
		if input.IsActive != nil {
			updates["is_active"] = *input.IsActive
		}
		if input.Priority != nil && *input.Priority == constants.WarehousePriorityDefault {
			// 与 SetDefault 一致：改为默认仓库时同时启用
			if input.IsActive != nil && !*input.IsActive {
				return ErrWarehouseInvalid
			}
			updates["is_active"] = true
		}
		if len(updates) > 0 {
			if err := repo.Update(warehouse, updates); err != nil {
				return err
			}
		}
		fresh, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		updated = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetDefault 设为默认仓库：优先级 1 且启用，其余仓库在同一事务内重置为 999
func (s *WarehouseService) SetDefault(id uint) (*models.Warehouse, error) {
	if id == 0 {
		return nil, ErrWarehouseNotFound
	}
	var target *models.Warehouse
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.SetDefault(id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWarehouseNotFound
			}
			return err
		}
		warehouse, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		if warehouse == nil {
			return ErrWarehouseNotFound
		}
		target = warehouse
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("warehouse_set_default", "warehouse_id", target.ID, "code", target.Code)
	return target, nil
}

// Delete 软删除仓库；仍持有预占的仓库不可删除
func (s *WarehouseService) Delete(id uint) error {
	warehouse, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if warehouse == nil {
		return ErrWarehouseNotFound
	}
	reserved, err := s.stockRepo.HasReservedInWarehouse(id)
	if err != nil {
		return err
	}
	if reserved {
		return ErrWarehouseInUse
	}
	return s.repo.Delete(id)
}

// CheckDefaultInvariant 检查启用的默认仓库至多一个，用于巡检
func (s *WarehouseService) CheckDefaultInvariant() error {
	defaults, err := s.repo.ListDefaults()
	if err != nil {
		return err
	}
	active := 0
	for _, warehouse := range defaults {
		if warehouse.IsActive {
			active++
		}
	}
	if active > 1 {
		logger.Errorw("warehouse_default_invariant_violated", "count", active)
		return ErrPriorityInvariantViolation
	}
	return nil
}
