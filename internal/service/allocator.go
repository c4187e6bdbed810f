package service

import (
	"github.com/stockhold-next/internal/metrics"
	"github.com/stockhold-next/internal/models"
	"github.com/stockhold-next/internal/repository"

	"gorm.io/gorm"
)

// Demand 一次预占需求
type Demand struct {
	ProductID uint
	Unit      string
	Quantity  int
}

// AllocationResult 分配结果；库存不足是常见结果而非异常，通过 Allocated 表达
type AllocationResult struct {
	Allocated      bool
	Warehouse      *models.Warehouse
	Record         *models.StockRecord
	TotalAvailable int
	Scanned        int
}

// Allocator 按仓库优先级选择单一仓库完成预占，不跨仓拆分
type Allocator struct {
	warehouseRepo repository.WarehouseRepository
	stockRepo     repository.StockRecordRepository
	ledger        *StockLedger
}

// NewAllocator 创建分配器
func NewAllocator(warehouseRepo repository.WarehouseRepository, stockRepo repository.StockRecordRepository, ledger *StockLedger) *Allocator {
	return &Allocator{
		warehouseRepo: warehouseRepo,
		stockRepo:     stockRepo,
		ledger:        ledger,
	}
}

// Allocate 按优先级扫描启用仓库，第一个可用库存满足整单需求的仓库被选中并预占
func (a *Allocator) Allocate(tx *gorm.DB, demand Demand) (*AllocationResult, error) {
	if demand.ProductID == 0 {
		return nil, ErrInvalidStockKey
	}
	if demand.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	unit := models.NormalizeUnit(demand.Unit)
	warehouses, err := a.warehouseRepo.WithTx(tx).ActiveByPriority()
	if err != nil {
		return nil, err
	}
	stockRepo := a.stockRepo.WithTx(tx)

	result := &AllocationResult{}
	for i := range warehouses {
		warehouse := warehouses[i]
		result.Scanned++
		record, err := stockRepo.GetByKey(models.StockKey{
			ProductID:   demand.ProductID,
			WarehouseID: warehouse.ID,
			Unit:        unit,
		})
		if err != nil {
			return nil, err
		}
		if record == nil || record.Available() < demand.Quantity {
			continue
		}
		ok, err := a.ledger.Reserve(tx, record, demand.Quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			// 读到的可用量已被并发预占消耗，继续尝试下一个仓库
			continue
		}
		result.Allocated = true
		result.Warehouse = &warehouse
		result.Record = record
		break
	}
	metrics.AllocationScanDepth.Observe(float64(result.Scanned))

	if result.Allocated {
		metrics.Allocations.WithLabelValues(metrics.ResultSuccess).Inc()
		return result, nil
	}
	total, err := stockRepo.SumAvailable(demand.ProductID, unit)
	if err != nil {
		return nil, err
	}
	result.TotalAvailable = total
	metrics.Allocations.WithLabelValues(metrics.ResultInsufficient).Inc()
	return result, nil
}

// Reallocate 数量变化时先整单释放旧预占，再按新总量重新分配；两步处于同一外层事务
func (a *Allocator) Reallocate(tx *gorm.DB, previous models.StockKey, previousQuantity int, demand Demand) (*AllocationResult, error) {
	if err := a.ledger.ReleaseByKey(tx, previous, previousQuantity); err != nil {
		return nil, err
	}
	return a.Allocate(tx, demand)
}

// TotalAvailable 跨仓可用库存合计（可能为负）
func (a *Allocator) TotalAvailable(tx *gorm.DB, productID uint, unit string) (int, error) {
	return a.stockRepo.WithTx(tx).SumAvailable(productID, models.NormalizeUnit(unit))
}
