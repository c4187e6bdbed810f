package service

import (
	"github.com/stockhold-next/internal/logger"
	"github.com/stockhold-next/internal/metrics"
	"github.com/stockhold-next/internal/models"
	"github.com/stockhold-next/internal/repository"

	"gorm.io/gorm"
)

const (
	ledgerOpReserve = "reserve"
	ledgerOpRelease = "release"
	ledgerOpReduce  = "reduce"
)

// StockLedger 库存台账，stock / reserved_stock 的唯一写入入口
// 每个操作都在调用方事务内执行：先锁定台账行，再做带条件的原子更新，最后回填最新值。
// 本层不发布事件。
type StockLedger struct {
	repo repository.StockRecordRepository
}

// NewStockLedger 创建库存台账
func NewStockLedger(repo repository.StockRecordRepository) *StockLedger {
	return &StockLedger{repo: repo}
}

// Reserve 预占；可用库存不足时返回 false 且不做任何修改
func (l *StockLedger) Reserve(tx *gorm.DB, record *models.StockRecord, quantity int) (bool, error) {
	if record == nil || record.ID == 0 {
		return false, ErrInvalidStockKey
	}
	if quantity <= 0 {
		return false, ErrInvalidQuantity
	}
	repo := l.repo.WithTx(tx)
	locked, err := repo.GetByIDForUpdate(record.ID)
	if err != nil {
		metrics.ObserveLedger(ledgerOpReserve, metrics.ResultError, quantity)
		return false, err
	}
	if locked == nil {
		metrics.ObserveLedger(ledgerOpReserve, metrics.ResultMissing, quantity)
		return false, nil
	}
	if locked.Available() < quantity {
		*record = *locked
		metrics.ObserveLedger(ledgerOpReserve, metrics.ResultInsufficient, quantity)
		return false, nil
	}
	affected, err := repo.Reserve(locked.ID, quantity)
	if err != nil {
		metrics.ObserveLedger(ledgerOpReserve, metrics.ResultError, quantity)
		return false, err
	}
	if affected == 0 {
		metrics.ObserveLedger(ledgerOpReserve, metrics.ResultInsufficient, quantity)
		return false, nil
	}
	if err := reloadStockRecord(repo, record); err != nil {
		return false, err
	}
	metrics.ObserveLedger(ledgerOpReserve, metrics.ResultSuccess, quantity)
	return true, nil
}

// Release 释放预占，超额释放被截断到 0，不返回业务错误
func (l *StockLedger) Release(tx *gorm.DB, record *models.StockRecord, quantity int) error {
	if record == nil || record.ID == 0 || quantity <= 0 {
		return nil
	}
	repo := l.repo.WithTx(tx)
	locked, err := repo.GetByIDForUpdate(record.ID)
	if err != nil {
		metrics.ObserveLedger(ledgerOpRelease, metrics.ResultError, quantity)
		return err
	}
	if locked == nil {
		metrics.ObserveLedger(ledgerOpRelease, metrics.ResultMissing, quantity)
		return nil
	}
	if _, err := repo.Release(locked.ID, quantity); err != nil {
		metrics.ObserveLedger(ledgerOpRelease, metrics.ResultError, quantity)
		return err
	}
	if err := reloadStockRecord(repo, record); err != nil {
		return err
	}
	metrics.ObserveLedger(ledgerOpRelease, metrics.ResultSuccess, quantity)
	return nil
}

// Reduce 订单完成扣减；实物库存不足时返回 false 且不做任何修改
func (l *StockLedger) Reduce(tx *gorm.DB, record *models.StockRecord, quantity int) (bool, error) {
	if record == nil || record.ID == 0 {
		return false, ErrInvalidStockKey
	}
	if quantity <= 0 {
		return false, ErrInvalidQuantity
	}
	repo := l.repo.WithTx(tx)
	locked, err := repo.GetByIDForUpdate(record.ID)
	if err != nil {
		metrics.ObserveLedger(ledgerOpReduce, metrics.ResultError, quantity)
		return false, err
	}
	if locked == nil {
		metrics.ObserveLedger(ledgerOpReduce, metrics.ResultMissing, quantity)
		return false, nil
	}
	if locked.Stock < quantity {
		*record = *locked
		metrics.ObserveLedger(ledgerOpReduce, metrics.ResultInsufficient, quantity)
		return false, nil
	}
	affected, err := repo.Reduce(locked.ID, quantity)
	if err != nil {
		metrics.ObserveLedger(ledgerOpReduce, metrics.ResultError, quantity)
		return false, err
	}
	if affected == 0 {
		metrics.ObserveLedger(ledgerOpReduce, metrics.ResultInsufficient, quantity)
		return false, nil
	}
	if err := reloadStockRecord(repo, record); err != nil {
		return false, err
	}
	metrics.ObserveLedger(ledgerOpReduce, metrics.ResultSuccess, quantity)
	return true, nil
}

// ReleaseByKey 按（商品, 仓库, 单位）释放；台账行不存在时静默跳过
func (l *StockLedger) ReleaseByKey(tx *gorm.DB, key models.StockKey, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	record, err := l.repo.WithTx(tx).GetByKeyForUpdate(key)
	if err != nil {
		return err
	}
	if record == nil {
		logger.Debugw("stock_ledger_row_missing",
			"op", ledgerOpRelease,
			"product_id", key.ProductID,
			"warehouse_id", key.WarehouseID,
			"unit", key.Unit,
			"quantity", quantity,
		)
		metrics.ObserveLedger(ledgerOpRelease, metrics.ResultMissing, quantity)
		return nil
	}
	return l.Release(tx, record, quantity)
}

// ReduceByKey 按（商品, 仓库, 单位）扣减；台账行不存在时静默跳过并视为成功。
// 返回的 record 为扣减后（或失败时）的台账快照，行不存在时为 nil。
func (l *StockLedger) ReduceByKey(tx *gorm.DB, key models.StockKey, quantity int) (bool, *models.StockRecord, error) {
	if quantity <= 0 {
		return true, nil, nil
	}
	record, err := l.repo.WithTx(tx).GetByKeyForUpdate(key)
	if err != nil {
		return false, nil, err
	}
	if record == nil {
		logger.Debugw("stock_ledger_row_missing",
			"op", ledgerOpReduce,
			"product_id", key.ProductID,
			"warehouse_id", key.WarehouseID,
			"unit", key.Unit,
			"quantity", quantity,
		)
		metrics.ObserveLedger(ledgerOpReduce, metrics.ResultMissing, quantity)
		return true, nil, nil
	}
	ok, err := l.Reduce(tx, record, quantity)
	return ok, record, err
}

func reloadStockRecord(repo repository.StockRecordRepository, record *models.StockRecord) error {
	fresh, err := repo.GetByID(record.ID)
	if err != nil {
		return err
	}
	if fresh != nil {
		*record = *fresh
	}
	return nil
}
