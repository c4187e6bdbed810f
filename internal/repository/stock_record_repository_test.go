package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stockhold-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRepositoryTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func createTestWarehouse(t *testing.T, db *gorm.DB, code string, priority int, active bool) models.Warehouse {
	t.Helper()
	w := models.Warehouse{Name: code, Code: code, Priority: priority, IsActive: active}
	if err := db.Create(&w).Error; err != nil {
		t.Fatalf("create warehouse %s failed: %v", code, err)
	}
	return w
}

func createTestStockRecord(t *testing.T, db *gorm.DB, productID, warehouseID uint, unit string, stock, reserved int) models.StockRecord {
	t.Helper()
	record := models.StockRecord{ProductID: productID, WarehouseID: warehouseID, Unit: unit, Stock: stock, ReservedStock: reserved}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("create stock record failed: %v", err)
	}
	return record
}

func TestStockRecordRepositoryReserveGuardsAvailable(t *testing.T) {
	db := setupRepositoryTestDB(t, "stock_repo_reserve")
	repo := NewStockRecordRepository(db)
	w := createTestWarehouse(t, db, "W1", 1, true)
	record := createTestStockRecord(t, db, 10, w.ID, "kg", 5, 3)

	affected, err := repo.Reserve(record.ID, 3)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected insufficient reserve to affect 0 rows, got %d", affected)
	}

	affected, err = repo.Reserve(record.ID, 2)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected reserve to affect 1 row, got %d", affected)
	}
	reloaded, err := repo.GetByID(record.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.ReservedStock != 5 || reloaded.Available() != 0 {
		t.Fatalf("unexpected record after reserve: %+v", reloaded)
	}
}

func TestStockRecordRepositoryReleaseFloorsAtZero(t *testing.T) {
	db := setupRepositoryTestDB(t, "stock_repo_release")
	repo := NewStockRecordRepository(db)
	w := createTestWarehouse(t, db, "W1", 1, true)
	record := createTestStockRecord(t, db, 10, w.ID, "kg", 10, 2)

	if _, err := repo.Release(record.ID, 5); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	reloaded, _ := repo.GetByID(record.ID)
	if reloaded.ReservedStock != 0 {
		t.Fatalf("expected reserved floored at 0, got %d", reloaded.ReservedStock)
	}
	if reloaded.Stock != 10 {
		t.Fatalf("release must not touch stock, got %d", reloaded.Stock)
	}
}

func TestStockRecordRepositoryReduce(t *testing.T) {
	db := setupRepositoryTestDB(t, "stock_repo_reduce")
	repo := NewStockRecordRepository(db)
	w := createTestWarehouse(t, db, "W1", 1, true)
	record := createTestStockRecord(t, db, 10, w.ID, "kg", 10, 2)

	affected, err := repo.Reduce(record.ID, 4)
	if err != nil || affected != 1 {
		t.Fatalf("reduce failed: affected=%d err=%v", affected, err)
	}
	reloaded, _ := repo.GetByID(record.ID)
	if reloaded.Stock != 6 || reloaded.ReservedStock != 0 {
		t.Fatalf("unexpected record after reduce: %+v", reloaded)
	}

	affected, err = repo.Reduce(record.ID, 7)
	if err != nil {
		t.Fatalf("reduce shortfall returned error: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected reduce shortfall to affect 0 rows, got %d", affected)
	}
	reloaded, _ = repo.GetByID(record.ID)
	if reloaded.Stock != 6 {
		t.Fatalf("shortfall must leave stock unchanged, got %d", reloaded.Stock)
	}
}

func TestStockRecordRepositorySumAvailable(t *testing.T) {
	db := setupRepositoryTestDB(t, "stock_repo_sum")
	repo := NewStockRecordRepository(db)
	w1 := createTestWarehouse(t, db, "W1", 1, true)
	w2 := createTestWarehouse(t, db, "W2", 2, true)
	createTestStockRecord(t, db, 10, w1.ID, "kg", 5, 3)
	createTestStockRecord(t, db, 10, w2.ID, "kg", 4, 6)
	createTestStockRecord(t, db, 10, w2.ID, "box", 100, 0)

	total, err := repo.SumAvailable(10, "KG ")
	if err != nil {
		t.Fatalf("sum available failed: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected 2 + (-2) = 0, got %d", total)
	}
	total, err = repo.SumAvailable(99, "kg")
	if err != nil || total != 0 {
		t.Fatalf("expected 0 for unknown product, got %d err=%v", total, err)
	}
}

func TestStockRecordRepositoryUpsertStockKeepsReserved(t *testing.T) {
	db := setupRepositoryTestDB(t, "stock_repo_upsert")
	repo := NewStockRecordRepository(db)
	w := createTestWarehouse(t, db, "W1", 1, true)
	existing := createTestStockRecord(t, db, 10, w.ID, "kg", 10, 4)

	syncedAt := time.Now().UTC().Truncate(time.Second)
	record, err := repo.UpsertStock(models.StockKey{ProductID: 10, WarehouseID: w.ID, Unit: "kg"}, 3, nil, &syncedAt)
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if record.ID != existing.ID || record.Stock != 3 || record.ReservedStock != 4 {
		t.Fatalf("unexpected upserted record: %+v", record)
	}
	if record.Available() != -1 {
		t.Fatalf("expected transient negative available, got %d", record.Available())
	}

	created, err := repo.UpsertStock(models.StockKey{ProductID: 11, WarehouseID: w.ID, Unit: "Box"}, 7, nil, &syncedAt)
	if err != nil {
		t.Fatalf("upsert new failed: %v", err)
	}
	if created.Unit != "box" || created.Stock != 7 || created.ReservedStock != 0 {
		t.Fatalf("unexpected created record: %+v", created)
	}
}

func TestStockRecordRepositoryResetUnsynced(t *testing.T) {
	db := setupRepositoryTestDB(t, "stock_repo_reset")
	repo := NewStockRecordRepository(db)
	w := createTestWarehouse(t, db, "W1", 1, true)
	stale := createTestStockRecord(t, db, 10, w.ID, "kg", 10, 0)

	runAt := time.Now().UTC().Truncate(time.Second)
	fresh, err := repo.UpsertStock(models.StockKey{ProductID: 11, WarehouseID: w.ID, Unit: "kg"}, 5, nil, &runAt)
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	affected, err := repo.ResetUnsynced(runAt)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 stale record reset, got %d", affected)
	}
	reloadedStale, _ := repo.GetByID(stale.ID)
	reloadedFresh, _ := repo.GetByID(fresh.ID)
	if reloadedStale.Stock != 0 || reloadedFresh.Stock != 5 {
		t.Fatalf("unexpected stocks stale=%d fresh=%d", reloadedStale.Stock, reloadedFresh.Stock)
	}
}

func TestStockRecordRepositoryGetByKeyMissing(t *testing.T) {
	db := setupRepositoryTestDB(t, "stock_repo_missing")
	repo := NewStockRecordRepository(db)
	record, err := repo.GetByKeyForUpdate(models.StockKey{ProductID: 1, WarehouseID: 2, Unit: "kg"})
	if err != nil {
		t.Fatalf("get by key failed: %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil record, got %+v", record)
	}
}
