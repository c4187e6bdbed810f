package service

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stockhold-next/internal/models"
	"github.com/stockhold-next/internal/repository"

	"gorm.io/gorm"
)

func setupLedgerTest(t *testing.T, name string) (*StockLedger, *gorm.DB, models.StockRecord) {
	t.Helper()
	db := setupServiceTestDB(t, name)
	w := createServiceTestWarehouse(t, db, "W1", 1, true)
	record := createServiceTestStock(t, db, 100, w.ID, "kg", 10, 0)
	return NewStockLedger(repository.NewStockRecordRepository(db)), db, record
}

func TestStockLedgerReserve(t *testing.T) {
	ledger, db, record := setupLedgerTest(t, "ledger_reserve")

	ok, err := ledger.Reserve(db, &record, 4)
	if err != nil || !ok {
		t.Fatalf("reserve failed: ok=%v err=%v", ok, err)
	}
	if record.ReservedStock != 4 || record.Available() != 6 {
		t.Fatalf("expected record refreshed after reserve, got %+v", record)
	}

	before := reloadServiceTestStock(t, db, record.ID)
	ok, err = ledger.Reserve(db, &record, 7)
	if err != nil {
		t.Fatalf("insufficient reserve should not error: %v", err)
	}
	if ok {
		t.Fatalf("expected reserve beyond available to fail")
	}
	after := reloadServiceTestStock(t, db, record.ID)
	if after.Stock != before.Stock || after.ReservedStock != before.ReservedStock || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatalf("failed reserve must leave the record unchanged: before %+v after %+v", before, after)
	}

	ok, err = ledger.Reserve(db, &record, 6)
	if err != nil || !ok {
		t.Fatalf("reserve of exactly available failed: ok=%v err=%v", ok, err)
	}
	if record.Available() != 0 {
		t.Fatalf("expected zero available, got %d", record.Available())
	}
}

func TestStockLedgerReserveRejectsInvalidQuantity(t *testing.T) {
	ledger, db, record := setupLedgerTest(t, "ledger_reserve_invalid")
	if _, err := ledger.Reserve(db, &record, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
	if _, err := ledger.Reserve(db, &models.StockRecord{}, 1); !errors.Is(err, ErrInvalidStockKey) {
		t.Fatalf("expected invalid stock key, got %v", err)
	}
}

func TestStockLedgerReleaseClampsAtZero(t *testing.T) {
	ledger, db, record := setupLedgerTest(t, "ledger_release")
	if ok, err := ledger.Reserve(db, &record, 3); err != nil || !ok {
		t.Fatalf("reserve failed: ok=%v err=%v", ok, err)
	}
	if err := ledger.Release(db, &record, 2); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if record.ReservedStock != 1 {
		t.Fatalf("expected reserved 1, got %d", record.ReservedStock)
	}
	if err := ledger.Release(db, &record, 50); err != nil {
		t.Fatalf("over-release must not error: %v", err)
	}
	if got := reloadServiceTestStock(t, db, record.ID); got.ReservedStock != 0 || got.Stock != 10 {
		t.Fatalf("expected reserved clamped to 0 and stock untouched, got %+v", got)
	}
	if err := ledger.Release(db, &record, 1); err != nil {
		t.Fatalf("release on empty reservation must not error: %v", err)
	}
}

func TestStockLedgerReduce(t *testing.T) {
	ledger, db, record := setupLedgerTest(t, "ledger_reduce")
	if ok, err := ledger.Reserve(db, &record, 2); err != nil || !ok {
		t.Fatalf("reserve failed: ok=%v err=%v", ok, err)
	}

	ok, err := ledger.Reduce(db, &record, 4)
	if err != nil || !ok {
		t.Fatalf("reduce failed: ok=%v err=%v", ok, err)
	}
	if record.Stock != 6 || record.ReservedStock != 0 {
		t.Fatalf("expected stock 6 reserved floored at 0, got %+v", record)
	}

	ok, err = ledger.Reduce(db, &record, 7)
	if err != nil {
		t.Fatalf("shortfall must not error: %v", err)
	}
	if ok {
		t.Fatalf("expected reduce beyond stock to fail")
	}
	if got := reloadServiceTestStock(t, db, record.ID); got.Stock != 6 || got.ReservedStock != 0 {
		t.Fatalf("failed reduce must not change the record, got %+v", got)
	}
}

func TestStockLedgerByKeyMissingRowIsNoop(t *testing.T) {
	ledger, db, record := setupLedgerTest(t, "ledger_missing_row")
	missing := models.StockKey{ProductID: 999, WarehouseID: record.WarehouseID, Unit: "kg"}

	if err := ledger.ReleaseByKey(db, missing, 3); err != nil {
		t.Fatalf("release on missing row must be a no-op, got %v", err)
	}
	ok, got, err := ledger.ReduceByKey(db, missing, 3)
	if err != nil || !ok || got != nil {
		t.Fatalf("reduce on missing row must be a no-op success, got ok=%v record=%v err=%v", ok, got, err)
	}

	ok, got, err = ledger.ReduceByKey(db, models.StockKey{ProductID: 100, WarehouseID: record.WarehouseID, Unit: " KG"}, 3)
	if err != nil || !ok || got == nil || got.Stock != 7 {
		t.Fatalf("reduce by normalised key failed: ok=%v record=%+v err=%v", ok, got, err)
	}
}

func TestStockLedgerCountersStayNonNegative(t *testing.T) {
	ledger, db, record := setupLedgerTest(t, "ledger_property")
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 300; i++ {
		qty := rng.Intn(6) + 1
		before := reloadServiceTestStock(t, db, record.ID)
		switch rng.Intn(4) {
		case 0, 1:
			ok, err := ledger.Reserve(db, &record, qty)
			if err != nil {
				t.Fatalf("step %d reserve error: %v", i, err)
			}
			if ok != (qty <= before.Available()) {
				t.Fatalf("step %d reserve(%d) returned %v with available %d", i, qty, ok, before.Available())
			}
			after := reloadServiceTestStock(t, db, record.ID)
			if ok && after.Available() != before.Available()-qty {
				t.Fatalf("step %d available moved from %d to %d", i, before.Available(), after.Available())
			}
		case 2:
			if err := ledger.Release(db, &record, qty); err != nil {
				t.Fatalf("step %d release error: %v", i, err)
			}
		case 3:
			ok, err := ledger.Reduce(db, &record, qty)
			if err != nil {
				t.Fatalf("step %d reduce error: %v", i, err)
			}
			if ok != (qty <= before.Stock) {
				t.Fatalf("step %d reduce(%d) returned %v with stock %d", i, qty, ok, before.Stock)
			}
			if !ok && before.Stock == 0 {
				// 补货，避免后续步骤全部失败
				if err := db.Model(&models.StockRecord{}).Where("id = ?", record.ID).Update("stock", 10).Error; err != nil {
					t.Fatalf("restock failed: %v", err)
				}
			}
		}
		after := reloadServiceTestStock(t, db, record.ID)
		if after.ReservedStock < 0 || after.Stock < 0 {
			t.Fatalf("step %d produced negative counters: %+v", i, after)
		}
		record = after
	}
}
