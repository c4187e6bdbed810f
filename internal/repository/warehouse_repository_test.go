package repository

import (
	"testing"

	"github.com/stockhold-next/internal/constants"
)

func TestWarehouseRepositoryActiveByPriority(t *testing.T) {
	db := setupRepositoryTestDB(t, "warehouse_repo_active")
	repo := NewWarehouseRepository(db)
	c := createTestWarehouse(t, db, "C", 3, true)
	a := createTestWarehouse(t, db, "A", 1, true)
	createTestWarehouse(t, db, "X", 2, false)
	b := createTestWarehouse(t, db, "B", 3, true)

	rows, err := repo.ActiveByPriority()
	if err != nil {
		t.Fatalf("active by priority failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 active warehouses, got %d", len(rows))
	}
	// A 成为默认仓库时，先创建的 C 被重置为哨兵优先级
	want := []uint{a.ID, b.ID, c.ID}
	for i, id := range want {
		if rows[i].ID != id {
			t.Fatalf("position %d want id %d got %d", i, id, rows[i].ID)
		}
	}
}

func TestWarehouseRepositorySetDefault(t *testing.T) {
	db := setupRepositoryTestDB(t, "warehouse_repo_default")
	repo := NewWarehouseRepository(db)
	a := createTestWarehouse(t, db, "A", 1, true)
	b := createTestWarehouse(t, db, "B", 2, false)

	if err := repo.SetDefault(b.ID); err != nil {
		t.Fatalf("set default failed: %v", err)
	}
	defaults, err := repo.ListDefaults()
	if err != nil {
		t.Fatalf("list defaults failed: %v", err)
	}
	if len(defaults) != 1 || defaults[0].ID != b.ID || !defaults[0].IsActive {
		t.Fatalf("unexpected defaults: %+v", defaults)
	}
	reloaded, _ := repo.GetByID(a.ID)
	if reloaded.Priority != constants.WarehousePrioritySentinel {
		t.Fatalf("expected previous default reset to %d, got %d", constants.WarehousePrioritySentinel, reloaded.Priority)
	}

	if err := repo.SetDefault(9999); err == nil {
		t.Fatalf("expected error for unknown warehouse")
	}
}

func TestWarehouseRepositoryListSearch(t *testing.T) {
	db := setupRepositoryTestDB(t, "warehouse_repo_list")
	repo := NewWarehouseRepository(db)
	createTestWarehouse(t, db, "SH-MAIN", 1, true)
	createTestWarehouse(t, db, "BJ-MAIN", 2, false)
	createTestWarehouse(t, db, "SH-BACKUP", 3, true)

	active := true
	rows, total, err := repo.List(WarehouseListFilter{Page: 1, PageSize: 10, Search: "SH", IsActive: &active})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("expected 2 rows, got total=%d len=%d", total, len(rows))
	}
	if rows[0].Code != "SH-MAIN" {
		t.Fatalf("expected priority order, got %s first", rows[0].Code)
	}
}
