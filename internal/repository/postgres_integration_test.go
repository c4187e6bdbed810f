//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stockhold-next/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.ReservationAuditLog{},
		&models.OrderItem{},
		&models.Order{},
		&models.CartItem{},
		&models.StockRecord{},
		&models.Warehouse{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresConcurrentReserveUnderRowLock(t *testing.T) {
	db := setupPostgresIntegrationDB(t)

	warehouse := models.Warehouse{Name: "PG", Code: "PG-1", Priority: 1, IsActive: true}
	if err := db.Create(&warehouse).Error; err != nil {
		t.Fatalf("create warehouse failed: %v", err)
	}
	record := models.StockRecord{ProductID: 1, WarehouseID: warehouse.ID, Unit: "kg", Stock: 5}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("create stock record failed: %v", err)
	}

	repo := NewStockRecordRepository(db)
	key := record.Key()
	const workers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Transaction(func(tx *gorm.DB) error {
				txRepo := repo.WithTx(tx)
				locked, err := txRepo.GetByKeyForUpdate(key)
				if err != nil || locked == nil {
					return err
				}
				if locked.Available() < 1 {
					return nil
				}
				affected, err := txRepo.Reserve(locked.ID, 1)
				if err != nil {
					return err
				}
				if affected == 1 {
					mu.Lock()
					success++
					mu.Unlock()
				}
				return nil
			})
			if err != nil {
				t.Errorf("reserve transaction failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if success != 5 {
		t.Fatalf("expected 5 successful reservations, got %d", success)
	}
	reloaded, err := repo.GetByID(record.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.ReservedStock != 5 {
		t.Fatalf("expected reserved_stock 5, got %d", reloaded.ReservedStock)
	}
}
