package main

import (
	"context"
	"errors"

	"github.com/stockhold-next/internal/config"
	"github.com/stockhold-next/internal/logger"
	"github.com/stockhold-next/internal/models"
	"github.com/stockhold-next/internal/provider"
	"github.com/stockhold-next/internal/service"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.LogSQL, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	container := provider.NewContainer(cfg)
	defer container.Close()

	// 添加仓库（第一个为默认仓库）
	warehouses := []service.CreateWarehouseInput{
		{Name: "华东中心仓", Code: "WH-EAST", Address: "上海市嘉定区", ContactName: "张敏", ContactPhone: "021-60000001", Priority: 1, IsActive: true},
		{Name: "华南分仓", Code: "WH-SOUTH", Address: "广州市白云区", ContactName: "李强", ContactPhone: "020-60000002", Priority: 2, IsActive: true},
		{Name: "华北分仓", Code: "WH-NORTH", Address: "天津市武清区", ContactName: "王芳", ContactPhone: "022-60000003", Priority: 3, IsActive: true},
		{Name: "备用仓", Code: "WH-SPARE", Address: "成都市双流区", Priority: 10, IsActive: false},
	}
	for _, input := range warehouses {
		w, err := container.WarehouseService.Create(input)
		if err != nil {
			if errors.Is(err, service.ErrWarehouseCodeExists) {
				stdLog.Printf("Warehouse already exists: %s", input.Code)
				continue
			}
			stdLog.Printf("Failed to create warehouse %s: %v", input.Code, err)
			continue
		}
		stdLog.Printf("Created warehouse: %s (id=%d)", w.Code, w.ID)
	}

	// 初始库存（与 ERP 同步同一通道写入）
	minStock := "5"
	rows := []service.StockSyncRow{
		{WarehouseCode: "WH-EAST", ProductID: 1001, Unit: "pcs", Quantity: "120", MinStock: &minStock},
		{WarehouseCode: "WH-EAST", ProductID: 1001, Unit: "box", Quantity: "10"},
		{WarehouseCode: "WH-SOUTH", ProductID: 1001, Unit: "pcs", Quantity: "40"},
		{WarehouseCode: "WH-NORTH", ProductID: 1001, Unit: "pcs", Quantity: "15"},
		{WarehouseCode: "WH-EAST", ProductID: 1002, Unit: "kg", Quantity: "3"},
		{WarehouseCode: "WH-SOUTH", ProductID: 1002, Unit: "kg", Quantity: "60", MinStock: &minStock},
		{WarehouseCode: "WH-NORTH", ProductID: 1003, Unit: "pcs", Quantity: "200"},
		{WarehouseCode: "WH-SPARE", ProductID: 1003, Unit: "pcs", Quantity: "500"},
	}
	result, err := container.StockSyncService.Apply(context.Background(), rows, false)
	if err != nil {
		stdLog.Fatalf("Failed to seed stock: %v", err)
	}
	for _, rejected := range result.Rejected {
		stdLog.Printf("Rejected stock row %d: %s", rejected.Index, rejected.Reason)
	}
	stdLog.Printf("Seeded stock records: %d", result.Applied)
}
