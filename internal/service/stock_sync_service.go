package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/stockhold-next/internal/cache"
	"github.com/stockhold-next/internal/constants"
	"github.com/stockhold-next/internal/logger"
	"github.com/stockhold-next/internal/models"
	"github.com/stockhold-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockSyncRow ERP 上报的一行实物库存，数量为十进制字符串
type StockSyncRow struct {
	WarehouseCode string  `json:"warehouse_code"`
	ProductID     uint    `json:"product_id"`
	Unit          string  `json:"unit"`
	Quantity      string  `json:"quantity"`
	MinStock      *string `json:"min_stock,omitempty"`
}

// StockSyncRejection 被拒绝的同步行
type StockSyncRejection struct {
	Index  int          `json:"index"`
	Row    StockSyncRow `json:"row"`
	Reason string       `json:"reason"`
}

// StockSyncResult 同步结果
type StockSyncResult struct {
	RunAt    time.Time            `json:"run_at"`
	Applied  int                  `json:"applied"`
	Reset    int64                `json:"reset"`
	Rejected []StockSyncRejection `json:"rejected"`
}

// SetStockInput 手工录入实物库存
type SetStockInput struct {
	ProductID   uint
	WarehouseID uint
	Unit        string
	Stock       int
	MinStock    *int
}

// StockSyncService ERP 实物库存覆盖同步，只写 stock，不触碰 reserved_stock
type StockSyncService struct {
	stockRepo     repository.StockRecordRepository
	warehouseRepo repository.WarehouseRepository
	batchSize     int
	now           func() time.Time
}

// NewStockSyncService 创建库存同步服务
func NewStockSyncService(stockRepo repository.StockRecordRepository, warehouseRepo repository.WarehouseRepository, batchSize int) *StockSyncService {
	if batchSize <= 0 {
		batchSize = constants.StockSyncBatchSizeDefault
	}
	return &StockSyncService{
		stockRepo:     stockRepo,
		warehouseRepo: warehouseRepo,
		batchSize:     batchSize,
		now:           time.Now,
	}
}

type parsedStockRow struct {
	key      models.StockKey
	stock    int
	minStock *int
}

// Apply 按批覆盖写入实物库存；resetMissing 为 true 时，本轮未上报的台账实物库存清零。
// 实物库存缩减可能使可用库存为负，此时该台账拒绝新的预占直到预占自然消化。
func (s *StockSyncService) Apply(ctx context.Context, rows []StockSyncRow, resetMissing bool) (*StockSyncResult, error) {
	// postgres 时间精度为微秒，截断后 synced_at 与 runAt 才能精确比较
	runAt := s.now().UTC().Truncate(time.Millisecond)
	result := &StockSyncResult{RunAt: runAt, Rejected: []StockSyncRejection{}}

	warehouses, err := s.resolveWarehouses(rows)
	if err != nil {
		return nil, err
	}

	touched := &touchedKeys{}
	for start := 0; start < len(rows); start += s.batchSize {
		end := start + s.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := make([]parsedStockRow, 0, end-start)
		for i := start; i < end; i++ {
			parsed, reason := parseStockSyncRow(rows[i], warehouses)
			if reason != "" {
				result.Rejected = append(result.Rejected, StockSyncRejection{Index: i, Row: rows[i], Reason: reason})
				continue
			}
			batch = append(batch, parsed)
		}
		if len(batch) == 0 {
			continue
		}
		err := s.stockRepo.Transaction(func(tx *gorm.DB) error {
			repo := s.stockRepo.WithTx(tx)
			for _, row := range batch {
				if _, err := repo.UpsertStock(row.key, row.stock, row.minStock, &runAt); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			logger.Errorw("stock_sync_batch_failed", "batch_start", start, "batch_size", len(batch), "error", err)
			return nil, err
		}
		for _, row := range batch {
			touched.add(row.key.ProductID, row.key.Unit)
		}
		result.Applied += len(batch)
	}

	if resetMissing {
		reset, err := s.stockRepo.ResetUnsynced(runAt)
		if err != nil {
			logger.Errorw("stock_sync_reset_failed", "run_at", runAt, "error", err)
			return nil, err
		}
		result.Reset = reset
		if reset > 0 {
			// 清零涉及的商品无法逐一定位，可用量缓存依赖短 TTL 过期
			logger.Infow("stock_sync_reset_unsynced", "run_at", runAt, "count", reset)
		}
	}
	touched.invalidate(ctx)

	logger.Infow("stock_sync_applied",
		"run_at", runAt,
		"rows", len(rows),
		"applied", result.Applied,
		"rejected", len(result.Rejected),
		"reset", result.Reset,
	)
	return result, nil
}

// SetStock 手工覆盖单条台账的实物库存（不存在时创建）
func (s *StockSyncService) SetStock(ctx context.Context, input SetStockInput) (*models.StockRecord, error) {
	unit := models.NormalizeUnit(input.Unit)
	if input.ProductID == 0 || input.WarehouseID == 0 || unit == "" {
		return nil, ErrInvalidStockKey
	}
	if input.Stock < 0 || (input.MinStock != nil && *input.MinStock < 0) {
		return nil, ErrStockSyncInvalid
	}
	warehouse, err := s.warehouseRepo.GetByID(input.WarehouseID)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, ErrWarehouseNotFound
	}
	record, err := s.stockRepo.UpsertStock(models.StockKey{
		ProductID:   input.ProductID,
		WarehouseID: input.WarehouseID,
		Unit:        unit,
	}, input.Stock, input.MinStock, nil)
	if err != nil {
		return nil, err
	}
	if err := cache.DelStockAvailability(ctx, input.ProductID, unit); err != nil {
		logger.Warnw("stock_availability_cache_del_failed", "product_id", input.ProductID, "unit", unit, "error", err)
	}
	if record != nil && record.Available() < 0 {
		logger.Warnw("stock_record_available_negative",
			"stock_record_id", record.ID,
			"stock", record.Stock,
			"reserved_stock", record.ReservedStock,
		)
	}
	return record, nil
}

func (s *StockSyncService) resolveWarehouses(rows []StockSyncRow) (map[string]uint, error) {
	codes := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		code := strings.TrimSpace(row.WarehouseCode)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	result := make(map[string]uint, len(codes))
	if len(codes) == 0 {
		return result, nil
	}
	warehouses, err := s.warehouseRepo.ListByCodes(codes)
	if err != nil {
		return nil, err
	}
	for _, warehouse := range warehouses {
		result[warehouse.Code] = warehouse.ID
	}
	return result, nil
}

func parseStockSyncRow(row StockSyncRow, warehouses map[string]uint) (parsedStockRow, string) {
	warehouseID, ok := warehouses[strings.TrimSpace(row.WarehouseCode)]
	if !ok {
		return parsedStockRow{}, "unknown warehouse code"
	}
	unit := models.NormalizeUnit(row.Unit)
	if row.ProductID == 0 || unit == "" {
		return parsedStockRow{}, "invalid stock key"
	}
	stock, err := parseStockQuantity(row.Quantity)
	if err != nil {
		return parsedStockRow{}, err.Error()
	}
	parsed := parsedStockRow{
		key:   models.StockKey{ProductID: row.ProductID, WarehouseID: warehouseID, Unit: unit},
		stock: stock,
	}
	if row.MinStock != nil && strings.TrimSpace(*row.MinStock) != "" {
		minStock, err := parseStockQuantity(*row.MinStock)
		if err != nil {
			return parsedStockRow{}, "min_stock: " + err.Error()
		}
		parsed.minStock = &minStock
	}
	return parsed, ""
}

// maxStockQuantity 单行库存上限，超出的行按拒绝处理
var maxStockQuantity = decimal.NewFromInt(math.MaxInt32)

// parseStockQuantity 解析非负整数数量，允许 "12.000" 这类 ERP 格式
func parseStockQuantity(raw string) (int, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q", raw)
	}
	if value.IsNegative() {
		return 0, fmt.Errorf("negative quantity %q", raw)
	}
	if !value.IsInteger() {
		return 0, fmt.Errorf("fractional quantity %q", raw)
	}
	if value.GreaterThan(maxStockQuantity) {
		return 0, fmt.Errorf("quantity %q exceeds %s", raw, maxStockQuantity.String())
	}
	return int(value.IntPart()), nil
}
