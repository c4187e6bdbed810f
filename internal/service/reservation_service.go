package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/stockhold-next/internal/cache"
	"github.com/stockhold-next/internal/config"
	"github.com/stockhold-next/internal/constants"
	"github.com/stockhold-next/internal/event"
	"github.com/stockhold-next/internal/logger"
	"github.com/stockhold-next/internal/metrics"
	"github.com/stockhold-next/internal/models"
	"github.com/stockhold-next/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const sweepLockKey = "reservation_sweep"

// ReservationOptions 预占生命周期配置
type ReservationOptions struct {
	ExpireMinutes int
	SweepLockTTL  time.Duration
}

// AddToCartInput 加入购物车输入
type AddToCartInput struct {
	UserID    uint
	ProductID uint
	Unit      string
	Quantity  int
}

// RemoveFromCartInput 移出购物车输入，Quantity <= 0 表示整行移除
type RemoveFromCartInput struct {
	UserID    uint
	ProductID uint
	Unit      string
	Quantity  int
}

// CartLine 购物车行（含预占状态与跨仓可用量）
type CartLine struct {
	Item        models.CartItem    `json:"item"`
	Reservation models.Reservation `json:"reservation"`
	Available   int                `json:"available"`
}

// SweepCandidate 过期预占候选
type SweepCandidate struct {
	CartItemID  uint      `json:"cart_item_id"`
	UserID      uint      `json:"user_id"`
	ProductID   uint      `json:"product_id"`
	Unit        string    `json:"unit"`
	WarehouseID uint      `json:"warehouse_id"`
	Quantity    int       `json:"quantity"`
	ReservedAt  time.Time `json:"reserved_at"`
}

// SweepResult 过期清理结果
type SweepResult struct {
	DryRun     bool             `json:"dry_run"`
	Cutoff     time.Time        `json:"cutoff"`
	Candidates []SweepCandidate `json:"candidates"`
	Released   int              `json:"released"`
	Skipped    int              `json:"skipped"`
	Failed     int              `json:"failed"`
}

// ReservationService 预占生命周期管理：购物车增删、清空、过期清理与订单终态
type ReservationService struct {
	stockRepo  repository.StockRecordRepository
	cartRepo   repository.CartRepository
	orderRepo  repository.OrderRepository
	allocator  *Allocator
	ledger     *StockLedger
	dispatcher *event.Dispatcher
	options    ReservationOptions
	now        func() time.Time
}

// NewReservationService 创建预占生命周期服务
func NewReservationService(
	stockRepo repository.StockRecordRepository,
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	allocator *Allocator,
	ledger *StockLedger,
	dispatcher *event.Dispatcher,
	options ReservationOptions,
) *ReservationService {
	options.ExpireMinutes = config.NormalizeExpireMinutes(options.ExpireMinutes)
	if options.SweepLockTTL <= 0 {
		options.SweepLockTTL = 5 * time.Minute
	}
	return &ReservationService{
		stockRepo:  stockRepo,
		cartRepo:   cartRepo,
		orderRepo:  orderRepo,
		allocator:  allocator,
		ledger:     ledger,
		dispatcher: dispatcher,
		options:    options,
		now:        time.Now,
	}
}

// ExpireAfter 预占过期时长
func (s *ReservationService) ExpireAfter() time.Duration {
	return time.Duration(s.options.ExpireMinutes) * time.Minute
}

// transaction 在单个事务内执行业务操作，提交成功后投递事件并刷新可用量缓存
func (s *ReservationService) transaction(ctx context.Context, fn func(tx *gorm.DB, rec *event.Recorder, touched *touchedKeys) error) error {
	rec := s.dispatcher.NewRecorder()
	touched := &touchedKeys{}
	err := s.stockRepo.Transaction(func(tx *gorm.DB) error {
		return fn(tx, rec, touched)
	})
	if err != nil {
		rec.Reset()
		return err
	}
	rec.Flush(ctx)
	touched.invalidate(ctx)
	return nil
}

// AddToCart 加入购物车：合并已有数量后整单重新分配仓库
func (s *ReservationService) AddToCart(ctx context.Context, input AddToCartInput) (*models.CartItem, error) {
	unit := models.NormalizeUnit(input.Unit)
	if input.UserID == 0 || input.ProductID == 0 || unit == "" {
		return nil, ErrInvalidStockKey
	}
	if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var saved *models.CartItem
	err := s.transaction(ctx, func(tx *gorm.DB, _ *event.Recorder, touched *touchedKeys) error {
		cartRepo := s.cartRepo.WithTx(tx)
		item, err := cartRepo.GetByUserProductUnit(input.UserID, input.ProductID, unit)
		if err != nil {
			return err
		}
		if item == nil {
			item = &models.CartItem{UserID: input.UserID, ProductID: input.ProductID, Unit: unit}
		}
		total := item.Quantity + input.Quantity
		demand := Demand{ProductID: input.ProductID, Unit: unit, Quantity: total}

		var result *AllocationResult
		if previous, ok := item.StockKey(); ok {
			result, err = s.allocator.Reallocate(tx, previous, item.Quantity, demand)
		} else {
			result, err = s.allocator.Allocate(tx, demand)
		}
		if err != nil {
			return err
		}
		if !result.Allocated {
			return &InsufficientStockError{
				ProductID: input.ProductID,
				Unit:      unit,
				Requested: total,
				Available: result.TotalAvailable,
			}
		}

		item.Reserve(result.Record.WarehouseID, total, s.now())
		if err := cartRepo.Save(item); err != nil {
			return err
		}
		touched.add(input.ProductID, unit)
		saved = item
		return nil
	})
	if err != nil {
		var insufficient *InsufficientStockError
		if errors.As(err, &insufficient) {
			logger.Infow("reservation_add_insufficient_stock",
				"user_id", input.UserID,
				"product_id", input.ProductID,
				"unit", unit,
				"requested", insufficient.Requested,
				"available", insufficient.Available,
			)
		}
		return nil, err
	}
	logger.Debugw("reservation_add_to_cart",
		"user_id", saved.UserID,
		"product_id", saved.ProductID,
		"unit", saved.Unit,
		"quantity", saved.Quantity,
		"warehouse_id", saved.Reservation().WarehouseID,
	)
	return saved, nil
}

// RemoveFromCart 从购物车移除指定数量并释放等量预占；剩余数量 <= 0 时删除整行
// 返回剩余的购物车项，整行删除时返回 nil。
func (s *ReservationService) RemoveFromCart(ctx context.Context, input RemoveFromCartInput) (*models.CartItem, error) {
	unit := models.NormalizeUnit(input.Unit)
	if input.UserID == 0 || input.ProductID == 0 || unit == "" {
		return nil, ErrInvalidStockKey
	}

	var remaining *models.CartItem
	err := s.transaction(ctx, func(tx *gorm.DB, rec *event.Recorder, touched *touchedKeys) error {
		cartRepo := s.cartRepo.WithTx(tx)
		item, err := cartRepo.GetByUserProductUnit(input.UserID, input.ProductID, unit)
		if err != nil {
			return err
		}
		if item == nil {
			return ErrCartItemNotFound
		}
		removeQty := input.Quantity
		if removeQty <= 0 || removeQty > item.Quantity {
			removeQty = item.Quantity
		}
		if key, ok := item.StockKey(); ok {
			if err := s.ledger.ReleaseByKey(tx, key, removeQty); err != nil {
				return err
			}
			touched.add(item.ProductID, item.Unit)
		}
		if item.Quantity-removeQty <= 0 {
			return s.removeCartItem(ctx, tx, rec, item, constants.CartRemoveReasonUser)
		}
		item.Quantity -= removeQty
		if err := cartRepo.Save(item); err != nil {
			return err
		}
		remaining = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return remaining, nil
}

// ClearCart 清空购物车：逐行整单释放后删除
func (s *ReservationService) ClearCart(ctx context.Context, userID uint) (int, error) {
	if userID == 0 {
		return 0, ErrInvalidStockKey
	}
	removed := 0
	err := s.transaction(ctx, func(tx *gorm.DB, rec *event.Recorder, touched *touchedKeys) error {
		items, err := s.cartRepo.WithTx(tx).ListByUser(userID)
		if err != nil {
			return err
		}
		for i := range items {
			item := &items[i]
			if key, ok := item.StockKey(); ok {
				if err := s.ledger.ReleaseByKey(tx, key, item.Quantity); err != nil {
					return err
				}
				touched.add(item.ProductID, item.Unit)
			}
			if err := s.removeCartItem(ctx, tx, rec, item, constants.CartRemoveReasonClear); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// ListCart 获取用户购物车及预占状态
func (s *ReservationService) ListCart(ctx context.Context, userID uint) ([]CartLine, error) {
	if userID == 0 {
		return nil, ErrInvalidStockKey
	}
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	lines := make([]CartLine, 0, len(items))
	for _, item := range items {
		available, err := s.AvailableFor(ctx, item.ProductID, item.Unit)
		if err != nil {
			return nil, err
		}
		lines = append(lines, CartLine{
			Item:        item,
			Reservation: item.Reservation(),
			Available:   available,
		})
	}
	return lines, nil
}

// AvailableFor 跨仓可用库存（优先读取短期缓存，仅用于展示）
func (s *ReservationService) AvailableFor(ctx context.Context, productID uint, unit string) (int, error) {
	unit = models.NormalizeUnit(unit)
	if state, hit, err := cache.GetStockAvailability(ctx, productID, unit); err == nil && hit {
		return state.Available, nil
	} else if err != nil {
		logger.Warnw("stock_availability_cache_get_failed", "product_id", productID, "unit", unit, "error", err)
	}
	total, err := s.allocator.TotalAvailable(nil, productID, unit)
	if err != nil {
		return 0, err
	}
	if err := cache.SetStockAvailability(ctx, &cache.StockAvailability{ProductID: productID, Unit: unit, Available: total}); err != nil {
		logger.Warnw("stock_availability_cache_set_failed", "product_id", productID, "unit", unit, "error", err)
	}
	return total, nil
}

// SweepExpired 释放预占时间早于 now - 过期时长 的购物车项；dryRun 只返回候选不做修改。
// 每个购物车项使用独立事务，与线上请求走同一条释放路径。
func (s *ReservationService) SweepExpired(ctx context.Context, now time.Time, dryRun bool) (*SweepResult, error) {
	if now.IsZero() {
		now = s.now()
	}
	started := time.Now()
	cutoff := now.Add(-s.ExpireAfter())
	result := &SweepResult{DryRun: dryRun, Cutoff: cutoff, Candidates: []SweepCandidate{}}

	items, err := s.cartRepo.ListReservedBefore(cutoff, 0)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		res := item.Reservation()
		result.Candidates = append(result.Candidates, SweepCandidate{
			CartItemID:  item.ID,
			UserID:      item.UserID,
			ProductID:   item.ProductID,
			Unit:        item.Unit,
			WarehouseID: res.WarehouseID,
			Quantity:    item.Quantity,
			ReservedAt:  res.ReservedAt,
		})
	}
	if dryRun {
		metrics.SweepRuns.WithLabelValues("dry_run").Inc()
		logger.Infow("reservation_sweep_dry_run", "cutoff", cutoff, "candidates", len(result.Candidates))
		return result, nil
	}

	lock, err := cache.TryLock(ctx, sweepLockKey, s.options.SweepLockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrLockNotAcquired) {
			return nil, ErrSweepInProgress
		}
		return nil, err
	}
	defer func() {
		if err := lock.Unlock(context.Background()); err != nil {
			logger.Warnw("reservation_sweep_unlock_failed", "error", err)
		}
	}()

	for _, candidate := range result.Candidates {
		released, err := s.sweepOne(ctx, candidate.CartItemID, cutoff)
		if err != nil {
			result.Failed++
			logger.Errorw("reservation_sweep_item_failed",
				"cart_item_id", candidate.CartItemID,
				"product_id", candidate.ProductID,
				"error", err,
			)
			continue
		}
		if released {
			result.Released++
		} else {
			result.Skipped++
		}
	}
	metrics.SweepRuns.WithLabelValues("release").Inc()
	metrics.SweepReleased.Add(float64(result.Released))
	metrics.SweepDuration.Observe(time.Since(started).Seconds())
	logger.Infow("reservation_sweep_finished",
		"cutoff", cutoff,
		"candidates", len(result.Candidates),
		"released", result.Released,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

func (s *ReservationService) sweepOne(ctx context.Context, cartItemID uint, cutoff time.Time) (bool, error) {
	released := false
	err := s.transaction(ctx, func(tx *gorm.DB, rec *event.Recorder, touched *touchedKeys) error {
		item, err := s.cartRepo.WithTx(tx).GetByID(cartItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return nil
		}
		res := item.Reservation()
		// 扫描后用户可能已重新加购刷新了预占时间
		if !res.Active() || !res.ReservedAt.Before(cutoff) {
			return nil
		}
		key, _ := item.StockKey()
		if err := s.ledger.ReleaseByKey(tx, key, item.Quantity); err != nil {
			return err
		}
		touched.add(item.ProductID, item.Unit)
		if err := s.removeCartItem(ctx, tx, rec, item, constants.CartRemoveReasonExpired); err != nil {
			return err
		}
		released = true
		return nil
	})
	return released, err
}

// CheckoutCart 购物车下单：订单项继承各行预占仓库，预占转移到订单项，不释放台账
func (s *ReservationService) CheckoutCart(ctx context.Context, userID uint, orderNo string) (*models.Order, error) {
	if userID == 0 {
		return nil, ErrInvalidStockKey
	}
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		orderNo = generateOrderNo()
	}

	var created *models.Order
	err := s.transaction(ctx, func(tx *gorm.DB, rec *event.Recorder, _ *touchedKeys) error {
		items, err := s.cartRepo.WithTx(tx).ListByUser(userID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrCartEmpty
		}
		orderItems := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			res := item.Reservation()
			if !res.Active() {
				return ErrReservationMissing
			}
			warehouseID := res.WarehouseID
			orderItems = append(orderItems, models.OrderItem{
				ProductID:   item.ProductID,
				Unit:        item.Unit,
				Quantity:    item.Quantity,
				WarehouseID: &warehouseID,
			})
		}
		order := &models.Order{
			OrderNo: orderNo,
			UserID:  userID,
			Status:  constants.OrderStatusPendingPayment,
		}
		if err := s.orderRepo.WithTx(tx).Create(order, orderItems); err != nil {
			return err
		}
		for i := range items {
			if err := s.removeCartItem(ctx, tx, rec, &items[i], constants.CartRemoveReasonCheckout); err != nil {
				return err
			}
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("reservation_checkout_created_order",
		"user_id", userID,
		"order_id", created.ID,
		"order_no", created.OrderNo,
		"items", len(created.Items),
	)
	return created, nil
}

// CompleteOrder 订单完成：逐项扣减库存，任一项实物不足则整单回滚并返回 ReduceShortfallError
func (s *ReservationService) CompleteOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.settleOrder(ctx, orderID, constants.OrderStatusCompleted)
}

// FailOrder 订单失败：逐项释放预占
func (s *ReservationService) FailOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.settleOrder(ctx, orderID, constants.OrderStatusFailed)
}

func (s *ReservationService) settleOrder(ctx context.Context, orderID uint, status string) (*models.Order, error) {
	if orderID == 0 {
		return nil, ErrOrderNotFound
	}
	eventName := constants.EventOrderCompleted
	if status == constants.OrderStatusFailed {
		eventName = constants.EventOrderFailed
	}

	var settled *models.Order
	alreadySettled := false
	err := s.transaction(ctx, func(tx *gorm.DB, rec *event.Recorder, touched *touchedKeys) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.StockSettled() {
			if order.Status != status {
				return ErrOrderStatusInvalid
			}
			settled = order
			alreadySettled = true
			return nil
		}

		for _, item := range order.Items {
			key, ok := item.StockKey()
			if !ok || item.Quantity <= 0 {
				logger.Warnw("order_item_without_warehouse",
					"order_id", order.ID,
					"order_item_id", item.ID,
					"product_id", item.ProductID,
				)
				continue
			}
			if status == constants.OrderStatusCompleted {
				ok, record, err := s.ledger.ReduceByKey(tx, key, item.Quantity)
				if err != nil {
					return err
				}
				if !ok {
					shortfall := &ReduceShortfallError{
						OrderID:     order.ID,
						ProductID:   key.ProductID,
						WarehouseID: key.WarehouseID,
						Unit:        key.Unit,
						Requested:   item.Quantity,
					}
					if record != nil {
						shortfall.Stock = record.Stock
					}
					return shortfall
				}
			} else if err := s.ledger.ReleaseByKey(tx, key, item.Quantity); err != nil {
				return err
			}
			touched.add(key.ProductID, key.Unit)
			if err := rec.Publish(ctx, tx, event.Event{
				Name:        eventName,
				UserID:      order.UserID,
				OrderID:     order.ID,
				ProductID:   key.ProductID,
				Unit:        key.Unit,
				WarehouseID: key.WarehouseID,
				Quantity:    item.Quantity,
			}); err != nil {
				return err
			}
		}

		settledAt := s.now()
		if err := orderRepo.MarkStockSettled(order.ID, status, settledAt); err != nil {
			return err
		}
		order.Status = status
		order.StockSettledAt = &settledAt
		settled = order
		return nil
	})
	if err != nil {
		result := metrics.ResultError
		var shortfall *ReduceShortfallError
		if errors.As(err, &shortfall) {
			result = metrics.ResultInsufficient
			logger.Errorw("order_stock_reduce_shortfall",
				"order_id", shortfall.OrderID,
				"product_id", shortfall.ProductID,
				"warehouse_id", shortfall.WarehouseID,
				"unit", shortfall.Unit,
				"requested", shortfall.Requested,
				"stock", shortfall.Stock,
			)
		}
		metrics.OrderSettlements.WithLabelValues(status, result).Inc()
		return nil, err
	}
	if alreadySettled {
		logger.Debugw("order_stock_already_settled", "order_id", orderID, "status", status)
		return settled, nil
	}
	metrics.OrderSettlements.WithLabelValues(status, metrics.ResultSuccess).Inc()
	logger.Infow("order_stock_settled", "order_id", orderID, "status", status, "items", len(settled.Items))
	return settled, nil
}

// removeCartItem 先发布 cart_item_removed（监听器此时仍可查询到该行），再删除
func (s *ReservationService) removeCartItem(ctx context.Context, tx *gorm.DB, rec *event.Recorder, item *models.CartItem, reason string) error {
	res := item.Reservation()
	if err := rec.Publish(ctx, tx, event.Event{
		Name:        constants.EventCartItemRemoved,
		UserID:      item.UserID,
		CartItemID:  item.ID,
		ProductID:   item.ProductID,
		Unit:        item.Unit,
		WarehouseID: res.WarehouseID,
		Quantity:    item.Quantity,
		Reason:      reason,
	}); err != nil {
		return err
	}
	return s.cartRepo.WithTx(tx).Delete(item)
}

func generateOrderNo() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "SH" + strings.ToUpper(id[:20])
}

type touchedKeys struct {
	keys []models.StockKey
}

func (t *touchedKeys) add(productID uint, unit string) {
	for _, key := range t.keys {
		if key.ProductID == productID && key.Unit == unit {
			return
		}
	}
	t.keys = append(t.keys, models.StockKey{ProductID: productID, Unit: unit})
}

func (t *touchedKeys) invalidate(ctx context.Context) {
	for _, key := range t.keys {
		if err := cache.DelStockAvailability(ctx, key.ProductID, key.Unit); err != nil {
			logger.Warnw("stock_availability_cache_del_failed", "product_id", key.ProductID, "unit", key.Unit, "error", err)
		}
	}
}
