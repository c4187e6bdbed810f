package provider

import (
	"time"

	"github.com/stockhold-next/internal/cache"
	"github.com/stockhold-next/internal/config"
	"github.com/stockhold-next/internal/event"
	"github.com/stockhold-next/internal/logger"
	"github.com/stockhold-next/internal/models"
	"github.com/stockhold-next/internal/queue"
	"github.com/stockhold-next/internal/repository"
	"github.com/stockhold-next/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Dispatcher  *event.Dispatcher
	KafkaSink   *event.KafkaSink

	// Repositories
	WarehouseRepo repository.WarehouseRepository
	StockRepo     repository.StockRecordRepository
	CartRepo      repository.CartRepository
	OrderRepo     repository.OrderRepository
	AuditLogRepo  repository.ReservationAuditLogRepository

	// Services
	StockLedger        *service.StockLedger
	Allocator          *service.Allocator
	WarehouseService   *service.WarehouseService
	ReservationService *service.ReservationService
	StockSyncService   *service.StockSyncService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories(models.DB)

	// 2. 初始化事件分发
	c.initEvents()

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.WarehouseRepo = repository.NewWarehouseRepository(db)
	c.StockRepo = repository.NewStockRecordRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.AuditLogRepo = repository.NewReservationAuditLogRepository(db)
}

func (c *Container) initEvents() {
	c.Dispatcher = event.NewDispatcher()
	c.Dispatcher.Subscribe("", event.NewAuditListener(c.AuditLogRepo))

	// Kafka 未启用时 sink 为 nil
	if sink := event.NewKafkaSink(&c.Config.Kafka); sink != nil {
		c.KafkaSink = sink
		c.Dispatcher.AddSink(sink)
		logger.Infow("provider_kafka_sink_enabled",
			"brokers", c.Config.Kafka.Brokers,
			"topic", c.Config.Kafka.Topic,
		)
	}
}

func (c *Container) initServices() {
	c.StockLedger = service.NewStockLedger(c.StockRepo)
	c.Allocator = service.NewAllocator(c.WarehouseRepo, c.StockRepo, c.StockLedger)
	c.WarehouseService = service.NewWarehouseService(c.WarehouseRepo, c.StockRepo)
	c.ReservationService = service.NewReservationService(
		c.StockRepo,
		c.CartRepo,
		c.OrderRepo,
		c.Allocator,
		c.StockLedger,
		c.Dispatcher,
		service.ReservationOptions{
			ExpireMinutes: c.Config.Reservation.ExpireMinutes,
			SweepLockTTL:  time.Duration(c.Config.Reservation.SweepLockTTL) * time.Second,
		},
	)
	c.StockSyncService = service.NewStockSyncService(c.StockRepo, c.WarehouseRepo, c.Config.StockSync.BatchSize)

	if err := c.WarehouseService.CheckDefaultInvariant(); err != nil {
		logger.Warnw("provider_warehouse_default_check_failed", "error", err)
	}
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.KafkaSink != nil {
		if err := c.KafkaSink.Close(); err != nil {
			logger.Warnw("provider_close_kafka_sink_failed", "error", err)
		}
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
