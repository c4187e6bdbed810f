package worker

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/stockhold-next/internal/config"
	"github.com/stockhold-next/internal/logger"
	"github.com/stockhold-next/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultSweepCron = "*/10 * * * *"

// Service 异步队列服务（消费者 + 过期清理定时调度）
type Service struct {
	name      string
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	consumer  *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, reservation *config.ReservationConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)

	scheduler, err := newSweepScheduler(opt, resolveSweepCron(reservation))
	if err != nil {
		return nil, err
	}
	return &Service{
		name:      "worker",
		server:    server,
		scheduler: scheduler,
		mux:       mux,
		consumer:  consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.scheduler != nil {
		if err := s.scheduler.Start(); err != nil {
			return err
		}
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	if s.scheduler != nil {
		s.scheduler.Shutdown()
	}
	s.server.Shutdown()
	return nil
}

func resolveSweepCron(reservation *config.ReservationConfig) string {
	if reservation == nil {
		return defaultSweepCron
	}
	spec := strings.TrimSpace(reservation.SweepCron)
	if spec == "" {
		return defaultSweepCron
	}
	return spec
}

// newSweepScheduler 注册周期性过期清理；cron 为 "off" 时不调度
func newSweepScheduler(opt asynq.RedisClientOpt, spec string) (*asynq.Scheduler, error) {
	if strings.EqualFold(spec, "off") {
		logger.Infow("worker_reservation_sweep_schedule_disabled")
		return nil, nil
	}
	task, err := queue.NewReservationSweepTask(queue.ReservationSweepPayload{})
	if err != nil {
		return nil, err
	}
	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: time.Local})
	entryID, err := scheduler.Register(spec, task, asynq.Queue(queue.DefaultQueue), asynq.MaxRetry(1))
	if err != nil {
		return nil, err
	}
	logger.Infow("worker_reservation_sweep_scheduled", "cron", spec, "entry_id", entryID)
	return scheduler, nil
}
