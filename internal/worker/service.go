package worker

import (
	"context"
	"errors"
	"time"

	"github.com/assem2023-habib/shehrezad/internal/config"
	"github.com/assem2023-habib/shehrezad/internal/logger"
	"github.com/assem2023-habib/shehrezad/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	lockSweepInterval     = time.Minute
	reminderSweepInterval = 24 * time.Hour
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
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
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
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
	if s.consumer != nil && s.consumer.SweepService != nil {
		go s.runLockSweepLoop(ctx)
		go s.runReminderSweepLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) runLockSweepLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.SweepService == nil {
		return
	}
	runOnce := func() {
		if err := s.consumer.SweepService.LockExpiredItems(time.Now()); err != nil {
			logger.Warnw("worker_lock_sweep_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(lockSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

func (s *Service) runReminderSweepLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.SweepService == nil {
		return
	}
	runOnce := func() {
		if err := s.consumer.SweepService.EnqueueDueReminders(time.Now()); err != nil {
			logger.Warnw("worker_reminder_sweep_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(reminderSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
