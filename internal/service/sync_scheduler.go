package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zhangjialei/tradebook/internal/config"
	"go.uber.org/zap"
)

// SyncScheduler 定时同步调度器，每 N 分钟整点对所有启用账户执行一轮同步
type SyncScheduler struct {
	conf   config.SyncConf
	sync   *SyncService
	logger *zap.Logger

	// mu 保护状态字段，Status 会被 HTTP 处理器并发读取
	mu        sync.Mutex
	startTime time.Time
	lastRunAt time.Time
	isRunning bool

	stopChan  chan struct{}
	cron      *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewSyncScheduler 创建同步调度器
func NewSyncScheduler(conf *config.Config, sync *SyncService, logger *zap.Logger) *SyncScheduler {
	return &SyncScheduler{
		conf:     conf.Sync,
		sync:     sync,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start 启动调度器，阻塞直到 Stop 或 ctx 取消
func (t *SyncScheduler) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return fmt.Errorf("sync scheduler is already running")
	}
	t.isRunning = true
	t.startTime = time.Now()
	t.mu.Unlock()

	t.ctx, t.cancel = context.WithCancel(ctx)

	interval := t.conf.IntervalMinutes
	if interval <= 0 {
		interval = 15
	}
	cronExpr := fmt.Sprintf("*/%d * * * *", interval)

	t.logger.Info("sync scheduler started",
		zap.Int("interval_minutes", interval),
		zap.String("cron_expression", cronExpr))

	t.cron = cron.New()
	_, err := t.cron.AddFunc(cronExpr, func() {
		t.runCycle()
	})
	if err != nil {
		t.mu.Lock()
		t.isRunning = false
		t.mu.Unlock()
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	t.cron.Start()

	// 启动后立即执行一次
	go t.runCycle()

	select {
	case <-t.stopChan:
		t.logger.Info("sync scheduler stopped by user")
		return nil
	case <-ctx.Done():
		t.logger.Info("sync scheduler stopped by context")
		return ctx.Err()
	}
}

func (t *SyncScheduler) runCycle() {
	t.mu.Lock()
	t.lastRunAt = time.Now()
	t.mu.Unlock()

	results := t.sync.SyncAll(context.Background())

	var processed, duplicate, malformed int
	for _, r := range results {
		processed += r.Processed
		duplicate += r.Duplicate
		malformed += r.Malformed
	}
	t.logger.Info("sync cycle finished",
		zap.Int("accounts", len(results)),
		zap.Int("processed", processed),
		zap.Int("duplicate", duplicate),
		zap.Int("malformed", malformed))
}

// Stop 停止调度器
func (t *SyncScheduler) Stop() {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	t.logger.Info("stopping sync scheduler...")

	if t.cron != nil {
		ctx := t.cron.Stop()
		<-ctx.Done() // 等待执行中的任务完成
	}

	if t.cancel != nil {
		t.cancel()
	}

	t.mu.Lock()
	t.isRunning = false
	t.mu.Unlock()
	close(t.stopChan)
}

// SchedulerStatus 调度器状态
type SchedulerStatus struct {
	Running         bool       `json:"running"`
	IntervalMinutes int        `json:"interval_minutes"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	LastRunAt       *time.Time `json:"last_run_at,omitempty"`
}

// Status 获取调度器状态
func (t *SyncScheduler) Status() SchedulerStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	status := SchedulerStatus{
		Running:         t.isRunning,
		IntervalMinutes: t.conf.IntervalMinutes,
	}
	if t.isRunning {
		startedAt := t.startTime
		status.StartedAt = &startedAt
	}
	if !t.lastRunAt.IsZero() {
		lastRunAt := t.lastRunAt
		status.LastRunAt = &lastRunAt
	}
	return status
}
