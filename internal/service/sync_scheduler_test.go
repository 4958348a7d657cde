package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhangjialei/tradebook/internal/config"
	"go.uber.org/zap"
)

func TestSchedulerStatus(t *testing.T) {
	db := newTestDB(t)
	logger := zap.NewNop()
	syncService := NewSyncService(db, &config.Config{}, NewReconcileService(db, logger), nil, logger)
	scheduler := NewSyncScheduler(&config.Config{
		Sync: config.SyncConf{Enabled: true, IntervalMinutes: 5},
	}, syncService, logger)

	status := scheduler.Status()
	assert.False(t, status.Running)
	assert.Nil(t, status.StartedAt)
	assert.Nil(t, status.LastRunAt)
	assert.Equal(t, 5, status.IntervalMinutes)

	// 周期执行与状态查询可并发
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scheduler.runCycle()
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = scheduler.Status()
		}()
	}
	wg.Wait()

	status = scheduler.Status()
	require.NotNil(t, status.LastRunAt)
	assert.False(t, status.LastRunAt.IsZero())
}
