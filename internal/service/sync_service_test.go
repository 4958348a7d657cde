package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhangjialei/tradebook/internal/config"
	"github.com/zhangjialei/tradebook/internal/models"
	"github.com/zhangjialei/tradebook/internal/repo"
	"github.com/zhangjialei/tradebook/internal/xe"
	"github.com/zhangjialei/tradebook/pkg/broker"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeBrokerClient 返回预置的成交回报，记录收到的增量水位
type fakeBrokerClient struct {
	kind  string
	raws  []broker.RawFill
	err   error
	since time.Time
}

func (f *fakeBrokerClient) Broker() string {
	return f.kind
}

func (f *fakeBrokerClient) Fills(_ context.Context, since time.Time) ([]broker.RawFill, error) {
	f.since = since
	if f.err != nil {
		return nil, f.err
	}
	return f.raws, nil
}

func newSyncServiceWithFake(db *gorm.DB, fake *fakeBrokerClient) *SyncService {
	logger := zap.NewNop()
	s := NewSyncService(db, &config.Config{}, NewReconcileService(db, logger), nil, logger)
	s.newClient = func(brokerKind string, creds broker.Credentials) (broker.Client, error) {
		fake.kind = brokerKind
		return fake, nil
	}
	return s
}

func rawFill(side, quantity, price, orderID string, at time.Time) broker.RawFill {
	return broker.RawFill{
		Symbol:          "RELIANCE",
		TransactionType: side,
		Quantity:        quantity,
		Price:           price,
		Timestamp:       at.Format("2006-01-02 15:04:05"),
		OrderID:         orderID,
		Segment:         "NSE",
	}
}

func TestSyncAccountProcessesFills(t *testing.T) {
	db := newTestDB(t)
	account := newTestAccount(t, db)

	// 乱序下发，含一笔数量非法的坏数据
	fake := &fakeBrokerClient{raws: []broker.RawFill{
		rawFill("SELL", "10", "110", "ord-2", testBaseTime.Add(time.Minute)),
		rawFill("BUY", "10", "100", "ord-1", testBaseTime),
		rawFill("BUY", "abc", "100", "ord-3", testBaseTime.Add(2*time.Minute)),
	}}
	s := newSyncServiceWithFake(db, fake)

	result, err := s.SyncAccount(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 0, result.Duplicate)
	assert.Equal(t, 1, result.Malformed)

	// 先买后卖按时间顺序重放：持仓全平，产生一条盈利切片
	positions := openPositions(t, db, account.ID, "RELIANCE", models.DirectionLong)
	assert.Empty(t, positions)
	trades := closedTrades(t, db, account.UserID)
	require.Len(t, trades, 1)
	assert.Equal(t, float64(100), trades[0].PnlAmount)

	// 水位推进到最后一笔入账成交的时间
	var updated models.BrokerAccount
	require.NoError(t, db.First(&updated, "id = ?", account.ID).Error)
	require.NotNil(t, updated.LastSyncAt)
	assert.True(t, testBaseTime.Add(time.Minute).Equal(*updated.LastSyncAt))

	logs, err := repo.NewSyncLogRepo(db).FindRecentByUser(context.Background(), account.UserID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.SyncStatusSuccess, logs[0].Status)
	assert.Equal(t, 2, logs[0].Processed)
	assert.Equal(t, 1, logs[0].Malformed)
}

func TestSyncAccountSecondRunIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	account := newTestAccount(t, db)

	fake := &fakeBrokerClient{raws: []broker.RawFill{
		rawFill("BUY", "10", "100", "ord-1", testBaseTime),
	}}
	s := newSyncServiceWithFake(db, fake)

	first, err := s.SyncAccount(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Processed)

	second, err := s.SyncAccount(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 1, second.Duplicate)

	// 第二轮使用上一轮的水位做增量拉取
	assert.True(t, testBaseTime.Equal(fake.since))

	positions := openPositions(t, db, account.ID, "RELIANCE", models.DirectionLong)
	require.Len(t, positions, 1)
	assert.Equal(t, float64(10), positions[0].Quantity)
}

func TestSyncAccountBrokerErrorLeavesNoChanges(t *testing.T) {
	db := newTestDB(t)
	account := newTestAccount(t, db)

	fake := &fakeBrokerClient{err: &broker.APIError{Broker: broker.Zerodha, Status: 403, Message: "token expired"}}
	s := newSyncServiceWithFake(db, fake)

	result, err := s.SyncAccount(context.Background(), account.ID)
	require.Error(t, err)
	require.NotNil(t, result)

	fills, err := repo.NewFillRepo(db).FindByAccount(context.Background(), account.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, fills)

	var updated models.BrokerAccount
	require.NoError(t, db.First(&updated, "id = ?", account.ID).Error)
	assert.Nil(t, updated.LastSyncAt)

	logs, err := repo.NewSyncLogRepo(db).FindRecentByUser(context.Background(), account.UserID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.SyncStatusFailed, logs[0].Status)
	assert.NotEmpty(t, logs[0].Error)
}

func TestSyncAccountAbortsOnEngineError(t *testing.T) {
	db := newTestDB(t)
	account := newTestAccount(t, db)

	// 事先破坏不变量，让第二笔（反向）成交在引擎里失败
	for i := 0; i < 2; i++ {
		p := models.Position{
			ID:            ulid.Make().String(),
			UserID:        account.UserID,
			AccountID:     account.ID,
			Broker:        account.Broker,
			Symbol:        "TCS",
			Direction:     models.DirectionShort,
			Quantity:      5,
			AvgEntryPrice: 3000,
			EntryAmount:   15000,
			OpenedAt:      testBaseTime.Add(-time.Hour),
		}
		require.NoError(t, db.Create(&p).Error)
	}

	fake := &fakeBrokerClient{raws: []broker.RawFill{
		rawFill("BUY", "10", "100", "ord-1", testBaseTime),
		{
			Symbol:          "TCS",
			TransactionType: "BUY",
			Quantity:        "5",
			Price:           "3100",
			Timestamp:       testBaseTime.Add(time.Minute).Format("2006-01-02 15:04:05"),
			OrderID:         "ord-2",
			Segment:         "NSE",
		},
		rawFill("BUY", "10", "100", "ord-3", testBaseTime.Add(2*time.Minute)),
	}}
	s := newSyncServiceWithFake(db, fake)

	result, err := s.SyncAccount(context.Background(), account.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariantViolation)

	// 第一笔已入账且保留，失败笔及其后的成交都未入账
	assert.Equal(t, 1, result.Processed)
	fills, ferr := repo.NewFillRepo(db).FindByAccount(context.Background(), account.ID, 10)
	require.NoError(t, ferr)
	require.Len(t, fills, 1)
	assert.Equal(t, "ord-1", fills[0].OrderID)
}

func TestSyncAccountDisabled(t *testing.T) {
	db := newTestDB(t)
	account := newTestAccount(t, db)
	require.NoError(t, db.Model(&models.BrokerAccount{}).Where("id = ?", account.ID).Update("enabled", false).Error)

	s := newSyncServiceWithFake(db, &fakeBrokerClient{})
	_, err := s.SyncAccount(context.Background(), account.ID)
	assert.ErrorIs(t, err, xe.ErrAccountDisabled)
}

func TestSyncAccountNotFound(t *testing.T) {
	db := newTestDB(t)
	s := newSyncServiceWithFake(db, &fakeBrokerClient{})
	_, err := s.SyncAccount(context.Background(), "no-such-account")
	assert.ErrorIs(t, err, xe.ErrAccountNotFound)
}

func TestSyncAllContinuesPastFailures(t *testing.T) {
	db := newTestDB(t)
	good := newTestAccount(t, db)
	bad := newTestAccount(t, db)

	logger := zap.NewNop()
	s := NewSyncService(db, &config.Config{}, NewReconcileService(db, logger), nil, logger)
	s.newClient = func(brokerKind string, creds broker.Credentials) (broker.Client, error) {
		return nil, errors.New("credentials rejected")
	}

	// 两个账户都失败，但每个账户都留下失败日志，互不影响
	results := s.SyncAll(context.Background())
	assert.Len(t, results, 2)

	for _, account := range []*models.BrokerAccount{good, bad} {
		logs, err := repo.NewSyncLogRepo(db).FindRecentByUser(context.Background(), account.UserID, 10)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, models.SyncStatusFailed, logs[0].Status)
	}
}
