package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"github.com/zhangjialei/tradebook/internal/config"
	"github.com/zhangjialei/tradebook/internal/models"
	"github.com/zhangjialei/tradebook/internal/repo"
	"github.com/zhangjialei/tradebook/internal/telegram"
	"github.com/zhangjialei/tradebook/internal/xe"
	"github.com/zhangjialei/tradebook/pkg/broker"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SyncResult 单次同步的结果计数
type SyncResult struct {
	AccountID string    `json:"account_id"`
	Broker    string    `json:"broker"`
	Processed int       `json:"processed"` // 成功入账
	Duplicate int       `json:"duplicate"` // 重复跳过
	Malformed int       `json:"malformed"` // 格式错误跳过
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// SyncService 同步编排：拉取券商成交、归一化、按时间排序、批量去重，
// 再逐笔交给对账引擎。同一账户的同步按键互斥，避免定时任务与手动触发并发执行。
type SyncService struct {
	logger *zap.Logger
	conf   *config.Config

	*orz.Service
	accountRepo *repo.BrokerAccountRepo
	fillRepo    *repo.FillRepo
	syncLogRepo *repo.SyncLogRepo
	reconcile   *ReconcileService

	tg    *telegram.Telegram
	locks *keyLock

	// 测试时替换为假客户端
	newClient func(brokerKind string, creds broker.Credentials) (broker.Client, error)
}

// NewSyncService 创建同步服务
func NewSyncService(db *gorm.DB, conf *config.Config, reconcile *ReconcileService, tg *telegram.Telegram, logger *zap.Logger) *SyncService {
	return &SyncService{
		logger:      logger,
		conf:        conf,
		Service:     orz.NewService(db),
		accountRepo: repo.NewBrokerAccountRepo(db),
		fillRepo:    repo.NewFillRepo(db),
		syncLogRepo: repo.NewSyncLogRepo(db),
		reconcile:   reconcile,
		tg:          tg,
		locks:       newKeyLock(),
		newClient:   broker.NewClient,
	}
}

// SyncAccount 同步单个券商账户。
// 券商接口失败时不产生任何持仓变更；入账中途持久化失败时中止剩余成交，
// 已入账的成交保持不变（每笔自身是原子的）。
func (s *SyncService) SyncAccount(ctx context.Context, accountID string) (*SyncResult, error) {
	account, err := s.accountRepo.FindById(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xe.ErrAccountNotFound
		}
		return nil, err
	}
	if !account.Enabled {
		return nil, xe.ErrAccountDisabled
	}

	unlock, ok := s.locks.TryLock(account.ID)
	if !ok {
		return nil, xe.ErrSyncInProgress
	}
	defer unlock()

	result := &SyncResult{
		AccountID: account.ID,
		Broker:    account.Broker,
		StartedAt: time.Now(),
	}

	syncErr := s.doSync(ctx, &account, result)
	result.EndedAt = time.Now()

	s.writeSyncLog(ctx, &account, result, syncErr)
	s.notify(&account, result, syncErr)

	if syncErr != nil {
		return result, syncErr
	}
	return result, nil
}

func (s *SyncService) doSync(ctx context.Context, account *models.BrokerAccount, result *SyncResult) error {
	client, err := s.newClient(account.Broker, broker.Credentials{
		APIKey:      account.APIKey,
		APISecret:   account.APISecret,
		AccessToken: account.AccessToken,
		ClientID:    account.ClientID,
	})
	if err != nil {
		return xe.ErrBrokerNotSupported
	}

	var since time.Time
	if account.LastSyncAt != nil {
		since = *account.LastSyncAt
	}

	raws, err := client.Fills(ctx, since)
	if err != nil {
		// 券商接口失败，整轮放弃，此时尚无任何状态变更
		return fmt.Errorf("failed to fetch fills from %s: %w", account.Broker, err)
	}

	fills := make([]broker.Fill, 0, len(raws))
	for _, raw := range raws {
		fill, err := broker.Normalize(raw)
		if err != nil {
			result.Malformed++
			s.logger.Warn("skip malformed fill",
				zap.String("account_id", account.ID),
				zap.String("broker", account.Broker),
				zap.String("order_id", raw.OrderID),
				zap.Error(err))
			continue
		}
		fills = append(fills, fill)
	}

	// 严格按成交时间升序处理，时间相同按订单号
	sort.Slice(fills, func(i, j int) bool {
		if fills[i].ExecutedAt.Equal(fills[j].ExecutedAt) {
			return fills[i].OrderID < fills[j].OrderID
		}
		return fills[i].ExecutedAt.Before(fills[j].ExecutedAt)
	})

	orderIDs := make([]string, len(fills))
	for i, fill := range fills {
		orderIDs[i] = fill.OrderID
	}
	processed, err := s.fillRepo.FindProcessedOrderIDs(ctx, account.ID, orderIDs)
	if err != nil {
		return fmt.Errorf("failed to batch check processed orders: %w", err)
	}

	var watermark time.Time
	for _, fill := range fills {
		if _, ok := processed[fill.OrderID]; ok {
			result.Duplicate++
			continue
		}

		applied, err := s.reconcile.ApplyFill(ctx, account, fill)
		if err != nil {
			// 本笔未产生任何写入，中止剩余成交
			return fmt.Errorf("failed to apply fill %s: %w", fill.OrderID, err)
		}
		if !applied {
			result.Duplicate++
			continue
		}

		result.Processed++
		if fill.ExecutedAt.After(watermark) {
			watermark = fill.ExecutedAt
		}
	}

	if !watermark.IsZero() {
		if err := s.accountRepo.UpdateLastSyncAt(ctx, account.ID, watermark); err != nil {
			return fmt.Errorf("failed to update sync watermark: %w", err)
		}
	}
	return nil
}

// SyncAll 同步所有启用的账户，单个账户失败不影响其他账户
func (s *SyncService) SyncAll(ctx context.Context) []SyncResult {
	accounts, err := s.accountRepo.FindAllEnabled(ctx)
	if err != nil {
		s.logger.Error("failed to load enabled accounts", zap.Error(err))
		return nil
	}

	results := make([]SyncResult, 0, len(accounts))
	for _, account := range accounts {
		result, err := s.SyncAccount(ctx, account.ID)
		if err != nil {
			s.logger.Error("account sync failed",
				zap.String("account_id", account.ID),
				zap.String("broker", account.Broker),
				zap.Error(err))
		}
		if result != nil {
			results = append(results, *result)
		}
	}
	return results
}

func (s *SyncService) writeSyncLog(ctx context.Context, account *models.BrokerAccount, result *SyncResult, syncErr error) {
	status := models.SyncStatusSuccess
	errMsg := ""
	if syncErr != nil {
		status = models.SyncStatusFailed
		errMsg = syncErr.Error()
	}

	log := models.SyncLog{
		ID:        ulid.Make().String(),
		UserID:    account.UserID,
		AccountID: account.ID,
		Broker:    account.Broker,
		Processed: result.Processed,
		Duplicate: result.Duplicate,
		Malformed: result.Malformed,
		Status:    status,
		Error:     errMsg,
		StartedAt: result.StartedAt,
		EndedAt:   result.EndedAt,
	}
	if err := s.syncLogRepo.Create(ctx, &log); err != nil {
		s.logger.Error("failed to write sync log", zap.Error(err))
	}
}

func (s *SyncService) notify(account *models.BrokerAccount, result *SyncResult, syncErr error) {
	if s.tg == nil || !s.conf.Telegram.Enabled {
		return
	}
	// 无动静的成功同步不打扰
	if syncErr == nil && result.Processed == 0 && result.Malformed == 0 {
		return
	}

	msg := telegram.RenderSyncReport(telegram.SyncReport{
		Broker:    account.Broker,
		Label:     account.Label,
		Processed: result.Processed,
		Duplicate: result.Duplicate,
		Malformed: result.Malformed,
		Err:       syncErr,
	})
	if err := s.tg.Notify(s.conf.Telegram.ChatID, msg); err != nil {
		s.logger.Warn("failed to send telegram notification", zap.Error(err))
	}
}
