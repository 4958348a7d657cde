package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"github.com/zhangjialei/tradebook/internal/models"
	"github.com/zhangjialei/tradebook/internal/repo"
	"github.com/zhangjialei/tradebook/internal/xe"
	"github.com/zhangjialei/tradebook/pkg/broker"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AccountService 券商账户管理
type AccountService struct {
	logger *zap.Logger

	*orz.Service
	accountRepo *repo.BrokerAccountRepo
	syncLogRepo *repo.SyncLogRepo
}

// NewAccountService 创建券商账户服务
func NewAccountService(db *gorm.DB, logger *zap.Logger) *AccountService {
	return &AccountService{
		logger:      logger,
		Service:     orz.NewService(db),
		accountRepo: repo.NewBrokerAccountRepo(db),
		syncLogRepo: repo.NewSyncLogRepo(db),
	}
}

// LinkAccountRequest 绑定券商账户请求
type LinkAccountRequest struct {
	Broker      string `json:"broker" validate:"required"`
	Label       string `json:"label" validate:"max=50"`
	APIKey      string `json:"api_key"`
	APISecret   string `json:"api_secret"`
	AccessToken string `json:"access_token" validate:"required"`
	ClientID    string `json:"client_id"`
}

// AccountView 账户对外展示，凭证脱敏
type AccountView struct {
	ID         string     `json:"id"`
	Broker     string     `json:"broker"`
	Label      string     `json:"label"`
	APIKey     string     `json:"api_key"` // 仅保留尾部4位
	ClientID   string     `json:"client_id"`
	Enabled    bool       `json:"enabled"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

func toAccountView(m *models.BrokerAccount) AccountView {
	return AccountView{
		ID:         m.ID,
		Broker:     m.Broker,
		Label:      m.Label,
		APIKey:     maskSecret(m.APIKey),
		ClientID:   m.ClientID,
		Enabled:    m.Enabled,
		LastSyncAt: m.LastSyncAt,
		CreatedAt:  m.CreatedAt,
	}
}

// LinkAccount 绑定一个券商账户
func (s *AccountService) LinkAccount(ctx context.Context, userID string, req LinkAccountRequest) (*AccountView, error) {
	kind := strings.ToLower(strings.TrimSpace(req.Broker))
	if !broker.IsSupported(kind) {
		return nil, xe.ErrBrokerNotSupported
	}

	account := models.BrokerAccount{
		ID:          ulid.Make().String(),
		UserID:      userID,
		Broker:      kind,
		Label:       strings.TrimSpace(req.Label),
		APIKey:      req.APIKey,
		APISecret:   req.APISecret,
		AccessToken: req.AccessToken,
		ClientID:    req.ClientID,
		Enabled:     true,
	}
	if err := s.accountRepo.Create(ctx, &account); err != nil {
		return nil, err
	}

	s.logger.Info("broker account linked",
		zap.String("user_id", userID),
		zap.String("broker", kind),
		zap.String("account_id", account.ID))

	view := toAccountView(&account)
	return &view, nil
}

// ListAccounts 获取用户绑定的账户列表
func (s *AccountService) ListAccounts(ctx context.Context, userID string) ([]AccountView, error) {
	accounts, err := s.accountRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]AccountView, 0, len(accounts))
	for i := range accounts {
		views = append(views, toAccountView(&accounts[i]))
	}
	return views, nil
}

// findOwned 校验账户归属
func (s *AccountService) findOwned(ctx context.Context, userID, accountID string) (*models.BrokerAccount, error) {
	account, err := s.accountRepo.FindById(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xe.ErrAccountNotFound
		}
		return nil, err
	}
	if account.UserID != userID {
		return nil, xe.ErrPermissionDenied
	}
	return &account, nil
}

// SetEnabled 启用或停用账户同步
func (s *AccountService) SetEnabled(ctx context.Context, userID, accountID string, enabled bool) error {
	account, err := s.findOwned(ctx, userID, accountID)
	if err != nil {
		return err
	}
	return s.accountRepo.UpdateEnabled(ctx, account.ID, enabled)
}

// UnlinkAccount 解绑券商账户，历史持仓和平仓记录保留
func (s *AccountService) UnlinkAccount(ctx context.Context, userID, accountID string) error {
	account, err := s.findOwned(ctx, userID, accountID)
	if err != nil {
		return err
	}
	return s.accountRepo.DeleteById(ctx, account.ID)
}
