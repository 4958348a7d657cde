package repo

import (
	"context"
	"time"

	"github.com/go-orz/orz"
	"github.com/zhangjialei/tradebook/internal/models"
	"gorm.io/gorm"
)

func NewBrokerAccountRepo(db *gorm.DB) *BrokerAccountRepo {
	return &BrokerAccountRepo{
		Repository: orz.NewRepository[models.BrokerAccount, string](db),
	}
}

type BrokerAccountRepo struct {
	orz.Repository[models.BrokerAccount, string]
}

// FindByUser 查找用户绑定的全部券商账户
func (r BrokerAccountRepo) FindByUser(ctx context.Context, userID string) ([]models.BrokerAccount, error) {
	var accounts []models.BrokerAccount
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&accounts).Error
	return accounts, err
}

// FindAllEnabled 查找所有启用同步的券商账户
func (r BrokerAccountRepo) FindAllEnabled(ctx context.Context) ([]models.BrokerAccount, error) {
	var accounts []models.BrokerAccount
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("enabled = ?", true).
		Order("created_at ASC").
		Find(&accounts).Error
	return accounts, err
}

// UpdateLastSyncAt 更新增量同步水位
func (r BrokerAccountRepo) UpdateLastSyncAt(ctx context.Context, id string, at time.Time) error {
	db := r.GetDB(ctx)
	return db.Table(r.GetTableName()).
		Where("id = ?", id).
		Update("last_sync_at", at).Error
}

// UpdateEnabled 启用/停用同步
func (r BrokerAccountRepo) UpdateEnabled(ctx context.Context, id string, enabled bool) error {
	db := r.GetDB(ctx)
	return db.Table(r.GetTableName()).
		Where("id = ?", id).
		Update("enabled", enabled).Error
}
