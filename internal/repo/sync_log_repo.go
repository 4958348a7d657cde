package repo

import (
	"context"

	"github.com/go-orz/orz"
	"github.com/zhangjialei/tradebook/internal/models"
	"gorm.io/gorm"
)

func NewSyncLogRepo(db *gorm.DB) *SyncLogRepo {
	return &SyncLogRepo{
		Repository: orz.NewRepository[models.SyncLog, string](db),
	}
}

type SyncLogRepo struct {
	orz.Repository[models.SyncLog, string]
}

// FindRecentByUser 获取用户最近的同步记录
func (r SyncLogRepo) FindRecentByUser(ctx context.Context, userID string, limit int) ([]models.SyncLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var logs []models.SyncLog
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("user_id = ?", userID).
		Order("ended_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// FindLatestByAccount 获取某账户最近一次同步记录
func (r SyncLogRepo) FindLatestByAccount(ctx context.Context, accountID string) (m models.SyncLog, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("account_id = ?", accountID).
		Order("ended_at DESC").
		First(&m).Error
	return m, err
}
