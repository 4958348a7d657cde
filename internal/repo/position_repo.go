package repo

import (
	"context"

	"github.com/go-orz/orz"
	"github.com/zhangjialei/tradebook/internal/models"
	"gorm.io/gorm"
)

func NewPositionRepo(db *gorm.DB) *PositionRepo {
	return &PositionRepo{
		Repository: orz.NewRepository[models.Position, string](db),
	}
}

type PositionRepo struct {
	orz.Repository[models.Position, string]
}

// FindOpenByKey 查找同一 (账户, 标的, 方向) 下的全部未平仓持仓。
// 正常情况下最多一条，返回多条说明数据已被破坏，由调用方判定。
func (r PositionRepo) FindOpenByKey(ctx context.Context, accountID, symbol, direction string) ([]models.Position, error) {
	var positions []models.Position
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("account_id = ? AND symbol = ? AND direction = ?", accountID, symbol, direction).
		Order("opened_at ASC").
		Find(&positions).Error
	return positions, err
}

// FindByAccount 查找指定账户的全部未平仓持仓
func (r PositionRepo) FindByAccount(ctx context.Context, accountID string) ([]models.Position, error) {
	var positions []models.Position
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("account_id = ?", accountID).
		Order("opened_at DESC").
		Find(&positions).Error
	return positions, err
}

// FindByUser 查找用户的全部未平仓持仓
func (r PositionRepo) FindByUser(ctx context.Context, userID string) ([]models.Position, error) {
	var positions []models.Position
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("user_id = ?", userID).
		Order("opened_at DESC").
		Find(&positions).Error
	return positions, err
}
