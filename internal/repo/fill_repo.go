package repo

import (
	"context"

	"github.com/go-orz/orz"
	"github.com/zhangjialei/tradebook/internal/models"
	"gorm.io/gorm"
)

func NewFillRepo(db *gorm.DB) *FillRepo {
	return &FillRepo{
		Repository: orz.NewRepository[models.Fill, string](db),
	}
}

type FillRepo struct {
	orz.Repository[models.Fill, string]
}

// ExistsByOrderID 判断某券商订单号是否已入账
func (r FillRepo) ExistsByOrderID(ctx context.Context, accountID, orderID string) (bool, error) {
	var count int64
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("account_id = ? AND order_id = ?", accountID, orderID).
		Count(&count).Error
	return count > 0, err
}

// FindProcessedOrderIDs 批量查出已入账的订单号，供同步前整批去重
func (r FillRepo) FindProcessedOrderIDs(ctx context.Context, accountID string, orderIDs []string) (map[string]struct{}, error) {
	processed := make(map[string]struct{}, len(orderIDs))
	if len(orderIDs) == 0 {
		return processed, nil
	}

	var existing []string
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("account_id = ? AND order_id IN ?", accountID, orderIDs).
		Pluck("order_id", &existing).Error
	if err != nil {
		return nil, err
	}

	for _, id := range existing {
		processed[id] = struct{}{}
	}
	return processed, nil
}

// FindByAccount 查询某账户的成交流水，按成交时间倒序
func (r FillRepo) FindByAccount(ctx context.Context, accountID string, limit int) ([]models.Fill, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var fills []models.Fill
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("account_id = ?", accountID).
		Order("executed_at DESC").
		Limit(limit).
		Find(&fills).Error
	return fills, err
}
