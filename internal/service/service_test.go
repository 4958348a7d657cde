package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
	"github.com/zhangjialei/tradebook/internal/models"
	"github.com/zhangjialei/tradebook/pkg/broker"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "tradebook.db")), &gorm.Config{})
	require.NoError(t, err)
	err = db.AutoMigrate(
		&models.User{},
		&models.BrokerAccount{},
		&models.Fill{},
		&models.Position{},
		&models.Trade{},
		&models.SyncLog{},
	)
	require.NoError(t, err)
	return db
}

func newTestAccount(t *testing.T, db *gorm.DB) *models.BrokerAccount {
	t.Helper()
	account := &models.BrokerAccount{
		ID:      ulid.Make().String(),
		UserID:  ulid.Make().String(),
		Broker:  broker.Zerodha,
		Label:   "主账户",
		Enabled: true,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

var testBaseTime = time.Date(2026, 8, 27, 9, 30, 0, 0, time.Local)

func makeFill(side string, quantity, price float64, orderID string, offset time.Duration) broker.Fill {
	return broker.Fill{
		Symbol:     "RELIANCE",
		Side:       side,
		Quantity:   quantity,
		Price:      price,
		ExecutedAt: testBaseTime.Add(offset),
		OrderID:    orderID,
		Segment:    "NSE",
	}
}
