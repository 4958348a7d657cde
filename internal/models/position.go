package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Direction 持仓方向
const (
	DirectionLong  = "long"  // 多头，先买后卖
	DirectionShort = "short" // 空头，先卖后买
)

// OppositeDirection 返回相反方向
func OppositeDirection(direction string) string {
	if direction == DirectionLong {
		return DirectionShort
	}
	return DirectionLong
}

// Position 未平仓持仓，同一 (券商账户, 标的, 方向) 最多存在一条
type Position struct {
	ID            string         `gorm:"primaryKey;type:varchar(26)" json:"id"`
	UserID        string         `gorm:"type:varchar(26);not null;index" json:"user_id"`
	AccountID     string         `gorm:"type:varchar(26);not null;index:idx_position_key" json:"account_id"` // 券商账户ID
	Broker        string         `gorm:"type:varchar(20);not null" json:"broker"`                            // 券商标识
	Symbol        string         `gorm:"type:varchar(40);not null;index:idx_position_key" json:"symbol"`     // 交易标的
	Direction     string         `gorm:"type:varchar(10);not null;index:idx_position_key" json:"direction"`  // long/short
	Quantity      float64        `gorm:"type:decimal(20,8);not null" json:"quantity"`                        // 持仓数量
	AvgEntryPrice float64        `gorm:"type:decimal(20,8);not null" json:"avg_entry_price"`                 // 加权平均开仓价
	EntryAmount   float64        `gorm:"type:decimal(20,8);not null" json:"entry_amount"`                    // 开仓金额 = 数量 × 均价
	Segment       string         `gorm:"type:varchar(20)" json:"segment"`                                    // 市场分段，如 NSE/FNO
	LastOrderID   string         `gorm:"type:varchar(64)" json:"last_order_id"`                              // 最近一次触达该持仓的券商订单号
	OpenedAt      time.Time      `gorm:"not null" json:"opened_at"`                                          // 首笔成交时间
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (*Position) TableName() string {
	return "positions"
}

// PositionSnapshot 持仓在决策时刻的不可变快照。
// 平仓切片以快照为准计算，避免同一笔成交处理过程中读到被修改后的均价。
type PositionSnapshot struct {
	ID            string
	Quantity      float64
	AvgEntryPrice float64
	Segment       string
	OpenedAt      time.Time
}

// Snapshot 生成当前持仓的快照
func (p *Position) Snapshot() PositionSnapshot {
	return PositionSnapshot{
		ID:            p.ID,
		Quantity:      p.Quantity,
		AvgEntryPrice: p.AvgEntryPrice,
		Segment:       p.Segment,
		OpenedAt:      p.OpenedAt,
	}
}

func (p *Position) CalculateHoldingStr() string {
	holding := time.Since(p.OpenedAt)
	holdingStr, _ := strings.CutSuffix(holding.Round(time.Minute).String(), "0s")
	return holdingStr
}
