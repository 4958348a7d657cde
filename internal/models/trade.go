package models

import (
	"time"

	"gorm.io/gorm"
)

// Trade 已实现的平仓切片，一经写入不再修改。
// 一笔反向成交可能产生多个切片（逐个对冲现有持仓），盈亏为毛利，不含手续费。
type Trade struct {
	ID           string         `gorm:"primaryKey;type:varchar(26)" json:"id"`
	UserID       string         `gorm:"type:varchar(26);not null;index" json:"user_id"`
	AccountID    string         `gorm:"type:varchar(26);not null;index" json:"account_id"`  // 券商账户ID
	Broker       string         `gorm:"type:varchar(20);not null" json:"broker"`            // 券商标识
	Symbol       string         `gorm:"type:varchar(40);not null;index" json:"symbol"`      // 交易标的
	Direction    string         `gorm:"type:varchar(10);not null" json:"direction"`         // 被平仓持仓的方向 long/short
	Quantity     float64        `gorm:"type:decimal(20,8);not null" json:"quantity"`        // 平仓数量
	EntryPrice   float64        `gorm:"type:decimal(20,8);not null" json:"entry_price"`     // 开仓均价（来自持仓快照）
	ExitPrice    float64        `gorm:"type:decimal(20,8);not null" json:"exit_price"`      // 平仓价格
	EntryAmount  float64        `gorm:"type:decimal(20,8);not null" json:"entry_amount"`    // 平仓部分对应的开仓金额
	PnlAmount    float64        `gorm:"type:decimal(20,2)" json:"pnl_amount"`               // 毛利金额，四舍五入到整数货币单位
	PnlPercent   float64        `gorm:"type:decimal(10,2)" json:"pnl_percent"`              // 毛利百分比
	Segment      string         `gorm:"type:varchar(20)" json:"segment"`                    // 市场分段
	EntryOrderID string         `gorm:"type:varchar(64)" json:"entry_order_id"`             // 开仓侧最近订单号
	ExitOrderID  string         `gorm:"type:varchar(64);index" json:"exit_order_id"`        // 平仓订单号
	OpenedAt     time.Time      `gorm:"not null" json:"opened_at"`                          // 开仓时间
	ClosedAt     time.Time      `gorm:"not null;index" json:"closed_at"`                    // 平仓时间
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (Trade) TableName() string {
	return "trades"
}
