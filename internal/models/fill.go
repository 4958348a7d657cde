package models

import (
	"time"

	"gorm.io/datatypes"
)

// Side 成交方向
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// SideDirection 成交方向对应的开仓方向：买入开多，卖出开空
func SideDirection(side string) string {
	if side == SideBuy {
		return DirectionLong
	}
	return DirectionShort
}

// Fill 已处理成交流水。
// (account_id, order_id) 唯一索引是幂等去重的依据：同一券商订单号重复同步时直接跳过。
type Fill struct {
	ID         string         `gorm:"primaryKey;type:varchar(26)" json:"id"`
	UserID     string         `gorm:"type:varchar(26);not null;index" json:"user_id"`
	AccountID  string         `gorm:"type:varchar(26);not null;uniqueIndex:idx_fill_order" json:"account_id"` // 券商账户ID
	Broker     string         `gorm:"type:varchar(20);not null" json:"broker"`                                // 券商标识
	Symbol     string         `gorm:"type:varchar(40);not null;index" json:"symbol"`                          // 交易标的
	Side       string         `gorm:"type:varchar(10);not null" json:"side"`                                  // BUY/SELL
	Quantity   float64        `gorm:"type:decimal(20,8);not null" json:"quantity"`                            // 成交数量
	Price      float64        `gorm:"type:decimal(20,8);not null" json:"price"`                               // 成交价格
	Segment    string         `gorm:"type:varchar(20)" json:"segment"`                                        // 市场分段
	OrderID    string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_fill_order" json:"order_id"`   // 券商订单号
	ExecutedAt time.Time      `gorm:"not null;index" json:"executed_at"`                                      // 成交时间
	Raw        datatypes.JSON `gorm:"type:json" json:"raw,omitempty"`                                         // 券商原始报文
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (Fill) TableName() string {
	return "fills"
}
