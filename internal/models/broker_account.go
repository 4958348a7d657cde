package models

import (
	"time"

	"gorm.io/gorm"
)

// BrokerAccount 用户绑定的券商账户。
// 凭证由用户在券商侧完成授权后填入，令牌刷新流程不在本系统内。
type BrokerAccount struct {
	ID          string         `gorm:"primaryKey;type:varchar(26)" json:"id"`
	UserID      string         `gorm:"type:varchar(26);not null;index" json:"user_id"`
	Broker      string         `gorm:"type:varchar(20);not null" json:"broker"` // zerodha/angelone/dhan/delta
	Label       string         `gorm:"type:varchar(50)" json:"label"`           // 用户自定义备注名
	APIKey      string         `gorm:"type:varchar(128)" json:"-"`              // 券商 API Key
	APISecret   string         `gorm:"type:varchar(128)" json:"-"`              // 券商 API Secret
	AccessToken string         `gorm:"type:varchar(512)" json:"-"`              // 访问令牌
	ClientID    string         `gorm:"type:varchar(64)" json:"client_id"`       // 券商客户号（Dhan/Angel 需要）
	Enabled     bool           `gorm:"not null;default:true" json:"enabled"`    // 是否参与同步
	LastSyncAt  *time.Time     `json:"last_sync_at,omitempty"`                  // 上次成功同步时间（增量拉取水位）
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (*BrokerAccount) TableName() string {
	return "broker_accounts"
}
