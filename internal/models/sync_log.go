package models

import (
	"time"
)

// SyncStatus 同步状态
const (
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)

// SyncLog 单次同步周期的结果记录
type SyncLog struct {
	ID        string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	UserID    string    `gorm:"type:varchar(26);not null;index" json:"user_id"`
	AccountID string    `gorm:"type:varchar(26);not null;index" json:"account_id"` // 券商账户ID
	Broker    string    `gorm:"type:varchar(20);not null" json:"broker"`           // 券商标识
	Processed int       `gorm:"not null" json:"processed"`                         // 成功入账的成交数
	Duplicate int       `gorm:"not null" json:"duplicate"`                         // 重复跳过数
	Malformed int       `gorm:"not null" json:"malformed"`                         // 格式错误跳过数
	Status    string    `gorm:"type:varchar(10);not null" json:"status"`           // success/failed
	Error     string    `gorm:"type:text" json:"error,omitempty"`                  // 失败原因
	StartedAt time.Time `gorm:"not null" json:"started_at"`
	EndedAt   time.Time `gorm:"not null;index" json:"ended_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (SyncLog) TableName() string {
	return "sync_logs"
}
