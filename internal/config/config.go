package config

type Config struct {
	Security SecurityConf `json:"security"`
	Sync     SyncConf     `json:"sync"`
	Telegram TelegramConf `json:"telegram"`
}

type SecurityConf struct {
	JwtSecret string `json:"jwt_secret"` // 为空时启动随机生成，重启后旧令牌失效
}

type SyncConf struct {
	Enabled         bool `json:"enabled"`          // 是否启用定时同步
	IntervalMinutes int  `json:"interval_minutes"` // 同步周期（分钟），默认15
}

type TelegramConf struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	ChatID  string `json:"chat_id"`
}
