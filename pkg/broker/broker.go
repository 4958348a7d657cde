// Package broker 各券商成交数据接入：拉取已成交回报并归一化为统一的成交结构。
// 授权、令牌刷新等券商侧流程不在此包内，调用方传入现成凭证。
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// 支持的券商
const (
	Zerodha  = "zerodha"
	AngelOne = "angelone"
	Dhan     = "dhan"
	Delta    = "delta"
)

// IsSupported 是否为支持的券商
func IsSupported(broker string) bool {
	switch broker {
	case Zerodha, AngelOne, Dhan, Delta:
		return true
	}
	return false
}

// Credentials 券商访问凭证
type Credentials struct {
	APIKey      string
	APISecret   string
	AccessToken string
	ClientID    string
}

// RawFill 券商返回的单笔成交回报，字段保持券商原始的字符串形态，
// 由 Normalize 负责校验和类型转换
type RawFill struct {
	Symbol          string          // 交易标的
	TransactionType string          // 券商方向字段，BUY/SELL/buy/B/1 等
	Quantity        string          // 成交数量
	Price           string          // 成交均价
	Timestamp       string          // 成交时间
	OrderID         string          // 券商订单号，同一账户内唯一
	Segment         string          // 市场分段
	Raw             json.RawMessage // 原始报文
}

// Fill 归一化后的成交
type Fill struct {
	Symbol     string
	Side       string // BUY/SELL
	Quantity   float64
	Price      float64
	ExecutedAt time.Time
	OrderID    string
	Segment    string
	Raw        json.RawMessage
}

// Client 券商成交拉取客户端
type Client interface {
	// Broker 返回券商标识
	Broker() string
	// Fills 拉取 since 之后的已成交回报，since 为零值时拉取券商允许的全部范围
	Fills(ctx context.Context, since time.Time) ([]RawFill, error)
}

// APIError 券商接口调用失败
type APIError struct {
	Broker  string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error (status=%d): %s", e.Broker, e.Status, e.Message)
}

// NewClient 根据凭证创建券商客户端
func NewClient(broker string, creds Credentials) (Client, error) {
	switch broker {
	case Zerodha:
		return newZerodhaClient(creds), nil
	case AngelOne:
		return newAngelOneClient(creds), nil
	case Dhan:
		return newDhanClient(creds), nil
	case Delta:
		return newDeltaClient(creds), nil
	default:
		return nil, fmt.Errorf("unsupported broker: %s", broker)
	}
}
