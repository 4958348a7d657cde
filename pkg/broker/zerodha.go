package broker

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
)

// zerodhaClient Zerodha Kite Connect 客户端，成交数据来自当日 tradebook
type zerodhaClient struct {
	kc *kiteconnect.Client
}

var _ Client = (*zerodhaClient)(nil)

func newZerodhaClient(creds Credentials) *zerodhaClient {
	kc := kiteconnect.New(creds.APIKey)
	kc.SetAccessToken(creds.AccessToken)
	return &zerodhaClient{kc: kc}
}

func (c *zerodhaClient) Broker() string {
	return Zerodha
}

// sinceIncludes 水位边界取闭区间：与水位同一时刻的成交重新拉取，
// 由订单号去重兜底，漏单比重复更糟
func sinceIncludes(since, executedAt time.Time) bool {
	return since.IsZero() || !executedAt.Before(since)
}

func (c *zerodhaClient) Fills(ctx context.Context, since time.Time) ([]RawFill, error) {
	trades, err := c.kc.GetTrades()
	if err != nil {
		return nil, &APIError{Broker: Zerodha, Message: err.Error()}
	}

	fills := make([]RawFill, 0, len(trades))
	for _, t := range trades {
		executedAt := t.FillTimestamp.Time
		if !sinceIncludes(since, executedAt) {
			continue
		}

		// 一笔订单可能分多笔成交，trade_id 才是成交粒度的唯一标识
		orderID := t.TradeID
		if orderID == "" {
			orderID = t.OrderID
		}

		raw, _ := json.Marshal(t)
		fills = append(fills, RawFill{
			Symbol:          t.TradingSymbol,
			TransactionType: t.TransactionType,
			Quantity:        strconv.FormatFloat(t.Quantity, 'f', -1, 64),
			Price:           strconv.FormatFloat(t.AveragePrice, 'f', -1, 64),
			Timestamp:       executedAt.Format("2006-01-02 15:04:05"),
			OrderID:         orderID,
			Segment:         t.Exchange,
			Raw:             raw,
		})
	}
	return fills, nil
}
