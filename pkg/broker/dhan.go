package broker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

const dhanTradeBookURL = "https://api.dhan.co/v2/trades"

// dhanClient Dhan API v2 客户端
type dhanClient struct {
	creds Credentials
	http  *http.Client
}

var _ Client = (*dhanClient)(nil)

func newDhanClient(creds Credentials) *dhanClient {
	return &dhanClient{
		creds: creds,
		http:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *dhanClient) Broker() string {
	return Dhan
}

// dhanTrade Dhan 成交回报，数量价格为 JSON 数字，统一转成字符串走归一化
type dhanTrade struct {
	OrderID         string      `json:"orderId"`
	ExchangeTradeID string      `json:"exchangeTradeId"`
	TradingSymbol   string      `json:"tradingSymbol"`
	TransactionType string      `json:"transactionType"`
	TradedQuantity  json.Number `json:"tradedQuantity"`
	TradedPrice     json.Number `json:"tradedPrice"`
	ExchangeTime    string      `json:"exchangeTime"`
	ExchangeSegment string      `json:"exchangeSegment"`
}

func (c *dhanClient) Fills(ctx context.Context, since time.Time) ([]RawFill, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dhanTradeBookURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("access-token", c.creds.AccessToken)
	req.Header.Set("client-id", c.creds.ClientID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{Broker: Dhan, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Broker: Dhan, Status: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Broker: Dhan, Status: resp.StatusCode, Message: string(body)}
	}

	var trades []dhanTrade
	if err := json.Unmarshal(body, &trades); err != nil {
		return nil, &APIError{Broker: Dhan, Status: resp.StatusCode, Message: err.Error()}
	}

	fills := make([]RawFill, 0, len(trades))
	for _, t := range trades {
		orderID := t.ExchangeTradeID
		if orderID == "" {
			orderID = t.OrderID
		}

		raw, _ := json.Marshal(t)
		fills = append(fills, RawFill{
			Symbol:          t.TradingSymbol,
			TransactionType: t.TransactionType,
			Quantity:        t.TradedQuantity.String(),
			Price:           t.TradedPrice.String(),
			Timestamp:       t.ExchangeTime,
			OrderID:         orderID,
			Segment:         t.ExchangeSegment,
			Raw:             raw,
		})
	}
	return fills, nil
}
