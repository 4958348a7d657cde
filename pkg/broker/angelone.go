package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const angelOneTradeBookURL = "https://apiconnect.angelbroking.com/rest/secure/angelbroking/order/v1/getTradeBook"

// angelOneClient Angel One SmartAPI 客户端。
// tradebook 接口只返回当日成交，字段均为字符串，filltime 只有时分秒。
type angelOneClient struct {
	creds Credentials
	http  *http.Client
}

var _ Client = (*angelOneClient)(nil)

func newAngelOneClient(creds Credentials) *angelOneClient {
	return &angelOneClient{
		creds: creds,
		http:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *angelOneClient) Broker() string {
	return AngelOne
}

// angelTrade SmartAPI 成交回报
type angelTrade struct {
	Exchange        string `json:"exchange"`
	TradingSymbol   string `json:"tradingsymbol"`
	TransactionType string `json:"transactiontype"`
	FillPrice       string `json:"fillprice"`
	FillSize        string `json:"fillsize"`
	OrderID         string `json:"orderid"`
	FillID          string `json:"fillid"`
	FillTime        string `json:"filltime"`
}

type angelTradeBookResponse struct {
	Status    bool         `json:"status"`
	Message   string       `json:"message"`
	ErrorCode string       `json:"errorcode"`
	Data      []angelTrade `json:"data"`
}

func (c *angelOneClient) Fills(ctx context.Context, since time.Time) ([]RawFill, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, angelOneTradeBookURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.creds.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-UserType", "USER")
	req.Header.Set("X-SourceID", "WEB")
	req.Header.Set("X-PrivateKey", c.creds.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{Broker: AngelOne, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Broker: AngelOne, Status: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Broker: AngelOne, Status: resp.StatusCode, Message: string(body)}
	}

	var book angelTradeBookResponse
	if err := json.Unmarshal(body, &book); err != nil {
		return nil, &APIError{Broker: AngelOne, Status: resp.StatusCode, Message: err.Error()}
	}
	if !book.Status {
		return nil, &APIError{Broker: AngelOne, Status: resp.StatusCode,
			Message: fmt.Sprintf("%s (%s)", book.Message, book.ErrorCode)}
	}

	today := time.Now().Format("2006-01-02")
	fills := make([]RawFill, 0, len(book.Data))
	for _, t := range book.Data {
		// filltime 只有 HH:MM:SS，补上当天日期
		timestamp := t.FillTime
		if len(timestamp) == len("15:04:05") {
			timestamp = today + " " + t.FillTime
		}

		orderID := t.FillID
		if orderID == "" {
			orderID = t.OrderID
		}

		raw, _ := json.Marshal(t)
		fills = append(fills, RawFill{
			Symbol:          t.TradingSymbol,
			TransactionType: t.TransactionType,
			Quantity:        t.FillSize,
			Price:           t.FillPrice,
			Timestamp:       timestamp,
			OrderID:         orderID,
			Segment:         t.Exchange,
			Raw:             raw,
		})
	}
	return fills, nil
}
