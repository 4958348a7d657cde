package broker

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	deltaBaseURL   = "https://api.india.delta.exchange"
	deltaFillsPath = "/v2/fills"
)

// deltaClient Delta Exchange 客户端，请求需要 HMAC-SHA256 签名
type deltaClient struct {
	creds Credentials
	http  *http.Client
}

var _ Client = (*deltaClient)(nil)

func newDeltaClient(creds Credentials) *deltaClient {
	return &deltaClient{
		creds: creds,
		http:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *deltaClient) Broker() string {
	return Delta
}

// sign 签名串为 method + timestamp + path + query + body
func (c *deltaClient) sign(method, timestamp, path, query, body string) string {
	mac := hmac.New(sha256.New, []byte(c.creds.APISecret))
	mac.Write([]byte(method + timestamp + path + query + body))
	return hex.EncodeToString(mac.Sum(nil))
}

// deltaFill Delta 成交回报，price 为字符串，size 为合约张数
type deltaFill struct {
	ID            int64  `json:"id"`
	ProductSymbol string `json:"product_symbol"`
	Side          string `json:"side"`
	Size          int64  `json:"size"`
	Price         string `json:"price"`
	Role          string `json:"role"`
	CreatedAt     string `json:"created_at"`
	OrderID       string `json:"order_id"`
}

type deltaFillsResponse struct {
	Success bool        `json:"success"`
	Result  []deltaFill `json:"result"`
}

func (c *deltaClient) Fills(ctx context.Context, since time.Time) ([]RawFill, error) {
	query := ""
	if !since.IsZero() {
		query = "?start_time=" + strconv.FormatInt(since.UnixMicro(), 10)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, deltaBaseURL+deltaFillsPath+query, nil)
	if err != nil {
		return nil, err
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", c.creds.APIKey)
	req.Header.Set("timestamp", timestamp)
	req.Header.Set("signature", c.sign(http.MethodGet, timestamp, deltaFillsPath, query, ""))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{Broker: Delta, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Broker: Delta, Status: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Broker: Delta, Status: resp.StatusCode, Message: string(body)}
	}

	var out deltaFillsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &APIError{Broker: Delta, Status: resp.StatusCode, Message: err.Error()}
	}
	if !out.Success {
		return nil, &APIError{Broker: Delta, Status: resp.StatusCode, Message: "request not successful"}
	}

	fills := make([]RawFill, 0, len(out.Result))
	for _, f := range out.Result {
		raw, _ := json.Marshal(f)
		fills = append(fills, RawFill{
			Symbol:          f.ProductSymbol,
			TransactionType: f.Side,
			Quantity:        strconv.FormatInt(f.Size, 10),
			Price:           f.Price,
			Timestamp:       f.CreatedAt,
			OrderID:         strconv.FormatInt(f.ID, 10),
			Segment:         "derivatives",
			Raw:             raw,
		})
	}
	return fills, nil
}
