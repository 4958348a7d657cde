package broker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// ErrMalformedFill 成交回报缺字段或数值非法，该笔跳过，不中断同步
var ErrMalformedFill = errors.New("malformed fill")

// 各券商方向字段到统一 BUY/SELL 的映射，
// Zerodha/Angel/Dhan 用大写单词，Delta 用小写，部分接口用单字母或数字编码
var sideAliases = map[string]string{
	"BUY":  "BUY",
	"SELL": "SELL",
	"B":    "BUY",
	"S":    "SELL",
	"1":    "BUY",
	"2":    "SELL",
	"-1":   "SELL",
}

// 成交时间的常见格式，按命中概率排序
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02-01-2006 15:04:05",
	"2006-01-02",
}

// Normalize 将券商原始成交回报转换为统一成交结构。
// 数量和价格必须为正数，时间必须可解析，订单号不能为空，否则返回 ErrMalformedFill。
func Normalize(raw RawFill) (Fill, error) {
	symbol := strings.TrimSpace(raw.Symbol)
	if symbol == "" {
		return Fill{}, fmt.Errorf("%w: missing symbol", ErrMalformedFill)
	}

	orderID := strings.TrimSpace(raw.OrderID)
	if orderID == "" {
		return Fill{}, fmt.Errorf("%w: missing order id", ErrMalformedFill)
	}

	side, ok := sideAliases[strings.ToUpper(strings.TrimSpace(raw.TransactionType))]
	if !ok {
		return Fill{}, fmt.Errorf("%w: unknown transaction type %q", ErrMalformedFill, raw.TransactionType)
	}

	quantity, err := cast.ToFloat64E(strings.TrimSpace(raw.Quantity))
	if err != nil {
		return Fill{}, fmt.Errorf("%w: quantity %q is not numeric", ErrMalformedFill, raw.Quantity)
	}
	if quantity <= 0 {
		return Fill{}, fmt.Errorf("%w: quantity %v is not positive", ErrMalformedFill, quantity)
	}

	price, err := cast.ToFloat64E(strings.TrimSpace(raw.Price))
	if err != nil {
		return Fill{}, fmt.Errorf("%w: price %q is not numeric", ErrMalformedFill, raw.Price)
	}
	if price <= 0 {
		return Fill{}, fmt.Errorf("%w: price %v is not positive", ErrMalformedFill, price)
	}

	executedAt, err := parseTimestamp(strings.TrimSpace(raw.Timestamp))
	if err != nil {
		return Fill{}, fmt.Errorf("%w: %v", ErrMalformedFill, err)
	}

	return Fill{
		Symbol:     symbol,
		Side:       side,
		Quantity:   quantity,
		Price:      price,
		ExecutedAt: executedAt,
		OrderID:    orderID,
		Segment:    strings.TrimSpace(raw.Segment),
		Raw:        raw.Raw,
	}, nil
}

// parseTimestamp 依次尝试常见文本格式，纯数字按 epoch 秒（13 位按毫秒）处理
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("missing timestamp")
	}

	if epoch, err := cast.ToInt64E(value); err == nil {
		if epoch > 1e12 {
			return time.UnixMilli(epoch), nil
		}
		return time.Unix(epoch, 0), nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}
