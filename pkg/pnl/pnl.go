// Package pnl 计算平仓已实现盈亏（毛利，不含手续费）。
package pnl

import "math"

// 持仓方向，与 internal/models 保持一致的字符串值
const (
	Long  = "long"
	Short = "short"
)

// Realized 已实现盈亏
type Realized struct {
	Amount  float64 `json:"amount"`  // 盈亏金额，四舍五入到整数货币单位
	Percent float64 `json:"percent"` // 相对开仓金额的百分比，保留两位小数
}

// ComputeRealized 按持仓方向计算平仓盈亏。
// 多头：(卖出价 - 开仓均价) × 数量；空头：(开仓均价 - 买入价) × 数量。
// 开仓金额为零时百分比记为 0，避免除零。
func ComputeRealized(direction string, entryAvgPrice, exitPrice, quantity float64) Realized {
	var amount float64
	if direction == Short {
		amount = (entryAvgPrice - exitPrice) * quantity
	} else {
		amount = (exitPrice - entryAvgPrice) * quantity
	}

	var percent float64
	if notional := entryAvgPrice * quantity; notional != 0 {
		percent = amount / notional * 100
	}

	// 金额取整到货币单位（INR 无意义小数），百分比保留两位
	return Realized{
		Amount:  math.Round(amount),
		Percent: math.Round(percent*100) / 100,
	}
}
