package pnl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeRealized(t *testing.T) {
	tests := []struct {
		name          string
		direction     string
		entryAvgPrice float64
		exitPrice     float64
		quantity      float64
		wantAmount    float64
		wantPercent   float64
	}{
		{
			name:          "long profit",
			direction:     Long,
			entryAvgPrice: 100,
			exitPrice:     110,
			quantity:      10,
			wantAmount:    100,
			wantPercent:   10,
		},
		{
			name:          "long loss",
			direction:     Long,
			entryAvgPrice: 100,
			exitPrice:     95,
			quantity:      4,
			wantAmount:    -20,
			wantPercent:   -5,
		},
		{
			name:          "short profit on price drop",
			direction:     Short,
			entryAvgPrice: 50,
			exitPrice:     45,
			quantity:      5,
			wantAmount:    25,
			wantPercent:   10,
		},
		{
			name:          "short loss on price rise",
			direction:     Short,
			entryAvgPrice: 50,
			exitPrice:     55,
			quantity:      5,
			wantAmount:    -25,
			wantPercent:   -10,
		},
		{
			name:          "zero entry price guards divide by zero",
			direction:     Long,
			entryAvgPrice: 0,
			exitPrice:     100,
			quantity:      10,
			wantAmount:    1000,
			wantPercent:   0,
		},
		{
			name:          "zero quantity",
			direction:     Long,
			entryAvgPrice: 100,
			exitPrice:     110,
			quantity:      0,
			wantAmount:    0,
			wantPercent:   0,
		},
		{
			name:          "amount rounded to currency unit",
			direction:     Long,
			entryAvgPrice: 100.2,
			exitPrice:     100.9,
			quantity:      5,
			wantAmount:    4, // 3.5 四舍五入
			wantPercent:   0.7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeRealized(tt.direction, tt.entryAvgPrice, tt.exitPrice, tt.quantity)
			assert.InDelta(t, tt.wantAmount, got.Amount, 1e-9)
			assert.InDelta(t, tt.wantPercent, got.Percent, 1e-2)
		})
	}
}
