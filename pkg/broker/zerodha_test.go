package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSinceIncludes(t *testing.T) {
	watermark := time.Date(2026, 8, 27, 10, 15, 30, 0, time.Local)

	// 零值水位拉全量
	assert.True(t, sinceIncludes(time.Time{}, watermark))

	// 与水位同一时刻的成交必须重新纳入，靠订单号去重兜底
	assert.True(t, sinceIncludes(watermark, watermark))
	assert.True(t, sinceIncludes(watermark, watermark.Add(time.Second)))

	assert.False(t, sinceIncludes(watermark, watermark.Add(-time.Second)))
}
