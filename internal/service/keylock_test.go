package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyLockTryLock(t *testing.T) {
	l := newKeyLock()

	unlock, ok := l.TryLock("acc-1")
	require.True(t, ok)

	// 同键第二次拿不到，不同键不受影响
	_, ok = l.TryLock("acc-1")
	assert.False(t, ok)

	other, ok := l.TryLock("acc-2")
	require.True(t, ok)
	other()

	unlock()
	unlock2, ok := l.TryLock("acc-1")
	assert.True(t, ok)
	unlock2()
}

func TestKeyLockSingleHolder(t *testing.T) {
	l := newKeyLock()

	// 并发抢同一把锁，任意时刻只有一个持有者
	var wg sync.WaitGroup
	var mu sync.Mutex
	holders := 0
	maxHolders := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, ok := l.TryLock("acc-1")
			if !ok {
				return
			}
			mu.Lock()
			holders++
			if holders > maxHolders {
				maxHolders = holders
			}
			mu.Unlock()

			mu.Lock()
			holders--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxHolders)
}
