package service

import "sync"

// keyLock 按键互斥锁。
// 对账引擎要求同一券商账户的持仓变更串行执行，手动触发和定时任务可能
// 同时对同一账户发起同步，这里按账户ID加锁。
type keyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyLock() *keyLock {
	return &keyLock{
		locks: make(map[string]*sync.Mutex),
	}
}

// TryLock 尝试锁定，拿不到立即返回 false
func (l *keyLock) TryLock(key string) (func(), bool) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	if !m.TryLock() {
		return nil, false
	}
	return m.Unlock, true
}
