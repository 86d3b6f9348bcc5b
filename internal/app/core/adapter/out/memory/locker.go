package memory

import "sync"

// keyedLocker 以帳號為 key 的互斥鎖表，不再使用的鎖會被回收
type keyedLocker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{
		locks: make(map[string]*lockEntry),
	}
}

// lockAll 依傳入順序上鎖，呼叫端必須先排序 (domain.LockNumbers) 以避免死鎖
// 回傳的函式以相反順序解鎖
func (l *keyedLocker) lockAll(keys []string) (unlock func()) {
	entries := make([]*lockEntry, 0, len(keys))
	for _, key := range keys {
		e := l.acquire(key)
		e.mu.Lock()
		entries = append(entries, e)
	}
	return func() {
		for i := len(entries) - 1; i >= 0; i-- {
			entries[i].mu.Unlock()
			l.release(keys[i])
		}
	}
}

func (l *keyedLocker) acquire(key string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[key]
	if !ok {
		e = &lockEntry{}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *keyedLocker) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// size 目前仍在使用中的鎖數量 (測試用)
func (l *keyedLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
