package syncx

import (
	"context"
	"sync"

	cmap "github.com/orcaman/concurrent-map"
)

type refMutex struct {
	mu   sync.Mutex
	refs int
}

// NewStdKeyedLocker returns an in-process KeyedLocker. Entries are dropped once no caller holds or waits on them.
func NewStdKeyedLocker() KeyedLocker {
	return &stdKeyed{entries: cmap.New()}
}

type stdKeyed struct {
	entries cmap.ConcurrentMap
}

func (s *stdKeyed) Locker(_ context.Context, key string) Locker {
	return &stdMutex{keyed: s, key: key}
}

func (s *stdKeyed) acquire(key string) *refMutex {
	v := s.entries.Upsert(key, nil, func(exist bool, inMap interface{}, _ interface{}) interface{} {
		if exist {
			m := inMap.(*refMutex)
			m.refs++
			return m
		}
		return &refMutex{refs: 1}
	})
	return v.(*refMutex)
}

func (s *stdKeyed) release(key string) {
	s.entries.RemoveCb(key, func(_ string, v interface{}, exists bool) bool {
		if !exists {
			return false
		}
		m := v.(*refMutex)
		m.refs--
		return m.refs == 0
	})
}

type stdMutex struct {
	keyed *stdKeyed
	key   string
	held  *refMutex
}

func (st *stdMutex) Lock() error {
	m := st.keyed.acquire(st.key)
	m.mu.Lock()
	st.held = m
	return nil
}

func (st *stdMutex) TryLock() error {
	m := st.keyed.acquire(st.key)
	if !m.mu.TryLock() {
		st.keyed.release(st.key)
		return ErrNotObtained
	}
	st.held = m
	return nil
}

func (st *stdMutex) Unlock() error {
	if st.held == nil {
		return nil
	}
	st.held.mu.Unlock()
	st.held = nil
	st.keyed.release(st.key)
	return nil
}
