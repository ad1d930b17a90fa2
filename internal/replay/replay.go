// Package replay records spent round-token ids so a token can only be
// redeemed once.
package replay

import (
	"context"
	"sync"
	"time"
)

// Store marks ids as used. Claim reports whether the id was unused before the
// call; an id is remembered for at least ttl.
type Store interface {
	Claim(ctx context.Context, id string, ttl time.Duration) (bool, error)
	Close()
}

// Memory is a process-local Store. It is fine for a single instance; run
// several instances behind a load balancer and you want Valkey.
type Memory struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
	claims  int
}

func NewMemory() *Memory {
	return &Memory{expires: make(map[string]time.Time), now: time.Now}
}

// sweep every this many claims
const sweepEvery = 256

func (m *Memory) Claim(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.claims++
	if m.claims%sweepEvery == 0 {
		m.sweep(now)
	}

	if exp, ok := m.expires[id]; ok && now.Before(exp) {
		return false, nil
	}
	m.expires[id] = now.Add(ttl)
	return true, nil
}

func (m *Memory) sweep(now time.Time) {
	for id, exp := range m.expires {
		if !now.Before(exp) {
			delete(m.expires, id)
		}
	}
}

// Len returns the number of remembered ids, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.expires)
}

func (m *Memory) Close() {}
