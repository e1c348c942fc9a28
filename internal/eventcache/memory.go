package eventcache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL covers the provider's redelivery window.
const DefaultTTL = 10 * time.Minute

// Memory remembers delivery ids in process memory.
type Memory struct {
	ttl  time.Duration
	now  func() time.Time
	seen map[string]time.Time

	mu sync.Mutex
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl:  ttl,
		now:  time.Now,
		seen: make(map[string]time.Time),
	}
}

// MarkSeen reports true the first time id is offered within the TTL.
func (m *Memory) MarkSeen(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	if exp, ok := m.seen[id]; ok && now.Before(exp) {
		return false, nil
	}
	m.seen[id] = now.Add(m.ttl)
	return true, nil
}

// Len returns the number of remembered ids.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

func (m *Memory) sweep(now time.Time) {
	for id, exp := range m.seen {
		if !now.Before(exp) {
			delete(m.seen, id)
		}
	}
}
