package cache

import (
	"context"
	"sync"
	"time"

	"github.com/KigaliAI/youtufy-app/internal/model"
	"github.com/KigaliAI/youtufy-app/pkg/hash"
)

type memoryEntry struct {
	result    *model.AggregationResult
	expiresAt time.Time
}

// Memory is a per-user TTL cache for aggregation results, for single-process
// deployments and tests. Expired entries are dropped lazily on Get and swept
// periodically by the janitor.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	stopCh  chan struct{}
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		stopCh:  make(chan struct{}),
	}
}

func (m *Memory) Get(_ context.Context, userID string) (*model.AggregationResult, bool, error) {
	key := hash.UserKey(userID)

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(e.expiresAt) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.result, true, nil
}

func (m *Memory) Put(_ context.Context, userID string, res *model.AggregationResult, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[hash.UserKey(userID)] = memoryEntry{
		result:    res,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, hash.UserKey(userID))
	return nil
}

// StartJanitor sweeps expired entries every interval until the context is
// cancelled or Stop is called.
func (m *Memory) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		}
	}
}

// Stop signals the janitor to stop.
func (m *Memory) Stop() {
	close(m.stopCh)
}

func (m *Memory) sweep() {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, key)
		}
	}
}
