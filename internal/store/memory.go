package store

import (
	"context"
	"sync"
)

// Memory is the in-process store used in tests and single-binary deployments.
// It favors clarity over performance.
type Memory struct {
	mu       sync.RWMutex
	values   map[string][]byte
	watchers map[int]chan Change
	nextID   int
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		values:   make(map[string][]byte),
		watchers: make(map[int]chan Change),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.values[key] = stored
	m.notifyLocked(Change{Key: key, Value: stored})
	m.mu.Unlock()
	return nil
}

func (m *Memory) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		if _, ok := m.values[key]; !ok {
			continue
		}
		delete(m.values, key)
		m.notifyLocked(Change{Key: key})
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Watch(ctx context.Context) (<-chan Change, error) {
	ch := make(chan Change, 16)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.watchers[id] = ch
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.watchers, id)
		m.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// notifyLocked fans a change out to all watchers. A watcher that has fallen
// 16 notifications behind loses the oldest ones rather than blocking writers.
func (m *Memory) notifyLocked(change Change) {
	for _, ch := range m.watchers {
		select {
		case ch <- change:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- change:
			default:
			}
		}
	}
}
