package cache

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory is an in-process Cache with the same registry semantics as the
// redis implementation. Used by tests and single-node development.
type Memory struct {
	mu       sync.RWMutex
	values   map[string][]byte
	registry map[string]map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		values:   make(map[string][]byte),
		registry: make(map[string]map[string]struct{}),
	}
}

func (m *Memory) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.RLock()
	raw, ok := m.values[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) SetJSON(_ context.Context, businessID uint64, key string, value interface{}, reads ...Entity) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = raw
	for _, entity := range reads {
		reg := registryKey(businessID, entity)
		if m.registry[reg] == nil {
			m.registry[reg] = make(map[string]struct{})
		}
		m.registry[reg][key] = struct{}{}
	}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, businessID uint64, wrote ...Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entity := range wrote {
		reg := registryKey(businessID, entity)
		for key := range m.registry[reg] {
			delete(m.values, key)
		}
		delete(m.registry, reg)
	}
	return nil
}

// Len reports how many values are currently cached (test helper).
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
