package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

var _ ObjectStore = (*Memory)(nil)

// Memory keeps objects in a map. Test double for the S3 driver.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// FailPut forces Put to fail (exercises compensating cleanup).
	FailPut bool
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) Put(_ context.Context, key string, body io.ReadSeeker, _ string) error {
	if m.FailPut {
		return fmt.Errorf("memory store: put %s refused", key)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	data, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("memory store: no object %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *Memory) SignedURL(key string, expiry time.Duration) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("memory store: no object %s", key)
	}
	return fmt.Sprintf("memory://%s?expires=%d", key, int(expiry.Seconds())), nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Has reports whether an object exists (test helper).
func (m *Memory) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}
