package metadata

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MockStore implements MetadataStore for testing. It is exported so that
// tests in other packages can use it.
type MockStore struct {
	mu        sync.RWMutex
	data      map[string]KV
	ephemeral map[string]struct{}
	closed    bool
	nextVer   Version
	err       error
}

// NewMockStore creates a new MockStore for testing.
func NewMockStore() *MockStore {
	return &MockStore{
		data:      make(map[string]KV),
		ephemeral: make(map[string]struct{}),
		nextVer:   1,
	}
}

// SetError makes every subsequent operation fail with err. Pass nil to
// restore normal behavior. Used to simulate an unreachable store.
func (m *MockStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// ExpireSession deletes all ephemeral keys, simulating session expiry
// after a client crash.
func (m *MockStore) ExpireSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.ephemeral {
		delete(m.data, key)
	}
	m.ephemeral = make(map[string]struct{})
}

func (m *MockStore) Get(_ context.Context, key string) (GetResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return GetResult{}, ErrStoreClosed
	}
	if m.err != nil {
		return GetResult{}, m.err
	}
	kv, ok := m.data[key]
	if !ok {
		return GetResult{Exists: false}, nil
	}
	return GetResult{Value: kv.Value, Version: kv.Version, Exists: true}, nil
}

func (m *MockStore) Put(_ context.Context, key string, value []byte, opts ...PutOption) (Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrStoreClosed
	}
	if m.err != nil {
		return 0, m.err
	}
	return m.putLocked(key, value, ExtractExpectedVersion(opts), false)
}

func (m *MockStore) putLocked(key string, value []byte, expectedVersion *Version, ephemeral bool) (Version, error) {
	existing, exists := m.data[key]
	if expectedVersion != nil {
		if *expectedVersion == 0 && exists {
			return 0, ErrVersionMismatch
		}
		if *expectedVersion != 0 && (!exists || existing.Version != *expectedVersion) {
			return 0, ErrVersionMismatch
		}
	}

	ver := m.nextVer
	m.nextVer++
	valCopy := make([]byte, len(value))
	copy(valCopy, value)
	m.data[key] = KV{Key: key, Value: valCopy, Version: ver}
	if ephemeral {
		m.ephemeral[key] = struct{}{}
	}
	return ver, nil
}

func (m *MockStore) Delete(_ context.Context, key string, opts ...DeleteOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	if m.err != nil {
		return m.err
	}

	existing, exists := m.data[key]
	if !exists {
		return nil
	}
	if expected := ExtractDeleteExpectedVersion(opts); expected != nil && existing.Version != *expected {
		return ErrVersionMismatch
	}

	delete(m.data, key)
	delete(m.ephemeral, key)
	return nil
}

func (m *MockStore) List(_ context.Context, startKey, endKey string, limit int) ([]KV, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	if m.err != nil {
		return nil, m.err
	}

	var kvs []KV
	for key, kv := range m.data {
		if endKey == "" {
			if !strings.HasPrefix(key, startKey) {
				continue
			}
		} else if key < startKey || key >= endKey {
			continue
		}
		valCopy := make([]byte, len(kv.Value))
		copy(valCopy, kv.Value)
		kvs = append(kvs, KV{Key: key, Value: valCopy, Version: kv.Version})
	}

	sort.Slice(kvs, func(i, j int) bool { return kvs[i].Key < kvs[j].Key })
	if limit > 0 && len(kvs) > limit {
		kvs = kvs[:limit]
	}
	return kvs, nil
}

func (m *MockStore) PutEphemeral(_ context.Context, key string, value []byte) (Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrStoreClosed
	}
	if m.err != nil {
		return 0, m.err
	}
	return m.putLocked(key, value, nil, true)
}

func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Ensure MockStore implements MetadataStore.
var _ MetadataStore = (*MockStore)(nil)
