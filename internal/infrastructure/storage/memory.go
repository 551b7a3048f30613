package storage

import (
	"context"
	"fmt"
	"sync"

	voucherapp "github.com/vres/backend/internal/application/voucher"
	"github.com/vres/backend/internal/domain/shared"
)

var _ voucherapp.ObjectStorage = (*MemoryObjectStorage)(nil)

// MemoryObjectStorage keeps blobs in process memory. Intended for local
// development and tests where no S3-compatible backend is available.
type MemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryObjectStorage creates an empty in-memory store
func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{
		objects: make(map[string][]byte),
	}
}

// Upload stores the blob under the given key
func (m *MemoryObjectStorage) Upload(_ context.Context, key, _ string, data []byte) (string, error) {
	if key == "" {
		return "", fmt.Errorf("storage key is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[key] = buf
	return key, nil
}

// Download reads back a stored blob
func (m *MemoryObjectStorage) Download(_ context.Context, link string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[link]
	if !ok {
		return nil, shared.ErrNotFound
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// Len reports the number of stored objects
func (m *MemoryObjectStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
