package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store used by tests and the CLI. Writes are
// serialized by a mutex; Put is atomic by construction.
type Memory struct {
	mu     sync.RWMutex
	assets map[string]*Asset
	metas  map[string]ArtifactMeta
	order  []string
}

func NewMemory() *Memory {
	return &Memory{
		assets: make(map[string]*Asset),
		metas:  make(map[string]ArtifactMeta),
	}
}

// Add registers a source asset (not a generated artifact) and returns
// its id. Test and CLI seeding helper.
func (m *Memory) Add(name, mimeType string, data []byte) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.assets[id] = &Asset{
		ID:         id,
		Name:       name,
		MimeType:   mimeType,
		ByteLength: int64(len(data)),
		Data:       data,
	}
	return id
}

func (m *Memory) Get(ctx context.Context, id string) (*Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return a, nil
}

func (m *Memory) Put(ctx context.Context, data []byte, meta ArtifactMeta) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	meta.ID = id
	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = time.Now()
	}
	m.assets[id] = &Asset{
		ID:         id,
		Name:       meta.Name,
		MimeType:   "application/pdf",
		ByteLength: int64(len(data)),
		Data:       data,
	}
	m.metas[id] = meta
	m.order = append(m.order, id)
	return id, nil
}

func (m *Memory) List(ctx context.Context) ([]ArtifactMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ArtifactMeta, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.metas[id])
	}
	return out, nil
}
