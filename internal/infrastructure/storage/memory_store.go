package storage

import (
	"context"
	"sync"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"
)

// MemoryStore keeps the encoded state in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	raw    map[string][]byte
	logger port.Logger
}

func NewMemoryStore(logger port.Logger) *MemoryStore {
	return &MemoryStore{raw: make(map[string][]byte), logger: logger}
}

func (s *MemoryStore) Load(ctx context.Context) (entity.PersistedState, error) {
	if err := ctx.Err(); err != nil {
		return entity.PersistedState{}, err
	}
	s.mu.Lock()
	raw := make(map[string][]byte, len(s.raw))
	for k, v := range s.raw {
		raw[k] = v
	}
	s.mu.Unlock()
	return decodeState(raw, s.logger), nil
}

func (s *MemoryStore) Save(ctx context.Context, state entity.PersistedState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sections, err := encodeState(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range sections {
		s.raw[k] = v
	}
	return nil
}

func (s *MemoryStore) putRaw(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[key] = value
	return nil
}

func (s *MemoryStore) Close() error { return nil }
