package storage

import (
	"context"
	"errors"
	"fmt"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore keeps the persisted state in an embedded badger database.
type BadgerStore struct {
	db     *badger.DB
	logger port.Logger
}

// NewBadgerStore opens (or creates) the database at path. An empty path
// opens an in-memory database.
func NewBadgerStore(path string, logger port.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", path, err)
	}
	return &BadgerStore{db: db, logger: logger}, nil
}

func (s *BadgerStore) Load(ctx context.Context) (entity.PersistedState, error) {
	if err := ctx.Err(); err != nil {
		return entity.PersistedState{}, err
	}
	raw := make(map[string][]byte, len(sectionKeys))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, key := range sectionKeys {
			item, err := txn.Get([]byte(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			raw[key] = v
		}
		return nil
	})
	if err != nil {
		return entity.PersistedState{}, fmt.Errorf("failed to read state from badger: %w", err)
	}
	return decodeState(raw, s.logger), nil
}

func (s *BadgerStore) Save(ctx context.Context, state entity.PersistedState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sections, err := encodeState(state)
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		for key, v := range sections {
			if err := txn.SetEntry(badger.NewEntry([]byte(key), v)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write state to badger: %w", err)
	}
	return nil
}

// putRaw writes a raw section value. Used to seed legacy data in tests.
func (s *BadgerStore) putRaw(key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
