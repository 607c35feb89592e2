// Package localstore gives each session a namespaced key-value area,
// the server-side counterpart of browser local storage.
package localstore

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cranach-archive/lighttable/internal/db"
)

// Keys shared with other application surfaces. Their value format is an
// external contract.
const (
	// KeyCollection holds the comma-joined favorite artefact ids.
	KeyCollection = "collection"
	// KeySearchResult holds a JSON array of {id, imgSrc, entityType}.
	KeySearchResult = "searchResult"
)

// store is the consumer interface for the key-value backend (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Store reads and writes the items of one session.
type Store struct {
	store  store
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a session store. Keys become "<keyPrefix><session>:<key>".
// A zero ttl keeps items forever.
func New(s store, keyPrefix, session string, ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		store:  s,
		prefix: keyPrefix + session + ":",
		ttl:    ttl,
		logger: logger,
	}
}

// GetItem returns the item and whether it exists.
func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	data, err := s.store.Get(ctx, s.prefix+key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "", false, nil
		}
		s.logger.Warn("local storage read failed", zap.String("key", key), zap.Error(err))
		return "", false, err //nolint:wrapcheck // db.Error carries the op
	}
	return string(data), true, nil
}

// SetItem stores value, refreshing the session ttl.
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	if err := s.store.SetWithTTL(ctx, s.prefix+key, []byte(value), s.ttl); err != nil {
		s.logger.Warn("local storage write failed", zap.String("key", key), zap.Error(err))
		return err //nolint:wrapcheck // db.Error carries the op
	}
	return nil
}
