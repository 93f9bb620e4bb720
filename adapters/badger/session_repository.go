// Package badger stores guessing sessions in an embedded BadgerDB, for
// persistence across runs without a database server.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"mezzanine/domain/core"
	"mezzanine/models"
	"mezzanine/ports"

	"github.com/dgraph-io/badger/v4"
)

const (
	sessionPrefix     = "session/"
	observationPrefix = "observation/"
)

// Config holds configuration for a BadgerDB instance
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string
	// InMemory keeps everything in memory; useful for tests.
	InMemory   bool
	SyncWrites bool
	// Logger receives BadgerDB's own logging. Nil disables it.
	Logger *slog.Logger
}

// DefaultConfig returns durable settings for a store at path
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// InMemoryConfig returns settings for a throwaway store
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens a BadgerDB instance, creating its directory if needed
func Open(cfg Config) (*badger.DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, core.NewConfigurationError("badger store needs a path")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return db, nil
}

// SessionRepository implements ports.SessionRepository over BadgerDB. Session
// headers and observations are JSON values; observation keys sort by
// sequence number.
type SessionRepository struct {
	db *badger.DB
}

// NewSessionRepository creates a session repository over db
func NewSessionRepository(db *badger.DB) ports.SessionRepository {
	return &SessionRepository{db: db}
}

func sessionKey(id string) []byte {
	return []byte(sessionPrefix + id)
}

func observationsPrefix(id string) []byte {
	return []byte(observationPrefix + id + "/")
}

func observationKey(id string, seq int) []byte {
	return []byte(fmt.Sprintf("%s%s/%010d", observationPrefix, id, seq))
}

func (r *SessionRepository) CreateSession(ctx context.Context, session *models.GameSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		key := sessionKey(session.ID)
		if _, err := txn.Get(key); err == nil {
			return core.NewConfigurationError("session " + session.ID + " already exists")
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return putJSON(txn, key, session)
	})
}

func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*models.GameSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var session models.GameSession
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, sessionKey(sessionID), &session)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, core.NewNotFoundError("session", sessionID)
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) UpdateSessionState(ctx context.Context, sessionID string, state models.SessionState, conclusion string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		var session models.GameSession
		if err := getJSON(txn, sessionKey(sessionID), &session); err != nil {
			return err
		}
		session.State = state
		session.Conclusion = conclusion
		session.UpdatedAt = time.Now().UTC()
		return putJSON(txn, sessionKey(sessionID), &session)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return core.NewNotFoundError("session", sessionID)
	}
	return err
}

func (r *SessionRepository) ListSessions(ctx context.Context, limit int) ([]*models.GameSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var sessions []*models.GameSession
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sessionPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var session models.GameSession
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &session)
			}); err != nil {
				return err
			}
			sessions = append(sessions, &session)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].UpdatedAt.Equal(sessions[j].UpdatedAt) {
			return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
		}
		return sessions[i].ID < sessions[j].ID
	})
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

func (r *SessionRepository) AppendObservation(ctx context.Context, record *models.ObservationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		var session models.GameSession
		if err := getJSON(txn, sessionKey(record.SessionID), &session); err != nil {
			return err
		}
		key := observationKey(record.SessionID, record.Seq)
		if _, err := txn.Get(key); err == nil {
			return core.NewConfigurationError(fmt.Sprintf("observation %d of session %s already exists", record.Seq, record.SessionID))
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		stored := *record
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = time.Now().UTC()
		}
		if err := putJSON(txn, key, &stored); err != nil {
			return err
		}
		session.UpdatedAt = time.Now().UTC()
		return putJSON(txn, sessionKey(record.SessionID), &session)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return core.NewNotFoundError("session", record.SessionID)
	}
	return err
}

func (r *SessionRepository) ListObservations(ctx context.Context, sessionID string) ([]models.ObservationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records := []models.ObservationRecord{}
	err := r.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(sessionKey(sessionID)); err != nil {
			return err
		}
		opts := badger.DefaultIteratorOptions
		opts.Prefix = observationsPrefix(sessionID)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var record models.ObservationRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, core.NewNotFoundError("session", sessionID)
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

func putJSON(txn *badger.Txn, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

func getJSON(txn *badger.Txn, key []byte, v interface{}) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}
