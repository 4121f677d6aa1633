package session

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const badgerKeyPrefix = "session/"

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// BadgerPersistence implements SessionPersistence on a BadgerDB key/value
// store. Each session is one JSON value under session/<id>.
type BadgerPersistence struct {
	db *badger.DB
}

// NewBadgerPersistence wraps an open database
func NewBadgerPersistence(db *badger.DB) *BadgerPersistence {
	return &BadgerPersistence{db: db}
}

// OpenBadgerPersistence opens a database in dir, or in memory when dir is
// empty. The caller must Close it.
func OpenBadgerPersistence(dir string, logger *slog.Logger) (*BadgerPersistence, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir)
	}

	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return NewBadgerPersistence(db), nil
}

// Close closes the underlying database
func (bp *BadgerPersistence) Close() error {
	return bp.db.Close()
}

func badgerKey(id string) []byte {
	return []byte(badgerKeyPrefix + sessionKey(id))
}

// Save stores a session snapshot
func (bp *BadgerPersistence) Save(data *PersistedSessionData) error {
	value, err := encodeSession(data, false)
	if err != nil {
		return err
	}
	return bp.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(data.ID), value)
	})
}

// Load retrieves a session snapshot
func (bp *BadgerPersistence) Load(id string) (*PersistedSessionData, error) {
	var raw []byte
	err := bp.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(id))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return decodeSession(id, raw)
}

// Delete removes a session snapshot
func (bp *BadgerPersistence) Delete(id string) error {
	if !bp.Exists(id) {
		return ErrSessionNotFound
	}
	return bp.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerKey(id))
	})
}

// ListAll returns all persisted session IDs
func (bp *BadgerPersistence) ListAll() ([]string, error) {
	var ids []string
	err := bp.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, strings.TrimPrefix(string(it.Item().Key()), badgerKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// Exists checks if a session is stored
func (bp *BadgerPersistence) Exists(id string) bool {
	err := bp.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(badgerKey(id))
		return err
	})
	return err == nil
}
