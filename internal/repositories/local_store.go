package repositories

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"

	"eb5tracker/internal/models"
)

// LocalStore is a durable string-keyed map available without the remote
// store. It is process-wide, not per identity.
type LocalStore interface {
	GetItem(key string) ([]byte, error)
	SetItem(key string, value []byte) error
	RemoveItem(key string) error
	Close() error
}

type badgerStore struct {
	db *badger.DB
}

// badgerLogger routes badger's own output through the standard logger, warnings and up only.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	log.Printf("[local][badger][error] "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	log.Printf("[local][badger][warn] "+format, args...)
}

func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}

// OpenLocalStore opens (or creates) the badger directory; inMemory skips disk entirely.
func OpenLocalStore(dir string, inMemory bool) (LocalStore, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if dir == "" {
			return nil, errors.New("local store dir is required")
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create local store dir %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	return &badgerStore{db: db}, nil
}

func (s *badgerStore) GetItem(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, models.ErrNotFound
	}
	return out, err
}

func (s *badgerStore) SetItem(key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (s *badgerStore) RemoveItem(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (s *badgerStore) Close() error {
	return s.db.Close()
}
