package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"eb5tracker/internal/models"
)

type KVEntry struct {
	Key   string
	Value []byte
}

// KVStore is the authoritative remote store: a JSON value per string key.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// MSet writes all entries or none.
	MSet(ctx context.Context, entries []KVEntry) error
	Del(ctx context.Context, keys ...string) error
	GetByPrefix(ctx context.Context, prefix string) ([]KVEntry, error)
}

type kvRepository struct {
	DB    *sql.DB
	table string
}

func NewKVRepository(db *sql.DB, table string) KVStore {
	if table == "" {
		table = "kv_store"
	}
	return &kvRepository{DB: db, table: pq.QuoteIdentifier(table)}
}

// Migrate creates the key-value table when it does not exist.
func Migrate(ctx context.Context, db *sql.DB, table string) error {
	q := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			value      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, pq.QuoteIdentifier(table))
	_, err := db.ExecContext(ctx, q)
	return err
}

func (r *kvRepository) Get(ctx context.Context, key string) ([]byte, error) {
	q := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, r.table)
	var v []byte
	err := r.DB.QueryRowContext(ctx, q, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *kvRepository) Set(ctx context.Context, key string, value []byte) error {
	return r.MSet(ctx, []KVEntry{{Key: key, Value: value}})
}

func (r *kvRepository) MSet(ctx context.Context, entries []KVEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	q := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, r.table)
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Key, string(e.Value)); err != nil {
			return fmt.Errorf("upsert %s: %w", e.Key, err)
		}
	}
	return tx.Commit()
}

func (r *kvRepository) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	q := fmt.Sprintf(`DELETE FROM %s WHERE key = ANY($1)`, r.table)
	_, err := r.DB.ExecContext(ctx, q, pq.Array(keys))
	return err
}

func (r *kvRepository) GetByPrefix(ctx context.Context, prefix string) ([]KVEntry, error) {
	q := fmt.Sprintf(`SELECT key, value FROM %s WHERE key LIKE $1 ESCAPE '\' ORDER BY key`, r.table)
	rows, err := r.DB.QueryContext(ctx, q, escapeLike(prefix)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []KVEntry
	for rows.Next() {
		var e KVEntry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
