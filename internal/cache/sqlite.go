package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // регистрация драйвера SQLite.
)

// SQLite — кэш, переживающий перезапуск процесса: записи лежат в одной
// таблице cache_records с абсолютным expiry в Unix-секундах (UTC).
// Семантика чтения идентична Memory: просрочка и битый payload — промах
// с ленивым удалением записи.
type SQLite struct {
	db *sql.DB

	// подменяется в тестах.
	now func() time.Time
}

// NewSQLite открывает (или создаёт) базу по dsn и готовит схему.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(
		`CREATE TABLE IF NOT EXISTS cache_records (
			key        TEXT PRIMARY KEY,
			payload    BLOB NOT NULL,
			expires_at INTEGER NOT NULL
		)`,
	); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db, now: time.Now}, nil
}

// Get реализует Cache.Get.
func (s *SQLite) Get(ctx context.Context, key string, dst any) (bool, error) {
	var (
		payload []byte
		expUnix int64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM cache_records WHERE key = ?`, key,
	).Scan(&payload, &expUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("select cache record: %w", err)
	}

	if !s.now().UTC().Before(time.Unix(expUnix, 0).UTC()) {
		_ = s.purge(ctx, key)
		return false, nil
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		// Битый payload — промах, запись больше не нужна.
		_ = s.purge(ctx, key)
		return false, nil
	}

	return true, nil
}

// Set реализует Cache.Set (upsert по ключу, last-writer-wins).
func (s *SQLite) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	expUnix := s.now().UTC().Add(ttl).Unix()

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_records (key, payload, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at`,
		key, payload, expUnix,
	); err != nil {
		return fmt.Errorf("upsert cache record: %w", err)
	}

	return nil
}

// Invalidate реализует Cache.Invalidate.
func (s *SQLite) Invalidate(ctx context.Context, key string) error {
	return s.purge(ctx, key)
}

// Close реализует Cache.Close.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) purge(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_records WHERE key = ?`, key,
	); err != nil {
		return fmt.Errorf("delete cache record: %w", err)
	}

	return nil
}
