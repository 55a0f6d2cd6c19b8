package bookmark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/planviz/planviz/viewer-go/internal/document"
)

const schema = `
CREATE TABLE IF NOT EXISTS bookmarks (
	id         TEXT PRIMARY KEY,
	mode       TEXT NOT NULL,
	params     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

// NewPool connects to Postgres and checks the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// PostgresStore keeps bookmarks in the bookmarks table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the bookmarks table when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate bookmarks: %w", err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, b *Bookmark) error {
	params, err := json.Marshal(b.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO bookmarks (id, mode, params, created_at) VALUES ($1, $2, $3, $4)`,
		b.ID, string(b.Mode), params, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert bookmark: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Bookmark, error) {
	var (
		b      Bookmark
		mode   string
		params []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, mode, params, created_at FROM bookmarks WHERE id = $1`, id,
	).Scan(&b.ID, &mode, &params, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select bookmark: %w", err)
	}

	if b.Mode, err = document.ParseMode(mode); err != nil {
		return nil, fmt.Errorf("bookmark %s: %w", id, err)
	}
	if err := json.Unmarshal(params, &b.Params); err != nil {
		return nil, fmt.Errorf("bookmark %s params: %w", id, err)
	}
	return &b, nil
}
