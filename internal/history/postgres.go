package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS posting_history (
	site       TEXT        NOT NULL,
	posting_id TEXT        NOT NULL,
	first_seen TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (site, posting_id)
)`

// PostgresStore keeps history rows in posting_history. It owns the pool.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates the table if needed.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create posting_history: %w", err)
	}
	return &PostgresStore{db: pool}, nil
}

func (s *PostgresStore) Load(ctx context.Context, site string) (Set, error) {
	key, err := siteKey(site)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `SELECT posting_id FROM posting_history WHERE site = $1`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	set := Set{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		set[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return set, nil
}

func (s *PostgresStore) Append(ctx context.Context, site string, ids []string) error {
	key, err := siteKey(site)
	if err != nil {
		return err
	}
	ids = cleanIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	query := `
		INSERT INTO posting_history (site, posting_id)
		SELECT $1, unnest($2::text[])
		ON CONFLICT (site, posting_id) DO NOTHING`
	if _, err := s.db.Exec(ctx, query, key, ids); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
