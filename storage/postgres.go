package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/gonbooster/AIArriendo-sub002/models"
)

// PostgresCache stores deduplicated search results keyed by criteria hash.
// Expiry is enforced at read time: rows older than the TTL are ignored and
// swept opportunistically on save.
type PostgresCache struct {
	db  *sql.DB
	ttl time.Duration
}

var _ ListingCache = (*PostgresCache)(nil)

// NewPostgresCache opens the connection, waits for the database to come
// up, runs migrations, and returns a ready cache.
func NewPostgresCache(dsn string, ttl time.Duration) (*PostgresCache, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	c := &PostgresCache{db: db, ttl: ttl}
	if err := c.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return c, nil
}

func (c *PostgresCache) migrate() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS search_cache (
			id            SERIAL PRIMARY KEY,
			criteria_hash VARCHAR(40) NOT NULL,
			payload       JSONB       NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_search_cache_hash    ON search_cache(criteria_hash);
		CREATE INDEX IF NOT EXISTS idx_search_cache_created ON search_cache(created_at);
	`)
	return err
}

// Save replaces any cached results for the hash and sweeps expired rows.
func (c *PostgresCache) Save(ctx context.Context, criteriaHash string, listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM search_cache WHERE criteria_hash = $1 OR created_at < NOW() - $2::interval",
		criteriaHash, c.ttl.String()); err != nil {
		return fmt.Errorf("postgres: clear stale: %w", err)
	}

	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := insertBatch(ctx, tx, criteriaHash, listings[i:end]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertBatch(ctx context.Context, tx *sql.Tx, criteriaHash string, batch []*models.Listing) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*2)

	for idx, l := range batch {
		payload, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("postgres: marshal listing %s: %w", l.ID, err)
		}
		base := idx * 2
		valueStrings = append(valueStrings, fmt.Sprintf("($%d,$%d)", base+1, base+2))
		valueArgs = append(valueArgs, criteriaHash, payload)
	}

	query := fmt.Sprintf(
		"INSERT INTO search_cache (criteria_hash, payload) VALUES %s",
		strings.Join(valueStrings, ","))

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

// LoadCached returns unexpired results for the hash. The second return is
// false on a miss.
func (c *PostgresCache) LoadCached(ctx context.Context, criteriaHash string) ([]*models.Listing, bool, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT payload
		FROM search_cache
		WHERE criteria_hash = $1 AND created_at > NOW() - $2::interval
		ORDER BY id
	`, criteriaHash, c.ttl.String())
	if err != nil {
		return nil, false, fmt.Errorf("postgres: load cached: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, false, fmt.Errorf("postgres: scan row: %w", err)
		}
		var l models.Listing
		if err := json.Unmarshal(payload, &l); err != nil {
			return nil, false, fmt.Errorf("postgres: unmarshal listing: %w", err)
		}
		listings = append(listings, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return listings, len(listings) > 0, nil
}

func (c *PostgresCache) Close() error {
	return c.db.Close()
}
