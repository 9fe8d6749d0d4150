package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cgulucan/bilanco/internal/domain"
)

// QuoteRepository persists the last fetched price table so a restarted
// process starts from last-known prices instead of an empty table.
type QuoteRepository interface {
	SaveTable(ctx context.Context, prices domain.PriceTable, fetchedAt time.Time, source string) error
	LoadTable(ctx context.Context) (domain.PriceSnapshot, error)
}

// PgQuoteRepository implements QuoteRepository with PostgreSQL.
type PgQuoteRepository struct {
	pool *pgxpool.Pool
}

// NewPgQuoteRepository creates a new PostgreSQL quote repository.
func NewPgQuoteRepository(pool *pgxpool.Pool) *PgQuoteRepository {
	return &PgQuoteRepository{pool: pool}
}

func (r *PgQuoteRepository) SaveTable(ctx context.Context, prices domain.PriceTable, fetchedAt time.Time, source string) error {
	for key, price := range prices {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO price_quotes (feed_key, price_try, source, fetched_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (feed_key) DO UPDATE SET price_try = $2, source = $3, fetched_at = $4`,
			key, price, source, fetchedAt)
		if err != nil {
			return fmt.Errorf("saving quote %s: %w", key, err)
		}
	}
	return nil
}

func (r *PgQuoteRepository) LoadTable(ctx context.Context) (domain.PriceSnapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT feed_key, price_try, source, fetched_at FROM price_quotes ORDER BY feed_key`)
	if err != nil {
		return domain.PriceSnapshot{}, fmt.Errorf("loading quotes: %w", err)
	}
	defer rows.Close()

	snap := domain.PriceSnapshot{Prices: make(domain.PriceTable)}
	for rows.Next() {
		var key, source string
		var price float64
		var fetchedAt time.Time
		if err := rows.Scan(&key, &price, &source, &fetchedAt); err != nil {
			return domain.PriceSnapshot{}, fmt.Errorf("scanning quote: %w", err)
		}
		snap.Prices[key] = price
		snap.Source = source
		if fetchedAt.After(snap.FetchedAt) {
			snap.FetchedAt = fetchedAt
		}
	}
	if err := rows.Err(); err != nil {
		return domain.PriceSnapshot{}, fmt.Errorf("iterating quotes: %w", err)
	}
	if len(snap.Prices) > 0 {
		snap.Notes = "restored from stored quotes"
	}
	return snap, nil
}
