package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that no state is stored for the user.
var ErrNotFound = errors.New("session state not found")

// Repository defines persistent storage for per-user session payloads.
type Repository interface {
	Load(ctx context.Context, username string) (State, error)
	Save(ctx context.Context, username string, state State) error
	ListUsers(ctx context.Context) ([]string, error)
}

// PgRepository implements Repository with PostgreSQL, one JSONB payload
// row per user.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL session repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Load(ctx context.Context, username string) (State, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx,
		`SELECT payload FROM user_state WHERE username = $1`, username).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return State{}, ErrNotFound
		}
		return State{}, fmt.Errorf("loading state for %s: %w", username, err)
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return State{}, fmt.Errorf("decoding state for %s: %w", username, err)
	}
	return state, nil
}

func (r *PgRepository) Save(ctx context.Context, username string, state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding state for %s: %w", username, err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO user_state (username, payload, updated_at)
		 VALUES ($1, $2::jsonb, NOW())
		 ON CONFLICT (username) DO UPDATE SET payload = $2::jsonb, updated_at = NOW()`,
		username, payload)
	if err != nil {
		return fmt.Errorf("saving state for %s: %w", username, err)
	}
	return nil
}

func (r *PgRepository) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT username FROM user_state ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scanning username: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
