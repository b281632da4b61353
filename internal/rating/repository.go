// Package rating persists per-user ratings in Postgres.
package rating

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Repository reads and adjusts user ratings.
type Repository struct {
	db            *sql.DB
	defaultRating int
}

// NewRepository opens the database and verifies the connection.
func NewRepository(databaseURL string, defaultRating int) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Repository{db: db, defaultRating: defaultRating}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Rating returns the user's rating, or the default for unknown users.
func (r *Repository) Rating(ctx context.Context, userID string) (int, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("rating repository not initialized")
	}
	var rating int
	err := r.db.QueryRowContext(ctx,
		`SELECT rating FROM user_ratings WHERE user_id = $1`, userID).Scan(&rating)
	if err == sql.ErrNoRows {
		return r.defaultRating, nil
	}
	if err != nil {
		return 0, err
	}
	return rating, nil
}

// Adjust applies a signed delta, creating the row from the default
// rating for first-time users.
func (r *Repository) Adjust(ctx context.Context, userID string, delta int) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("rating repository not initialized")
	}
	q := `INSERT INTO user_ratings (user_id, rating, updated_at)
      VALUES ($1, $2 + $3, NOW())
      ON CONFLICT (user_id) DO UPDATE SET
        rating = user_ratings.rating + $3,
        updated_at = NOW()`
	_, err := r.db.ExecContext(ctx, q, userID, r.defaultRating, delta)
	return err
}
