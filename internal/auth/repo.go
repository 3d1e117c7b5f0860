package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository stores session records in postgres.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs the repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateSession persists a new login session in the database for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id, principalID string, expiresAt time.Time, ip, ua string) error {
	const stmt = `
INSERT INTO sessions (id, principal_id, expires_at, ip, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (id) DO UPDATE SET expires_at = EXCLUDED.expires_at`
	_, err := r.pool.Exec(ctx, stmt, id, principalID, expiresAt, ip, ua)
	return err
}

// DeleteSession removes a session record on logout.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}
