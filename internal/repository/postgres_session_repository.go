package repository

import (
	"context"
	"database/sql"
	"fmt"

	"kommand-console/internal/domain"
)

type postgresSessionRepository struct {
	db *sql.DB
}

// NewPostgresSessionRepository stores the session as a row of console_state
func NewPostgresSessionRepository(db *sql.DB) SessionRepository {
	return &postgresSessionRepository{db: db}
}

// Save upserts the session row using parameterized queries
func (r *postgresSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	data, err := encodeSession(session)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO console_state (key, value, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query, SessionKey, string(data)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load reads the session row
func (r *postgresSessionRepository) Load(ctx context.Context) (*domain.Session, error) {
	query := `SELECT value::text FROM console_state WHERE key = $1`

	var value string
	err := r.db.QueryRowContext(ctx, query, SessionKey).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return decodeSession([]byte(value))
}

// Delete removes the session row
func (r *postgresSessionRepository) Delete(ctx context.Context) error {
	query := `DELETE FROM console_state WHERE key = $1`

	if _, err := r.db.ExecContext(ctx, query, SessionKey); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
