package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nvoron/sessiond/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

type SessionRepository struct {
	db *Connection
}

func NewSessionRepository(db *Connection) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session model.Session) error {
	query := `INSERT INTO sessions (session_token, user_id, expires)
			  VALUES ($1, $2, $3)`

	_, err := r.db.Exec(ctx, query, session.Token, session.UserID, session.Expires)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetWithUser joins the session with its user in one query. The expiry check
// happens in SQL, so a stale row is indistinguishable from a missing one.
func (r *SessionRepository) GetWithUser(ctx context.Context, token string, now time.Time) (model.SessionUser, error) {
	var su model.SessionUser
	query := `SELECT u.id, u.name, u.email
			  FROM sessions s
			  JOIN users u ON u.id = s.user_id
			  WHERE s.session_token = $1 AND s.expires > $2`

	err := r.db.QueryRow(ctx, query, token, now).Scan(&su.ID, &su.Name, &su.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.SessionUser{}, model.ErrNotFound
		}
		return model.SessionUser{}, fmt.Errorf("failed to get session with user: %w", err)
	}

	return su, nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	query := `DELETE FROM sessions WHERE session_token = $1`

	if _, err := r.db.Exec(ctx, query, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE expires <= $1`

	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	return tag.RowsAffected(), nil
}
