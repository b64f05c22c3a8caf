package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nvoron/sessiond/internal/model"
)

var _ model.VerificationTokenStore = (*VerificationTokenRepository)(nil)

type VerificationTokenRepository struct {
	db *Connection
}

func NewVerificationTokenRepository(db *Connection) *VerificationTokenRepository {
	return &VerificationTokenRepository{db: db}
}

func (r *VerificationTokenRepository) Create(ctx context.Context, vt model.VerificationToken) error {
	query := `INSERT INTO verification_tokens (identifier, token, expires)
			  VALUES ($1, $2, $3)`

	_, err := r.db.Exec(ctx, query, vt.Identifier, vt.Token, vt.Expires)
	if err != nil {
		return fmt.Errorf("failed to create verification token: %w", err)
	}

	return nil
}

// Use deletes the token as it reads it, which makes it single-use. Expired
// tokens are filtered out by the same statement.
func (r *VerificationTokenRepository) Use(ctx context.Context, identifier, tokenValue string) (model.VerificationToken, error) {
	var vt model.VerificationToken
	query := `DELETE FROM verification_tokens
			  WHERE identifier = $1 AND token = $2 AND expires > $3
			  RETURNING identifier, token, expires`

	err := r.db.QueryRow(ctx, query, identifier, tokenValue, time.Now()).Scan(
		&vt.Identifier, &vt.Token, &vt.Expires,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.VerificationToken{}, model.ErrNotFound
		}
		return model.VerificationToken{}, fmt.Errorf("failed to use verification token: %w", err)
	}

	return vt, nil
}
