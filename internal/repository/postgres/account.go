package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nvoron/sessiond/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

type AccountRepository struct {
	db *Connection
}

func NewAccountRepository(db *Connection) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Link(ctx context.Context, account model.Account) error {
	query := `INSERT INTO accounts (user_id, type, provider, provider_account_id, refresh_token,
				access_token, expires_at, token_type, scope, id_token, session_state)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(ctx, query,
		account.UserID, account.Type, account.Provider, account.ProviderAccountID,
		account.RefreshToken, account.AccessToken, account.ExpiresAt, account.TokenType,
		account.Scope, account.IDToken, account.SessionState,
	)
	if err != nil {
		return fmt.Errorf("failed to link account: %w", err)
	}

	return nil
}

func (r *AccountRepository) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (model.User, error) {
	var user model.User
	query := `SELECT u.id, u.email, u.name, u.image, u.hashed_password, u.email_verified, u.created_at, u.updated_at
			  FROM accounts a
			  JOIN users u ON u.id = a.user_id
			  WHERE a.provider = $1 AND a.provider_account_id = $2`

	err := r.db.QueryRow(ctx, query, provider, providerAccountID).Scan(
		&user.ID, &user.Email, &user.Name, &user.Image, &user.HashedPassword,
		&user.EmailVerified, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by account: %w", err)
	}

	return user, nil
}

func (r *AccountRepository) Unlink(ctx context.Context, provider, providerAccountID string) error {
	query := `DELETE FROM accounts WHERE provider = $1 AND provider_account_id = $2`

	if _, err := r.db.Exec(ctx, query, provider, providerAccountID); err != nil {
		return fmt.Errorf("failed to unlink account: %w", err)
	}

	return nil
}
