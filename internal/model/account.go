package model

import (
	"context"

	"github.com/google/uuid"
)

// AccountStore defines persistence operations for external provider accounts.
type AccountStore interface {
	Link(ctx context.Context, account Account) error
	GetUserByAccount(ctx context.Context, provider, providerAccountID string) (User, error)
	Unlink(ctx context.Context, provider, providerAccountID string) error
}

// Account links a user to an external provider identity. The composite key is
// (provider, provider_account_id). Not exercised by the credentials path.
type Account struct {
	UserID            uuid.UUID
	Type              string
	Provider          string
	ProviderAccountID string
	RefreshToken      *string
	AccessToken       *string
	ExpiresAt         *int64
	TokenType         *string
	Scope             *string
	IDToken           *string
	SessionState      *string
}
