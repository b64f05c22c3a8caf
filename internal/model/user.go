package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// User represents a stored user. HashedPassword is set only for users created
// through the credentials path; OAuth-provisioned users leave it nil.
type User struct {
	ID             uuid.UUID
	Email          string
	Name           *string
	Image          *string
	HashedPassword *string
	EmailVerified  *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
