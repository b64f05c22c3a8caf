package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nvoron/sessiond/internal/logger"
	"github.com/nvoron/sessiond/internal/model"
	"github.com/nvoron/sessiond/internal/token"
)

// Auth verifies credentials and manages the user-facing side of the auth
// schema: registration, linked provider accounts and verification tokens.
type Auth struct {
	userStore         model.UserStore
	accountStore      model.AccountStore
	verificationStore model.VerificationTokenStore
	logger            *logger.Logger
}

func NewAuth(
	userStore model.UserStore,
	accountStore model.AccountStore,
	verificationStore model.VerificationTokenStore,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		userStore:         userStore,
		accountStore:      accountStore,
		verificationStore: verificationStore,
		logger:            logger,
	}
}

// VerifyCredentials checks an email/password pair against the stored bcrypt
// hash. Unknown email, a user without a password hash and a wrong password all
// collapse into ErrInvalidCredentials so callers cannot enumerate accounts.
// On success the user record is fetched again and returned in full.
func (a *Auth) VerifyCredentials(ctx context.Context, email, password string) (model.User, error) {
	if email == "" || password == "" {
		return model.User{}, model.ErrMissingCredentials
	}

	a.logger.Debug("Auth service: verifying credentials",
		"email", email)

	user, err := a.userStore.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, model.ErrInvalidCredentials
	}
	if err != nil {
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if user.HashedPassword == nil {
		return model.User{}, model.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(*user.HashedPassword), []byte(password)) != nil {
		return model.User{}, model.ErrInvalidCredentials
	}

	// Separate read after validation. Not atomic with concurrent account
	// mutation, which is acceptable for the short window involved.
	full, err := a.userStore.GetByID(ctx, user.ID)
	if err != nil {
		a.logger.Error("Auth service: failed to get user by id",
			"user_id", user.ID.String(),
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	a.logger.Info("Auth service: credentials verified",
		"user_id", full.ID.String())

	return full, nil
}

// RegisterParams describes a new credential-based user.
type RegisterParams struct {
	Email    string
	Password string
	Name     *string
	Image    *string
}

// RegisterUser creates a user with a bcrypt-hashed password.
func (a *Auth) RegisterUser(ctx context.Context, params RegisterParams) (model.User, error) {
	if params.Email == "" || params.Password == "" {
		return model.User{}, model.ErrMissingCredentials
	}

	a.logger.Debug("Auth service: registering user",
		"email", params.Email)

	existing, err := a.userStore.GetByEmail(ctx, params.Email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	if existing.ID != uuid.Nil {
		a.logger.Info("Auth service: email already taken",
			"email", params.Email)
		return model.User{}, model.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}
	hashed := string(hash)

	user := model.User{
		ID:             uuid.New(),
		Email:          params.Email,
		Name:           params.Name,
		Image:          params.Image,
		HashedPassword: &hashed,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	saved, err := a.userStore.Create(ctx, user)
	if err != nil {
		a.logger.Error("Auth service: failed to create user",
			"email", params.Email,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	a.logger.Info("Auth service: user registered",
		"user_id", saved.ID.String())

	return saved, nil
}

// LinkAccount attaches an external provider identity to a user.
func (a *Auth) LinkAccount(ctx context.Context, account model.Account) error {
	if err := a.accountStore.Link(ctx, account); err != nil {
		return fmt.Errorf("failed to link account: %w", err)
	}
	return nil
}

// GetUserByAccount resolves the user owning a (provider, providerAccountID)
// pair.
func (a *Auth) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (model.User, error) {
	return a.accountStore.GetUserByAccount(ctx, provider, providerAccountID)
}

// CreateVerificationToken issues a random single-use token for email-link
// flows.
func (a *Auth) CreateVerificationToken(ctx context.Context, identifier string, ttl time.Duration) (model.VerificationToken, error) {
	value, err := token.NewSessionToken()
	if err != nil {
		return model.VerificationToken{}, fmt.Errorf("failed to generate verification token: %w", err)
	}

	vt := model.VerificationToken{
		Identifier: identifier,
		Token:      value,
		Expires:    time.Now().Add(ttl),
	}
	if err := a.verificationStore.Create(ctx, vt); err != nil {
		return model.VerificationToken{}, fmt.Errorf("failed to create verification token: %w", err)
	}

	return vt, nil
}

// UseVerificationToken consumes a token; expired or already-used tokens come
// back as model.ErrNotFound.
func (a *Auth) UseVerificationToken(ctx context.Context, identifier, tokenValue string) (model.VerificationToken, error) {
	return a.verificationStore.Use(ctx, identifier, tokenValue)
}
