//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nvoron/sessiond/internal/model"
	repo "github.com/nvoron/sessiond/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "sessiond_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/sessiond_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func strPtr(s string) *string { return &s }

func TestRepositories_CRUD(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)
	sr := repo.NewSessionRepository(conn)

	t.Run("user_repository", func(t *testing.T) {
		u := model.User{
			ID:             uuid.New(),
			Email:          "user@example.com",
			Name:           strPtr("User"),
			HashedPassword: strPtr("$2a$10$hash"),
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}
		saved, err := ur.Create(ctx, u)
		require.NoError(t, err)
		require.Equal(t, u.ID, saved.ID)

		_, err = ur.Create(ctx, model.User{ID: uuid.New(), Email: u.Email, CreatedAt: time.Now(), UpdatedAt: time.Now()})
		require.ErrorIs(t, err, model.ErrEmailTaken)

		byEmail, err := ur.GetByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.Equal(t, u.ID, byEmail.ID)

		byID, err := ur.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Email, byID.Email)

		_, err = ur.GetByEmail(ctx, "missing@example.com")
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("session_repository", func(t *testing.T) {
		owner, err := ur.Create(ctx, model.User{
			ID:        uuid.New(),
			Email:     "session-owner@example.com",
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
		require.NoError(t, err)

		s := model.Session{
			Token:   "tok-live",
			UserID:  owner.ID,
			Expires: time.Now().Add(time.Hour),
		}
		require.NoError(t, sr.Create(ctx, s))

		su, err := sr.GetWithUser(ctx, s.Token, time.Now())
		require.NoError(t, err)
		require.Equal(t, owner.ID, su.ID)
		require.Equal(t, owner.Email, su.Email)

		// expired row still exists but must read as absent
		expired := model.Session{
			Token:   "tok-expired",
			UserID:  owner.ID,
			Expires: time.Now().Add(-time.Minute),
		}
		require.NoError(t, sr.Create(ctx, expired))
		_, err = sr.GetWithUser(ctx, expired.Token, time.Now())
		require.ErrorIs(t, err, model.ErrNotFound)

		deleted, err := sr.DeleteExpired(ctx, time.Now())
		require.NoError(t, err)
		require.EqualValues(t, 1, deleted)

		require.NoError(t, sr.Delete(ctx, s.Token))
		require.NoError(t, sr.Delete(ctx, s.Token)) // idempotent
		_, err = sr.GetWithUser(ctx, s.Token, time.Now())
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("session_cascade_on_user_delete", func(t *testing.T) {
		owner, err := ur.Create(ctx, model.User{
			ID:        uuid.New(),
			Email:     "cascade@example.com",
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
		require.NoError(t, err)
		require.NoError(t, sr.Create(ctx, model.Session{
			Token:   "tok-cascade",
			UserID:  owner.ID,
			Expires: time.Now().Add(time.Hour),
		}))

		require.NoError(t, ur.Delete(ctx, owner.ID))
		_, err = sr.GetWithUser(ctx, "tok-cascade", time.Now())
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("account_repository", func(t *testing.T) {
		ar := repo.NewAccountRepository(conn)
		owner, err := ur.Create(ctx, model.User{
			ID:        uuid.New(),
			Email:     "oauth@example.com",
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
		require.NoError(t, err)

		require.NoError(t, ar.Link(ctx, model.Account{
			UserID:            owner.ID,
			Type:              "oauth",
			Provider:          "github",
			ProviderAccountID: "12345",
		}))

		linked, err := ar.GetUserByAccount(ctx, "github", "12345")
		require.NoError(t, err)
		require.Equal(t, owner.ID, linked.ID)

		require.NoError(t, ar.Unlink(ctx, "github", "12345"))
		_, err = ar.GetUserByAccount(ctx, "github", "12345")
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("verification_token_repository", func(t *testing.T) {
		vr := repo.NewVerificationTokenRepository(conn)
		vt := model.VerificationToken{
			Identifier: "user@example.com",
			Token:      "verify-tok",
			Expires:    time.Now().Add(time.Hour),
		}
		require.NoError(t, vr.Create(ctx, vt))

		used, err := vr.Use(ctx, vt.Identifier, vt.Token)
		require.NoError(t, err)
		require.Equal(t, vt.Token, used.Token)

		// single use
		_, err = vr.Use(ctx, vt.Identifier, vt.Token)
		require.ErrorIs(t, err, model.ErrNotFound)

		stale := model.VerificationToken{
			Identifier: "user@example.com",
			Token:      "stale-tok",
			Expires:    time.Now().Add(-time.Minute),
		}
		require.NoError(t, vr.Create(ctx, stale))
		_, err = vr.Use(ctx, stale.Identifier, stale.Token)
		require.ErrorIs(t, err, model.ErrNotFound)
	})
}
