package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nvoron/sessiond/internal/mocks"
	"github.com/nvoron/sessiond/internal/model"
	"github.com/nvoron/sessiond/internal/testutil"
)

type fakeJar map[string]string

func (j fakeJar) Cookie(name string) (string, bool) {
	v, ok := j[name]
	return v, ok
}

func TestSessions_Create(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}
	userID := uuid.New()

	var created model.Session
	store.On("Create", mock.Anything, mock.MatchedBy(func(s model.Session) bool {
		created = s
		return s.UserID == userID && len(s.Token) == 64 && s.Expires.After(time.Now())
	})).Return(nil)

	svc := NewSessions(store, "sessiond.session-token", time.Hour, testutil.MakeNoopLogger())

	session, err := svc.Create(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, created.Token, session.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.Expires, 5*time.Second)
}

func TestSessions_Create_TokensDiffer(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}
	store.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := NewSessions(store, "sessiond.session-token", time.Hour, testutil.MakeNoopLogger())

	first, err := svc.Create(ctx, uuid.New())
	require.NoError(t, err)
	second, err := svc.Create(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)
}

func TestSessions_Resolve_PlainCookie(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}
	want := model.SessionUser{ID: uuid.New(), Email: "a@x.com"}

	store.On("GetWithUser", mock.Anything, "tok-plain", mock.Anything).Return(want, nil)

	svc := NewSessions(store, "sessiond.session-token", time.Hour, testutil.MakeNoopLogger())

	got, err := svc.Resolve(ctx, fakeJar{"sessiond.session-token": "tok-plain"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSessions_Resolve_SecureCookie(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}
	want := model.SessionUser{ID: uuid.New(), Email: "a@x.com"}

	store.On("GetWithUser", mock.Anything, "tok-secure", mock.Anything).Return(want, nil)

	svc := NewSessions(store, "sessiond.session-token", time.Hour, testutil.MakeNoopLogger())

	got, err := svc.Resolve(ctx, fakeJar{"__Secure-sessiond.session-token": "tok-secure"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSessions_Resolve_PlainWinsOverSecure(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}
	want := model.SessionUser{ID: uuid.New(), Email: "a@x.com"}

	store.On("GetWithUser", mock.Anything, "tok-plain", mock.Anything).Return(want, nil)

	svc := NewSessions(store, "sessiond.session-token", time.Hour, testutil.MakeNoopLogger())

	jar := fakeJar{
		"sessiond.session-token":          "tok-plain",
		"__Secure-sessiond.session-token": "tok-secure",
	}
	_, err := svc.Resolve(ctx, jar)
	require.NoError(t, err)
	store.AssertCalled(t, "GetWithUser", mock.Anything, "tok-plain", mock.Anything)
	store.AssertNotCalled(t, "GetWithUser", mock.Anything, "tok-secure", mock.Anything)
}

func TestSessions_Resolve_NoCookie(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}

	svc := NewSessions(store, "sessiond.session-token", time.Hour, testutil.MakeNoopLogger())

	_, err := svc.Resolve(ctx, fakeJar{})
	require.ErrorIs(t, err, model.ErrNotFound)
	store.AssertNotCalled(t, "GetWithUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessions_Resolve_UnknownToken(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}

	store.On("GetWithUser", mock.Anything, "tampered", mock.Anything).Return(model.SessionUser{}, model.ErrNotFound)

	svc := NewSessions(store, "sessiond.session-token", time.Hour, testutil.MakeNoopLogger())

	_, err := svc.Resolve(ctx, fakeJar{"sessiond.session-token": "tampered"})
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestSessions_Delete(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}

	store.On("Delete", mock.Anything, "tok").Return(nil)

	svc := NewSessions(store, "sessiond.session-token", time.Hour, testutil.MakeNoopLogger())

	require.NoError(t, svc.Delete(ctx, "tok"))
	require.NoError(t, svc.Delete(ctx, "")) // empty token is a no-op
	store.AssertNumberOfCalls(t, "Delete", 1)
}

func TestSessions_RunJanitor_StopsOnCancel(t *testing.T) {
	store := &mocks.SessionStore{}
	store.On("DeleteExpired", mock.Anything, mock.Anything).Return(int64(2), nil)

	svc := NewSessions(store, "sessiond.session-token", time.Hour, testutil.MakeNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunJanitor(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
	store.AssertCalled(t, "DeleteExpired", mock.Anything, mock.Anything)
}
