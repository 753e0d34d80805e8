package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/quizmaster/internal/config"
	"github.com/example/quizmaster/internal/database"
	"github.com/example/quizmaster/internal/securestore"
)

func newTestManager(t *testing.T) (*Manager, securestore.Store) {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Connect(&config.Config{DataDir: dir, DBDriver: "sqlite3"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := securestore.NewFileStore(dir)
	require.NoError(t, err)

	users := database.NewUserRepository(db)
	analytics := database.NewAnalyticsRepository(db)
	return NewManager(users, analytics, store), store
}

func TestSignup(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()

	user, err := manager.Signup(ctx, "Ada", "ada@example.com", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Empty(t, user.PasswordHash, "credential hash must not leave the auth boundary")

	current := manager.CurrentUser()
	require.NotNil(t, current)
	assert.Equal(t, user.ID, current.ID)

	marker, err := store.Get("userId")
	require.NoError(t, err)
	assert.Equal(t, user.ID, marker)
}

func TestSignupDuplicateEmail(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	_, err := manager.Signup(ctx, "Ada", "ada@example.com", "secret")
	require.NoError(t, err)

	_, err = manager.Signup(ctx, "Imposter", "ada@example.com", "other")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLogin(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	created, err := manager.Signup(ctx, "Ada", "ada@example.com", "secret")
	require.NoError(t, err)
	require.NoError(t, manager.Logout())
	require.Nil(t, manager.CurrentUser())

	user, err := manager.Login(ctx, "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Empty(t, user.PasswordHash)
	require.NotNil(t, manager.CurrentUser())
}

func TestLoginWrongPassword(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	_, err := manager.Signup(ctx, "Ada", "ada@example.com", "secret")
	require.NoError(t, err)
	require.NoError(t, manager.Logout())

	_, err = manager.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredential)
	assert.Nil(t, manager.CurrentUser())
}

func TestLoginUnknownEmail(t *testing.T) {
	manager, _ := newTestManager(t)

	_, err := manager.Login(context.Background(), "nobody@example.com", "secret")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLoadUserRestoresIdentity(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()

	user, err := manager.Signup(ctx, "Ada", "ada@example.com", "secret")
	require.NoError(t, err)

	// A fresh manager over the same store stands in for a process restart.
	restarted := NewManager(manager.users, manager.analytics, store)
	require.Nil(t, restarted.CurrentUser())

	require.NoError(t, restarted.LoadUser(ctx))
	current := restarted.CurrentUser()
	require.NotNil(t, current)
	assert.Equal(t, user.ID, current.ID)
}

func TestLoadUserMissingMarker(t *testing.T) {
	manager, _ := newTestManager(t)

	require.NoError(t, manager.LoadUser(context.Background()))
	assert.Nil(t, manager.CurrentUser())
}

func TestLoadUserStaleMarker(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, store.Set("userId", "deleted-user-id"))

	require.NoError(t, manager.LoadUser(ctx))
	assert.Nil(t, manager.CurrentUser())

	_, err := store.Get("userId")
	assert.ErrorIs(t, err, securestore.ErrKeyNotFound, "stale marker must be cleared")
}

func TestSignupInitializesAnalytics(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	user, err := manager.Signup(ctx, "Ada", "ada@example.com", "secret")
	require.NoError(t, err)

	analytics, err := manager.analytics.GetByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, analytics.TotalTests)
}
