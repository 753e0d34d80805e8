package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/quizmaster/internal/config"
	"github.com/example/quizmaster/internal/database"
	"github.com/example/quizmaster/pkg/models"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.Connect(&config.Config{DataDir: t.TempDir(), DBDriver: "sqlite3"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createSession(t *testing.T, db *sqlx.DB, repo *database.SessionRepository, age time.Duration) *models.TestSession {
	t.Helper()
	ctx := context.Background()

	user := &models.User{Name: "Ada", Email: uniqueEmail(t), PasswordHash: "hash"}
	require.NoError(t, database.NewUserRepository(db).Create(ctx, user))

	session := &models.TestSession{
		UserID:        user.ID,
		SubjectID:     "coding",
		SubjectName:   "Coding Pseudo Codes",
		QuestionCount: 1,
	}
	require.NoError(t, repo.Create(ctx, session))

	if age > 0 {
		_, err := db.Exec("UPDATE test_sessions SET created_at = ? WHERE id = ?",
			time.Now().UTC().Add(-age), session.ID)
		require.NoError(t, err)
	}
	return session
}

func uniqueEmail(t *testing.T) string {
	return t.Name() + "-" + time.Now().Format("150405.000000000") + "@example.com"
}

func TestSweepRemovesStaleIncompleteOnly(t *testing.T) {
	db := newTestDB(t)
	sessions := database.NewSessionRepository(db)
	ctx := context.Background()

	stale := createSession(t, db, sessions, 48*time.Hour)
	fresh := createSession(t, db, sessions, 0)
	oldCompleted := createSession(t, db, sessions, 0)
	require.NoError(t, sessions.MarkCompleted(ctx, oldCompleted.ID, 100, 10))
	_, err := db.Exec("UPDATE test_sessions SET created_at = ? WHERE id = ?",
		time.Now().UTC().Add(-72*time.Hour), oldCompleted.ID)
	require.NoError(t, err)

	s := New(sessions)
	require.NoError(t, s.Sweep(ctx))

	_, err = sessions.GetByID(ctx, stale.ID)
	assert.ErrorIs(t, err, database.ErrSessionNotFound)

	_, err = sessions.GetByID(ctx, fresh.ID)
	assert.NoError(t, err)
	_, err = sessions.GetByID(ctx, oldCompleted.ID)
	assert.NoError(t, err)
}

func TestSweepEmptyDatabase(t *testing.T) {
	db := newTestDB(t)

	s := New(database.NewSessionRepository(db))
	assert.NoError(t, s.Sweep(context.Background()))
}
