package database

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/quizmaster/pkg/models"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, initSchema(db))

	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sqlx.DB, email string) *models.User {
	t.Helper()

	user := &models.User{Name: "Test User", Email: email, PasswordHash: "hash"}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

func TestInitSchemaIdempotent(t *testing.T) {
	db := newTestDB(t)

	// A second run against the same database must not fail.
	require.NoError(t, initSchema(db))
}

func TestSeedDefaultSubjects(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubjectRepository(db)
	ctx := context.Background()

	require.NoError(t, SeedDefaultSubjects(db))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	subject, err := repo.GetByID(ctx, "coding")
	require.NoError(t, err)
	assert.Equal(t, "Coding Pseudo Codes", subject.Name)
	assert.Equal(t, []string{"#A8E6CF", "#3DDC84"}, subject.Color)
}

func TestSeedDefaultSubjectsSkipsNonEmptyCatalog(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubjectRepository(db)
	ctx := context.Background()

	custom := &models.Subject{
		ID:          "history",
		Name:        "History",
		Icon:        "🏛️",
		Color:       []string{"#111111", "#222222"},
		Description: "World history",
	}
	require.NoError(t, repo.Create(ctx, custom))

	require.NoError(t, SeedDefaultSubjects(db))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "defaults must not be mixed into an imported catalog")
}

func TestSubjectRepositoryGetAllOrdered(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubjectRepository(db)

	require.NoError(t, SeedDefaultSubjects(db))

	subjects, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 5)
	for i := 1; i < len(subjects); i++ {
		assert.LessOrEqual(t, subjects[i-1].Name, subjects[i].Name)
	}
}

func TestSubjectRepositoryGetByIDNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := NewSubjectRepository(db).GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSubjectNotFound)
}

func TestSubjectRepositoryExists(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubjectRepository(db)
	ctx := context.Background()

	require.NoError(t, SeedDefaultSubjects(db))

	exists, err := repo.Exists(ctx, "verbal")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, "astronomy")
	require.NoError(t, err)
	assert.False(t, exists)
}
