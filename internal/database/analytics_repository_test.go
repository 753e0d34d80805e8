package database

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setLastTestDate(t *testing.T, db *sqlx.DB, userID string, daysAgo, streak int) {
	t.Helper()

	date := time.Now().UTC().AddDate(0, 0, -daysAgo).Format(dateLayout)
	_, err := db.Exec("UPDATE analytics SET last_test_date = ?, daily_streak = ? WHERE user_id = ?",
		date, streak, userID)
	require.NoError(t, err)
}

func TestAnalyticsRepositoryInitIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewAnalyticsRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "ada@example.com")

	require.NoError(t, repo.Init(ctx, user.ID))
	require.NoError(t, repo.Init(ctx, user.ID))

	analytics, err := repo.GetByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, analytics.TotalTests)
	assert.Equal(t, 0, analytics.DailyStreak)
	assert.False(t, analytics.LastTestDate.Valid)
}

func TestAnalyticsRepositoryGetByUserNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := NewAnalyticsRepository(db).GetByUser(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrAnalyticsNotFound)
}

func TestAnalyticsRepositoryRecordTestFirstEver(t *testing.T) {
	db := newTestDB(t)
	repo := NewAnalyticsRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "ada@example.com")
	require.NoError(t, repo.Init(ctx, user.ID))

	require.NoError(t, repo.RecordTest(ctx, user.ID, 10, 7))

	analytics, err := repo.GetByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, analytics.DailyStreak)
	assert.Equal(t, 1, analytics.TotalTests)
	assert.Equal(t, 10, analytics.TotalQuestions)
	assert.Equal(t, 7, analytics.CorrectAnswers)
	assert.Equal(t, time.Now().UTC().Format(dateLayout), analytics.LastTestDate.String)
	assert.InDelta(t, 70.0, analytics.Accuracy(), 0.001)
}

func TestAnalyticsRepositoryStreakRule(t *testing.T) {
	tests := []struct {
		name       string
		daysAgo    int
		streak     int
		wantStreak int
	}{
		{"yesterday extends", 1, 4, 5},
		{"gap resets", 3, 4, 1},
		{"same day unchanged", 0, 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			repo := NewAnalyticsRepository(db)
			ctx := context.Background()

			user := createTestUser(t, db, "ada@example.com")
			require.NoError(t, repo.Init(ctx, user.ID))
			setLastTestDate(t, db, user.ID, tt.daysAgo, tt.streak)

			require.NoError(t, repo.RecordTest(ctx, user.ID, 5, 3))

			analytics, err := repo.GetByUser(ctx, user.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStreak, analytics.DailyStreak)
		})
	}
}

func TestAnalyticsRepositoryRecordTestAccumulates(t *testing.T) {
	db := newTestDB(t)
	repo := NewAnalyticsRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "ada@example.com")
	require.NoError(t, repo.Init(ctx, user.ID))

	require.NoError(t, repo.RecordTest(ctx, user.ID, 10, 7))
	require.NoError(t, repo.RecordTest(ctx, user.ID, 5, 5))

	analytics, err := repo.GetByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, analytics.TotalTests)
	assert.Equal(t, 15, analytics.TotalQuestions)
	assert.Equal(t, 12, analytics.CorrectAnswers)
}

func TestAnalyticsRepositorySubjectStats(t *testing.T) {
	db := newTestDB(t)
	repo := NewAnalyticsRepository(db)
	sessions := NewSessionRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "ada@example.com")

	first := createTestSession(t, db, user.ID)
	second := createTestSession(t, db, user.ID)
	require.NoError(t, sessions.MarkCompleted(ctx, first.ID, 50, 30))
	require.NoError(t, sessions.MarkCompleted(ctx, second.ID, 100, 20))

	// Incomplete sessions never count.
	createTestSession(t, db, user.ID)

	stats, err := repo.SubjectStats(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "coding", stats[0].SubjectID)
	assert.Equal(t, 2, stats[0].TotalTests)
	assert.Equal(t, 4, stats[0].TotalQuestions)
	assert.Equal(t, 3, stats[0].CorrectAnswers)
	assert.InDelta(t, 75.0, stats[0].AverageScore, 0.001)
}

func TestAnalyticsRepositoryRecentActivity(t *testing.T) {
	db := newTestDB(t)
	repo := NewAnalyticsRepository(db)
	sessions := NewSessionRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "ada@example.com")
	session := createTestSession(t, db, user.ID)
	require.NoError(t, sessions.MarkCompleted(ctx, session.ID, 50, 30))

	activity, err := repo.RecentActivity(ctx, user.ID, 7)
	require.NoError(t, err)
	require.Len(t, activity, 1)
	assert.Equal(t, 1, activity[0].TestsCompleted)
	assert.Equal(t, 2, activity[0].QuestionsAnswered)
	assert.InDelta(t, 50.0, activity[0].AverageScore, 0.001)
}
