package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/quizmaster/pkg/models"
)

// dateLayout is how last_test_date is stored: a calendar date, no time part,
// so the streak rule compares whole days.
const dateLayout = "2006-01-02"

// ErrAnalyticsNotFound is returned when a user has no analytics row.
var ErrAnalyticsNotFound = errors.New("analytics not found")

// AnalyticsRepository handles the per-user analytics rollup.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository creates a new repository instance.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// Init creates an empty rollup row for a new user. A second call for the same
// user is a no-op.
func (r *AnalyticsRepository) Init(ctx context.Context, userID string) error {
	exists, err := r.exists(ctx, userID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	query := r.db.Rebind(`
		INSERT INTO analytics (id, user_id, daily_streak, total_tests, total_questions, correct_answers)
		VALUES (?, ?, 0, 0, 0, 0)
	`)
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), userID); err != nil {
		return fmt.Errorf("failed to init analytics: %w", err)
	}
	return nil
}

// GetByUser returns the rollup for a user, or ErrAnalyticsNotFound.
func (r *AnalyticsRepository) GetByUser(ctx context.Context, userID string) (*models.Analytics, error) {
	var analytics models.Analytics
	query := r.db.Rebind(`
		SELECT id, user_id, daily_streak, last_test_date, total_tests, total_questions, correct_answers
		FROM analytics WHERE user_id = ?
	`)
	err := r.db.GetContext(ctx, &analytics, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAnalyticsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analytics: %w", err)
	}
	return &analytics, nil
}

// RecordTest folds one finished session into the rollup. The streak is
// recomputed from the stored last test date:
//
//	no prior date        -> 1
//	exactly one day ago  -> streak + 1
//	more than a day ago  -> 1
//	same day             -> unchanged
func (r *AnalyticsRepository) RecordTest(ctx context.Context, userID string, questionsAnswered, correctAnswers int) error {
	analytics, err := r.GetByUser(ctx, userID)
	if err != nil {
		return err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	newStreak := analytics.DailyStreak

	if !analytics.LastTestDate.Valid {
		newStreak = 1
	} else {
		lastDate, err := time.Parse(dateLayout, analytics.LastTestDate.String)
		if err != nil {
			return fmt.Errorf("failed to parse last test date: %w", err)
		}
		switch diffDays := int(today.Sub(lastDate).Hours() / 24); {
		case diffDays == 1:
			newStreak++
		case diffDays > 1:
			newStreak = 1
		}
	}

	query := r.db.Rebind(`
		UPDATE analytics SET
			total_tests = total_tests + 1,
			total_questions = total_questions + ?,
			correct_answers = correct_answers + ?,
			daily_streak = ?,
			last_test_date = ?
		WHERE user_id = ?
	`)
	if _, err := r.db.ExecContext(ctx, query,
		questionsAnswered, correctAnswers, newStreak, today.Format(dateLayout), userID,
	); err != nil {
		return fmt.Errorf("failed to record test: %w", err)
	}
	return nil
}

// SubjectStats aggregates the user's completed sessions per subject.
func (r *AnalyticsRepository) SubjectStats(ctx context.Context, userID string) ([]models.SubjectStats, error) {
	var stats []models.SubjectStats
	query := r.db.Rebind(`
		SELECT subject_id, subject_name,
		       COUNT(*) AS total_tests,
		       COALESCE(SUM(question_count), 0) AS total_questions,
		       CAST(ROUND(COALESCE(SUM(score * question_count / 100.0), 0)) AS INTEGER) AS correct_answers,
		       COALESCE(AVG(score), 0) AS average_score
		FROM test_sessions
		WHERE user_id = ? AND completed = 1
		GROUP BY subject_id, subject_name
		ORDER BY total_tests DESC
	`)
	if err := r.db.SelectContext(ctx, &stats, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get subject stats: %w", err)
	}
	return stats, nil
}

// RecentActivity returns day-by-day completed-session activity, newest first.
func (r *AnalyticsRepository) RecentActivity(ctx context.Context, userID string, limit int) ([]models.ActivityItem, error) {
	if limit <= 0 {
		limit = 7
	}

	dateExpr := "date(created_at)"
	if r.db.DriverName() == "postgres" {
		dateExpr = "CAST(created_at AS DATE)"
	}

	var activity []models.ActivityItem
	query := r.db.Rebind(fmt.Sprintf(`
		SELECT %s AS date,
		       COUNT(*) AS tests_completed,
		       COALESCE(SUM(question_count), 0) AS questions_answered,
		       COALESCE(AVG(score), 0) AS average_score
		FROM test_sessions
		WHERE user_id = ? AND completed = 1
		GROUP BY %s
		ORDER BY date DESC
		LIMIT ?
	`, dateExpr, dateExpr))
	if err := r.db.SelectContext(ctx, &activity, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent activity: %w", err)
	}
	return activity, nil
}

func (r *AnalyticsRepository) exists(ctx context.Context, userID string) (bool, error) {
	var found int
	err := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT 1 FROM analytics WHERE user_id = ? LIMIT 1"), userID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check analytics row: %w", err)
	}
	return true, nil
}
