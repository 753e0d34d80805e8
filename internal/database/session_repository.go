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

var (
	// ErrSessionNotFound is returned when a session id is unknown.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionCompleted is returned when a completion write hits a session
	// that is already completed. Score and time taken are write-once.
	ErrSessionCompleted = errors.New("session already completed")
)

// SessionRepository handles database operations for test sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new repository instance.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new, not-yet-completed session row.
func (r *SessionRepository) Create(ctx context.Context, session *models.TestSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	query := r.db.Rebind(`
		INSERT INTO test_sessions (id, user_id, subject_id, subject_name, question_count, created_at, completed)
		VALUES (?, ?, ?, ?, ?, ?, 0)
	`)
	if _, err := r.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.SubjectID, session.SubjectName,
		session.QuestionCount, session.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetByID returns a session by id, or ErrSessionNotFound.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.TestSession, error) {
	var session models.TestSession
	query := r.db.Rebind(`
		SELECT id, user_id, subject_id, subject_name, question_count, created_at, completed, score, time_taken
		FROM test_sessions WHERE id = ?
	`)
	err := r.db.GetContext(ctx, &session, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// ListByUser returns a user's session history, newest first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]models.TestSession, error) {
	var sessions []models.TestSession
	query := r.db.Rebind(`
		SELECT id, user_id, subject_id, subject_name, question_count, created_at, completed, score, time_taken
		FROM test_sessions WHERE user_id = ? ORDER BY created_at DESC
	`)
	if err := r.db.SelectContext(ctx, &sessions, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// MarkCompleted records score and time taken and flips the completed flag.
// The WHERE clause guards the write-once contract: a second call returns
// ErrSessionCompleted and leaves the original result intact.
func (r *SessionRepository) MarkCompleted(ctx context.Context, id string, score float64, timeTaken int) error {
	query := r.db.Rebind(`
		UPDATE test_sessions SET completed = 1, score = ?, time_taken = ?
		WHERE id = ? AND completed = 0
	`)
	result, err := r.db.ExecContext(ctx, query, score, timeTaken, id)
	if err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		if _, lookupErr := r.GetByID(ctx, id); errors.Is(lookupErr, ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return ErrSessionCompleted
	}
	return nil
}

// DeleteStaleIncomplete removes incomplete sessions created before cutoff,
// together with their questions. Completed history is never touched.
func (r *SessionRepository) DeleteStaleIncomplete(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	questionsQuery := tx.Rebind(`
		DELETE FROM questions WHERE session_id IN (
			SELECT id FROM test_sessions WHERE completed = 0 AND created_at < ?
		)
	`)
	if _, err := tx.ExecContext(ctx, questionsQuery, cutoff); err != nil {
		return 0, fmt.Errorf("failed to delete stale questions: %w", err)
	}

	sessionsQuery := tx.Rebind("DELETE FROM test_sessions WHERE completed = 0 AND created_at < ?")
	result, err := tx.ExecContext(ctx, sessionsQuery, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale sessions: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return removed, nil
}
