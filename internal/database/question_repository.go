package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/quizmaster/pkg/models"
)

// QuestionRepository handles database operations for questions.
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository creates a new repository instance.
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// CreateBatch persists a generated question batch in one transaction,
// preserving generator order via the position column.
func (r *QuestionRepository) CreateBatch(ctx context.Context, questions []models.Question) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	query := tx.Rebind(`
		INSERT INTO questions (id, session_id, question_text, options, correct_answer, position)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	for i := range questions {
		questions[i].Position = i
		optionsJSON, err := json.Marshal(questions[i].Options)
		if err != nil {
			return fmt.Errorf("failed to marshal options: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query,
			questions[i].ID, questions[i].SessionID, questions[i].QuestionText,
			string(optionsJSON), questions[i].CorrectAnswer, i,
		); err != nil {
			return fmt.Errorf("failed to insert question: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetBySession returns a session's questions in generation order.
func (r *QuestionRepository) GetBySession(ctx context.Context, sessionID string) ([]models.Question, error) {
	query := r.db.Rebind(`
		SELECT id, session_id, question_text, options, correct_answer, user_answer, is_correct, position
		FROM questions WHERE session_id = ? ORDER BY position
	`)
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		var optionsJSON string
		if err := rows.Scan(
			&q.ID, &q.SessionID, &q.QuestionText, &optionsJSON,
			&q.CorrectAnswer, &q.UserAnswer, &q.IsCorrect, &q.Position,
		); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(optionsJSON), &q.Options); err != nil {
			return nil, fmt.Errorf("failed to parse options: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// UpdateAnswer records the user's answer and its correctness. Re-submission
// overwrites the stored pair (last-write-wins).
func (r *QuestionRepository) UpdateAnswer(ctx context.Context, id string, userAnswer int, isCorrect bool) error {
	query := r.db.Rebind("UPDATE questions SET user_answer = ?, is_correct = ? WHERE id = ?")
	if _, err := r.db.ExecContext(ctx, query, userAnswer, isCorrect, id); err != nil {
		return fmt.Errorf("failed to update answer: %w", err)
	}
	return nil
}
