package models

import (
	"database/sql"
	"time"
)

// TestSession is one quiz attempt by one user against one subject.
// Score and TimeTaken are set exactly once, when the session completes.
type TestSession struct {
	ID            string          `json:"id" db:"id"`
	UserID        string          `json:"user_id" db:"user_id"`
	SubjectID     string          `json:"subject_id" db:"subject_id"`
	SubjectName   string          `json:"subject_name" db:"subject_name"`
	QuestionCount int             `json:"question_count" db:"question_count"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	Completed     bool            `json:"completed" db:"completed"`
	Score         sql.NullFloat64 `json:"score" db:"score"`
	TimeTaken     sql.NullInt64   `json:"time_taken" db:"time_taken"` // seconds
	Questions     []Question      `json:"questions,omitempty" db:"-"`
}
