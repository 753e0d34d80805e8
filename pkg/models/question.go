package models

import "database/sql"

// Question is one generated multiple-choice question. IDs follow the
// "{sessionID}_q{index}" convention so a batch stays unique per session.
// Options are stored JSON-encoded in the database.
type Question struct {
	ID            string        `json:"id" db:"id"`
	SessionID     string        `json:"session_id" db:"session_id"`
	QuestionText  string        `json:"question_text" db:"question_text"`
	Options       []string      `json:"options" db:"-"`
	CorrectAnswer int           `json:"correct_answer" db:"correct_answer"`
	UserAnswer    sql.NullInt64 `json:"user_answer" db:"user_answer"`
	IsCorrect     sql.NullBool  `json:"is_correct" db:"is_correct"`
	Position      int           `json:"position" db:"position"`
}

// Answered reports whether the user has submitted an answer for the question.
func (q Question) Answered() bool {
	return q.UserAnswer.Valid
}
