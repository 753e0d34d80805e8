package models

import "database/sql"

// Analytics is the per-user rollup mutated only by the finish-quiz step.
// LastTestDate holds a calendar date ("2006-01-02"); the streak rule compares
// whole days, not timestamps.
type Analytics struct {
	ID             string         `json:"id" db:"id"`
	UserID         string         `json:"user_id" db:"user_id"`
	DailyStreak    int            `json:"daily_streak" db:"daily_streak"`
	LastTestDate   sql.NullString `json:"last_test_date" db:"last_test_date"`
	TotalTests     int            `json:"total_tests" db:"total_tests"`
	TotalQuestions int            `json:"total_questions" db:"total_questions"`
	CorrectAnswers int            `json:"correct_answers" db:"correct_answers"`
}

// Accuracy returns the overall fraction of correct answers as a percentage.
func (a Analytics) Accuracy() float64 {
	if a.TotalQuestions == 0 {
		return 0
	}
	return float64(a.CorrectAnswers) / float64(a.TotalQuestions) * 100
}

// SubjectStats aggregates completed sessions for one subject.
type SubjectStats struct {
	SubjectID      string  `json:"subject_id" db:"subject_id"`
	SubjectName    string  `json:"subject_name" db:"subject_name"`
	TotalTests     int     `json:"total_tests" db:"total_tests"`
	TotalQuestions int     `json:"total_questions" db:"total_questions"`
	CorrectAnswers int     `json:"correct_answers" db:"correct_answers"`
	AverageScore   float64 `json:"average_score" db:"average_score"`
}

// ActivityItem is one day of completed-session activity.
type ActivityItem struct {
	Date              string  `json:"date" db:"date"`
	TestsCompleted    int     `json:"tests_completed" db:"tests_completed"`
	QuestionsAnswered int     `json:"questions_answered" db:"questions_answered"`
	AverageScore      float64 `json:"average_score" db:"average_score"`
}
