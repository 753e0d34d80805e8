package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/quizmaster/internal/auth"
	"github.com/example/quizmaster/internal/database"
	"github.com/example/quizmaster/pkg/models"
)

// secondsPerQuestion sets the countdown budget: one minute per question.
const secondsPerQuestion = 60

// State is the quiz lifecycle position.
type State int

const (
	StateIdle State = iota
	StateActive
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	default:
		return "idle"
	}
}

var (
	// ErrNotAuthenticated is returned by StartQuiz when nobody is signed in.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrQuizInProgress is returned by StartQuiz outside the Idle state.
	ErrQuizInProgress = errors.New("quiz already in progress")
	// ErrNoActiveSession is returned by FinishQuiz from the Idle state.
	ErrNoActiveSession = errors.New("no active session")
)

// Generator produces the question batch for a new session. It never fails;
// see the ai package for the fallback contract.
type Generator interface {
	Generate(ctx context.Context, subjectName string, count int, sessionID string) []models.Question
}

// Machine owns the quiz session lifecycle: Idle -> Active -> Completed, with
// Reset back to Idle from anywhere. It holds the authoritative in-memory
// session state, drives the countdown, and is the only writer of session,
// question and analytics rows while a quiz runs.
//
// All transitions are driven by user intents plus the one-second tick and are
// serialized behind a single mutex.
type Machine struct {
	auth      *auth.Manager
	subjects  *database.SubjectRepository
	sessions  *database.SessionRepository
	questions *database.QuestionRepository
	analytics *database.AnalyticsRepository
	generator Generator

	tickEvery time.Duration

	mu            sync.Mutex
	state         State
	session       *models.TestSession
	batch         []models.Question
	currentIndex  int
	timeRemaining int
	// generation identifies the session the running countdown belongs to, so
	// a late tick can never mutate a superseded session.
	generation uint64
	cancelTick context.CancelFunc
}

// NewMachine creates an idle machine with injected collaborators.
func NewMachine(
	authManager *auth.Manager,
	subjects *database.SubjectRepository,
	sessions *database.SessionRepository,
	questions *database.QuestionRepository,
	analytics *database.AnalyticsRepository,
	generator Generator,
) *Machine {
	return &Machine{
		auth:      authManager,
		subjects:  subjects,
		sessions:  sessions,
		questions: questions,
		analytics: analytics,
		generator: generator,
		tickEvery: time.Second,
		state:     StateIdle,
	}
}

// StartQuiz creates a persisted session, generates and persists its question
// batch, and transitions to Active with the countdown running. Valid only
// from Idle; a finished quiz must be Reset before a new one starts.
func (m *Machine) StartQuiz(ctx context.Context, subjectID string, questionCount int) error {
	if questionCount <= 0 {
		return fmt.Errorf("question count must be positive, got %d", questionCount)
	}

	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return ErrQuizInProgress
	}
	m.mu.Unlock()

	user := m.auth.CurrentUser()
	if user == nil {
		return ErrNotAuthenticated
	}

	subject, err := m.subjects.GetByID(ctx, subjectID)
	if err != nil {
		return err
	}

	sess := &models.TestSession{
		UserID:        user.ID,
		SubjectID:     subject.ID,
		SubjectName:   subject.Name,
		QuestionCount: questionCount,
	}
	if err := m.sessions.Create(ctx, sess); err != nil {
		return err
	}

	// The generator call is the slow part; it runs before the machine takes
	// its lock so accessors stay responsive.
	batch := m.generator.Generate(ctx, subject.Name, questionCount, sess.ID)
	if err := m.questions.CreateBatch(ctx, batch); err != nil {
		return err
	}
	sess.Questions = batch

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle {
		return ErrQuizInProgress
	}

	m.session = sess
	m.batch = batch
	m.currentIndex = 0
	m.timeRemaining = questionCount * secondsPerQuestion
	m.state = StateActive
	m.generation++
	m.startCountdownLocked(m.generation)
	return nil
}

// SubmitAnswer records an answer for a question of the active session. A
// missing session or unknown question id is a silent no-op. Re-submission
// overwrites the stored pair, so submitting the same answer twice is
// idempotent.
func (m *Machine) SubmitAnswer(ctx context.Context, questionID string, answerIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateActive || m.session == nil {
		return nil
	}

	idx := m.indexOfLocked(questionID)
	if idx < 0 {
		return nil
	}

	isCorrect := answerIndex == m.batch[idx].CorrectAnswer
	if err := m.questions.UpdateAnswer(ctx, questionID, answerIndex, isCorrect); err != nil {
		return err
	}

	m.batch[idx].UserAnswer = sql.NullInt64{Int64: int64(answerIndex), Valid: true}
	m.batch[idx].IsCorrect = sql.NullBool{Bool: isCorrect, Valid: true}
	return nil
}

// NextQuestion advances the current index; at the last question it is a
// no-op, not an error.
func (m *Machine) NextQuestion() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.currentIndex < len(m.batch)-1 {
		m.currentIndex++
	}
}

// FinishQuiz scores the active session, persists the result exactly once,
// folds it into the user's analytics and transitions to Completed. Calling it
// again once Completed is a no-op so analytics are never double-counted.
func (m *Machine) FinishQuiz(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateCompleted:
		return nil
	case StateIdle:
		return ErrNoActiveSession
	}

	m.stopCountdownLocked()

	correct := 0
	for i := range m.batch {
		if m.batch[i].IsCorrect.Valid && m.batch[i].IsCorrect.Bool {
			correct++
		}
	}
	total := len(m.batch)
	score := float64(correct) / float64(total) * 100
	timeTaken := m.session.QuestionCount*secondsPerQuestion - m.timeRemaining

	err := m.sessions.MarkCompleted(ctx, m.session.ID, score, timeTaken)
	switch {
	case err == nil:
		// Analytics follow the completion write, so a row completed by this
		// call is counted exactly once.
		if err := m.analytics.RecordTest(ctx, m.session.UserID, total, correct); err != nil {
			return err
		}
	case errors.Is(err, database.ErrSessionCompleted):
		// Row was already completed; nothing more to count.
	default:
		return err
	}

	m.session.Completed = true
	m.session.Score = sql.NullFloat64{Float64: score, Valid: true}
	m.session.TimeTaken = sql.NullInt64{Int64: int64(timeTaken), Valid: true}
	m.state = StateCompleted
	return nil
}

// ResetQuiz clears all in-memory session state and returns to Idle. Persisted
// history is untouched.
func (m *Machine) ResetQuiz() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopCountdownLocked()
	m.session = nil
	m.batch = nil
	m.currentIndex = 0
	m.timeRemaining = 0
	m.state = StateIdle
}

// State returns the current lifecycle position.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns the in-memory session mirror, or nil when Idle.
func (m *Machine) Session() *models.TestSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Questions returns a copy of the in-memory question mirror.
func (m *Machine) Questions() []models.Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Question(nil), m.batch...)
}

// CurrentIndex returns the index of the question being shown.
func (m *Machine) CurrentIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentIndex
}

// TimeRemaining returns the countdown value in seconds.
func (m *Machine) TimeRemaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeRemaining
}

// startCountdownLocked launches the repeating one-second tick owned by the
// session identified by gen. Caller holds the lock.
func (m *Machine) startCountdownLocked(gen uint64) {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelTick = cancel
	interval := m.tickEvery

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if m.tick(gen) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// tick decrements the countdown once. It reports true when the loop should
// stop: the session moved on, or the countdown hit zero and auto-finished.
func (m *Machine) tick(gen uint64) bool {
	m.mu.Lock()
	if gen != m.generation || m.state != StateActive {
		m.mu.Unlock()
		return true
	}

	m.timeRemaining--
	if m.timeRemaining > 0 {
		m.mu.Unlock()
		return false
	}
	m.timeRemaining = 0
	m.mu.Unlock()

	// Zero reached while Active: auto-finish exactly once. FinishQuiz takes
	// the lock itself, so a manual call racing in resolves to a no-op for
	// whichever side loses.
	if err := m.FinishQuiz(context.Background()); err != nil {
		log.Printf("Auto-finish after countdown failed: %v", err)
	}
	return true
}

// stopCountdownLocked cancels the running tick and invalidates its
// generation. Caller holds the lock.
func (m *Machine) stopCountdownLocked() {
	if m.cancelTick != nil {
		m.cancelTick()
		m.cancelTick = nil
	}
	m.generation++
}

func (m *Machine) indexOfLocked(questionID string) int {
	for i := range m.batch {
		if m.batch[i].ID == questionID {
			return i
		}
	}
	return -1
}
