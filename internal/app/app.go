// Package app is the terminal presentation layer: screens render the auth
// and session state and dispatch user intents into the state machine. No
// business logic lives here.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/quizmaster/internal/auth"
	"github.com/example/quizmaster/internal/database"
	"github.com/example/quizmaster/internal/session"
	"github.com/example/quizmaster/pkg/models"
)

// App wires the screens to their collaborators.
type App struct {
	auth      *auth.Manager
	machine   *session.Machine
	subjects  *database.SubjectRepository
	sessions  *database.SessionRepository
	analytics *database.AnalyticsRepository

	in  *bufio.Reader
	out io.Writer
}

// New creates the terminal app.
func New(
	authManager *auth.Manager,
	machine *session.Machine,
	subjects *database.SubjectRepository,
	sessions *database.SessionRepository,
	analytics *database.AnalyticsRepository,
	in io.Reader,
	out io.Writer,
) *App {
	return &App{
		auth:      authManager,
		machine:   machine,
		subjects:  subjects,
		sessions:  sessions,
		analytics: analytics,
		in:        bufio.NewReader(in),
		out:       out,
	}
}

// Run drives the screen loop until the user quits or input ends.
func (a *App) Run(ctx context.Context) error {
	fmt.Fprintln(a.out, "QuizMaster")

	for ctx.Err() == nil {
		if a.auth.CurrentUser() == nil {
			if done := a.authScreen(ctx); done {
				return nil
			}
			continue
		}
		if done := a.homeScreen(ctx); done {
			return nil
		}
	}
	return ctx.Err()
}

// authScreen handles login and signup. Returns true when the app should exit.
func (a *App) authScreen(ctx context.Context) bool {
	fmt.Fprintln(a.out, "\n[1] Login  [2] Sign up  [q] Quit")
	choice, ok := a.prompt("> ")
	if !ok || choice == "q" {
		return true
	}

	switch choice {
	case "1":
		email, _ := a.prompt("Email: ")
		password, _ := a.prompt("Password: ")
		if _, err := a.auth.Login(ctx, email, password); err != nil {
			fmt.Fprintf(a.out, "Login failed: %v\n", err)
		}
	case "2":
		name, _ := a.prompt("Name: ")
		email, _ := a.prompt("Email: ")
		password, _ := a.prompt("Password: ")
		if _, err := a.auth.Signup(ctx, name, email, password); err != nil {
			fmt.Fprintf(a.out, "Signup failed: %v\n", err)
		}
	}
	return false
}

// homeScreen shows the analytics summary and the subject catalog. Returns
// true when the app should exit.
func (a *App) homeScreen(ctx context.Context) bool {
	user := a.auth.CurrentUser()
	fmt.Fprintf(a.out, "\nHello, %s\n", user.Name)

	if stats, err := a.analytics.GetByUser(ctx, user.ID); err == nil {
		fmt.Fprintf(a.out, "Streak: %d day(s) | Tests: %d | Accuracy: %.1f%%\n",
			stats.DailyStreak, stats.TotalTests, stats.Accuracy())
	}

	subjects, err := a.subjects.GetAll(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "Could not load subjects: %v\n", err)
		return true
	}
	for i, subject := range subjects {
		fmt.Fprintf(a.out, "[%d] %s %s — %s\n", i+1, subject.Icon, subject.Name, subject.Description)
	}
	fmt.Fprintln(a.out, "[h] History  [l] Logout  [q] Quit")

	choice, ok := a.prompt("> ")
	if !ok || choice == "q" {
		return true
	}

	switch choice {
	case "h":
		a.historyScreen(ctx, user.ID)
	case "l":
		if err := a.auth.Logout(); err != nil {
			fmt.Fprintf(a.out, "Logout failed: %v\n", err)
		}
	default:
		idx, err := strconv.Atoi(choice)
		if err != nil || idx < 1 || idx > len(subjects) {
			fmt.Fprintln(a.out, "Unknown choice")
			return false
		}
		a.quizScreen(ctx, subjects[idx-1])
	}
	return false
}

func (a *App) quizScreen(ctx context.Context, subject models.Subject) {
	countText, ok := a.prompt("How many questions? ")
	if !ok {
		return
	}
	count, err := strconv.Atoi(countText)
	if err != nil || count < 1 {
		fmt.Fprintln(a.out, "Please enter a positive number")
		return
	}

	if err := a.machine.StartQuiz(ctx, subject.ID, count); err != nil {
		switch {
		case errors.Is(err, session.ErrNotAuthenticated):
			fmt.Fprintln(a.out, "Please sign in first")
		case errors.Is(err, database.ErrSubjectNotFound):
			fmt.Fprintln(a.out, "That subject does not exist")
		default:
			fmt.Fprintf(a.out, "Could not start quiz: %v\n", err)
		}
		return
	}

	for a.machine.State() == session.StateActive {
		questions := a.machine.Questions()
		idx := a.machine.CurrentIndex()
		question := questions[idx]

		fmt.Fprintf(a.out, "\n[%d:%02d remaining] Q%d/%d: %s\n",
			a.machine.TimeRemaining()/60, a.machine.TimeRemaining()%60,
			idx+1, len(questions), question.QuestionText)
		for i, option := range question.Options {
			fmt.Fprintf(a.out, "  %c. %s\n", 'A'+i, option)
		}

		answer, ok := a.prompt("Answer (A-D, or f to finish): ")
		if !ok || answer == "f" {
			break
		}

		answerIndex := answerIndexOf(answer, len(question.Options))
		if answerIndex < 0 {
			fmt.Fprintln(a.out, "Invalid answer")
			continue
		}
		if err := a.machine.SubmitAnswer(ctx, question.ID, answerIndex); err != nil {
			fmt.Fprintf(a.out, "Could not save answer: %v\n", err)
			continue
		}

		if idx == len(questions)-1 {
			break
		}
		a.machine.NextQuestion()
	}

	if a.machine.State() == session.StateActive {
		if err := a.machine.FinishQuiz(ctx); err != nil {
			fmt.Fprintf(a.out, "Could not finish quiz: %v\n", err)
		}
	}
	a.resultsScreen()
}

func (a *App) resultsScreen() {
	sess := a.machine.Session()
	if sess == nil || !sess.Completed {
		a.machine.ResetQuiz()
		return
	}

	fmt.Fprintf(a.out, "\nScore: %.1f%%", sess.Score.Float64)
	if sess.TimeTaken.Valid {
		fmt.Fprintf(a.out, " in %ds", sess.TimeTaken.Int64)
	}
	fmt.Fprintln(a.out)

	for i, question := range a.machine.Questions() {
		mark := "✗"
		if question.IsCorrect.Valid && question.IsCorrect.Bool {
			mark = "✓"
		}
		fmt.Fprintf(a.out, "  %s Q%d: %s\n", mark, i+1, question.QuestionText)
	}
	a.machine.ResetQuiz()
}

func (a *App) historyScreen(ctx context.Context, userID string) {
	sessions, err := a.sessions.ListByUser(ctx, userID)
	if err != nil {
		fmt.Fprintf(a.out, "Could not load history: %v\n", err)
		return
	}
	if len(sessions) == 0 {
		fmt.Fprintln(a.out, "No quizzes yet")
		return
	}

	for _, sess := range sessions {
		if sess.Completed {
			fmt.Fprintf(a.out, "%s  %s  %.1f%%\n",
				sess.CreatedAt.Format("2006-01-02 15:04"), sess.SubjectName, sess.Score.Float64)
		} else {
			fmt.Fprintf(a.out, "%s  %s  (not finished)\n",
				sess.CreatedAt.Format("2006-01-02 15:04"), sess.SubjectName)
		}
	}

	if stats, err := a.analytics.SubjectStats(ctx, userID); err == nil && len(stats) > 0 {
		fmt.Fprintln(a.out, "\nBy subject:")
		for _, s := range stats {
			fmt.Fprintf(a.out, "  %s: %d test(s), avg %.1f%%\n", s.SubjectName, s.TotalTests, s.AverageScore)
		}
	}
}

// prompt reads one trimmed line. ok is false once input ends.
func (a *App) prompt(label string) (string, bool) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}

func answerIndexOf(answer string, optionCount int) int {
	answer = strings.ToUpper(strings.TrimSpace(answer))
	if len(answer) != 1 {
		return -1
	}
	idx := int(answer[0] - 'A')
	if idx < 0 || idx >= optionCount {
		return -1
	}
	return idx
}
