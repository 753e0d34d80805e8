package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/example/quizmaster/pkg/models"
)

// TextGenerator produces a free-form text reply for a prompt. *Gemini
// implements it; tests substitute fakes.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// DefaultTimeout bounds how long Generate waits for the model before falling
// back to templates.
const DefaultTimeout = 15 * time.Second

// Generator turns a subject into a batch of multiple-choice questions, backed
// by a text-generation model with a deterministic template fallback. Generate
// never fails: the caller always receives a full-length batch.
type Generator struct {
	model   TextGenerator
	timeout time.Duration
}

// NewGenerator creates a generator. A nil model means every batch comes from
// the fallback templates (useful offline and in tests). A non-positive
// timeout falls back to DefaultTimeout.
func NewGenerator(model TextGenerator, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Generator{model: model, timeout: timeout}
}

// Generate returns exactly count questions for the subject, ids
// "{sessionID}_q{index}". Model, network or parse failures are absorbed by
// the template fallback and never surface to the caller.
func (g *Generator) Generate(ctx context.Context, subjectName string, count int, sessionID string) []models.Question {
	if g.model == nil {
		return g.fallback(subjectName, count, sessionID)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	reply, err := g.model.GenerateContent(ctx, buildPrompt(subjectName, count))
	if err != nil {
		log.Printf("Question generation failed for %q, using fallback: %v", subjectName, err)
		return g.fallback(subjectName, count, sessionID)
	}

	parsed, err := parseQuestions(reply, count)
	if err != nil {
		log.Printf("Could not parse generated questions for %q, using fallback: %v", subjectName, err)
		return g.fallback(subjectName, count, sessionID)
	}

	questions := make([]models.Question, 0, count)
	for i, q := range parsed {
		questions = append(questions, models.Question{
			ID:            fmt.Sprintf("%s_q%d", sessionID, i),
			SessionID:     sessionID,
			QuestionText:  q.text(),
			Options:       q.Options,
			CorrectAnswer: *q.CorrectAnswer,
			Position:      i,
		})
	}
	return questions
}

func (g *Generator) fallback(subjectName string, count int, sessionID string) []models.Question {
	pool := templatesFor(subjectName)
	questions := make([]models.Question, 0, count)
	for i := 0; i < count; i++ {
		tpl := pool[i%len(pool)]
		questions = append(questions, models.Question{
			ID:            fmt.Sprintf("%s_q%d", sessionID, i),
			SessionID:     sessionID,
			QuestionText:  fmt.Sprintf("%s (Question %d)", tpl.Question, i+1),
			Options:       append([]string(nil), tpl.Options...),
			CorrectAnswer: tpl.CorrectAnswer,
			Position:      i,
		})
	}
	return questions
}

func buildPrompt(subjectName string, count int) string {
	return fmt.Sprintf(`Generate %d multiple choice questions (MCQ) for the subject: %s.

Requirements:
1. Each question should have exactly 4 options (A, B, C, D)
2. Questions should be challenging and relevant to %s
3. Include the correct answer index (0-3)
4. Format the response as a JSON array

Example format:
[
  {
    "question": "What is 2 + 2?",
    "options": ["3", "4", "5", "6"],
    "correctAnswer": 1
  }
]

Generate %d questions now in valid JSON format only, no additional text:`, count, subjectName, subjectName, count)
}

// rawQuestion is the wire shape expected from the model. CorrectAnswer is a
// pointer so a missing field is distinguishable from answer 0.
type rawQuestion struct {
	Question      string   `json:"question"`
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correctAnswer"`
}

func (q rawQuestion) text() string {
	if q.Question != "" {
		return q.Question
	}
	return q.QuestionText
}

// parseQuestions validates the model reply strictly and returns a tagged
// error for anything short of a usable full-length batch.
func parseQuestions(reply string, count int) ([]rawQuestion, error) {
	var parsed []rawQuestion
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if len(parsed) < count {
		return nil, fmt.Errorf("expected %d questions, got %d", count, len(parsed))
	}
	parsed = parsed[:count]

	for i, q := range parsed {
		if q.text() == "" {
			return nil, fmt.Errorf("question %d: missing question text", i)
		}
		if len(q.Options) != 4 {
			return nil, fmt.Errorf("question %d: expected 4 options, got %d", i, len(q.Options))
		}
		if q.CorrectAnswer == nil {
			return nil, fmt.Errorf("question %d: missing correct answer", i)
		}
		if *q.CorrectAnswer < 0 || *q.CorrectAnswer > 3 {
			return nil, fmt.Errorf("question %d: correct answer %d out of range", i, *q.CorrectAnswer)
		}
	}
	return parsed, nil
}

// stripCodeFence removes an optional markdown fence (``` or ```json) wrapped
// around the model's JSON reply.
func stripCodeFence(reply string) string {
	text := strings.TrimSpace(reply)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
