package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/quizmaster/pkg/models"
)

// ErrSubjectNotFound is returned when a subject id is unknown.
var ErrSubjectNotFound = errors.New("subject not found")

// SubjectRepository handles database operations for the subject catalog.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// GetAll returns the full catalog ordered by name.
func (r *SubjectRepository) GetAll(ctx context.Context) ([]models.Subject, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, icon, color, description FROM subjects ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to get subjects: %w", err)
	}
	defer rows.Close()

	var subjects []models.Subject
	for rows.Next() {
		subject, err := scanSubject(rows)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}
	return subjects, rows.Err()
}

// GetByID returns a subject by id, or ErrSubjectNotFound.
func (r *SubjectRepository) GetByID(ctx context.Context, id string) (*models.Subject, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT id, name, icon, color, description FROM subjects WHERE id = ?"), id)
	subject, err := scanSubject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

// Create inserts a new catalog entry. Existing ids are left untouched.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	colorJSON, err := json.Marshal(subject.Color)
	if err != nil {
		return fmt.Errorf("failed to marshal subject color: %w", err)
	}

	query := r.db.Rebind("INSERT INTO subjects (id, name, icon, color, description) VALUES (?, ?, ?, ?, ?)")
	if _, err := r.db.ExecContext(ctx, query,
		subject.ID, subject.Name, subject.Icon, string(colorJSON), subject.Description,
	); err != nil {
		return fmt.Errorf("failed to create subject: %w", err)
	}
	return nil
}

// Exists reports whether a subject id is already in the catalog.
func (r *SubjectRepository) Exists(ctx context.Context, id string) (bool, error) {
	var found int
	err := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT 1 FROM subjects WHERE id = ? LIMIT 1"), id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the catalog size.
func (r *SubjectRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM subjects").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count subjects: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubject(row rowScanner) (models.Subject, error) {
	var subject models.Subject
	var colorJSON string
	if err := row.Scan(&subject.ID, &subject.Name, &subject.Icon, &colorJSON, &subject.Description); err != nil {
		return models.Subject{}, err
	}
	if colorJSON != "" {
		if err := json.Unmarshal([]byte(colorJSON), &subject.Color); err != nil {
			return models.Subject{}, fmt.Errorf("failed to parse subject color: %w", err)
		}
	}
	return subject, nil
}

// defaultSubjects is the catalog installed on first run.
var defaultSubjects = []models.Subject{
	{ID: "aptitude", Name: "Aptitude", Icon: "🧮", Color: []string{"#FF6B6B", "#FF8E53"}, Description: "Numerical and logical reasoning"},
	{ID: "reasoning", Name: "Reasoning", Icon: "🧠", Color: []string{"#4ECDC4", "#44A08D"}, Description: "Analytical and critical thinking"},
	{ID: "coding", Name: "Coding Pseudo Codes", Icon: "💻", Color: []string{"#A8E6CF", "#3DDC84"}, Description: "Programming logic and algorithms"},
	{ID: "technical", Name: "Technical", Icon: "⚙️", Color: []string{"#FFD93D", "#FFA500"}, Description: "Technical concepts and knowledge"},
	{ID: "verbal", Name: "Verbal", Icon: "📚", Color: []string{"#A78BFA", "#8B5CF6"}, Description: "Language and communication skills"},
}

// SeedDefaultSubjects installs the default catalog when the subjects table is
// empty. A non-empty table makes this a no-op, so user-imported catalogs are
// never mixed with the defaults.
func SeedDefaultSubjects(db *sqlx.DB) error {
	repo := NewSubjectRepository(db)
	ctx := context.Background()

	count, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for i := range defaultSubjects {
		if err := repo.Create(ctx, &defaultSubjects[i]); err != nil {
			return err
		}
	}
	return nil
}
