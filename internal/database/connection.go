package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/quizmaster/internal/config"
)

// Connect opens the database described by cfg, initializes the schema and
// seeds the default subject catalog. Schema initialization is idempotent and
// safe to run on every launch.
func Connect(cfg *config.Config) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error

	switch cfg.DBDriver {
	case "postgres":
		db, err = sqlx.Connect("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	default:
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}

		dbPath := filepath.Join(cfg.DataDir, "quizmaster.db")
		db, err = sqlx.Connect("sqlite3", dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}

		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initSchema(db); err != nil {
		return nil, err
	}

	// Seeding failures are non-fatal; the app still works against an empty
	// catalog or one imported later.
	if err := SeedDefaultSubjects(db); err != nil {
		log.Printf("Warning: failed to seed default subjects: %v", err)
	}

	return db, nil
}

// initSchema creates the five tables if they don't exist.
func initSchema(db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS subjects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			icon TEXT NOT NULL,
			color TEXT NOT NULL,
			description TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS test_sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			subject_id TEXT NOT NULL,
			subject_name TEXT NOT NULL,
			question_count INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			score REAL,
			time_taken INTEGER,
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (subject_id) REFERENCES subjects(id)
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			question_text TEXT NOT NULL,
			options TEXT NOT NULL,
			correct_answer INTEGER NOT NULL,
			user_answer INTEGER,
			is_correct INTEGER,
			position INTEGER NOT NULL,
			FOREIGN KEY (session_id) REFERENCES test_sessions(id)
		)`,
		`CREATE TABLE IF NOT EXISTS analytics (
			id TEXT PRIMARY KEY,
			user_id TEXT UNIQUE NOT NULL,
			daily_streak INTEGER NOT NULL DEFAULT 0,
			last_test_date TEXT,
			total_tests INTEGER NOT NULL DEFAULT 0,
			total_questions INTEGER NOT NULL DEFAULT 0,
			correct_answers INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user ON test_sessions(user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_session ON questions(session_id, position)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
