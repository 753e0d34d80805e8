package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/quizmaster/internal/ai"
	"github.com/example/quizmaster/internal/app"
	"github.com/example/quizmaster/internal/auth"
	"github.com/example/quizmaster/internal/config"
	"github.com/example/quizmaster/internal/database"
	"github.com/example/quizmaster/internal/excel"
	"github.com/example/quizmaster/internal/scheduler"
	"github.com/example/quizmaster/internal/securestore"
	"github.com/example/quizmaster/internal/session"
)

func main() {
	importPath := flag.String("import-subjects", "", "import a subject catalog from an Excel or CSV file and exit")
	flag.Parse()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	subjects := database.NewSubjectRepository(db)
	users := database.NewUserRepository(db)
	sessions := database.NewSessionRepository(db)
	questions := database.NewQuestionRepository(db)
	analytics := database.NewAnalyticsRepository(db)

	if err := database.SeedDefaultSubjects(db); err != nil {
		log.Printf("Could not seed default subjects: %v", err)
	}

	if *importPath != "" {
		result, err := excel.ImportSubjects(ctx, excel.DefaultImportConfig(*importPath), subjects)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		log.Printf("Import finished: %d processed, %d created, %d skipped",
			result.TotalProcessed, result.Created, result.Skipped)
		for _, e := range result.Errors {
			log.Printf("Import error: %s", e)
		}
		return
	}

	store, err := securestore.NewFileStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open secure store: %v", err)
	}

	authManager := auth.NewManager(users, analytics, store)
	if err := authManager.LoadUser(ctx); err != nil {
		log.Printf("Could not restore previous user: %v", err)
	}

	var model ai.TextGenerator
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel, &http.Client{})
		if err != nil {
			log.Fatalf("Failed to create AI client: %v", err)
		}
		model = gemini
	} else {
		log.Println("GEMINI_API_KEY is not set, using built-in question templates")
	}
	generator := ai.NewGenerator(model, cfg.GeminiTimeout)

	machine := session.NewMachine(authManager, subjects, sessions, questions, analytics, generator)

	sched := scheduler.New(sessions)
	sched.Start()
	defer sched.Stop()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v", sig)
		cancel()
	}()

	application := app.New(authManager, machine, subjects, sessions, analytics, os.Stdin, os.Stdout)
	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Application error: %v", err)
	}

	machine.ResetQuiz()
	log.Println("Goodbye")
}
