package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/quizmaster/internal/database"
	"github.com/example/quizmaster/pkg/models"
)

// ImportConfig defines how a subject catalog file is read. Columns are, in
// order: id, name, icon, first color stop, second color stop, description.
type ImportConfig struct {
	FilePath   string // Path to the Excel or CSV file
	SheetName  string // Name of the sheet to import (Excel only)
	SkipHeader bool   // Skip the first row
}

// DefaultImportConfig returns the default import configuration.
func DefaultImportConfig(path string) ImportConfig {
	return ImportConfig{
		FilePath:   path,
		SheetName:  "Sheet1",
		SkipHeader: true,
	}
}

// ImportResult holds the result of an import operation.
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// ImportSubjects loads a custom subject catalog from an Excel or CSV file.
// Rows whose id already exists in the catalog are skipped, so re-running an
// import is safe.
func ImportSubjects(ctx context.Context, config ImportConfig, subjects *database.SubjectRepository) (*ImportResult, error) {
	rows, err := readRows(config)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		if config.SkipHeader && i == 0 {
			continue
		}
		result.TotalProcessed++

		if err := importRow(ctx, row, subjects, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}
	return result, nil
}

func readRows(config ImportConfig) ([][]string, error) {
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		return readCSV(config.FilePath)
	}

	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func importRow(ctx context.Context, row []string, subjects *database.SubjectRepository, result *ImportResult) error {
	subject, err := parseSubject(row)
	if err != nil {
		return err
	}

	exists, err := subjects.Exists(ctx, subject.ID)
	if err != nil {
		return err
	}
	if exists {
		result.Skipped++
		return nil
	}

	if err := subjects.Create(ctx, subject); err != nil {
		return err
	}
	result.Created++
	return nil
}

func parseSubject(row []string) (*models.Subject, error) {
	cell := func(idx int) string {
		if idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	subject := &models.Subject{
		ID:          strings.ToLower(cell(0)),
		Name:        cell(1),
		Icon:        cell(2),
		Color:       []string{cell(3), cell(4)},
		Description: cell(5),
	}

	if subject.ID == "" {
		return nil, fmt.Errorf("subject id cannot be empty")
	}
	if subject.Name == "" {
		return nil, fmt.Errorf("subject name cannot be empty")
	}
	if subject.Color[0] == "" || subject.Color[1] == "" {
		return nil, fmt.Errorf("both color stops are required")
	}
	return subject, nil
}
