// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists completed processing runs in a local SQLite
// database so a workbook can be re-exported without re-analyzing pages.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meshintel/formscan/pkg/types"
)

const dbFile = "formscan.db"

// Store manages the run archive database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the archive database under cfg.Dir, creating
// the schema if it does not exist.
func NewStore(cfg types.ArchiveConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("archive directory not configured")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			source_pdf TEXT NOT NULL,
			workbook_path TEXT,
			pages INTEGER NOT NULL,
			degraded INTEGER NOT NULL,
			elements INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			page_number INTEGER NOT NULL,
			detected_id TEXT NOT NULL,
			degraded INTEGER NOT NULL,
			PRIMARY KEY (run_id, page_number)
		)`,
		`CREATE TABLE IF NOT EXISTS elements (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			page_index INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			element_type TEXT NOT NULL,
			page_number INTEGER NOT NULL,
			question_number TEXT,
			question_text TEXT,
			options TEXT,
			selected_answer TEXT,
			notes TEXT,
			PRIMARY KEY (run_id, page_index, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_elements_run ON elements(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RunInfo summarizes one archived run.
type RunInfo struct {
	ID           int64
	CreatedAt    time.Time
	SourcePDF    string
	WorkbookPath string
	Pages        int
	Degraded     int
	Elements     int
}

// SaveRun stores the full page sequence of a completed run in one
// transaction and returns the new run id. Element rows keep the per-page
// order so re-export reproduces the original aggregation exactly.
func (s *Store) SaveRun(ctx context.Context, sourcePDF, workbookPath string, analyses []types.PageAnalysis) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	degraded, elements := 0, 0
	for _, p := range analyses {
		if p.Degraded {
			degraded++
		}
		elements += len(p.Elements)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (created_at, source_pdf, workbook_path, pages, degraded, elements)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), sourcePDF, workbookPath,
		len(analyses), degraded, elements,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	pageStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pages (run_id, page_number, detected_id, degraded) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing page insert: %w", err)
	}
	defer pageStmt.Close()

	elemStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO elements (run_id, page_index, seq, element_type, page_number,
		 question_number, question_text, options, selected_answer, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing element insert: %w", err)
	}
	defer elemStmt.Close()

	for _, p := range analyses {
		if _, err := pageStmt.ExecContext(ctx, runID, p.PageNumber, p.ParticipantID, p.Degraded); err != nil {
			return 0, fmt.Errorf("inserting page %d: %w", p.PageNumber, err)
		}
		for seq, e := range p.Elements {
			_, err := elemStmt.ExecContext(ctx, runID, p.PageNumber, seq,
				string(e.ElementType), e.PageNumber, e.QuestionNumber,
				e.QuestionText, e.Options, e.SelectedAnswer, e.Notes)
			if err != nil {
				return 0, fmt.Errorf("inserting element %d of page %d: %w", seq, p.PageNumber, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// ListRuns returns all archived runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source_pdf, COALESCE(workbook_path, ''), pages, degraded, elements
		 FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var r RunInfo
		var created string
		if err := rows.Scan(&r.ID, &created, &r.SourcePDF, &r.WorkbookPath, &r.Pages, &r.Degraded, &r.Elements); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadPages reconstructs the ordered page analysis sequence of a run.
func (s *Store) LoadPages(ctx context.Context, runID int64) ([]types.PageAnalysis, error) {
	pageRows, err := s.db.QueryContext(ctx,
		`SELECT page_number, detected_id, degraded FROM pages
		 WHERE run_id = ? ORDER BY page_number`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying pages: %w", err)
	}
	defer pageRows.Close()

	var pages []types.PageAnalysis
	index := make(map[int]int)
	for pageRows.Next() {
		var p types.PageAnalysis
		if err := pageRows.Scan(&p.PageNumber, &p.ParticipantID, &p.Degraded); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		index[p.PageNumber] = len(pages)
		pages = append(pages, p)
	}
	if err := pageRows.Err(); err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("run %d not found or has no pages", runID)
	}

	elemRows, err := s.db.QueryContext(ctx,
		`SELECT page_index, element_type, page_number, question_number,
		 question_text, options, selected_answer, notes
		 FROM elements WHERE run_id = ? ORDER BY page_index, seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying elements: %w", err)
	}
	defer elemRows.Close()

	for elemRows.Next() {
		var pageIndex int
		var e types.Element
		var elemType string
		err := elemRows.Scan(&pageIndex, &elemType, &e.PageNumber, &e.QuestionNumber,
			&e.QuestionText, &e.Options, &e.SelectedAnswer, &e.Notes)
		if err != nil {
			return nil, fmt.Errorf("scanning element: %w", err)
		}
		e.ElementType = types.ElementType(elemType)
		i, ok := index[pageIndex]
		if !ok {
			return nil, fmt.Errorf("element references unknown page %d", pageIndex)
		}
		pages[i].Elements = append(pages[i].Elements, e)
	}
	return pages, elemRows.Err()
}
