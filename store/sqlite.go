package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"careerplan/generator"
)

// SchemaVersion is written to PRAGMA user_version.
const SchemaVersion = 1

// SQLite stores surveys in a SQLite database file. Plan turns live in their
// own table and are rewritten on every update.
type SQLite struct {
	conn *sql.DB
}

// NewSQLite opens or creates the database at path and sets up its tables.
func NewSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open SQLite database")
	}
	// A single connection serialises writers and keeps ":memory:" databases
	// on one handle.
	conn.SetMaxOpenConns(1)

	db := &SQLite{conn: conn}
	if err := db.setup(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to set up database")
	}
	return db, nil
}

func (db *SQLite) setup() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	createSurveysTable := `
	CREATE TABLE IF NOT EXISTS surveys (
		id TEXT PRIMARY KEY,
		answers TEXT NOT NULL,
		title TEXT NOT NULL,
		digest TEXT NOT NULL,
		plan TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	createTurnsTable := `
	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		survey_id TEXT NOT NULL,
		comment TEXT NOT NULL,
		summary TEXT NOT NULL,
		title TEXT NOT NULL,
		digest TEXT NOT NULL,
		plan TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (survey_id) REFERENCES surveys(id) ON DELETE CASCADE
	);
	`
	createTurnsIndex := `CREATE INDEX IF NOT EXISTS turns_survey ON turns(survey_id);`

	for _, stmt := range []string{createSurveysTable, createTurnsTable, createTurnsIndex} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, SchemaVersion)); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (db *SQLite) Create(ctx context.Context, s *Survey) error {
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return errors.Wrap(err, "could not encode answers")
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertSurveySQL := `
		INSERT INTO surveys (id, answers, title, digest, plan, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?);
	`
	if _, err := tx.ExecContext(ctx, insertSurveySQL, s.ID, string(answers),
		s.Plan.Title, s.Plan.Digest, s.Plan.Markdown,
		s.CreatedAt.UnixNano(), s.UpdatedAt.UnixNano()); err != nil {
		return fmt.Errorf("failed to create survey: %w", err)
	}
	if err := insertTurns(ctx, tx, s.ID, s.History); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (db *SQLite) Get(ctx context.Context, id string) (*Survey, error) {
	query := `SELECT id, answers, title, digest, plan, created_at, updated_at FROM surveys WHERE id = ?`
	s, err := scanSurvey(db.conn.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to retrieve survey: %w", err)
	}

	if s.History, err = db.turns(ctx, id); err != nil {
		return nil, err
	}
	return s, nil
}

func (db *SQLite) List(ctx context.Context) ([]*Survey, error) {
	query := `SELECT id, answers, title, digest, plan, created_at, updated_at FROM surveys ORDER BY updated_at DESC`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}
	var surveys []*Survey
	for rows.Next() {
		s, err := scanSurvey(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan survey: %w", err)
		}
		surveys = append(surveys, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}
	rows.Close()

	for _, s := range surveys {
		if s.History, err = db.turns(ctx, s.ID); err != nil {
			return nil, err
		}
	}
	return surveys, nil
}

func (db *SQLite) Update(ctx context.Context, s *Survey) error {
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return errors.Wrap(err, "could not encode answers")
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	updateSurveySQL := `
		UPDATE surveys
		SET answers = ?, title = ?, digest = ?, plan = ?, updated_at = ?
		WHERE id = ?;
	`
	res, err := tx.ExecContext(ctx, updateSurveySQL, string(answers),
		s.Plan.Title, s.Plan.Digest, s.Plan.Markdown, s.UpdatedAt.UnixNano(), s.ID)
	if err != nil {
		return fmt.Errorf("failed to update survey: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE survey_id = ?`, s.ID); err != nil {
		return fmt.Errorf("failed to delete turns: %w", err)
	}
	if err := insertTurns(ctx, tx, s.ID, s.History); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (db *SQLite) Delete(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE survey_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete turns: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM surveys WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete survey: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *SQLite) Close() error {
	return db.conn.Close()
}

func (db *SQLite) turns(ctx context.Context, surveyID string) ([]generator.Turn, error) {
	query := `SELECT comment, summary, title, digest, plan, created_at FROM turns WHERE survey_id = ? ORDER BY id`
	rows, err := db.conn.QueryContext(ctx, query, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []generator.Turn
	for rows.Next() {
		var t generator.Turn
		var created int64
		if err := rows.Scan(&t.Comment, &t.Summary, &t.Plan.Title, &t.Plan.Digest, &t.Plan.Markdown, &created); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		t.CreatedAt = time.Unix(0, created).UTC()
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func insertTurns(ctx context.Context, tx *sql.Tx, surveyID string, turns []generator.Turn) error {
	insertTurnSQL := `
		INSERT INTO turns (survey_id, comment, summary, title, digest, plan, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?);
	`
	for _, t := range turns {
		if _, err := tx.ExecContext(ctx, insertTurnSQL, surveyID, t.Comment, t.Summary,
			t.Plan.Title, t.Plan.Digest, t.Plan.Markdown, t.CreatedAt.UnixNano()); err != nil {
			return fmt.Errorf("failed to create turn: %w", err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSurvey(row scanner) (*Survey, error) {
	var s Survey
	var answers string
	var created, updated int64
	if err := row.Scan(&s.ID, &answers, &s.Plan.Title, &s.Plan.Digest, &s.Plan.Markdown, &created, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(answers), &s.Answers); err != nil {
		return nil, errors.Wrapf(err, "could not decode answers of survey %s", s.ID)
	}
	s.CreatedAt = time.Unix(0, created).UTC()
	s.UpdatedAt = time.Unix(0, updated).UTC()
	return &s, nil
}
