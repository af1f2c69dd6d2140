package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"smarttodo/internal/models"
)

const rowColumns = `id, title, due_date, priority, status, notes, created_at, updated_at, completed_at`

// SQLiteRemote implements Remote on a shared SQLite database file.
type SQLiteRemote struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRemote opens (and migrates) the row store at dbPath.
func NewSQLiteRemote(dbPath string) (*SQLiteRemote, error) {
	db, err := sql.Open("sqlite3", sqliteDSN(dbPath))
	if err != nil {
		return nil, remoteErr("open", RemoteUnavailable, fmt.Errorf("failed to open database: %w", err))
	}
	// An in-memory database only lives as long as its connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, remoteErr("open", RemoteUnavailable, fmt.Errorf("failed to ping database: %w", err))
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, remoteErr("open", RemoteOperationFailed, fmt.Errorf("failed to migrate database: %w", err))
	}

	return &SQLiteRemote{db: db, now: time.Now}, nil
}

// sqliteDSN adds a busy timeout to dbPath unless it already sets one,
// keeping any query parameters the caller supplied.
func sqliteDSN(dbPath string) string {
	// _timeout= also matches _busy_timeout=.
	if strings.Contains(dbPath, "_timeout=") {
		return dbPath
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_busy_timeout=5000"
}

// Close closes the database connection.
func (s *SQLiteRemote) Close() error {
	return s.db.Close()
}

// Insert creates a row and returns it with its store-issued id.
func (s *SQLiteRemote) Insert(ctx context.Context, row models.Row) (models.Row, error) {
	now := models.FormatTimestamp(s.now())
	if row.CreatedAt == nil {
		row.CreatedAt = &now
	}
	if row.UpdatedAt == nil {
		row.UpdatedAt = &now
	}
	priority := string(models.NormalizePriority(deref(row.Priority)))
	status := deref(row.Status)
	if status == "" {
		status = string(models.StatusPending)
	}
	if status == string(models.StatusCompleted) && row.CompletedAt == nil {
		row.CompletedAt = row.UpdatedAt
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (title, due_date, priority, status, notes, created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, row.Title, nullable(row.DueDate), priority, status, nullable(row.Notes),
		nullable(row.CreatedAt), nullable(row.UpdatedAt), nullable(row.CompletedAt))
	if err != nil {
		return models.Row{}, classify("insert", fmt.Errorf("failed to create task: %w", err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return models.Row{}, classify("insert", fmt.Errorf("failed to get last insert id: %w", err))
	}

	return s.get(ctx, "insert", id)
}

// SelectAll returns every row ordered by id.
func (s *SQLiteRemote) SelectAll(ctx context.Context) ([]models.Row, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+rowColumns+` FROM tasks ORDER BY id ASC`)
	if err != nil {
		return nil, classify("select", fmt.Errorf("failed to list tasks: %w", err))
	}
	defer rows.Close()

	var out []models.Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, classify("select", fmt.Errorf("failed to scan task: %w", err))
		}
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("select", err)
	}
	return out, nil
}

// UpdateStatus changes the status of a row and stamps updated_at. Moving to
// Completed stamps completed_at; moving away clears it.
func (s *SQLiteRemote) UpdateStatus(ctx context.Context, id int64, status models.Status) (models.Row, error) {
	now := models.FormatTimestamp(s.now())

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = ?, updated_at = ?,
			completed_at = CASE WHEN ? = 'Completed' THEN COALESCE(completed_at, ?) ELSE NULL END
		WHERE id = ?
	`, string(status), now, string(status), now, id)
	if err != nil {
		return models.Row{}, classify("update", fmt.Errorf("failed to update task status: %w", err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return models.Row{}, classify("update", err)
	}
	if n == 0 {
		return models.Row{}, remoteErr("update", RemoteNotFound, fmt.Errorf("task not found: %d", id))
	}

	return s.get(ctx, "update", id)
}

// Delete removes a row and returns it as it was.
func (s *SQLiteRemote) Delete(ctx context.Context, id int64) (models.Row, error) {
	existing, err := s.get(ctx, "delete", id)
	if err != nil {
		return models.Row{}, err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return models.Row{}, classify("delete", fmt.Errorf("failed to delete task: %w", err))
	}

	return existing, nil
}

func (s *SQLiteRemote) get(ctx context.Context, op string, id int64) (models.Row, error) {
	r, err := scanRow(s.db.QueryRowContext(ctx, `SELECT `+rowColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Row{}, remoteErr(op, RemoteNotFound, fmt.Errorf("task not found: %d", id))
		}
		return models.Row{}, classify(op, fmt.Errorf("failed to get task: %w", err))
	}
	return r, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRow(sc rowScanner) (models.Row, error) {
	var (
		id                                int64
		r                                 models.Row
		dueDate, priority, status, notes  sql.NullString
		createdAt, updatedAt, completedAt sql.NullString
	)

	err := sc.Scan(&id, &r.Title, &dueDate, &priority, &status, &notes, &createdAt, &updatedAt, &completedAt)
	if err != nil {
		return models.Row{}, err
	}

	r.ID = models.Int64(id)
	r.DueDate = fromNull(dueDate)
	r.Priority = fromNull(priority)
	r.Status = fromNull(status)
	r.Notes = fromNull(notes)
	r.CreatedAt = fromNull(createdAt)
	r.UpdatedAt = fromNull(updatedAt)
	r.CompletedAt = fromNull(completedAt)
	return r, nil
}

func classify(op string, err error) error {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) || errors.Is(err, sql.ErrConnDone) {
		return remoteErr(op, RemoteUnavailable, err)
	}
	return remoteErr(op, RemoteOperationFailed, err)
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullable(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
