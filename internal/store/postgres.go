package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"smarttodo/internal/models"
)

// Timestamps and dates are kept as text so rows read back byte-for-byte the
// way they were written, matching the local task file.
const pgSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	due_date TEXT,
	priority TEXT NOT NULL DEFAULT 'Normal' CHECK (priority IN ('Low', 'Normal', 'High')),
	status TEXT NOT NULL DEFAULT 'Pending',
	notes TEXT,
	created_at TEXT,
	updated_at TEXT,
	completed_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
`

// PostgresConfig holds connection settings for a hosted Postgres task table.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	HealthCheck     time.Duration
}

// DefaultPostgresConfig returns pool settings sized for a single interactive
// user.
func DefaultPostgresConfig(dsn string) *PostgresConfig {
	return &PostgresConfig{
		DSN:             dsn,
		MaxConns:        4,
		MinConns:        0,
		MaxConnLifetime: 1 * time.Hour,
		MaxConnIdleTime: 5 * time.Minute,
		HealthCheck:     1 * time.Minute,
	}
}

// PostgresRemote implements Remote on a Postgres "tasks" table.
type PostgresRemote struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresRemote connects to the database and makes sure the tasks table
// exists.
func NewPostgresRemote(ctx context.Context, cfg *PostgresConfig) (*PostgresRemote, error) {
	if cfg == nil || cfg.DSN == "" {
		return nil, remoteErr("open", RemoteUnavailable, errors.New("postgres dsn is required"))
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, remoteErr("open", RemoteUnavailable, fmt.Errorf("failed to parse connection string: %w", err))
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.HealthCheck

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, remoteErr("open", RemoteUnavailable, fmt.Errorf("failed to create connection pool: %w", err))
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, remoteErr("open", RemoteUnavailable, fmt.Errorf("failed to ping database: %w", err))
	}

	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, remoteErr("open", RemoteOperationFailed, fmt.Errorf("failed to initialize schema: %w", err))
	}

	return &PostgresRemote{pool: pool, now: time.Now}, nil
}

// Close releases the connection pool.
func (p *PostgresRemote) Close() error {
	p.pool.Close()
	return nil
}

// Insert creates a row and returns it with its server-issued id.
func (p *PostgresRemote) Insert(ctx context.Context, row models.Row) (models.Row, error) {
	now := models.FormatTimestamp(p.now())
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

	out, err := pgScanRow(p.pool.QueryRow(ctx, `
		INSERT INTO tasks (title, due_date, priority, status, notes, created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+rowColumns,
		row.Title, nullable(row.DueDate), priority, status, nullable(row.Notes),
		nullable(row.CreatedAt), nullable(row.UpdatedAt), nullable(row.CompletedAt)))
	if err != nil {
		return models.Row{}, pgClassify("insert", fmt.Errorf("failed to create task: %w", err))
	}
	return out, nil
}

// SelectAll returns every row ordered by id.
func (p *PostgresRemote) SelectAll(ctx context.Context) ([]models.Row, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+rowColumns+` FROM tasks ORDER BY id ASC`)
	if err != nil {
		return nil, pgClassify("select", fmt.Errorf("failed to list tasks: %w", err))
	}
	defer rows.Close()

	var out []models.Row
	for rows.Next() {
		r, err := pgScanRow(rows)
		if err != nil {
			return nil, pgClassify("select", fmt.Errorf("failed to scan task: %w", err))
		}
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, pgClassify("select", err)
	}
	return out, nil
}

// UpdateStatus changes the status of a row and stamps updated_at.
func (p *PostgresRemote) UpdateStatus(ctx context.Context, id int64, status models.Status) (models.Row, error) {
	now := models.FormatTimestamp(p.now())

	out, err := pgScanRow(p.pool.QueryRow(ctx, `
		UPDATE tasks
		SET status = $1, updated_at = $2,
			completed_at = CASE WHEN $1 = 'Completed' THEN COALESCE(completed_at, $2) ELSE NULL END
		WHERE id = $3
		RETURNING `+rowColumns, string(status), now, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Row{}, remoteErr("update", RemoteNotFound, fmt.Errorf("task not found: %d", id))
		}
		return models.Row{}, pgClassify("update", fmt.Errorf("failed to update task status: %w", err))
	}
	return out, nil
}

// Delete removes a row and returns it as it was.
func (p *PostgresRemote) Delete(ctx context.Context, id int64) (models.Row, error) {
	out, err := pgScanRow(p.pool.QueryRow(ctx, `DELETE FROM tasks WHERE id = $1 RETURNING `+rowColumns, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Row{}, remoteErr("delete", RemoteNotFound, fmt.Errorf("task not found: %d", id))
		}
		return models.Row{}, pgClassify("delete", fmt.Errorf("failed to delete task: %w", err))
	}
	return out, nil
}

func pgScanRow(row pgx.Row) (models.Row, error) {
	var (
		id int64
		r  models.Row
	)
	err := row.Scan(&id, &r.Title, &r.DueDate, &r.Priority, &r.Status, &r.Notes,
		&r.CreatedAt, &r.UpdatedAt, &r.CompletedAt)
	if err != nil {
		return models.Row{}, err
	}
	r.ID = models.Int64(id)
	return r, nil
}

func pgClassify(op string, err error) error {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.Timeout(err) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return remoteErr(op, RemoteUnavailable, err)
	}
	return remoteErr(op, RemoteOperationFailed, err)
}
