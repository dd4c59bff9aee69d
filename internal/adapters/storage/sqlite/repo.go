package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evanschultz/jobgrid/internal/app"
	"github.com/evanschultz/jobgrid/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository represents repository data used by this package.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the database at path, creating parent directories and tables as needed.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newRepository(db)
}

// OpenInMemory opens a private in-memory database. Each call gets its own named
// database; the shared cache only spans the connections of one pool.
func OpenInMemory() (*Repository, error) {
	dsn := "file:jobgrid-" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	return newRepository(db)
}

func newRepository(db *sql.DB) (*Repository, error) {
	repo := &Repository{db: db, now: time.Now}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the requested operation.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id INTEGER PRIMARY KEY,
			job_request TEXT NOT NULL DEFAULT '',
			submitted TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			submitter TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			assigned TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL DEFAULT '',
			due_date TEXT NOT NULL DEFAULT '',
			est_value TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS column_groups (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			color TEXT NOT NULL,
			position INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS custom_columns (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			group_id TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT 'text',
			icon TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS name_overrides (
			target TEXT PRIMARY KEY,
			name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS grid_cells (
			row_index INTEGER NOT NULL,
			col_index INTEGER NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY(row_index, col_index)
		);`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

const recordColumns = `id, job_request, submitted, status, submitter, url, assigned, priority, due_date, est_value`

// ListRecords lists records in id order.
func (r *Repository) ListRecords(ctx context.Context) ([]domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM records ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetRecord returns record.
func (r *Repository) GetRecord(ctx context.Context, id int64) (domain.Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	return scanRecord(row)
}

// UpdateRecord writes every field of an existing record.
func (r *Repository) UpdateRecord(ctx context.Context, rec domain.Record) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE records
		SET job_request = ?, submitted = ?, status = ?, submitter = ?, url = ?, assigned = ?, priority = ?, due_date = ?, est_value = ?, updated_at = ?
		WHERE id = ?
	`, rec.JobRequest, rec.Submitted, string(rec.Status), rec.Submitter, rec.URL, rec.Assigned, string(rec.Priority), rec.DueDate, rec.EstValue, ts(r.now()), rec.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// ReplaceRecords swaps the whole record table in one transaction.
func (r *Repository) ReplaceRecords(ctx context.Context, records []domain.Record) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return err
	}
	stamp := ts(r.now())
	for _, rec := range records {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO records(`+recordColumns+`, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, rec.ID, rec.JobRequest, rec.Submitted, string(rec.Status), rec.Submitter, rec.URL, rec.Assigned, string(rec.Priority), rec.DueDate, rec.EstValue, stamp)
		if err != nil {
			return fmt.Errorf("insert record %d: %w", rec.ID, err)
		}
	}
	err = tx.Commit()
	return err
}

// ListGroups lists custom groups in creation order.
func (r *Repository) ListGroups(ctx context.Context) ([]domain.ColumnGroup, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color FROM column_groups ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ColumnGroup, 0)
	for rows.Next() {
		var g domain.ColumnGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.Color); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// CreateGroup creates group.
func (r *Repository) CreateGroup(ctx context.Context, g domain.ColumnGroup) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO column_groups(id, name, color, position)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM column_groups))
	`, g.ID, g.Name, g.Color)
	return err
}

// UpdateGroup updates state for the requested operation.
func (r *Repository) UpdateGroup(ctx context.Context, g domain.ColumnGroup) error {
	res, err := r.db.ExecContext(ctx, `UPDATE column_groups SET name = ?, color = ? WHERE id = ?`, g.Name, g.Color, g.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// ListCustomColumns lists custom columns in creation order.
func (r *Repository) ListCustomColumns(ctx context.Context) ([]domain.CustomColumn, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, group_id, type, icon FROM custom_columns ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.CustomColumn, 0)
	for rows.Next() {
		var (
			c       domain.CustomColumn
			typeRaw string
			iconRaw string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.GroupID, &typeRaw, &iconRaw); err != nil {
			return nil, err
		}
		c.Type = domain.ColumnType(typeRaw)
		c.Icon = domain.Icon(iconRaw)
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCustomColumn creates custom column.
func (r *Repository) CreateCustomColumn(ctx context.Context, c domain.CustomColumn) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO custom_columns(id, name, group_id, type, icon, position)
		VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM custom_columns))
	`, c.ID, c.Name, c.GroupID, string(c.Type), string(c.Icon))
	return err
}

// UpdateCustomColumn updates state for the requested operation.
func (r *Repository) UpdateCustomColumn(ctx context.Context, c domain.CustomColumn) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE custom_columns
		SET name = ?, group_id = ?, type = ?, icon = ?
		WHERE id = ?
	`, c.Name, c.GroupID, string(c.Type), string(c.Icon), c.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// ListNameOverrides returns display-name overrides keyed by target.
func (r *Repository) ListNameOverrides(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT target, name FROM name_overrides`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var target, name string
		if err := rows.Scan(&target, &name); err != nil {
			return nil, err
		}
		out[target] = name
	}
	return out, rows.Err()
}

// SetNameOverride upserts one override.
func (r *Repository) SetNameOverride(ctx context.Context, target, name string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO name_overrides(target, name) VALUES (?, ?)
		ON CONFLICT(target) DO UPDATE SET name = excluded.name
	`, target, name)
	return err
}

// ListGridCells loads every override cell.
func (r *Repository) ListGridCells(ctx context.Context) (app.GridCells, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT row_index, col_index, value FROM grid_cells`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := app.GridCells{}
	for rows.Next() {
		var (
			key   app.CellKey
			value string
		)
		if err := rows.Scan(&key.Row, &key.Col, &value); err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, rows.Err()
}

// SetGridCell upserts one cell, including empty values.
func (r *Repository) SetGridCell(ctx context.Context, key app.CellKey, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO grid_cells(row_index, col_index, value) VALUES (?, ?, ?)
		ON CONFLICT(row_index, col_index) DO UPDATE SET value = excluded.value
	`, key.Row, key.Col, value)
	return err
}

// DeleteGridCell deletes grid cell.
func (r *Repository) DeleteGridCell(ctx context.Context, key app.CellKey) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM grid_cells WHERE row_index = ? AND col_index = ?`, key.Row, key.Col)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetMeta returns meta.
func (r *Repository) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", app.ErrNotFound
	}
	return value, err
}

// SetMeta upserts meta.
func (r *Repository) SetMeta(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO meta(key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord handles scan record.
func scanRecord(s scanner) (domain.Record, error) {
	var (
		rec      domain.Record
		status   string
		priority string
	)
	if err := s.Scan(
		&rec.ID,
		&rec.JobRequest,
		&rec.Submitted,
		&status,
		&rec.Submitter,
		&rec.URL,
		&rec.Assigned,
		&priority,
		&rec.DueDate,
		&rec.EstValue,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Record{}, app.ErrNotFound
		}
		return domain.Record{}, err
	}
	rec.Status = domain.Status(status)
	rec.Priority = domain.Priority(priority)
	return rec, nil
}

// translateNoRows handles translate no rows.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
