// Package storage persists partition snapshots in SQLite so the server can
// serve last-known ledger data before the first remote fetch of a session.
// One row per partition; saving the same title again replaces it.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gagyebu/internal/core"

	_ "modernc.org/sqlite"
)

type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(dbPath string) (*SnapshotRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SnapshotRepository{db: db}, nil
}

func (r *SnapshotRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Save implements ledger.SnapshotStore. Last write for a title wins.
func (r *SnapshotRepository) Save(ctx context.Context, p core.Partition) error {
	headers, err := json.Marshal(p.Headers)
	if err != nil {
		return fmt.Errorf("marshal headers: %w", err)
	}
	rows, err := json.Marshal(p.Rows)
	if err != nil {
		return fmt.Errorf("marshal rows: %w", err)
	}
	details, err := json.Marshal(p.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO partitions (title, headers, rows, details, budget, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(title) DO UPDATE SET
			headers = excluded.headers,
			rows = excluded.rows,
			details = excluded.details,
			budget = excluded.budget,
			fetched_at = excluded.fetched_at`,
		p.Title, string(headers), string(rows), string(details), p.Budget, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save partition %q: %w", p.Title, err)
	}

	slog.DebugContext(ctx, "Partition snapshot saved", "partition", p.Title, "rows", len(p.Rows))
	return nil
}

// Load returns one persisted partition.
func (r *SnapshotRepository) Load(ctx context.Context, title string) (core.Partition, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT title, headers, rows, details, budget FROM partitions WHERE title = ?`, title)
	p, err := scanPartition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Partition{}, fmt.Errorf("load %q: %w", title, core.ErrNoPartition)
	}
	if err != nil {
		return core.Partition{}, fmt.Errorf("load %q: %w", title, err)
	}
	return p, nil
}

// LoadAll implements ledger.SnapshotStore.
func (r *SnapshotRepository) LoadAll(ctx context.Context) ([]core.Partition, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT title, headers, rows, details, budget FROM partitions ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("load partitions: %w", err)
	}
	defer rows.Close()

	var out []core.Partition
	for rows.Next() {
		p, err := scanPartition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan partition: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate partitions: %w", err)
	}
	return out, nil
}

// Delete removes one persisted partition. Missing titles are not an error.
func (r *SnapshotRepository) Delete(ctx context.Context, title string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM partitions WHERE title = ?`, title); err != nil {
		return fmt.Errorf("delete %q: %w", title, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPartition(s rowScanner) (core.Partition, error) {
	var (
		p                             core.Partition
		headersJSON, rowsJSON, detailsJSON string
	)
	if err := s.Scan(&p.Title, &headersJSON, &rowsJSON, &detailsJSON, &p.Budget); err != nil {
		return core.Partition{}, err
	}
	if err := json.Unmarshal([]byte(headersJSON), &p.Headers); err != nil {
		return core.Partition{}, fmt.Errorf("headers json: %w", err)
	}
	if err := json.Unmarshal([]byte(rowsJSON), &p.Rows); err != nil {
		return core.Partition{}, fmt.Errorf("rows json: %w", err)
	}
	if err := json.Unmarshal([]byte(detailsJSON), &p.Details); err != nil {
		return core.Partition{}, fmt.Errorf("details json: %w", err)
	}
	return p, nil
}
