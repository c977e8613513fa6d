// Package persistence provides an append-only SQLite audit log of computed
// inference snapshots.
//
// The audit log is write-only observability for operators: the inference
// path never reads it, so migration state remains derived exclusively from
// live GitHub signals.
package persistence

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // database/sql driver

	"hachiko/pkg/logx"
)

const schema = `
CREATE TABLE IF NOT EXISTS inference_audit (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at  TEXT NOT NULL,
	migration_id TEXT NOT NULL,
	status       TEXT NOT NULL,
	current_step INTEGER NOT NULL,
	open_prs     INTEGER NOT NULL,
	closed_prs   INTEGER NOT NULL,
	total_tasks  INTEGER NOT NULL,
	done_tasks   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_inference_audit_migration
	ON inference_audit(migration_id, recorded_at);
`

// Snapshot is one audited inference result.
//
//nolint:govet // Logical grouping preferred over memory optimization
type Snapshot struct {
	RecordedAt     time.Time
	MigrationID    string
	Status         string
	CurrentStep    int
	OpenPRs        int
	ClosedPRs      int
	TotalTasks     int
	CompletedTasks int
}

// AuditLog is an append-only store of inference snapshots.
type AuditLog struct {
	db     *sql.DB
	logger *logx.Logger
}

// Open opens (creating if needed) the audit database at the given path.
func Open(dbPath string) (*AuditLog, error) {
	// WAL mode with a busy timeout; SQLite supports a single writer.
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_journal_mode=WAL&_busy_timeout=5000",
		dbPath,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	logger := logx.NewLogger("persistence")
	logger.Debug("Audit database opened: %s", dbPath)

	return &AuditLog{db: db, logger: logger}, nil
}

// Record appends one snapshot. Failures are the caller's to ignore; audit
// writes must never block or fail inference.
func (a *AuditLog) Record(snapshot Snapshot) error {
	_, err := a.db.Exec(`
		INSERT INTO inference_audit
			(recorded_at, migration_id, status, current_step, open_prs, closed_prs, total_tasks, done_tasks)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshot.RecordedAt.UTC().Format(time.RFC3339),
		snapshot.MigrationID,
		snapshot.Status,
		snapshot.CurrentStep,
		snapshot.OpenPRs,
		snapshot.ClosedPRs,
		snapshot.TotalTasks,
		snapshot.CompletedTasks,
	)
	if err != nil {
		return fmt.Errorf("failed to record snapshot for %s: %w", snapshot.MigrationID, err)
	}
	return nil
}

// History returns recent snapshots for a migration, newest first. Operator
// tooling only; the inference path never calls this.
func (a *AuditLog) History(migrationID string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := a.db.Query(`
		SELECT recorded_at, migration_id, status, current_step, open_prs, closed_prs, total_tasks, done_tasks
		FROM inference_audit
		WHERE migration_id = ?
		ORDER BY id DESC
		LIMIT ?`,
		migrationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for %s: %w", migrationID, err)
	}
	defer func() { _ = rows.Close() }()

	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		var recordedAt string
		if err := rows.Scan(&recordedAt, &s.MigrationID, &s.Status, &s.CurrentStep,
			&s.OpenPRs, &s.ClosedPRs, &s.TotalTasks, &s.CompletedTasks); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if parsed, parseErr := time.Parse(time.RFC3339, recordedAt); parseErr == nil {
			s.RecordedAt = parsed
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}

	return snapshots, nil
}

// Close releases the database handle.
func (a *AuditLog) Close() error {
	return a.db.Close()
}
