package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/example/docmd/internal/model"
)

// SQLite keeps job records in a local database so completed work survives a
// restart. Update runs read-validate-write inside one transaction, which
// gives the same per-record atomicity the memory store gets from its lock.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Serialized access keeps concurrent runners from tripping SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  artifact_ref TEXT NOT NULL,
  status TEXT NOT NULL,
  progress INTEGER NOT NULL DEFAULT 0,
  result_json TEXT,
  error_kind TEXT,
  error_message TEXT,
  created_at INTEGER NOT NULL,
  started_at INTEGER,
  ended_at INTEGER
);
`); err != nil {
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Create(ctx context.Context, artifactRef string) (model.Job, error) {
	job := model.Job{
		ID:          uuid.NewString(),
		ArtifactRef: artifactRef,
		Status:      model.JobPending,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, artifact_ref, status, progress, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		job.ID,
		job.ArtifactRef,
		string(job.Status),
		job.Progress,
		job.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return model.Job{}, err
	}
	return job, nil
}

func (s *SQLite) Get(ctx context.Context, id string) (model.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, artifact_ref, status, progress, result_json, error_kind, error_message,
            created_at, started_at, ended_at
       FROM jobs WHERE id = ?`, id,
	)
	return scanJob(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (model.Job, error) {
	var (
		jid, artifactRef, statusStr string
		progress                    int
		resultJSON, errKind, errMsg sql.NullString
		createdMs                   int64
		startedMs, endedMs          sql.NullInt64
	)
	if err := row.Scan(&jid, &artifactRef, &statusStr, &progress,
		&resultJSON, &errKind, &errMsg, &createdMs, &startedMs, &endedMs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Job{}, model.ErrNotFound
		}
		return model.Job{}, err
	}
	job := model.Job{
		ID:          jid,
		ArtifactRef: artifactRef,
		Status:      model.JobStatus(statusStr),
		Progress:    progress,
		CreatedAt:   time.UnixMilli(createdMs).UTC(),
	}
	if resultJSON.Valid && resultJSON.String != "" {
		var r model.Result
		if err := json.Unmarshal([]byte(resultJSON.String), &r); err != nil {
			return model.Job{}, fmt.Errorf("decode result for job %s: %w", jid, err)
		}
		job.Result = &r
	}
	if errKind.Valid {
		job.Error = &model.JobError{
			Kind:    model.ErrorKind(errKind.String),
			Message: errMsg.String,
		}
	}
	if startedMs.Valid {
		t := time.UnixMilli(startedMs.Int64).UTC()
		job.StartedAt = &t
	}
	if endedMs.Valid {
		t := time.UnixMilli(endedMs.Int64).UTC()
		job.EndedAt = &t
	}
	return job, nil
}

func (s *SQLite) Update(ctx context.Context, id string, patch model.JobPatch) (model.Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Job{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, artifact_ref, status, progress, result_json, error_kind, error_message,
            created_at, started_at, ended_at
       FROM jobs WHERE id = ?`, id,
	)
	cur, err := scanJob(row)
	if err != nil {
		return model.Job{}, err
	}
	if err := checkTransition(cur, patch); err != nil {
		return model.Job{}, err
	}
	next := applyPatch(cur, patch)

	var resultJSON any
	if next.Result != nil {
		raw, err := json.Marshal(next.Result)
		if err != nil {
			return model.Job{}, err
		}
		resultJSON = string(raw)
	}
	var errKind, errMsg any
	if next.Error != nil {
		errKind = string(next.Error.Kind)
		errMsg = next.Error.Message
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE jobs
         SET status = ?, progress = ?, result_json = ?, error_kind = ?, error_message = ?,
             started_at = ?, ended_at = ?
         WHERE id = ?`,
		string(next.Status),
		next.Progress,
		resultJSON,
		errKind,
		errMsg,
		nullableMilli(next.StartedAt),
		nullableMilli(next.EndedAt),
		id,
	); err != nil {
		return model.Job{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Job{}, err
	}
	return next, nil
}

func (s *SQLite) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM jobs ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLite) Evict(ctx context.Context, endedBefore time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM jobs WHERE status IN (?, ?) AND ended_at IS NOT NULL AND ended_at < ?`,
		string(model.JobCompleted),
		string(model.JobFailed),
		endedBefore.UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func nullableMilli(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}
