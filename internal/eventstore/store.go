package eventstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/scribeworks/meetscribe/internal/config"
	_ "modernc.org/sqlite"
)

// ErrNotFound reports a job id the store has never seen.
var ErrNotFound = errors.New("job not found")

// Session is one recording session's history row.
type Session struct {
	SessionID  string
	StartedAt  time.Time
	EndedAt    time.Time
	Transcript string
	DurationMS int64
}

// Job is one processing job's history row, written once when the job
// reaches a terminal state.
type Job struct {
	JobID             string
	SessionID         string
	Status            string
	AnalysisType      string
	Transcript        string
	Analysis          string
	Error             string
	UsedBackend       bool
	SyntheticSpeakers bool
	CreatedAt         time.Time
}

// Store persists session and job history in SQLite. With retention mode
// "ephemeral" it keeps nothing and every call is a no-op, so callers
// never branch on whether persistence is enabled.
type Store struct {
	db    *sql.DB
	cfg   config.StoreConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the store according to config.
func Open(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (*Store, error) {
	if cfg.RetentionMode == "ephemeral" {
		return &Store{cfg: cfg, log: log, clock: time.Now}, nil
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if cfg.VacuumOnStart {
		if err := s.vacuum(ctx); err != nil {
			log.Warn("store vacuum failed", slog.String("error", err.Error()))
		}
	}

	if err := s.Prune(ctx); err != nil {
		log.Warn("store prune on start failed", slog.String("error", err.Error()))
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	ddl := `
CREATE TABLE IF NOT EXISTS sessions (
    session_id TEXT PRIMARY KEY,
    started_at TIMESTAMP NOT NULL,
    ended_at TIMESTAMP,
    transcript TEXT,
    duration_ms INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS jobs (
    job_id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    status TEXT NOT NULL,
    analysis_type TEXT,
    transcript TEXT,
    analysis TEXT,
    error TEXT,
    used_backend INTEGER NOT NULL DEFAULT 0,
    synthetic_speakers INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY(session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_jobs_session_created ON jobs(session_id, created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *Store) vacuum(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginSession records that a recording session started.
func (s *Store) BeginSession(ctx context.Context, sessionID string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions(session_id, started_at)
		 VALUES(?, ?)
		 ON CONFLICT(session_id) DO NOTHING`,
		sessionID, s.clock().UTC())
	return err
}

// EndSession records the session's final transcript and length.
func (s *Store) EndSession(ctx context.Context, sessionID, transcript string, duration time.Duration) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ?, transcript = ?, duration_ms = ? WHERE session_id = ?`,
		s.clock().UTC(), transcript, duration.Milliseconds(), sessionID)
	return err
}

// SaveJob upserts a job's terminal record.
func (s *Store) SaveJob(ctx context.Context, job Job) error {
	if s.db == nil {
		return nil
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = s.clock().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs(job_id, session_id, status, analysis_type, transcript, analysis, error, used_backend, synthetic_speakers, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(job_id) DO UPDATE SET
		   status=excluded.status, analysis_type=excluded.analysis_type,
		   transcript=excluded.transcript, analysis=excluded.analysis, error=excluded.error,
		   used_backend=excluded.used_backend, synthetic_speakers=excluded.synthetic_speakers`,
		job.JobID, job.SessionID, job.Status, job.AnalysisType, job.Transcript,
		job.Analysis, job.Error, boolInt(job.UsedBackend), boolInt(job.SyntheticSpeakers), job.CreatedAt)
	return err
}

// GetJob retrieves one job by id.
func (s *Store) GetJob(ctx context.Context, jobID string) (Job, error) {
	if s.db == nil {
		return Job{}, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT job_id, session_id, status, analysis_type, transcript, analysis, error, used_backend, synthetic_speakers, created_at
		 FROM jobs WHERE job_id = ?`, jobID)
	return scanJob(row)
}

// ListSessionJobs retrieves up to limit jobs for a session, oldest first.
func (s *Store) ListSessionJobs(ctx context.Context, sessionID string, limit int) ([]Job, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id, session_id, status, analysis_type, transcript, analysis, error, used_backend, synthetic_speakers, created_at
		 FROM jobs WHERE session_id = ? ORDER BY created_at ASC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var job Job
	var usedBackend, synthetic int
	var created string
	err := row.Scan(&job.JobID, &job.SessionID, &job.Status, &job.AnalysisType,
		&job.Transcript, &job.Analysis, &job.Error, &usedBackend, &synthetic, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, err
	}
	job.UsedBackend = usedBackend != 0
	job.SyntheticSpeakers = synthetic != 0
	if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
		job.CreatedAt = ts
	}
	return job, nil
}

// Prune applies the configured retention. Called on startup; callers may
// also schedule it.
func (s *Store) Prune(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if s.cfg.RetentionDays > 0 {
		cutoff := s.clock().Add(-time.Duration(s.cfg.RetentionDays) * 24 * time.Hour)
		if _, err = tx.ExecContext(ctx, `DELETE FROM jobs WHERE created_at < ?`, cutoff.UTC()); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM sessions WHERE started_at < ?`, cutoff.UTC()); err != nil {
			return err
		}
	}
	if s.cfg.MaxSessions > 0 {
		_, err = tx.ExecContext(ctx, `DELETE FROM sessions WHERE session_id IN (
			SELECT session_id FROM sessions ORDER BY started_at DESC LIMIT -1 OFFSET ?
		)`, s.cfg.MaxSessions)
		if err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
