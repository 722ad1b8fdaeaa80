package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bibliophage/internal/domain"
)

// JobRepo is the SQLite ingestion job ledger.
// It implements the JobStore interface.
type JobRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewJobRepo creates a new JobRepo.
func NewJobRepo(db *sql.DB) *JobRepo {
	return &JobRepo{db: db, now: time.Now}
}

// Create inserts a job in RECEIVED state.
func (r *JobRepo) Create(ctx context.Context, job domain.IngestJob) (domain.IngestJob, error) {
	if job.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.IngestJob{}, fmt.Errorf("failed to generate id: %w", err)
		}
		job.ID = id.String()
	}
	now := fromNanos(toNanos(r.now()))
	job.State = domain.JobReceived
	job.CreatedAt, job.UpdatedAt = now, now
	job.History = []domain.JobTransition{{State: domain.JobReceived, At: now}}

	err := withRetry(ctx, func(ctx context.Context) error {
		return inTx(ctx, r.db, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO ingest_jobs (id, pdf_id, origin_path, state, error, chunk_count, created_at, updated_at)
				 VALUES (?, ?, ?, ?, '', 0, ?, ?)`,
				job.ID, job.PdfID, job.OriginPath, string(job.State), toNanos(now), toNanos(now),
			); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO ingest_job_events (job_id, seq, state, at) VALUES (?, 0, ?, ?)`,
				job.ID, string(job.State), toNanos(now))
			return err
		})
	})
	if err != nil {
		return domain.IngestJob{}, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

// Get returns a job with its transition history.
func (r *JobRepo) Get(ctx context.Context, id string) (domain.IngestJob, error) {
	var job domain.IngestJob
	err := withRetry(ctx, func(ctx context.Context) error {
		var err error
		job, err = loadJob(ctx, r.db, id)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return domain.IngestJob{}, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.IngestJob{}, fmt.Errorf("failed to query job: %w", err)
	}
	return job, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadJob(ctx context.Context, q querier, id string) (domain.IngestJob, error) {
	var job domain.IngestJob
	var state string
	var created, updated int64
	err := q.QueryRowContext(ctx,
		`SELECT id, pdf_id, origin_path, state, error, chunk_count, created_at, updated_at FROM ingest_jobs WHERE id = ?`, id,
	).Scan(&job.ID, &job.PdfID, &job.OriginPath, &state, &job.Error, &job.ChunkCount, &created, &updated)
	if err != nil {
		return domain.IngestJob{}, err
	}
	job.State = domain.JobState(state)
	job.CreatedAt = fromNanos(created)
	job.UpdatedAt = fromNanos(updated)

	rows, err := q.QueryContext(ctx, `SELECT state, at FROM ingest_job_events WHERE job_id = ? ORDER BY seq`, id)
	if err != nil {
		return domain.IngestJob{}, err
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		var st string
		var at int64
		if err := rows.Scan(&st, &at); err != nil {
			return domain.IngestJob{}, err
		}
		job.History = append(job.History, domain.JobTransition{State: domain.JobState(st), At: fromNanos(at)})
	}
	return job, rows.Err()
}

// Transition moves a job to state and appends a history event.
func (r *JobRepo) Transition(ctx context.Context, id string, state domain.JobState, errMsg string, chunkCount int) (domain.IngestJob, error) {
	var job domain.IngestJob
	err := withRetry(ctx, func(ctx context.Context) error {
		return inTx(ctx, r.db, func(tx *sql.Tx) error {
			current, err := loadJob(ctx, tx, id)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
			}
			if err != nil {
				return err
			}
			if err := current.State.ValidateTransition(state); err != nil {
				return err
			}
			return r.applyTransition(ctx, tx, current, state, errMsg, chunkCount, &job)
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInconsistent) {
			return domain.IngestJob{}, err
		}
		return domain.IngestJob{}, fmt.Errorf("failed to transition job: %w", err)
	}
	return job, nil
}

func (r *JobRepo) applyTransition(ctx context.Context, tx *sql.Tx, current domain.IngestJob, state domain.JobState, errMsg string, chunkCount int, out *domain.IngestJob) error {
	if chunkCount == 0 {
		chunkCount = current.ChunkCount
	}
	var updated int64
	if err := tx.QueryRowContext(ctx,
		`UPDATE ingest_jobs SET state = ?, error = ?, chunk_count = ?, updated_at = `+nextUpdate+`
		 WHERE id = ? RETURNING updated_at`,
		string(state), errMsg, chunkCount, toNanos(r.now()), current.ID,
	).Scan(&updated); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ingest_job_events (job_id, seq, state, at) VALUES (?, ?, ?, ?)`,
		current.ID, len(current.History), string(state), updated,
	); err != nil {
		return err
	}

	current.State = state
	current.Error = errMsg
	current.ChunkCount = chunkCount
	current.UpdatedAt = fromNanos(updated)
	current.History = append(current.History, domain.JobTransition{State: state, At: current.UpdatedAt})
	*out = current
	return nil
}

// FailActiveForPdf marks every non-terminal job of pdfID as FAILED.
func (r *JobRepo) FailActiveForPdf(ctx context.Context, pdfID, errMsg string) (int64, error) {
	var failed int64
	err := withRetry(ctx, func(ctx context.Context) error {
		failed = 0
		return inTx(ctx, r.db, func(tx *sql.Tx) error {
			rows, err := tx.QueryContext(ctx,
				`SELECT id FROM ingest_jobs WHERE pdf_id = ? AND state NOT IN (?, ?) ORDER BY id`,
				pdfID, string(domain.JobPersisted), string(domain.JobFailed))
			if err != nil {
				return err
			}
			var ids []string
			for rows.Next() {
				var id string
				if err := rows.Scan(&id); err != nil {
					_ = rows.Close()
					return err
				}
				ids = append(ids, id)
			}
			if err := rows.Close(); err != nil {
				return err
			}

			for _, id := range ids {
				current, err := loadJob(ctx, tx, id)
				if err != nil {
					return err
				}
				var job domain.IngestJob
				if err := r.applyTransition(ctx, tx, current, domain.JobFailed, errMsg, 0, &job); err != nil {
					return err
				}
				failed++
			}
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("failed to fail jobs of pdf %s: %w", pdfID, err)
	}
	return failed, nil
}
