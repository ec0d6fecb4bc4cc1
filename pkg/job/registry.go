package job

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ridewave/triad/internal/logger"
	"github.com/ridewave/triad/internal/resilience"
	"github.com/ridewave/triad/internal/xerrors"
)

// Registry is the Job Registry contract from spec.md §4.2.
type Registry interface {
	Enqueue(ctx context.Context, snapshotID string) (*Job, error)
	Advance(ctx context.Context, jobID string, expected, to Phase) error
	Complete(ctx context.Context, jobID string, expectedStatus Status, outcome Outcome) error
	Read(ctx context.Context, jobID string) (*Job, error)
	ReadBySnapshot(ctx context.Context, snapshotID string) (*Job, error)
}

// PostgresRegistry implements Registry with a single-writer upsert and
// compare-and-swap updates guarded by a `WHERE status = $expected`
// predicate, matching spec.md §4.2's single-writer rule.
type PostgresRegistry struct {
	pool          *pgxpool.Pool
	logger        logger.Logger
	retryCooldown time.Duration
	retry         *resilience.RetryConfig
}

// NewPostgresRegistry constructs a registry. cooldown is the minimum age
// a terminal job must have before a duplicate enqueue starts a new
// attempt (spec.md §3, §9 Open Question c; default 30s).
func NewPostgresRegistry(pool *pgxpool.Pool, cooldown time.Duration, log logger.Logger) *PostgresRegistry {
	if log == nil {
		log = logger.NoOp{}
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &PostgresRegistry{pool: pool, logger: log, retryCooldown: cooldown, retry: resilience.DefaultRetryConfig()}
}

// Schema is the DDL for the jobs table.
const Schema = `
CREATE TABLE IF NOT EXISTS jobs (
	job_id         UUID PRIMARY KEY,
	snapshot_id    UUID NOT NULL UNIQUE,
	status         TEXT NOT NULL,
	attempt        INT NOT NULL DEFAULT 1,
	correlation_id UUID NOT NULL,
	phase          TEXT NOT NULL DEFAULT 'idle',
	error_code     TEXT,
	error_message  TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Enqueue is a single round-trip idempotent upsert: a fresh snapshot_id
// creates a new row; a duplicate on a terminal, cooled-down job bumps the
// attempt counter and resets to pending; a duplicate on an active (or not
// yet cooled) job is a no-op that returns the existing row unchanged
// (spec.md §3, §8 "Idempotent enqueue").
func (r *PostgresRegistry) Enqueue(ctx context.Context, snapshotID string) (*Job, error) {
	jobID := uuid.NewString()
	correlationID := uuid.NewString()

	var j Job
	err := resilience.Retry(ctx, r.retry, func() error {
		row := r.pool.QueryRow(ctx, `
			INSERT INTO jobs (job_id, snapshot_id, status, attempt, correlation_id, phase)
			VALUES ($1, $2, 'pending', 1, $3, 'idle')
			ON CONFLICT (snapshot_id) DO UPDATE SET
				attempt        = CASE
					WHEN jobs.status IN ('succeeded','failed','cancelled')
					     AND jobs.updated_at < now() - ($4 || ' seconds')::interval
					THEN jobs.attempt + 1
					ELSE jobs.attempt
				END,
				status = CASE
					WHEN jobs.status IN ('succeeded','failed','cancelled')
					     AND jobs.updated_at < now() - ($4 || ' seconds')::interval
					THEN 'pending'
					ELSE jobs.status
				END,
				phase = CASE
					WHEN jobs.status IN ('succeeded','failed','cancelled')
					     AND jobs.updated_at < now() - ($4 || ' seconds')::interval
					THEN 'idle'
					ELSE jobs.phase
				END,
				updated_at = CASE
					WHEN jobs.status IN ('succeeded','failed','cancelled')
					     AND jobs.updated_at < now() - ($4 || ' seconds')::interval
					THEN now()
					ELSE jobs.updated_at
				END
			RETURNING job_id, snapshot_id, status, attempt, correlation_id, phase, error_code, error_message, created_at, updated_at
		`, jobID, snapshotID, correlationID, int(r.retryCooldown.Seconds()))

		return scanJob(row, &j)
	})
	if err != nil {
		return nil, xerrors.Wrap(xerrors.StorageUnavailable, "registry.enqueue", "upsert job", err)
	}
	return &j, nil
}

// Advance moves a Job forward one phase, guarded by the expected current
// phase so only the owning Orchestrator instance can make progress
// (spec.md §4.2 "Terminal transitions are single-writer").
func (r *PostgresRegistry) Advance(ctx context.Context, jobID string, expected, to Phase) error {
	if !CanAdvance(expected, to) {
		return xerrors.New(xerrors.InvalidInput, "registry.advance", "illegal phase transition")
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE jobs SET phase = $1, status = 'in_progress', updated_at = now()
		WHERE job_id = $2 AND phase = $3`, string(to), jobID, string(expected))
	if err != nil {
		return xerrors.Wrap(xerrors.StorageUnavailable, "registry.advance", "update phase", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.New(xerrors.InvalidInput, "registry.advance", "phase precondition not met; lost the single-writer race")
	}
	return nil
}

// Complete transitions a Job to a terminal status, guarded by the
// expected current status.
func (r *PostgresRegistry) Complete(ctx context.Context, jobID string, expectedStatus Status, outcome Outcome) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE jobs SET status = $1, phase = 'done', error_code = $2, error_message = $3, updated_at = now()
		WHERE job_id = $4 AND status = $5`,
		string(outcome.Status), outcome.ErrorCode, outcome.ErrorMessage, jobID, string(expectedStatus))
	if err != nil {
		return xerrors.Wrap(xerrors.StorageUnavailable, "registry.complete", "update status", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.New(xerrors.InvalidInput, "registry.complete", "status precondition not met; lost the single-writer race")
	}
	return nil
}

// Read fetches a Job by its own ID.
func (r *PostgresRegistry) Read(ctx context.Context, jobID string) (*Job, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT job_id, snapshot_id, status, attempt, correlation_id, phase, error_code, error_message, created_at, updated_at
		FROM jobs WHERE job_id = $1`, jobID)
	var j Job
	if err := scanJob(row, &j); err != nil {
		return nil, xerrors.Wrap(xerrors.StorageUnavailable, "registry.read", "job not found", err)
	}
	return &j, nil
}

// ReadBySnapshot fetches the (unique) Job for a Snapshot.
func (r *PostgresRegistry) ReadBySnapshot(ctx context.Context, snapshotID string) (*Job, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT job_id, snapshot_id, status, attempt, correlation_id, phase, error_code, error_message, created_at, updated_at
		FROM jobs WHERE snapshot_id = $1`, snapshotID)
	var j Job
	if err := scanJob(row, &j); err != nil {
		return nil, xerrors.Wrap(xerrors.StorageUnavailable, "registry.read_by_snapshot", "job not found", err)
	}
	return &j, nil
}

func scanJob(row pgx.Row, j *Job) error {
	var errCode, errMsg *string
	if err := row.Scan(
		&j.JobID, &j.SnapshotID, &j.Status, &j.Attempt, &j.CorrelationID, &j.Phase,
		&errCode, &errMsg, &j.CreatedAt, &j.UpdatedAt,
	); err != nil {
		return err
	}
	if errCode != nil {
		j.ErrorCode = *errCode
	}
	if errMsg != nil {
		j.ErrorMessage = *errMsg
	}
	return nil
}
