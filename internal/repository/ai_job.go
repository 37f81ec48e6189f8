package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-labs/postmind/internal/domain"
)

// AIJobRepository persists the background augmentation job queue.
type AIJobRepository struct {
	pool *pgxpool.Pool
}

func NewAIJobRepository(pool *pgxpool.Pool) *AIJobRepository {
	return &AIJobRepository{pool: pool}
}

// Enqueue inserts a pending job for (post, kind) unless one is already
// waiting, making lifecycle triggers idempotent under concurrency.
func (r *AIJobRepository) Enqueue(ctx context.Context, postID string, kind domain.AIJobKind) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO ai_jobs (id, post_id, kind, status, retries, error, run_after, created_at)
		 SELECT $1, $2, $3, $4, 0, '', $5, $5
		 WHERE NOT EXISTS (
			SELECT 1 FROM ai_jobs WHERE post_id = $2 AND kind = $3 AND status = $4
		 )`,
		uuid.NewString(), postID, kind, domain.AIJobStatusPending, now,
	)
	return err
}

// GetDue returns pending jobs whose retry delay has elapsed, oldest first.
func (r *AIJobRepository) GetDue(ctx context.Context, limit int) ([]*domain.AIJob, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, post_id, kind, status, retries, error, run_after, created_at, processed_at
		 FROM ai_jobs
		 WHERE status = $1 AND run_after <= $2
		 ORDER BY created_at ASC
		 LIMIT $3`,
		domain.AIJobStatusPending, time.Now().UTC(), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.AIJob
	for rows.Next() {
		var job domain.AIJob
		var errMsg pgtype.Text
		if err := rows.Scan(&job.ID, &job.PostID, &job.Kind, &job.Status, &job.Retries,
			&errMsg, &job.RunAfter, &job.CreatedAt, &job.ProcessedAt); err != nil {
			return nil, err
		}
		if errMsg.Valid {
			job.Error = errMsg.String
		}
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}

// MarkCompleted finishes a job successfully.
func (r *AIJobRepository) MarkCompleted(ctx context.Context, jobID string) error {
	return r.setStatus(ctx, jobID, domain.AIJobStatusCompleted, "")
}

// MarkFailed finishes a job terminally with an error message.
func (r *AIJobRepository) MarkFailed(ctx context.Context, jobID string, errMsg string) error {
	return r.setStatus(ctx, jobID, domain.AIJobStatusFailed, errMsg)
}

// Reschedule re-queues a failed attempt to run again after runAfter.
func (r *AIJobRepository) Reschedule(ctx context.Context, jobID string, errMsg string, runAfter time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE ai_jobs SET status = $1, retries = retries + 1, error = $2, run_after = $3 WHERE id = $4`,
		domain.AIJobStatusPending, errMsg, runAfter, jobID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAIJobNotFound
	}
	return nil
}

func (r *AIJobRepository) setStatus(ctx context.Context, jobID string, status domain.AIJobStatus, errMsg string) error {
	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx,
		`UPDATE ai_jobs SET status = $1, error = $2, processed_at = $3 WHERE id = $4`,
		status, errMsg, now, jobID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAIJobNotFound
	}
	return nil
}

// GetByID fetches one job.
func (r *AIJobRepository) GetByID(ctx context.Context, id string) (*domain.AIJob, error) {
	var job domain.AIJob
	var errMsg pgtype.Text
	err := r.pool.QueryRow(ctx,
		`SELECT id, post_id, kind, status, retries, error, run_after, created_at, processed_at
		 FROM ai_jobs WHERE id = $1`,
		id,
	).Scan(&job.ID, &job.PostID, &job.Kind, &job.Status, &job.Retries,
		&errMsg, &job.RunAfter, &job.CreatedAt, &job.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAIJobNotFound
		}
		return nil, err
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	return &job, nil
}
