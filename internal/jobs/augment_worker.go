package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/inkwell-labs/postmind/internal/ai"
	"github.com/inkwell-labs/postmind/internal/domain"
	"github.com/inkwell-labs/postmind/internal/telemetry"
)

const (
	// MaxJobRetries is the maximum number of attempts for a failed job
	MaxJobRetries = 3
	// DefaultRetryDelay is the fixed delay before a failed job runs again
	DefaultRetryDelay = 60 * time.Second
	// batchSize bounds how many due jobs one poll picks up
	batchSize = 20
	// excerptLimit is the fallback body excerpt length for tag/category input
	excerptLimit = 2000
)

// Terminal job conditions: retrying cannot help, so the job fails
// without rescheduling.
var (
	errNoContent = errors.New("post has no text content")
	errNoTags    = errors.New("no tags generated")
)

// AIJobRepository defines the interface for job queue persistence
type AIJobRepository interface {
	GetDue(ctx context.Context, limit int) ([]*domain.AIJob, error)
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID string, errMsg string) error
	Reschedule(ctx context.Context, jobID string, errMsg string, runAfter time.Time) error
}

// PostRepository defines the storage operations the jobs consume
type PostRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	HasTags(ctx context.Context, postID string) (bool, error)
	AttachTags(ctx context.Context, postID string, names []string) error
	ListActiveCategories(ctx context.Context) ([]domain.Category, error)
	AttachCategory(ctx context.Context, postID, categoryID string) error
	PrepareRAG(ctx context.Context, postID string, build func(post *domain.Post) ([]string, [][]float32, error)) (bool, error)
}

// Assistant defines the AI capabilities the jobs invoke
type Assistant interface {
	GenerateTags(ctx context.Context, title, content string, maxTags int) []string
	SuggestCategory(ctx context.Context, title, content string, categories []domain.Category) *domain.Category
}

// Embedder defines the interface for chunk embedding generation
type Embedder interface {
	Embed(ctx context.Context, chunks []string) [][]float32
}

// AugmentWorker processes the three augmentation job kinds: tag
// generation, category suggestion, and RAG preparation. Every job is
// idempotent (a no-op when its target artifact already exists) and
// retried up to MaxJobRetries with a fixed delay. Exhausted retries
// leave the post untouched and surface only through logging.
type AugmentWorker struct {
	jobs       AIJobRepository
	posts      PostRepository
	assistant  Assistant
	embedder   Embedder
	chunkCfg   ai.ChunkConfig
	retryDelay time.Duration
}

// NewAugmentWorker creates a new AugmentWorker instance
func NewAugmentWorker(jobs AIJobRepository, posts PostRepository, assistant Assistant, embedder Embedder) *AugmentWorker {
	return &AugmentWorker{
		jobs:       jobs,
		posts:      posts,
		assistant:  assistant,
		embedder:   embedder,
		chunkCfg:   ai.DefaultChunkConfig(),
		retryDelay: DefaultRetryDelay,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *AugmentWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.jobs.GetDue(ctx, batchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch due jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("processing %d due augment jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *AugmentWorker) processJob(ctx context.Context, job *domain.AIJob) error {
	ctx, span := telemetry.StartSpan(ctx, "jobs.augment."+string(job.Kind), telemetry.SpanAttributes{
		PostID:    job.PostID,
		JobID:     job.ID,
		Operation: string(job.Kind),
	})
	defer span.End()

	log.Printf("processing job %s (%s) for post %s", job.ID, job.Kind, job.PostID)

	var err error
	switch job.Kind {
	case domain.AIJobKindTags:
		err = w.runTagsJob(ctx, job)
	case domain.AIJobKindCategory:
		err = w.runCategoryJob(ctx, job)
	case domain.AIJobKindRAG:
		err = w.runRAGJob(ctx, job)
	default:
		err = fmt.Errorf("job %s has unknown kind %q", job.ID, job.Kind)
	}

	if err != nil {
		span.SetError(err)
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.jobs.MarkCompleted(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}

	log.Printf("job %s completed successfully", job.ID)
	return nil
}

// runTagsJob derives tags from the post's summary (or a body excerpt)
// and attaches them. Skips when tags already exist or the flag is set.
func (w *AugmentWorker) runTagsJob(ctx context.Context, job *domain.AIJob) error {
	post, err := w.posts.GetByID(ctx, job.PostID)
	if err != nil {
		return err
	}

	if post.AITagsGenerated {
		log.Printf("post %s already has generated tags", post.ID)
		return nil
	}
	hasTags, err := w.posts.HasTags(ctx, post.ID)
	if err != nil {
		return err
	}
	if hasTags {
		log.Printf("post %s already has tags", post.ID)
		return nil
	}

	content := tagInput(post)
	if content == "" {
		return errNoContent
	}

	tags := w.assistant.GenerateTags(ctx, post.Title, content, domain.MaxTagsPerPost)
	if len(tags) == 0 {
		return errNoTags
	}

	if err := w.posts.AttachTags(ctx, post.ID, tags); err != nil {
		return fmt.Errorf("failed to attach tags: %w", err)
	}

	log.Printf("generated tags for post %q: %v", post.Title, tags)
	return nil
}

// runCategoryJob suggests and attaches a category. A no-op when no
// active categories exist or the model's suggestion matches none.
func (w *AugmentWorker) runCategoryJob(ctx context.Context, job *domain.AIJob) error {
	post, err := w.posts.GetByID(ctx, job.PostID)
	if err != nil {
		return err
	}

	if post.AICategoryGenerated {
		log.Printf("post %s already has a generated category", post.ID)
		return nil
	}

	categories, err := w.posts.ListActiveCategories(ctx)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		log.Printf("no active categories available for post %s", post.ID)
		return nil
	}

	content := tagInput(post)
	if content == "" {
		return errNoContent
	}

	category := w.assistant.SuggestCategory(ctx, post.Title, content, categories)
	if category == nil {
		log.Printf("no category suggestion matched for post %s", post.ID)
		return nil
	}

	if err := w.posts.AttachCategory(ctx, post.ID, category.ID); err != nil {
		return fmt.Errorf("failed to attach category: %w", err)
	}

	log.Printf("suggested category for post %q: %s", post.Title, category.Name)
	return nil
}

// runRAGJob chunks and embeds the post body under the per-post lock.
// Chunking or embedding failures raise for retry; an already-prepared
// post is a silent no-op.
func (w *AugmentWorker) runRAGJob(ctx context.Context, job *domain.AIJob) error {
	changed, err := w.posts.PrepareRAG(ctx, job.PostID, func(post *domain.Post) ([]string, [][]float32, error) {
		clean := strings.TrimSpace(ai.StripTags(post.Body))
		if clean == "" {
			return nil, nil, errNoContent
		}

		chunks, err := ai.Chunk(post.Body, w.chunkCfg)
		if err != nil {
			return nil, nil, err
		}
		if len(chunks) == 0 {
			return nil, nil, errors.New("no chunks generated from content")
		}

		embeddings := w.embedder.Embed(ctx, chunks)
		if embeddings == nil {
			return nil, nil, errors.New("failed to generate embeddings")
		}

		return chunks, embeddings, nil
	})
	if err != nil {
		return err
	}

	if changed {
		log.Printf("prepared RAG data for post %s", job.PostID)
	} else {
		log.Printf("post %s already has embeddings", job.PostID)
	}
	return nil
}

// handleJobFailure reschedules a retryable failure or fails the job
// terminally once retries are exhausted.
func (w *AugmentWorker) handleJobFailure(ctx context.Context, job *domain.AIJob, jobErr error) error {
	log.Printf("job %s failed: %v", job.ID, jobErr)

	if errors.Is(jobErr, errNoContent) || errors.Is(jobErr, errNoTags) || errors.Is(jobErr, domain.ErrPostNotFound) {
		if err := w.jobs.MarkFailed(ctx, job.ID, jobErr.Error()); err != nil {
			return fmt.Errorf("failed to mark job failed: %w", err)
		}
		return nil
	}

	if job.Retries+1 >= MaxJobRetries {
		log.Printf("job %s exceeded max retries (%d), marking as failed", job.ID, MaxJobRetries)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.jobs.MarkFailed(ctx, job.ID, errMsg); err != nil {
			return fmt.Errorf("failed to mark job failed: %w", err)
		}
		return nil
	}

	log.Printf("job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxJobRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.jobs.Reschedule(ctx, job.ID, errMsg, time.Now().UTC().Add(w.retryDelay)); err != nil {
		return fmt.Errorf("failed to reschedule job: %w", err)
	}

	return nil
}

// tagInput prefers the concise AI summary over the full body as model
// input for tag and category generation.
func tagInput(post *domain.Post) string {
	if strings.TrimSpace(post.Summary) != "" {
		return post.Summary
	}
	return ai.CleanExcerpt(post.Body, excerptLimit)
}
