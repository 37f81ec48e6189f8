// Package service contains the business logic between the HTTP layer
// and the repositories.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/inkwell-labs/postmind/internal/domain"
)

// PostRepository defines the post storage operations the service needs
type PostRepository interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Post, error)
}

// AIJobRepository defines the job queue operations the service needs
type AIJobRepository interface {
	Enqueue(ctx context.Context, postID string, kind domain.AIJobKind) error
}

// Answerer resolves a free-text question about a post into a reply
type Answerer interface {
	Dispatch(ctx context.Context, question string, post *domain.Post) string
}

// PostService handles post lookup, question answering, and augmentation
// job scheduling.
type PostService struct {
	posts    PostRepository
	jobs     AIJobRepository
	answerer Answerer
}

// NewPostService creates a new PostService instance
func NewPostService(posts PostRepository, jobs AIJobRepository, answerer Answerer) *PostService {
	return &PostService{
		posts:    posts,
		jobs:     jobs,
		answerer: answerer,
	}
}

// GetPublicBySlug loads a post by slug. Drafts are indistinguishable
// from missing posts to callers.
func (s *PostService) GetPublicBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !post.IsPublic() {
		return nil, domain.ErrPostNotFound
	}
	return post, nil
}

// Ask answers a single question about a public post.
func (s *PostService) Ask(ctx context.Context, slug, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", domain.ErrEmptyQuestion
	}

	post, err := s.GetPublicBySlug(ctx, slug)
	if err != nil {
		return "", err
	}

	return s.answerer.Dispatch(ctx, question, post), nil
}

// EnqueueAugmentation schedules tag, category, and RAG preparation jobs
// for a post. Jobs already pending for the post are not duplicated, and
// jobs whose artifact already exists complete as no-ops when run.
func (s *PostService) EnqueueAugmentation(ctx context.Context, slug string) ([]domain.AIJobKind, error) {
	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	kinds := []domain.AIJobKind{
		domain.AIJobKindTags,
		domain.AIJobKindCategory,
		domain.AIJobKindRAG,
	}
	for _, kind := range kinds {
		if err := s.jobs.Enqueue(ctx, post.ID, kind); err != nil {
			return nil, fmt.Errorf("failed to enqueue %s job: %w", kind, err)
		}
	}

	return kinds, nil
}
