package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/postmind/internal/domain"
)

// MockPostRepository is a mock implementation of PostRepository
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) GetBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Post), args.Error(1)
}

// MockAIJobRepository is a mock implementation of AIJobRepository
type MockAIJobRepository struct {
	mock.Mock
}

func (m *MockAIJobRepository) Enqueue(ctx context.Context, postID string, kind domain.AIJobKind) error {
	args := m.Called(ctx, postID, kind)
	return args.Error(0)
}

// MockAnswerer is a mock implementation of Answerer
type MockAnswerer struct {
	mock.Mock
}

func (m *MockAnswerer) Dispatch(ctx context.Context, question string, post *domain.Post) string {
	args := m.Called(ctx, question, post)
	return args.String(0)
}

func publicPost() *domain.Post {
	return &domain.Post{ID: "post-1", Slug: "my-post", Title: "T", Body: "body", Status: domain.PostStatusPublic}
}

// TestGetPublicBySlug tests loading a public post
func TestGetPublicBySlug(t *testing.T) {
	posts := new(MockPostRepository)
	posts.On("GetBySlug", mock.Anything, "my-post").Return(publicPost(), nil)

	svc := NewPostService(posts, new(MockAIJobRepository), new(MockAnswerer))
	post, err := svc.GetPublicBySlug(context.Background(), "my-post")

	require.NoError(t, err)
	assert.Equal(t, "post-1", post.ID)
}

// TestGetPublicBySlug_Draft tests that drafts look like missing posts
func TestGetPublicBySlug_Draft(t *testing.T) {
	draft := publicPost()
	draft.Status = domain.PostStatusDraft

	posts := new(MockPostRepository)
	posts.On("GetBySlug", mock.Anything, "my-post").Return(draft, nil)

	svc := NewPostService(posts, new(MockAIJobRepository), new(MockAnswerer))
	_, err := svc.GetPublicBySlug(context.Background(), "my-post")

	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}

// TestGetPublicBySlug_NotFound tests repository errors pass through
func TestGetPublicBySlug_NotFound(t *testing.T) {
	posts := new(MockPostRepository)
	posts.On("GetBySlug", mock.Anything, "missing").Return(nil, domain.ErrPostNotFound)

	svc := NewPostService(posts, new(MockAIJobRepository), new(MockAnswerer))
	_, err := svc.GetPublicBySlug(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}

// TestAsk tests question answering over a public post
func TestAsk(t *testing.T) {
	posts := new(MockPostRepository)
	posts.On("GetBySlug", mock.Anything, "my-post").Return(publicPost(), nil)
	answerer := new(MockAnswerer)
	answerer.On("Dispatch", mock.Anything, "what is this?", mock.Anything).Return("an answer")

	svc := NewPostService(posts, new(MockAIJobRepository), answerer)
	answer, err := svc.Ask(context.Background(), "my-post", "what is this?")

	require.NoError(t, err)
	assert.Equal(t, "an answer", answer)
	answerer.AssertExpectations(t)
}

// TestAsk_EmptyQuestion tests validation before any lookup
func TestAsk_EmptyQuestion(t *testing.T) {
	posts := new(MockPostRepository)

	svc := NewPostService(posts, new(MockAIJobRepository), new(MockAnswerer))
	_, err := svc.Ask(context.Background(), "my-post", "   ")

	assert.ErrorIs(t, err, domain.ErrEmptyQuestion)
	posts.AssertNotCalled(t, "GetBySlug", mock.Anything, mock.Anything)
}

// TestEnqueueAugmentation tests scheduling all three job kinds in order
func TestEnqueueAugmentation(t *testing.T) {
	posts := new(MockPostRepository)
	posts.On("GetBySlug", mock.Anything, "my-post").Return(publicPost(), nil)
	jobs := new(MockAIJobRepository)
	jobs.On("Enqueue", mock.Anything, "post-1", domain.AIJobKindTags).Return(nil)
	jobs.On("Enqueue", mock.Anything, "post-1", domain.AIJobKindCategory).Return(nil)
	jobs.On("Enqueue", mock.Anything, "post-1", domain.AIJobKindRAG).Return(nil)

	svc := NewPostService(posts, jobs, new(MockAnswerer))
	kinds, err := svc.EnqueueAugmentation(context.Background(), "my-post")

	require.NoError(t, err)
	assert.Equal(t, []domain.AIJobKind{domain.AIJobKindTags, domain.AIJobKindCategory, domain.AIJobKindRAG}, kinds)
	jobs.AssertExpectations(t)
}

// TestEnqueueAugmentation_EnqueueFails tests the wrapped enqueue error
func TestEnqueueAugmentation_EnqueueFails(t *testing.T) {
	posts := new(MockPostRepository)
	posts.On("GetBySlug", mock.Anything, "my-post").Return(publicPost(), nil)
	jobs := new(MockAIJobRepository)
	jobs.On("Enqueue", mock.Anything, "post-1", domain.AIJobKindTags).Return(errors.New("database error"))

	svc := NewPostService(posts, jobs, new(MockAnswerer))
	_, err := svc.EnqueueAugmentation(context.Background(), "my-post")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to enqueue tags job")
}
