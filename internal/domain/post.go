package domain

import (
	"fmt"
	"time"
)

// PostStatus represents the visibility of a post
type PostStatus string

const (
	PostStatusDraft  PostStatus = "draft"
	PostStatusPublic PostStatus = "public"
)

// Post represents a long-form text document together with its derived
// AI artifacts. ContentChunks and Embeddings are populated once by the
// background jobs; Embeddings is either nil or holds exactly one vector
// per chunk, aligned by index.
type Post struct {
	ID      string
	Slug    string
	Title   string
	Body    string // rich text (HTML)
	Status  PostStatus
	Summary string

	ContentChunks []string
	Embeddings    [][]float32
	BodyHash      string // sha256 of the clean body at preparation time

	AITagsGenerated     bool
	AICategoryGenerated bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPost creates a new Post instance with empty derived fields
func NewPost(id, slug, title, body string, status PostStatus, createdAt time.Time) *Post {
	return &Post{
		ID:        id,
		Slug:      slug,
		Title:     title,
		Body:      body,
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// IsPublic reports whether the post is publicly visible
func (p *Post) IsPublic() bool {
	return p.Status == PostStatusPublic
}

// HasEmbeddings reports whether RAG preparation has completed for the post
func (p *Post) HasEmbeddings() bool {
	return len(p.ContentChunks) > 0 && len(p.Embeddings) == len(p.ContentChunks)
}

// ValidatePost validates a Post instance
func ValidatePost(p *Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}

	if p.ID == "" {
		return fmt.Errorf("post ID is required")
	}

	if p.Slug == "" {
		return fmt.Errorf("post Slug is required")
	}

	if p.Title == "" {
		return fmt.Errorf("post Title is required")
	}

	if !isValidPostStatus(p.Status) {
		return fmt.Errorf("post Status is invalid: %s", p.Status)
	}

	if p.Embeddings != nil && len(p.Embeddings) != len(p.ContentChunks) {
		return ErrEmbeddingMisaligned
	}

	return nil
}

// isValidPostStatus checks if a PostStatus is valid
func isValidPostStatus(s PostStatus) bool {
	switch s {
	case PostStatusDraft, PostStatusPublic:
		return true
	}
	return false
}
