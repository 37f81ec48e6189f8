package domain

import (
	"fmt"
	"time"
)

// AIJobKind identifies which derived artifact a job populates
type AIJobKind string

const (
	AIJobKindTags     AIJobKind = "tags"
	AIJobKindCategory AIJobKind = "category"
	AIJobKindRAG      AIJobKind = "rag"
)

// AIJobStatus represents the status of an AI augmentation job
type AIJobStatus string

const (
	AIJobStatusPending   AIJobStatus = "pending"
	AIJobStatusCompleted AIJobStatus = "completed"
	AIJobStatusFailed    AIJobStatus = "failed"
)

// AIJob represents an async job that populates a post's derived AI
// artifacts (tags, category, chunks+embeddings). Jobs are idempotent and
// retried up to MaxJobRetries with a fixed delay encoded by RunAfter.
type AIJob struct {
	ID          string
	PostID      string
	Kind        AIJobKind
	Status      AIJobStatus
	Retries     int32
	Error       string
	RunAfter    time.Time
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewAIJob creates a new pending AIJob instance
func NewAIJob(id, postID string, kind AIJobKind, createdAt time.Time) *AIJob {
	return &AIJob{
		ID:        id,
		PostID:    postID,
		Kind:      kind,
		Status:    AIJobStatusPending,
		RunAfter:  createdAt,
		CreatedAt: createdAt,
	}
}

// ValidateAIJob validates an AIJob instance
func ValidateAIJob(j *AIJob) error {
	if j == nil {
		return fmt.Errorf("ai job cannot be nil")
	}

	if j.ID == "" {
		return fmt.Errorf("ai job ID is required")
	}

	if j.PostID == "" {
		return fmt.Errorf("ai job PostID is required")
	}

	if !isValidAIJobKind(j.Kind) {
		return fmt.Errorf("ai job Kind is invalid: %s", j.Kind)
	}

	if !isValidAIJobStatus(j.Status) {
		return fmt.Errorf("ai job Status is invalid: %s", j.Status)
	}

	return nil
}

// isValidAIJobKind checks if an AIJobKind is valid
func isValidAIJobKind(k AIJobKind) bool {
	switch k {
	case AIJobKindTags, AIJobKindCategory, AIJobKindRAG:
		return true
	}
	return false
}

// isValidAIJobStatus checks if an AIJobStatus is valid
func isValidAIJobStatus(s AIJobStatus) bool {
	switch s {
	case AIJobStatusPending, AIJobStatusCompleted, AIJobStatusFailed:
		return true
	}
	return false
}
