package domain

import "time"

// Tag is a short lowercase label attached to a post.
type Tag struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Category is a curated classification bucket for posts.
type Category struct {
	ID        string
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

const (
	// MaxTagLength bounds tag names; longer model output is discarded.
	MaxTagLength = 49
	// MaxTagsPerPost caps how many AI tags get attached to one post.
	MaxTagsPerPost = 5
)

// ValidTagName reports whether a tag name is usable (1-49 characters).
func ValidTagName(name string) bool {
	return len(name) > 0 && len(name) <= MaxTagLength
}
