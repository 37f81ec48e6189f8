package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostStatusConstants(t *testing.T) {
	assert.Equal(t, "draft", string(PostStatusDraft))
	assert.Equal(t, "public", string(PostStatusPublic))
}

func TestNewPost(t *testing.T) {
	now := time.Now().UTC()
	post := NewPost("p1", "my-post", "Title", "<p>Body</p>", PostStatusDraft, now)

	require.NotNil(t, post)
	assert.Equal(t, "p1", post.ID)
	assert.Equal(t, "my-post", post.Slug)
	assert.Equal(t, PostStatusDraft, post.Status)
	assert.Equal(t, now, post.CreatedAt)
	assert.Equal(t, now, post.UpdatedAt)
	assert.Empty(t, post.ContentChunks)
	assert.Nil(t, post.Embeddings)
}

func TestPost_IsPublic(t *testing.T) {
	post := NewPost("p1", "s", "T", "B", PostStatusDraft, time.Now())
	assert.False(t, post.IsPublic())

	post.Status = PostStatusPublic
	assert.True(t, post.IsPublic())
}

func TestPost_HasEmbeddings(t *testing.T) {
	post := NewPost("p1", "s", "T", "B", PostStatusPublic, time.Now())
	assert.False(t, post.HasEmbeddings())

	post.ContentChunks = []string{"a", "b"}
	assert.False(t, post.HasEmbeddings())

	post.Embeddings = [][]float32{{0.1}, {0.2}}
	assert.True(t, post.HasEmbeddings())
}

func TestValidatePost(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name    string
		post    *Post
		wantErr bool
	}{
		{"valid", NewPost("p1", "slug", "Title", "Body", PostStatusPublic, now), false},
		{"nil", nil, true},
		{"missing ID", NewPost("", "slug", "Title", "Body", PostStatusPublic, now), true},
		{"missing slug", NewPost("p1", "", "Title", "Body", PostStatusPublic, now), true},
		{"missing title", NewPost("p1", "slug", "", "Body", PostStatusPublic, now), true},
		{"invalid status", NewPost("p1", "slug", "Title", "Body", PostStatus("hidden"), now), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePost(tt.post)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePost_MisalignedEmbeddings(t *testing.T) {
	post := NewPost("p1", "slug", "Title", "Body", PostStatusPublic, time.Now())
	post.ContentChunks = []string{"a", "b"}
	post.Embeddings = [][]float32{{0.1}}

	assert.ErrorIs(t, ValidatePost(post), ErrEmbeddingMisaligned)
}

func TestValidTagName(t *testing.T) {
	assert.True(t, ValidTagName("golang"))
	assert.True(t, ValidTagName(strings.Repeat("x", MaxTagLength)))
	assert.False(t, ValidTagName(""))
	assert.False(t, ValidTagName(strings.Repeat("x", MaxTagLength+1)))
}
