package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestCosineSimilarity tests the similarity metric edge cases
func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// zero-norm vectors score 0 instead of dividing by zero
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))

	// mismatched lengths compare over the shorter prefix
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0, 9}, []float32{1, 0}), 1e-9)
}

// TestRetrieve_FallbackWithoutEmbeddings tests degradation to head chunks
func TestRetrieve_FallbackWithoutEmbeddings(t *testing.T) {
	ranker := NewRanker(NewProvider(nil))
	chunks := []string{"one", "two", "three", "four"}

	results := ranker.Retrieve(context.Background(), "anything", chunks, nil, 3)

	assert.Equal(t, []string{"one", "two", "three"}, results)
}

// TestRetrieve_FallbackWhenProviderUnavailable tests degradation with embeddings present
func TestRetrieve_FallbackWhenProviderUnavailable(t *testing.T) {
	ranker := NewRanker(NewProvider(nil))
	chunks := []string{"one", "two"}
	embeddings := [][]float32{{1, 0}, {0, 1}}

	results := ranker.Retrieve(context.Background(), "anything", chunks, embeddings, 3)

	assert.Equal(t, []string{"one", "two"}, results)
}

// TestRetrieve_RanksBySimilarity tests that the best-matching chunk ranks first
func TestRetrieve_RanksBySimilarity(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	mockClient.On("CreateEmbeddings", mock.Anything, []string{"query"}).
		Return([][]float32{{1, 0}}, nil)

	ranker := NewRanker(NewProvider(mockClient))
	chunks := []string{"orthogonal", "aligned", "opposed"}
	embeddings := [][]float32{{0, 1}, {1, 0}, {-1, 0}}

	results := ranker.Retrieve(context.Background(), "query", chunks, embeddings, 2)

	require.Len(t, results, 2)
	assert.Equal(t, "aligned", results[0])
	assert.Equal(t, "orthogonal", results[1])
	mockClient.AssertExpectations(t)
}

// TestRetrieve_StableTieBreak tests that equal scores keep original order
func TestRetrieve_StableTieBreak(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	mockClient.On("CreateEmbeddings", mock.Anything, []string{"query"}).
		Return([][]float32{{1, 0}}, nil)

	ranker := NewRanker(NewProvider(mockClient))
	chunks := []string{"first", "second", "third"}
	embeddings := [][]float32{{2, 0}, {3, 0}, {4, 0}}

	results := ranker.Retrieve(context.Background(), "query", chunks, embeddings, 3)

	assert.Equal(t, []string{"first", "second", "third"}, results)
}

// TestRetrieve_EmptyChunks tests that no chunks yield no results
func TestRetrieve_EmptyChunks(t *testing.T) {
	ranker := NewRanker(NewProvider(nil))

	results := ranker.Retrieve(context.Background(), "anything", nil, nil, 3)

	assert.Nil(t, results)
}

// TestRetrieve_TopKClamped tests that topK never exceeds the chunk count
func TestRetrieve_TopKClamped(t *testing.T) {
	ranker := NewRanker(NewProvider(nil))
	chunks := []string{"only"}

	results := ranker.Retrieve(context.Background(), "anything", chunks, nil, 10)

	assert.Equal(t, []string{"only"}, results)
}

// TestRetrieve_DefaultTopK tests that a non-positive topK uses the default
func TestRetrieve_DefaultTopK(t *testing.T) {
	ranker := NewRanker(NewProvider(nil))
	chunks := []string{"a", "b", "c", "d", "e"}

	results := ranker.Retrieve(context.Background(), "anything", chunks, nil, 0)

	assert.Len(t, results, DefaultTopK)
}
