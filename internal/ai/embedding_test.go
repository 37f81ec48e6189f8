package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEmbeddingClient is a mock implementation of EmbeddingClient
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

// TestProvider_Embed tests one vector per chunk on success
func TestProvider_Embed(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	chunks := []string{"alpha", "beta"}
	mockClient.On("CreateEmbeddings", mock.Anything, chunks).
		Return([][]float32{{0.1}, {0.2}}, nil).Once()

	provider := NewProvider(mockClient)
	matrix := provider.Embed(context.Background(), chunks)

	require.Len(t, matrix, 2)
	assert.Equal(t, []float32{0.1}, matrix[0])
	mockClient.AssertExpectations(t)
}

// TestProvider_Embed_CacheHit tests that a repeated chunk-set calls the model once
func TestProvider_Embed_CacheHit(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	chunks := []string{"alpha", "beta"}
	mockClient.On("CreateEmbeddings", mock.Anything, chunks).
		Return([][]float32{{0.1}, {0.2}}, nil).Once()

	provider := NewProvider(mockClient)
	first := provider.Embed(context.Background(), chunks)
	second := provider.Embed(context.Background(), chunks)

	assert.Equal(t, first, second)
	mockClient.AssertNumberOfCalls(t, "CreateEmbeddings", 1)
}

// TestProvider_Embed_OrderMatters tests that reordered chunks miss the cache
func TestProvider_Embed_OrderMatters(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	mockClient.On("CreateEmbeddings", mock.Anything, []string{"alpha", "beta"}).
		Return([][]float32{{0.1}, {0.2}}, nil).Once()
	mockClient.On("CreateEmbeddings", mock.Anything, []string{"beta", "alpha"}).
		Return([][]float32{{0.2}, {0.1}}, nil).Once()

	provider := NewProvider(mockClient)
	provider.Embed(context.Background(), []string{"alpha", "beta"})
	provider.Embed(context.Background(), []string{"beta", "alpha"})

	mockClient.AssertNumberOfCalls(t, "CreateEmbeddings", 2)
}

// TestProvider_Embed_LRUEviction tests that the oldest entry is evicted at capacity
func TestProvider_Embed_LRUEviction(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	mockClient.On("CreateEmbeddings", mock.Anything, mock.Anything).
		Return([][]float32{{0.1}}, nil)

	provider := NewProviderWithCapacity(mockClient, 2)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		provider.Embed(ctx, []string{fmt.Sprintf("chunk-%d", i)})
	}
	// chunk-0 was evicted; re-embedding it costs another model call
	provider.Embed(ctx, []string{"chunk-0"})
	// chunk-2 is still cached
	provider.Embed(ctx, []string{"chunk-2"})

	mockClient.AssertNumberOfCalls(t, "CreateEmbeddings", 4)
}

// TestProvider_Embed_NilClient tests graceful degradation without a model
func TestProvider_Embed_NilClient(t *testing.T) {
	provider := NewProvider(nil)

	assert.False(t, provider.Available())
	assert.Nil(t, provider.Embed(context.Background(), []string{"alpha"}))
}

// TestProvider_Embed_ClientError tests that a model failure yields nil
func TestProvider_Embed_ClientError(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	mockClient.On("CreateEmbeddings", mock.Anything, mock.Anything).
		Return(nil, errors.New("api error"))

	provider := NewProvider(mockClient)

	assert.Nil(t, provider.Embed(context.Background(), []string{"alpha"}))
}

// TestProvider_Embed_CountMismatch tests rejection of a misaligned matrix
func TestProvider_Embed_CountMismatch(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	mockClient.On("CreateEmbeddings", mock.Anything, mock.Anything).
		Return([][]float32{{0.1}}, nil)

	provider := NewProvider(mockClient)

	assert.Nil(t, provider.Embed(context.Background(), []string{"alpha", "beta"}))
}

// TestProvider_Embed_EmptyChunks tests that no chunks yields nil without a call
func TestProvider_Embed_EmptyChunks(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	provider := NewProvider(mockClient)

	assert.Nil(t, provider.Embed(context.Background(), nil))
	mockClient.AssertNotCalled(t, "CreateEmbeddings", mock.Anything, mock.Anything)
}

// TestProvider_EmbedQuery tests single-query embedding
func TestProvider_EmbedQuery(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	mockClient.On("CreateEmbeddings", mock.Anything, []string{"what is go"}).
		Return([][]float32{{0.5, 0.5}}, nil)

	provider := NewProvider(mockClient)
	vec := provider.EmbedQuery(context.Background(), "what is go")

	assert.Equal(t, []float32{0.5, 0.5}, vec)
}

// TestProvider_EmbedQuery_Blank tests that blank queries never reach the model
func TestProvider_EmbedQuery_Blank(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	provider := NewProvider(mockClient)

	assert.Nil(t, provider.EmbedQuery(context.Background(), "   "))
	mockClient.AssertNotCalled(t, "CreateEmbeddings", mock.Anything, mock.Anything)
}
