package ai

import (
	"container/list"
	"context"
	"log"
	"strings"
	"sync"
)

// DefaultEmbeddingCacheSize bounds the LRU cache of chunk-set embeddings.
const DefaultEmbeddingCacheSize = 128

// EmbeddingClient defines the interface for the underlying text-to-vector model
type EmbeddingClient interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider wraps an opaque embedding model behind a bounded LRU cache.
// The cache is keyed by the exact ordered sequence of chunk strings, so
// repeated identical chunk-sets reuse the cached matrix. A nil client
// (model unavailable) makes every Embed call return nil; callers treat
// nil as "no retrieval possible", never as an error.
type Provider struct {
	client EmbeddingClient

	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
}

type cacheEntry struct {
	key    string
	matrix [][]float32
}

// NewProvider creates a Provider with the default cache capacity.
func NewProvider(client EmbeddingClient) *Provider {
	return NewProviderWithCapacity(client, DefaultEmbeddingCacheSize)
}

// NewProviderWithCapacity creates a Provider with an explicit cache capacity.
func NewProviderWithCapacity(client EmbeddingClient, capacity int) *Provider {
	if capacity <= 0 {
		capacity = DefaultEmbeddingCacheSize
	}
	return &Provider{
		client:   client,
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Available reports whether the underlying model can be called.
func (p *Provider) Available() bool {
	return p != nil && p.client != nil
}

// Embed returns one vector per chunk, aligned by index, or nil when the
// model is unavailable, chunks is empty, or the model call fails.
func (p *Provider) Embed(ctx context.Context, chunks []string) [][]float32 {
	if !p.Available() || len(chunks) == 0 {
		return nil
	}

	key := cacheKey(chunks)
	if matrix, ok := p.cacheGet(key); ok {
		return matrix
	}

	matrix, err := p.client.CreateEmbeddings(ctx, chunks)
	if err != nil {
		log.Printf("embedding: model call failed: %v", err)
		return nil
	}
	if len(matrix) != len(chunks) {
		log.Printf("embedding: model returned %d vectors for %d chunks", len(matrix), len(chunks))
		return nil
	}

	p.cachePut(key, matrix)
	return matrix
}

// EmbedQuery embeds a single query string, or returns nil on failure.
func (p *Provider) EmbedQuery(ctx context.Context, query string) []float32 {
	if !p.Available() || strings.TrimSpace(query) == "" {
		return nil
	}

	matrix, err := p.client.CreateEmbeddings(ctx, []string{query})
	if err != nil || len(matrix) != 1 {
		if err != nil {
			log.Printf("embedding: query embedding failed: %v", err)
		}
		return nil
	}
	return matrix[0]
}

// cacheKey joins chunks with a separator that cannot occur in word-joined
// text, giving content-identity for the ordered sequence.
func cacheKey(chunks []string) string {
	return strings.Join(chunks, "\x1f")
}

func (p *Provider) cacheGet(key string) ([][]float32, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elem, ok := p.entries[key]
	if !ok {
		return nil, false
	}
	p.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).matrix, true
}

func (p *Provider) cachePut(key string, matrix [][]float32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if elem, ok := p.entries[key]; ok {
		p.order.MoveToFront(elem)
		elem.Value.(*cacheEntry).matrix = matrix
		return
	}

	elem := p.order.PushFront(&cacheEntry{key: key, matrix: matrix})
	p.entries[key] = elem

	for p.order.Len() > p.capacity {
		oldest := p.order.Back()
		if oldest == nil {
			break
		}
		p.order.Remove(oldest)
		delete(p.entries, oldest.Value.(*cacheEntry).key)
	}
}
