package ai

import (
	"context"
	"math"
	"sort"
)

// DefaultTopK is how many chunks retrieval returns by default.
const DefaultTopK = 3

// Ranker selects the chunks most relevant to a query by cosine
// similarity over precomputed chunk embeddings.
type Ranker struct {
	provider *Provider
}

// NewRanker creates a Ranker backed by the given embedding provider.
func NewRanker(provider *Provider) *Ranker {
	return &Ranker{provider: provider}
}

// Retrieve returns the topK chunks most similar to the query, in
// descending similarity order. When the provider is unavailable,
// embeddings is nil, or the query cannot be embedded, it degrades to the
// first topK chunks in original order.
func (r *Ranker) Retrieve(ctx context.Context, query string, chunks []string, embeddings [][]float32, topK int) []string {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(chunks) == 0 {
		return nil
	}
	if r == nil || !r.provider.Available() || embeddings == nil {
		return headChunks(chunks, topK)
	}

	queryVec := r.provider.EmbedQuery(ctx, query)
	if queryVec == nil {
		return headChunks(chunks, topK)
	}

	indices := rankBySimilarity(queryVec, embeddings, topK)

	results := make([]string, 0, len(indices))
	for _, i := range indices {
		if i < len(chunks) {
			results = append(results, chunks[i])
		}
	}
	return results
}

// rankBySimilarity returns the indices of the topK most similar rows,
// descending by similarity. Equal scores keep original row order.
func rankBySimilarity(query []float32, embeddings [][]float32, topK int) []int {
	sims := make([]float64, len(embeddings))
	for i, row := range embeddings {
		sims[i] = CosineSimilarity(query, row)
	}

	indices := make([]int, len(embeddings))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return sims[indices[a]] > sims[indices[b]]
	})

	if topK < len(indices) {
		indices = indices[:topK]
	}
	return indices
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// A zero-norm vector yields 0 rather than a division error. Mismatched
// lengths compare over the shorter prefix.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func headChunks(chunks []string, topK int) []string {
	if topK > len(chunks) {
		topK = len(chunks)
	}
	return chunks[:topK]
}
