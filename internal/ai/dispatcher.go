package ai

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/inkwell-labs/postmind/internal/domain"
)

// ChunkStore persists chunks and embeddings computed on the dispatch
// path, so a later question can reuse them. The write is best effort.
type ChunkStore interface {
	SaveChunks(ctx context.Context, postID string, chunks []string, embeddings [][]float32, bodyHash string) error
}

// Dispatcher classifies a free-text question into one of the fixed
// capabilities and runs it. Classification is an ordered rule table
// evaluated in priority order; the first matching rule wins, and
// anything unmatched falls through to open RAG question-answering.
// Dispatch always returns user-facing text, never "".
type Dispatcher struct {
	assistant *Assistant
	provider  *Provider
	chunks    ChunkStore
	chunkCfg  ChunkConfig
}

// NewDispatcher creates a Dispatcher. chunks may be nil, in which case
// on-demand embeddings are used for the answer but not persisted.
func NewDispatcher(assistant *Assistant, provider *Provider, chunks ChunkStore) *Dispatcher {
	return &Dispatcher{
		assistant: assistant,
		provider:  provider,
		chunks:    chunks,
		chunkCfg:  DefaultChunkConfig(),
	}
}

// dispatchRule pairs trigger substrings with the capability handler.
type dispatchRule struct {
	substrings []string
	handle     func(d *Dispatcher, ctx context.Context, question string, post *domain.Post) string
}

// Rules are evaluated top to bottom; order encodes precedence.
var dispatchRules = []dispatchRule{
	{
		substrings: []string{"point by point", "explain all"},
		handle: func(d *Dispatcher, ctx context.Context, _ string, post *domain.Post) string {
			return d.assistant.ExplainPointByPoint(ctx, post.Body)
		},
	},
	{
		substrings: []string{"study question", "test question"},
		handle: func(d *Dispatcher, ctx context.Context, question string, post *domain.Post) string {
			return d.assistant.GenerateStudyQuestions(ctx, post.Body, firstInt(question, DefaultStudyQuestions))
		},
	},
	{
		substrings: []string{"key takeaway", "main point"},
		handle: func(d *Dispatcher, ctx context.Context, _ string, post *domain.Post) string {
			return d.assistant.KeyTakeaways(ctx, post.Body, DefaultTakeaways)
		},
	},
	{
		substrings: []string{"summarize", "summary"},
		handle: func(d *Dispatcher, ctx context.Context, question string, post *domain.Post) string {
			return d.assistant.GenerateSummary(ctx, post.Body, firstInt(question, DefaultSummaryLines))
		},
	},
}

// Dispatch answers a question about a post.
func (d *Dispatcher) Dispatch(ctx context.Context, question string, post *domain.Post) string {
	lower := strings.ToLower(question)

	for _, rule := range dispatchRules {
		for _, s := range rule.substrings {
			if strings.Contains(lower, s) {
				return rule.handle(d, ctx, question, post)
			}
		}
	}

	return d.answerOpenQuestion(ctx, question, post)
}

// answerOpenQuestion runs the RAG path: reuse stored chunks, or chunk on
// demand; reuse stored embeddings, or compute and persist them inline.
func (d *Dispatcher) answerOpenQuestion(ctx context.Context, question string, post *domain.Post) string {
	chunks := post.ContentChunks
	if len(chunks) == 0 {
		var err error
		chunks, err = Chunk(post.Body, d.chunkCfg)
		if err != nil {
			log.Printf("dispatch: chunking failed for post %s: %v", post.ID, err)
		}
	}

	embeddings := post.Embeddings
	if embeddings == nil && len(chunks) > 0 {
		embeddings = d.provider.Embed(ctx, chunks)
		if embeddings != nil && d.chunks != nil {
			hash := HashCleanBody(post.Body)
			if err := d.chunks.SaveChunks(ctx, post.ID, chunks, embeddings, hash); err != nil {
				log.Printf("dispatch: persisting on-demand embeddings for post %s failed: %v", post.ID, err)
			}
		}
	}

	return d.assistant.AnswerWithRAG(ctx, question, post.Title, chunks, embeddings)
}

// firstInt returns the first whitespace-separated token of question that
// parses as an integer, or fallback when none does.
func firstInt(question string, fallback int) int {
	for _, token := range strings.Fields(question) {
		if n, err := strconv.Atoi(token); err == nil {
			return n
		}
	}
	return fallback
}
