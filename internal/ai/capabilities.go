package ai

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/inkwell-labs/postmind/internal/domain"
)

// Capability names used for response-cache keys.
const (
	CapabilitySummary        = "summary"
	CapabilityExplain        = "explain"
	CapabilityStudyQuestions = "study_questions"
	CapabilityTakeaways      = "takeaways"
	CapabilityTags           = "tags"
	CapabilityCategory       = "category"
)

// Capability defaults and clamps.
const (
	DefaultSummaryLines   = 3
	MaxSummaryLines       = 50
	DefaultStudyQuestions = 5
	DefaultTakeaways      = 5
)

// User-facing fallback strings. Dispatch never surfaces a gateway
// failure as an empty answer; it degrades to one of these.
const (
	FallbackSummary       = "Unable to generate summary."
	FallbackExplain       = "Unable to explain."
	FallbackStudy         = "Unable to generate questions."
	FallbackTakeaways     = "Unable to extract takeaways."
	FallbackRAGAnswer     = "Unable to answer based on available context."
	FallbackNoContent     = "No content available to answer this question."
	FallbackNoRelevant    = "Unable to find relevant information to answer this question."
	noSummaryContent      = "No content available for summary."
	noExplainContent      = "No content available for explanation."
	noStudyContent        = "No content available for generating questions."
	noTakeawaysContent    = "No content available for takeaways."
	ragContextChunksLimit = 2
)

// Assistant implements the fixed AI capabilities over the gateway. All
// capabilities except RAG question-answering memoize their result in the
// soft response cache.
type Assistant struct {
	gateway *Gateway
	ranker  *Ranker
	cache   *ResponseCache
}

// NewAssistant creates an Assistant.
func NewAssistant(gateway *Gateway, ranker *Ranker, cache *ResponseCache) *Assistant {
	return &Assistant{
		gateway: gateway,
		ranker:  ranker,
		cache:   cache,
	}
}

// GenerateSummary produces a summary of numLines concise lines.
func (a *Assistant) GenerateSummary(ctx context.Context, content string, numLines int) string {
	clean := CleanExcerpt(content, 2000)
	if clean == "" {
		return noSummaryContent
	}
	if numLines <= 0 {
		numLines = DefaultSummaryLines
	}
	if numLines > MaxSummaryLines {
		numLines = MaxSummaryLines
	}

	key := ResponseCacheKey(CapabilitySummary+":"+strconv.Itoa(numLines), "", clean)
	if cached, ok := a.cache.Get(key); ok {
		return cached
	}

	messages := []Message{
		{Role: RoleSystem, Content: "You create clear, concise summaries."},
		{Role: RoleUser, Content: fmt.Sprintf("Summarize in %d concise lines:\n%s\nSummary:", numLines, clean)},
	}
	result := a.gateway.Complete(ctx, messages, 200, 0.6)
	if result == "" {
		return FallbackSummary
	}

	a.cache.Put(key, result)
	return result
}

// ExplainPointByPoint explains the full content as a numbered list.
func (a *Assistant) ExplainPointByPoint(ctx context.Context, content string) string {
	clean := CleanExcerpt(content, 2000)
	if clean == "" {
		return noExplainContent
	}

	key := ResponseCacheKey(CapabilityExplain, "", clean)
	if cached, ok := a.cache.Get(key); ok {
		return cached
	}

	messages := []Message{
		{Role: RoleSystem, Content: "You explain clearly with numbered points."},
		{Role: RoleUser, Content: fmt.Sprintf("Explain point by point (numbered list):\n%s\nExplanation:", clean)},
	}
	result := a.gateway.Complete(ctx, messages, 800, 0.6)
	if result == "" {
		return FallbackExplain
	}

	a.cache.Put(key, result)
	return result
}

// GenerateStudyQuestions creates numQuestions educational questions.
func (a *Assistant) GenerateStudyQuestions(ctx context.Context, content string, numQuestions int) string {
	clean := CleanExcerpt(content, 2000)
	if clean == "" {
		return noStudyContent
	}
	if numQuestions <= 0 {
		numQuestions = DefaultStudyQuestions
	}

	key := ResponseCacheKey(CapabilityStudyQuestions+":"+strconv.Itoa(numQuestions), "", clean)
	if cached, ok := a.cache.Get(key); ok {
		return cached
	}

	messages := []Message{
		{Role: RoleSystem, Content: "You create educational questions."},
		{Role: RoleUser, Content: fmt.Sprintf("Create %d questions (mix MCQ/short answer):\n%s\nQuestions:", numQuestions, clean)},
	}
	result := a.gateway.Complete(ctx, messages, 600, 0.7)
	if result == "" {
		return FallbackStudy
	}

	a.cache.Put(key, result)
	return result
}

// KeyTakeaways lists the numPoints most important insights.
func (a *Assistant) KeyTakeaways(ctx context.Context, content string, numPoints int) string {
	clean := CleanExcerpt(content, 2000)
	if clean == "" {
		return noTakeawaysContent
	}
	if numPoints <= 0 {
		numPoints = DefaultTakeaways
	}

	key := ResponseCacheKey(CapabilityTakeaways+":"+strconv.Itoa(numPoints), "", clean)
	if cached, ok := a.cache.Get(key); ok {
		return cached
	}

	messages := []Message{
		{Role: RoleSystem, Content: "You extract key insights."},
		{Role: RoleUser, Content: fmt.Sprintf("List %d key takeaways:\n%s\nTakeaways:", numPoints, clean)},
	}
	result := a.gateway.Complete(ctx, messages, 400, 0.6)
	if result == "" {
		return FallbackTakeaways
	}

	a.cache.Put(key, result)
	return result
}

// GenerateTags derives up to maxTags lowercase tags for a post. It
// returns nil when the gateway is unavailable or no usable tag parses
// out of the reply.
func (a *Assistant) GenerateTags(ctx context.Context, title, content string, maxTags int) []string {
	clean := CleanExcerpt(content, 1500)
	if clean == "" {
		return nil
	}
	if maxTags <= 0 {
		maxTags = domain.MaxTagsPerPost
	}

	key := ResponseCacheKey(CapabilityTags, title, clean)
	if cached, ok := a.cache.Get(key); ok {
		return parseTags(cached, maxTags)
	}

	prompt := fmt.Sprintf(
		"Generate %d relevant tags for this blog post.\nTitle: %s\nContent: %s\nReturn ONLY comma-separated tags (lowercase, 2-3 words each). Tags:",
		maxTags, title, clean,
	)
	messages := []Message{
		{Role: RoleSystem, Content: "You generate relevant tags for blog posts."},
		{Role: RoleUser, Content: prompt},
	}
	result := a.gateway.Complete(ctx, messages, 100, 0.5)
	if result == "" {
		return nil
	}

	tags := parseTags(result, maxTags)
	if len(tags) > 0 {
		a.cache.Put(key, strings.Join(tags, ","))
	}
	return tags
}

// SuggestCategory asks the model to pick the best-fitting category and
// matches its reply against the available category names
// case-insensitively. Returns nil when nothing matches.
func (a *Assistant) SuggestCategory(ctx context.Context, title, content string, categories []domain.Category) *domain.Category {
	clean := CleanExcerpt(content, 1500)
	if clean == "" || len(categories) == 0 {
		return nil
	}

	key := ResponseCacheKey(CapabilityCategory, title, clean)
	if cached, ok := a.cache.Get(key); ok {
		if c := matchCategory(cached, categories); c != nil {
			return c
		}
	}

	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	prompt := fmt.Sprintf(
		"Which ONE category fits best?\nTitle: %s\nContent: %s\nCategories: %s\nReturn ONLY the category name:",
		title, clean, strings.Join(names, ", "),
	)
	messages := []Message{
		{Role: RoleSystem, Content: "You categorize blog posts accurately."},
		{Role: RoleUser, Content: prompt},
	}
	result := a.gateway.Complete(ctx, messages, 50, 0.3)
	if result == "" {
		return nil
	}

	match := matchCategory(result, categories)
	if match != nil {
		a.cache.Put(key, match.Name)
	}
	return match
}

// AnswerWithRAG answers a question using only retrieved chunk context.
func (a *Assistant) AnswerWithRAG(ctx context.Context, question, title string, chunks []string, embeddings [][]float32) string {
	if len(chunks) == 0 {
		return FallbackNoContent
	}

	relevant := a.ranker.Retrieve(ctx, question, chunks, embeddings, DefaultTopK)
	if len(relevant) == 0 {
		return FallbackNoRelevant
	}
	if len(relevant) > ragContextChunksLimit {
		relevant = relevant[:ragContextChunksLimit]
	}

	prompt := fmt.Sprintf(
		"Answer based ONLY on this context from '%s':\n%s\n\nQuestion: %s\nAnswer:",
		title, strings.Join(relevant, "\n\n"), question,
	)
	messages := []Message{
		{Role: RoleSystem, Content: "You answer questions accurately using only provided context."},
		{Role: RoleUser, Content: prompt},
	}
	result := a.gateway.Complete(ctx, messages, 500, 0.7)
	if result == "" {
		return FallbackRAGAnswer
	}
	return result
}

// CleanExcerpt strips markup, trims, and truncates to limit runes. It
// is the canonical plain-text excerpt used as capability input.
func CleanExcerpt(content string, limit int) string {
	clean := strings.TrimSpace(StripTags(content))
	return truncate(clean, limit)
}

// parseTags splits a comma-separated model reply into usable tag names.
func parseTags(reply string, maxTags int) []string {
	var tags []string
	for _, raw := range strings.Split(reply, ",") {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if !domain.ValidTagName(tag) {
			continue
		}
		tags = append(tags, tag)
		if len(tags) >= maxTags {
			break
		}
	}
	return tags
}

// matchCategory returns the first category whose name occurs in reply,
// compared case-insensitively.
func matchCategory(reply string, categories []domain.Category) *domain.Category {
	lower := strings.ToLower(strings.TrimSpace(reply))
	for i := range categories {
		if strings.Contains(lower, strings.ToLower(categories[i].Name)) {
			return &categories[i]
		}
	}
	return nil
}
