package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	openai "github.com/sashabaranov/go-openai"

	"github.com/inkwell-labs/postmind/internal/ai"
)

const (
	// DefaultChatBaseURL is the Groq OpenAI-compatible completion endpoint.
	DefaultChatBaseURL = "https://api.groq.com/openai/v1"
	// DefaultChatModel is the completion model used when none is configured.
	DefaultChatModel = "llama-3.1-8b-instant"
	// DefaultEmbeddingModel is the model used for generating embeddings.
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
)

// ChatClient speaks the chat-completion wire contract:
// {model, messages, max_tokens, temperature} in,
// choices[0].message.content out. It satisfies ai.ChatClient.
type ChatClient struct {
	client *openai.Client
	model  string
}

// ChatConfig configures the completion client.
type ChatConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewChatClient creates a completion client against an OpenAI-compatible API.
func NewChatClient(cfg ChatConfig) *ChatClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultChatBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultChatModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &ChatClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

// CreateChatCompletion sends one completion request. A 429 from the
// provider is wrapped in ai.ErrRateLimited so the gateway can retry it;
// every other failure is terminal for the attempt.
func (c *ChatClient) CreateChatCompletion(ctx context.Context, messages []ai.Message, maxTokens int, temperature float32) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if isRateLimited(err) {
			return "", fmt.Errorf("%w: %v", ai.ErrRateLimited, err)
		}
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// EmbeddingClient generates embeddings via the OpenAI API. It satisfies
// ai.EmbeddingClient.
type EmbeddingClient struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewEmbeddingClient creates an embedding client using defaults.
func NewEmbeddingClient(apiKey string) *EmbeddingClient {
	return NewEmbeddingClientWithModel(apiKey, DefaultEmbeddingModel)
}

// NewEmbeddingClientWithModel creates an embedding client with an explicit model.
func NewEmbeddingClientWithModel(apiKey string, model openai.EmbeddingModel) *EmbeddingClient {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &EmbeddingClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// CreateEmbeddings embeds a batch of texts, one vector per input in the
// same order.
func (c *EmbeddingClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("texts cannot be empty")
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	// the API tags each vector with its input index
	sort.Slice(resp.Data, func(i, j int) bool {
		return resp.Data[i].Index < resp.Data[j].Index
	})

	matrix := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		matrix[i] = d.Embedding
	}
	return matrix, nil
}

// isRateLimited classifies an API error as the retryable 429 condition.
func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}
