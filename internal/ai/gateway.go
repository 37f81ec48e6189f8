package ai

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/inkwell-labs/postmind/internal/telemetry"
)

// ErrRateLimited marks a completion attempt rejected by the remote
// provider's rate limit (HTTP 429). It is the only retryable failure.
var ErrRateLimited = errors.New("rate limited by model provider")

// Message is one turn of a chat completion request.
type Message struct {
	Role    string
	Content string
}

// Chat roles accepted by the completion API.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ChatClient defines the interface to the remote completion API.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, messages []Message, maxTokens int, temperature float32) (string, error)
}

// GatewayConfig tunes the gateway's retry and timeout behavior.
type GatewayConfig struct {
	AttemptTimeout time.Duration // upper bound per network attempt
	RetryInitial   time.Duration // first backoff delay after a 429
	RetryMax       time.Duration // cap on the backoff delay
	MaxAttempts    uint64        // total attempts including the first
}

// DefaultGatewayConfig matches the provider's published limits.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		AttemptTimeout: 30 * time.Second,
		RetryInitial:   4 * time.Second,
		RetryMax:       10 * time.Second,
		MaxAttempts:    3,
	}
}

// Gateway is the rate-limited, retrying client to the external
// completion API, the only component that crosses a network boundary.
// Complete returns "" on every failure path; callers must treat "" as
// total unavailability for that call, never as an empty valid reply.
type Gateway struct {
	client  ChatClient
	limiter *SlidingWindowLimiter
	cfg     GatewayConfig

	missingOnce sync.Once
}

// NewGateway creates a Gateway. A nil client means credentials are
// missing; every Complete call then returns "" without touching the
// network.
func NewGateway(client ChatClient, limiter *SlidingWindowLimiter, cfg GatewayConfig) *Gateway {
	if cfg.AttemptTimeout <= 0 {
		cfg = DefaultGatewayConfig()
	}
	return &Gateway{
		client:  client,
		limiter: limiter,
		cfg:     cfg,
	}
}

// Available reports whether the gateway has a configured client.
func (g *Gateway) Available() bool {
	return g != nil && g.client != nil
}

// Complete sends a chat completion request and returns the trimmed reply
// text, or "" on failure. A 429 response is retried with exponential
// backoff up to MaxAttempts total attempts; every attempt consumes
// rate-limiter budget, since each is a real request. Any other error is
// terminal for the call.
func (g *Gateway) Complete(ctx context.Context, messages []Message, maxTokens int, temperature float32) string {
	if !g.Available() {
		g.missingOnce.Do(func() {
			log.Printf("gateway: no API key configured, completions unavailable")
		})
		return ""
	}

	var reply string
	attempt := func() error {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.AttemptTimeout)
		defer cancel()

		content, err := g.client.CreateChatCompletion(attemptCtx, messages, maxTokens, temperature)
		if err != nil {
			if errors.Is(err, ErrRateLimited) {
				log.Printf("gateway: rate limited by provider, retrying: %v", err)
				return err
			}
			return backoff.Permanent(err)
		}

		reply = strings.TrimSpace(content)
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = g.cfg.RetryInitial
	policy.MaxInterval = g.cfg.RetryMax
	policy.Multiplier = 2
	policy.MaxElapsedTime = 0

	err := backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(policy, g.cfg.MaxAttempts-1), ctx))
	if err != nil {
		log.Printf("gateway: completion failed: %v", err)
		telemetry.CaptureError(ctx, err)
		return ""
	}

	return reply
}
