// Package llm wraps the OpenAI API behind the two calls the engine needs:
// batch embeddings and chat completions. Outbound traffic goes through a
// token-bucket limiter and a circuit breaker, and embedding calls retry
// with exponential backoff before the failure is surfaced.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"golang.org/x/time/rate"

	"github.com/connectjob/engine/engine/domain"
	"github.com/connectjob/engine/pkg/fn"
	"github.com/connectjob/engine/pkg/resilience"
)

// Config holds the client settings. Zero fields fall back to defaults.
type Config struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string  // default text-embedding-3-small
	ChatModel      string  // default gpt-4o-mini
	MaxAttempts    int     // embedding retry attempts, default 3
	RPS            float64 // outbound requests per second, default 10
	Burst          int     // limiter burst, default 5
}

// Client is a thin OpenAI wrapper shared by the indexer, the language
// normalizer, and the answer service.
type Client struct {
	api            openai.Client
	embeddingModel string
	chatModel      string
	retry          fn.RetryOpts
	limiter        *rate.Limiter
	breaker        *resilience.Breaker
	log            *slog.Logger
}

func New(cfg Config, log *slog.Logger) *Client {
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		api:            openai.NewClient(opts...),
		embeddingModel: cfg.EmbeddingModel,
		chatModel:      cfg.ChatModel,
		retry: fn.RetryOpts{
			MaxAttempts: cfg.MaxAttempts,
			InitialWait: 400 * time.Millisecond,
			MaxWait:     10 * time.Second,
			Jitter:      false,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
		log:     log,
	}
}

// EmbedBatch embeds a batch of texts in one request, retrying transient
// failures. Vectors come back aligned to the input order. Exhausted retries
// surface as a domain.EmbeddingServiceError.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	res := fn.Retry(ctx, c.retry, func(ctx context.Context) fn.Result[[][]float32] {
		return resilience.CallResult(c.breaker, ctx, func(ctx context.Context) fn.Result[[][]float32] {
			vecs, err := c.embedOnce(ctx, texts)
			if err != nil {
				c.log.Warn("embedding request failed", "batch", len(texts), "error", err)
				return fn.Err[[][]float32](err)
			}
			return fn.Ok(vecs)
		})
	})
	vecs, err := res.Unwrap()
	if err != nil {
		return nil, &domain.EmbeddingServiceError{Attempts: c.retry.MaxAttempts, Wrapped: err}
	}
	return vecs, nil
}

// Embed embeds a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("llm: empty embedding response")
	}
	return vecs[0], nil
}

func (c *Client) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.embeddingModel),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		c.log.Warn("embedding count mismatch", "want", len(texts), "got", len(resp.Data))
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}

// Complete runs a single-turn chat completion. No retry: callers that can
// degrade gracefully (translation) should, and the answer path surfaces
// the error to its caller.
func (c *Client) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	var resp *openai.ChatCompletion
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		var callErr error
		resp, callErr = c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: shared.ChatModel(c.chatModel),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(system),
				openai.UserMessage(user),
			},
			MaxTokens: openai.Int(int64(maxTokens)),
		})
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("llm: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
