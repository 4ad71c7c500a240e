package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/candidate-screener/internal/logger"
)

// Oracle is the language-model call the engine depends on. Callers own the
// fallback for every failure.
type Oracle interface {
	GenerateText(ctx context.Context, prompt string, temperature float32) (string, error)
}

type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type GeminiService interface {
	Oracle
	Embedder
}

type GeminiOptions struct {
	APIKey     string
	Model      string
	EmbedModel string
	MaxRetries int
}

// contentGenerator is the subset of genai.Models the service calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

type geminiService struct {
	models     contentGenerator
	modelName  string
	embedModel string
	maxRetries int
	log        *zap.Logger
}

// sleep is swapped out in tests.
var sleep = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func NewGeminiService(opts GeminiOptions, log *zap.Logger) (GeminiService, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}

	return &geminiService{
		models:     client.Models,
		modelName:  opts.Model,
		embedModel: opts.EmbedModel,
		maxRetries: opts.MaxRetries,
		log:        logger.WithFields(log, zap.String("ai_provider", "gemini"), zap.String("ai_model", opts.Model)),
	}, nil
}

const maxEmbeddingBytes = 40000

// truncateUTF8 cuts s to at most maxBytes without splitting a rune.
func truncateUTF8(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}

// GenerateEmbedding implements Embedder.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	// Truncate text if too long (max ~10000 tokens for embedding)
	text = truncateUTF8(text, maxEmbeddingBytes)

	result, err := g.models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

// GenerateText implements Oracle. Transient failures are retried with a
// linear backoff before the error is handed to the caller.
func (g *geminiService) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		text, err := g.generate(ctx, prompt, temperature)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if attempt == g.maxRetries || !isRetryable(err) {
			break
		}

		g.log.Warn("gemini call failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		if err := sleep(ctx, time.Duration(attempt)*time.Second); err != nil {
			return "", fmt.Errorf("context cancelled: %w", err)
		}
	}

	return "", fmt.Errorf("failed after %d attempts: %w", g.maxRetries, lastErr)
}

func (g *geminiService) generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: 4096,
	}

	resp, err := g.models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if resp == nil {
		return "", fmt.Errorf("no response generated (nil response)")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("no text content in response")
	}

	g.log.Debug("gemini response received",
		zap.Int("prompt_chars", len(prompt)),
		zap.String("response", logger.TruncateForLog(text, 200)),
	)

	return text, nil
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}

	return true
}
