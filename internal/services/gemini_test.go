package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	responses []*genai.GenerateContentResponse
	errs      []error
	calls     int
	embedding []float32
	embedded  string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, _ string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return nil, errors.New("unexpected call")
}

func (f *fakeGenerator) EmbedContent(_ context.Context, _ string, contents []*genai.Content, _ *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.embedded = contents[0].Parts[0].Text
	if f.embedding == nil {
		return &genai.EmbedContentResponse{}, nil
	}
	return &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: f.embedding}},
	}, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func withoutSleep(t *testing.T) {
	t.Helper()
	original := sleep
	sleep = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { sleep = original })
}

func TestGemini_RetriesServerErrors(t *testing.T) {
	withoutSleep(t)

	gen := &fakeGenerator{
		errs:      []error{genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}},
		responses: []*genai.GenerateContentResponse{nil, textResponse("  hello  ")},
	}
	g := &geminiService{models: gen, modelName: "m", maxRetries: 3, log: zap.NewNop()}

	text, err := g.GenerateText(context.Background(), "prompt", 0.2)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, 2, gen.calls)
}

func TestGemini_DoesNotRetryClientErrors(t *testing.T) {
	withoutSleep(t)

	gen := &fakeGenerator{
		errs: []error{genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"}},
	}
	g := &geminiService{models: gen, modelName: "m", maxRetries: 3, log: zap.NewNop()}

	_, err := g.GenerateText(context.Background(), "prompt", 0.2)
	require.Error(t, err)
	assert.Equal(t, 1, gen.calls)
}

func TestGemini_EmptyTextIsAnError(t *testing.T) {
	withoutSleep(t)

	gen := &fakeGenerator{responses: []*genai.GenerateContentResponse{textResponse(" ")}}
	g := &geminiService{models: gen, modelName: "m", maxRetries: 1, log: zap.NewNop()}

	_, err := g.GenerateText(context.Background(), "prompt", 0.2)
	assert.Error(t, err)
}

func TestGemini_GenerateEmbedding(t *testing.T) {
	g := &geminiService{models: &fakeGenerator{embedding: []float32{0.1, 0.2}}, log: zap.NewNop()}

	vec, err := g.GenerateEmbedding(context.Background(), "resume")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, vec)

	g = &geminiService{models: &fakeGenerator{}, log: zap.NewNop()}
	_, err = g.GenerateEmbedding(context.Background(), "resume")
	assert.Error(t, err)
}

func TestGemini_EmbeddingInputKeepsRunesWhole(t *testing.T) {
	gen := &fakeGenerator{embedding: []float32{0.5}}
	g := &geminiService{models: gen, embedModel: "e", log: zap.NewNop()}

	text := strings.Repeat("a", maxEmbeddingBytes-1) + "é" + "b"
	vector, err := g.GenerateEmbedding(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5}, vector)

	assert.Len(t, gen.embedded, maxEmbeddingBytes-1)
	assert.True(t, utf8.ValidString(gen.embedded))
}

func TestTruncateUTF8(t *testing.T) {
	assert.Equal(t, "short", truncateUTF8("short", 10))
	assert.Equal(t, "ab", truncateUTF8("abé", 3))
	assert.Equal(t, "abé", truncateUTF8("abéc", 4))
	assert.Equal(t, "", truncateUTF8("日本", 2))
}
