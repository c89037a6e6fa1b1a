package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/Conversly/lightning-whatsapp/internal/types"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// maxResourceChars bounds the text sent for a single resource; the model
// truncates beyond its input limit anyway.
const maxResourceChars = 8000

// GeminiEmbedder turns resource content into document embeddings, rotating
// across the configured API keys.
type GeminiEmbedder struct {
	apiKeys  []string
	client   *http.Client
	baseURL  string
	keyIndex uint64
	inflight chan struct{}
}

type Option func(*GeminiEmbedder)

// WithBaseURL points the embedder at a different endpoint.
func WithBaseURL(baseURL string) Option {
	return func(g *GeminiEmbedder) { g.baseURL = baseURL }
}

func WithHTTPClient(client *http.Client) Option {
	return func(g *GeminiEmbedder) { g.client = client }
}

func NewGeminiEmbedder(keys []string, opts ...Option) (*GeminiEmbedder, error) {
	if len(keys) == 0 {
		return nil, errors.New("at least one API key is required")
	}

	g := &GeminiEmbedder{
		apiKeys:  keys,
		client:   &http.Client{Timeout: 30 * time.Second},
		baseURL:  defaultBaseURL,
		inflight: make(chan struct{}, 5),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *GeminiEmbedder) nextKey() string {
	if len(g.apiKeys) == 1 {
		return g.apiKeys[0]
	}
	idx := atomic.AddUint64(&g.keyIndex, 1)
	return g.apiKeys[idx%uint64(len(g.apiKeys))]
}

func normalize(vec []float64) []float64 {
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return vec
	}

	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}

// EmbedText returns the unit-length document embedding of text.
func (g *GeminiEmbedder) EmbedText(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, errors.New("text cannot be empty")
	}
	if len(text) > maxResourceChars {
		text = text[:maxResourceChars]
	}

	select {
	case g.inflight <- struct{}{}:
		defer func() { <-g.inflight }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	body, err := json.Marshal(types.EmbeddingRequest{
		Model:                "models/" + types.EmbeddingModel,
		Content:              types.EmbeddingContent{Parts: []types.Part{{Text: text}}},
		TaskType:             types.TaskTypeDocument,
		OutputDimensionality: types.EmbeddingDimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:embedContent?key=%s", g.baseURL, types.EmbeddingModel, url.QueryEscape(g.nextKey()))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("embedding API returned status %d: %s", resp.StatusCode, string(msg))
	}

	var out types.EmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	values := out.Embedding.Values
	if len(values) != types.EmbeddingDimensions {
		return nil, fmt.Errorf("expected %d dimensions, got %d", types.EmbeddingDimensions, len(values))
	}
	return normalize(values), nil
}

// EmbedResource embeds resource content and encodes the vector as the JSON
// text stored alongside the resource.
func (g *GeminiEmbedder) EmbedResource(ctx context.Context, content string) (string, error) {
	vec, err := g.EmbedText(ctx, content)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(vec)
	if err != nil {
		return "", fmt.Errorf("failed to encode embedding: %w", err)
	}
	return string(raw), nil
}
