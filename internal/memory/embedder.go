package memory

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dyike/StockCouncil/internal/config"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client *resty.Client
	model  string
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewOpenAIEmbedder builds an embedder against cfg.EmbeddingBackendURL using
// cfg.EmbeddingModel.
func NewOpenAIEmbedder(cfg *config.Config) *OpenAIEmbedder {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.EmbeddingBackendURL, "/")).
		SetTimeout(30 * time.Second).
		SetAuthToken(cfg.OpenAIAPIKey).
		SetHeader("Content-Type", "application/json")
	return &OpenAIEmbedder{client: client, model: cfg.EmbeddingModel}
}

// Embed returns the embedding vector for text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	var out embeddingResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(embeddingRequest{Model: e.model, Input: []string{text}}).
		SetResult(&out).
		Post("/embeddings")
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	if resp.StatusCode() != 200 {
		if out.Error != nil {
			return nil, fmt.Errorf("embeddings HTTP %d: %s", resp.StatusCode(), out.Error.Message)
		}
		return nil, fmt.Errorf("embeddings HTTP %d", resp.StatusCode())
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("embeddings response contained no vectors")
	}
	return out.Data[0].Embedding, nil
}

// HashEmbedder is a deterministic offline embedder. It hashes word tokens
// into a fixed-size bag-of-words vector, which is enough for tests and for
// running without an embeddings backend.
type HashEmbedder struct {
	Dim int
}

// NewHashEmbedder returns a hash embedder with a 256-dimension vector space.
func NewHashEmbedder() *HashEmbedder { return &HashEmbedder{Dim: 256} }

// Embed maps text to a normalized token-count vector.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	dim := e.Dim
	if dim <= 0 {
		dim = 256
	}
	vec := make([]float64, dim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%uint32(dim)]++
	}
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}
