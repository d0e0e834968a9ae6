package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// DefaultEmbeddingBatch is the number of inputs sent per embeddings request.
const DefaultEmbeddingBatch = 64

// EmbeddingsClient calls the /v1/embeddings endpoint of an OpenAI-compatible provider.
type EmbeddingsClient struct {
	BaseURL string
	APIKey  string
	Model   string
	// Dim is the vector size every returned embedding must have.
	Dim int
	// BatchSize caps inputs per request.
	BatchSize int
	client    *http.Client
}

// NewEmbeddingsClient returns a client producing dim-sized vectors with model.
func NewEmbeddingsClient(baseURL, apiKey, model string, dim int) *EmbeddingsClient {
	return &EmbeddingsClient{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		APIKey:    apiKey,
		Model:     model,
		Dim:       dim,
		BatchSize: DefaultEmbeddingBatch,
		client:    &http.Client{Timeout: defaultTimeout},
	}
}

type embeddingsRequest struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	EncodingFormat string   `json:"encoding_format"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// EmbedTexts returns one vector per text, in input order. Large inputs are split into batches.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts to embed")
	}

	batch := c.BatchSize
	if batch <= 0 {
		batch = DefaultEmbeddingBatch
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batch {
		end := min(start+batch, len(texts))
		vecs, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding inputs %d-%d: %w", start, end-1, err)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (c *EmbeddingsClient) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var resp embeddingsResponse
	err := postJSON(ctx, c.client, c.BaseURL+"/v1/embeddings", c.APIKey, embeddingsRequest{
		Model:          c.Model,
		Input:          texts,
		EncodingFormat: "float",
	}, &resp)
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	// Items go to their reported index; providers that omit it fall back to response order.
	vecs := make([][]float32, len(texts))
	for i, item := range resp.Data {
		if len(item.Embedding) != c.Dim {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", i, len(item.Embedding), c.Dim)
		}
		pos := item.Index
		if pos < 0 || pos >= len(texts) || vecs[pos] != nil {
			pos = i
		}
		if vecs[pos] != nil {
			return nil, fmt.Errorf("embedding for input %d returned twice", pos)
		}
		vec := make([]float32, c.Dim)
		for j, v := range item.Embedding {
			vec[j] = float32(v)
		}
		vecs[pos] = vec
	}
	return vecs, nil
}
