// Package semantic embeds documents and answers nearest-neighbour queries over them.
package semantic

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks github.com/radulovicigor/CBCGchatbot/internal/semantic Embedder

import "context"

// Embedder turns texts into fixed-size vectors.
// Implemented by llm.EmbeddingsClient.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
