// Package vectorstore mirrors documents into hosted Qdrant collections and searches them.
package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks github.com/radulovicigor/CBCGchatbot/internal/vectorstore VectorStore

import "context"

// Point is one embedded document as stored in a collection.
// ID must be a UUID; see PointID.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult is a scored hit with its decoded payload.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// VectorStore is the subset of the hosted store used by ingestion and hosted retrieval.
type VectorStore interface {
	Upsert(ctx context.Context, collection string, points []Point) error
	Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error)
}
