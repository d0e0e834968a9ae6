// Package rag retrieves the documents an answer is grounded on.
package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_retriever.go -package=mocks github.com/radulovicigor/CBCGchatbot/internal/rag Retriever

import (
	"context"

	"github.com/radulovicigor/CBCGchatbot/internal/document"
)

const (
	// DefaultK is the number of documents returned when the caller does not ask for a count.
	DefaultK = 8
	// DefaultMaxChunks caps the result list before it is cut to k.
	DefaultMaxChunks = 12
)

// Retriever returns up to k documents relevant to query, best first.
// An empty result is a valid answer, not an error.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]document.Document, error)
}

func truncateDocs(docs []document.Document, maxChunks, k int) []document.Document {
	if maxChunks > 0 && len(docs) > maxChunks {
		docs = docs[:maxChunks]
	}
	if len(docs) > k {
		docs = docs[:k]
	}
	return docs
}
