package rag

import (
	"context"
	"fmt"

	"github.com/radulovicigor/CBCGchatbot/internal/contextutil"
	"github.com/radulovicigor/CBCGchatbot/internal/document"
	"github.com/radulovicigor/CBCGchatbot/internal/semantic"
	"github.com/radulovicigor/CBCGchatbot/internal/vectorstore"
)

// QueryEmbedder embeds a single query string.
// Implemented by semantic.Index.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) []float32
}

// HostedRetriever searches the FAQ and news collections of a Qdrant deployment.
type HostedRetriever struct {
	store          vectorstore.VectorStore
	embedder       QueryEmbedder
	faqCollection  string
	newsCollection string
	maxChunks      int
}

// NewHostedRetriever creates a retriever backed by Qdrant collections.
func NewHostedRetriever(store vectorstore.VectorStore, embedder QueryEmbedder, faqCollection, newsCollection string, maxChunks int) *HostedRetriever {
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}
	return &HostedRetriever{
		store:          store,
		embedder:       embedder,
		faqCollection:  faqCollection,
		newsCollection: newsCollection,
		maxChunks:      maxChunks,
	}
}

// Retrieve returns the top k FAQ hits followed by the top k/2 news hits.
func (r *HostedRetriever) Retrieve(ctx context.Context, query string, k int) ([]document.Document, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		k = DefaultK
	}

	vec := r.embedder.Embed(ctx, query)
	if isZero(vec) {
		logger.WarnContext(ctx, "query embedding unavailable, hosted retrieval skipped")
		return []document.Document{}, nil
	}

	faqHits, err := r.store.Search(ctx, r.faqCollection, vec, k, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search faq collection: %w", err)
	}

	docs := make([]document.Document, 0, k+k/2)
	for _, hit := range faqHits {
		doc := vectorstore.DocumentFromPayload(hit.Meta)
		if doc.Title == "" {
			doc.Title = "SEPA Q&A"
		}
		if doc.Source == "" {
			doc.Source = "pdf:SEPA_QnA"
		}
		if doc.Type == "" {
			doc.Type = document.TypeFAQ
		}
		docs = append(docs, doc)
	}

	if newsK := k / 2; newsK > 0 {
		newsHits, err := r.store.Search(ctx, r.newsCollection, vec, newsK, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to search news collection: %w", err)
		}
		for _, hit := range newsHits {
			doc := vectorstore.DocumentFromPayload(hit.Meta)
			if doc.Source == "" {
				doc.Source = "cbcg.me"
			}
			doc.Type = document.TypeNews
			docs = append(docs, doc)
		}
	}

	docs = dropEmpty(docs)
	if len(docs) > r.maxChunks {
		docs = docs[:r.maxChunks]
	}

	logger.DebugContext(ctx, "hosted retrieval completed", "faq", len(faqHits), "documents", len(docs))
	return docs, nil
}

func dropEmpty(docs []document.Document) []document.Document {
	kept := docs[:0]
	for _, doc := range docs {
		if doc.Content != "" {
			kept = append(kept, doc)
		}
	}
	return kept
}

func isZero(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

var _ QueryEmbedder = (*semantic.Index)(nil)
