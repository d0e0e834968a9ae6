package rag

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/radulovicigor/CBCGchatbot/internal/contextutil"
	"github.com/radulovicigor/CBCGchatbot/internal/document"
	"github.com/radulovicigor/CBCGchatbot/internal/lexical"
	"github.com/radulovicigor/CBCGchatbot/internal/semantic"
)

// DocumentLister reads the whole document collection.
// Implemented by storage.DocumentRepo.
type DocumentLister interface {
	ListAll(ctx context.Context) ([]document.Document, error)
}

// SemanticSearcher answers nearest-neighbour queries.
// Implemented by semantic.Index.
type SemanticSearcher interface {
	Search(ctx context.Context, query string, k int) ([]semantic.Result, error)
}

// HybridOptions tunes a HybridRetriever. Zero values take the package defaults.
type HybridOptions struct {
	MaxChunks         int
	RecencyWindowDays int
	Now               func() time.Time
}

// HybridRetriever fuses lexical and semantic rankings over the local collection.
type HybridRetriever struct {
	store    DocumentLister
	semantic SemanticSearcher
	pinned   *PinnedFacts
	fallback []document.Document
	opts     HybridOptions
}

// NewHybridRetriever creates a retriever. pinned may be nil to disable fact injection.
func NewHybridRetriever(store DocumentLister, searcher SemanticSearcher, pinned *PinnedFacts, opts HybridOptions) *HybridRetriever {
	if opts.MaxChunks <= 0 {
		opts.MaxChunks = DefaultMaxChunks
	}
	if opts.RecencyWindowDays <= 0 {
		opts.RecencyWindowDays = DefaultRecencyWindowDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &HybridRetriever{
		store:    store,
		semantic: searcher,
		pinned:   pinned,
		fallback: FallbackDocuments(),
		opts:     opts,
	}
}

// Retrieve runs lexical and semantic search in parallel and fuses the rankings.
//
// Queries asking for current information only see documents from the recency
// window; if none qualify the result is empty. Pinned facts matching the query
// are placed first. An empty or unreadable store yields the fallback documents.
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, k int) ([]document.Document, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		k = DefaultK
	}

	docs, err := r.store.ListAll(ctx)
	if err != nil {
		logger.WarnContext(ctx, "document store unavailable, serving fallback documents", "error", err)
		return truncateDocs(r.fallback, r.opts.MaxChunks, k), nil
	}
	if len(docs) == 0 {
		logger.InfoContext(ctx, "document store empty, serving fallback documents")
		return truncateDocs(r.fallback, r.opts.MaxChunks, k), nil
	}

	now := r.opts.Now()
	candidates := 2 * k

	var lexicalDocs, semanticDocs []document.Document
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lexicalDocs = lexical.Documents(lexical.Search(query, docs, candidates, now))
		return nil
	})
	g.Go(func() error {
		if r.semantic == nil {
			return nil
		}
		results, err := r.semantic.Search(gctx, query, candidates)
		if err != nil {
			logger.WarnContext(ctx, "semantic search failed, using lexical results only", "error", err)
			return nil
		}
		semanticDocs = semantic.Documents(results)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fusedScores := ReciprocalRankFusion(lexicalDocs, semanticDocs)
	fused := make([]document.Document, len(fusedScores))
	for i, f := range fusedScores {
		fused[i] = f.Doc
	}

	logger.DebugContext(ctx, "hybrid retrieval fused",
		"lexical", len(lexicalDocs),
		"semantic", len(semanticDocs),
		"fused", len(fused),
	)

	if WantsRecent(query) {
		fused = filterRecent(fused, now, r.opts.RecencyWindowDays)
		if len(fused) == 0 {
			logger.InfoContext(ctx, "no documents inside recency window", "window_days", r.opts.RecencyWindowDays)
			return []document.Document{}, nil
		}
	}

	fused = prependPinned(r.pinned.Match(query), fused)

	return truncateDocs(fused, r.opts.MaxChunks, k), nil
}
