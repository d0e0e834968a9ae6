package semantic

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/radulovicigor/CBCGchatbot/internal/contextutil"
	"github.com/radulovicigor/CBCGchatbot/internal/document"
)

const (
	// maxEmbedChars bounds the text sent to the embedding provider per document.
	maxEmbedChars = 8000
	// scaledRecencyWeight turns the integer recency bonus into a similarity offset.
	scaledRecencyWeight = 0.2
)

// RecencyMode selects how the recency bonus is blended into semantic scores.
type RecencyMode int

const (
	// RecencyScaled adds 0.2 times the integer recency bonus.
	RecencyScaled RecencyMode = iota
	// RecencyDirect adds 0.15, 0.10 or 0.05 for the 30, 90 and 365 day tiers.
	RecencyDirect
)

// Options configures an Index.
type Options struct {
	// Dim is the embedding dimension. Failed embeddings become zero vectors of this size.
	Dim int
	// Dir holds the persisted index. Empty keeps the index in memory only.
	Dir string
	// Concurrency bounds parallel embedding calls during a build.
	Concurrency int
	// RateLimit is the per-second budget for embedding calls made by Build. Zero disables limiting.
	RateLimit float64
	// Recency selects the score blending mode.
	Recency RecencyMode
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Result is one semantic hit.
type Result struct {
	Doc        document.Document
	Similarity float32
	Score      float64
}

type snapshot struct {
	docs    []document.Document
	vectors [][]float32
	dim     int
}

// Index is a flat inner-product index over L2-normalized document embeddings.
// Searches read an immutable snapshot; Build swaps in a new one only after it succeeds.
type Index struct {
	embedder Embedder
	cache    *Cache
	limiter  *rate.Limiter
	opts     Options
	snap     atomic.Pointer[snapshot]
	buildMu  sync.Mutex
}

// NewIndex creates an empty index.
func NewIndex(embedder Embedder, cache *Cache, opts Options) *Index {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if cache == nil {
		cache = NewCache(nil, "", opts.Dim)
	}

	limit := rate.Inf
	burst := 1
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
		burst = opts.Concurrency
	}

	return &Index{
		embedder: embedder,
		cache:    cache,
		limiter:  rate.NewLimiter(limit, burst),
		opts:     opts,
	}
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	snap := ix.snap.Load()
	if snap == nil {
		return 0
	}
	return len(snap.docs)
}

// Embed returns the embedding of text, from cache when possible. Query embeddings
// are not rate limited.
// Provider failures yield a zero vector of the configured dimension, which is not cached.
func (ix *Index) Embed(ctx context.Context, text string) []float32 {
	return ix.embed(ctx, text, false)
}

// embed waits on the build rate limiter when limited is set.
func (ix *Index) embed(ctx context.Context, text string, limited bool) []float32 {
	if vec, ok := ix.cache.Get(ctx, text); ok && len(vec) == ix.opts.Dim {
		return vec
	}

	logger := contextutil.LoggerFromContext(ctx)

	if limited {
		if err := ix.limiter.Wait(ctx); err != nil {
			logger.WarnContext(ctx, "embedding rate limiter aborted", "error", err)
			return make([]float32, ix.opts.Dim)
		}
	}

	vectors, err := ix.embedder.EmbedTexts(ctx, []string{text})
	if err == nil && (len(vectors) != 1 || len(vectors[0]) != ix.opts.Dim) {
		err = fmt.Errorf("unexpected embedding shape")
	}
	if err != nil {
		logger.WarnContext(ctx, "embedding failed, using zero vector", "error", err)
		return make([]float32, ix.opts.Dim)
	}

	ix.cache.Put(ctx, text, vectors[0])
	return vectors[0]
}

// EmbedText is the text embedded for doc: title and content, bounded for the provider.
func EmbedText(doc document.Document) string {
	return document.Truncate(doc.Title+" "+doc.Content, maxEmbedChars)
}

// Build embeds docs, persists the result, then publishes it to searchers.
// On failure the previously published snapshot stays in place.
func (ix *Index) Build(ctx context.Context, docs []document.Document) error {
	ix.buildMu.Lock()
	defer ix.buildMu.Unlock()

	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	snap := &snapshot{
		docs:    append([]document.Document(nil), docs...),
		vectors: make([][]float32, len(docs)),
		dim:     ix.opts.Dim,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			snap.vectors[i] = normalized(ix.embed(gctx, EmbedText(doc), true))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("index build cancelled: %w", err)
	}

	if ix.opts.Dir != "" {
		if err := saveSnapshot(ix.opts.Dir, snap); err != nil {
			return err
		}
	}

	ix.snap.Store(snap)
	logger.InfoContext(ctx, "semantic index built",
		"documents", len(docs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Load publishes the persisted index for corpus, rebuilding it when the files are
// missing, corrupt, or out of step with the corpus.
func (ix *Index) Load(ctx context.Context, corpus []document.Document) error {
	logger := contextutil.LoggerFromContext(ctx)

	if ix.opts.Dir == "" {
		return ix.Build(ctx, corpus)
	}

	snap, err := loadSnapshot(ix.opts.Dir, ix.opts.Dim)
	switch {
	case errors.Is(err, ErrIndexMissing):
		logger.InfoContext(ctx, "no persisted index, building", "dir", ix.opts.Dir)
		return ix.Build(ctx, corpus)
	case errors.Is(err, ErrIndexCorrupt):
		logger.WarnContext(ctx, "persisted index unreadable, rebuilding", "error", err)
		return ix.Build(ctx, corpus)
	case err != nil:
		return err
	}

	if stale(snap.docs, corpus) {
		logger.InfoContext(ctx, "persisted index is stale, rebuilding",
			"indexed", len(snap.docs),
			"corpus", len(corpus),
		)
		return ix.Build(ctx, corpus)
	}

	ix.snap.Store(snap)
	logger.InfoContext(ctx, "semantic index loaded", "documents", len(snap.docs))
	return nil
}

func stale(indexed, corpus []document.Document) bool {
	if len(indexed) != len(corpus) {
		return true
	}
	for i := range indexed {
		if indexed[i].ID != corpus[i].ID {
			return true
		}
	}
	return false
}

// Search returns up to k documents closest to query, blended with recency.
// Candidates are the top min(2k, n) by similarity; repeated non-empty URLs keep only
// their best-ranked document.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := ix.snap.Load()
	if k <= 0 || snap == nil || len(snap.docs) == 0 {
		return nil, nil
	}

	q := normalized(ix.Embed(ctx, query))

	order := make([]int, len(snap.vectors))
	sims := make([]float32, len(snap.vectors))
	for i, vec := range snap.vectors {
		order[i] = i
		sims[i] = dot(q, vec)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sims[order[a]] > sims[order[b]]
	})

	candidates := 2 * k
	if candidates > len(order) {
		candidates = len(order)
	}

	now := ix.opts.Now()
	seenURLs := make(map[string]struct{})
	results := make([]Result, 0, candidates)
	for _, idx := range order[:candidates] {
		doc := snap.docs[idx]
		if doc.URL != "" {
			if _, dup := seenURLs[doc.URL]; dup {
				continue
			}
			seenURLs[doc.URL] = struct{}{}
		}
		bonus := document.RecencyBonus(doc.PublishedAt, now)
		results = append(results, Result{
			Doc:        doc,
			Similarity: sims[idx],
			Score:      float64(sims[idx]) + ix.recencyOffset(bonus),
		})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (ix *Index) recencyOffset(bonus int) float64 {
	if ix.opts.Recency == RecencyDirect {
		switch bonus {
		case 10:
			return 0.15
		case 7:
			return 0.10
		case 3:
			return 0.05
		default:
			return 0
		}
	}
	return scaledRecencyWeight * float64(bonus)
}

// Documents strips scores from a result list.
func Documents(results []Result) []document.Document {
	docs := make([]document.Document, len(results))
	for i, r := range results {
		docs[i] = r.Doc
	}
	return docs
}
