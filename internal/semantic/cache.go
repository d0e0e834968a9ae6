package semantic

import (
	"context"
	"fmt"
	"sync"

	"github.com/radulovicigor/CBCGchatbot/internal/contextutil"
	"github.com/radulovicigor/CBCGchatbot/internal/document"
)

// CacheStore is the durable layer behind Cache.
// Implemented by storage.EmbeddingRepo.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]float32, error)
	Put(ctx context.Context, key string, vec []float32) error
}

// Cache maps embedding model, dimension and content hash to embeddings.
// Vectors of any other dimension are treated as misses. Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]float32
	store   CacheStore
	model   string
	dim     int
}

// NewCache creates a cache for vectors of dim produced by model.
// store may be nil for a memory-only cache.
func NewCache(store CacheStore, model string, dim int) *Cache {
	return &Cache{
		entries: make(map[string][]float32),
		store:   store,
		model:   model,
		dim:     dim,
	}
}

func (c *Cache) key(text string) string {
	return fmt.Sprintf("%s:%d:%s", c.model, c.dim, document.HashContent(text))
}

// Get returns the cached vector for text, consulting the durable store on a memory miss.
func (c *Cache) Get(ctx context.Context, text string) ([]float32, bool) {
	key := c.key(text)

	c.mu.RLock()
	vec, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return vec, true
	}

	if c.store == nil {
		return nil, false
	}
	vec, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	if len(vec) != c.dim {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "ignoring cached embedding of wrong size",
			"size", len(vec), "expected", c.dim)
		return nil, false
	}

	c.mu.Lock()
	c.entries[key] = vec
	c.mu.Unlock()
	return vec, true
}

// Put records vec for text. Vectors of the wrong size are dropped.
// Write-through failures are logged and otherwise ignored.
func (c *Cache) Put(ctx context.Context, text string, vec []float32) {
	if len(vec) != c.dim {
		return
	}
	key := c.key(text)

	c.mu.Lock()
	c.entries[key] = vec
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	if err := c.store.Put(ctx, key, vec); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to persist embedding", "error", err)
	}
}

// Len returns the number of in-memory entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
