// Package ingest loads documents into the collection and keeps the semantic index in step with it.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/radulovicigor/CBCGchatbot/internal/contextutil"
	"github.com/radulovicigor/CBCGchatbot/internal/document"
	"github.com/radulovicigor/CBCGchatbot/internal/semantic"
	"github.com/radulovicigor/CBCGchatbot/internal/storage"
	"github.com/radulovicigor/CBCGchatbot/internal/vectorstore"
)

// mirrorBatchSize bounds the points sent per upsert call.
const mirrorBatchSize = 64

// Indexer is the semantic index rebuilt after every import.
type Indexer interface {
	Build(ctx context.Context, docs []document.Document) error
	Embed(ctx context.Context, text string) []float32
}

// Mirror is a hosted vector store that receives a copy of every rebuilt corpus.
type Mirror interface {
	vectorstore.VectorStore
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error
}

// MirrorOptions routes documents to hosted collections by type.
type MirrorOptions struct {
	Store          Mirror
	FAQCollection  string
	NewsCollection string
	Dim            int
}

// Result counts what an import did with its records.
type Result struct {
	Read       int `json:"read"`
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
}

// Pipeline orchestrates imports into the document store and index rebuilds.
type Pipeline struct {
	docs    storage.DocumentStore
	index   Indexer
	mirror  *MirrorOptions
	chunker *FAQChunker
}

// NewPipeline creates a new ingestion pipeline. mirror may be nil.
func NewPipeline(docs storage.DocumentStore, index Indexer, mirror *MirrorOptions) *Pipeline {
	return &Pipeline{
		docs:    docs,
		index:   index,
		mirror:  mirror,
		chunker: NewFAQChunker(),
	}
}

// ImportJSON appends the records of a scraper output file to the collection.
// Records are normalized first; empty ones are rejected and already known ones skipped.
func (p *Pipeline) ImportJSON(ctx context.Context, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var records []document.Document
	if err := json.Unmarshal(data, &records); err != nil {
		return Result{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	res, err := p.store(ctx, records)
	if err != nil {
		return res, err
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "imported collection file",
		"path", path,
		"read", res.Read,
		"inserted", res.Inserted,
		"duplicates", res.Duplicates,
		"rejected", res.Rejected,
	)
	return res, nil
}

// IngestFAQ chunks every markdown file under dir into FAQ documents and stores them.
func (p *Pipeline) IngestFAQ(ctx context.Context, dir string) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := ScanMarkdown(ctx, dir)
	if err != nil {
		return Result{}, err
	}

	var total Result
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return total, fmt.Errorf("failed to read file %s: %w", path, err)
		}

		docs := p.chunker.Chunk(content, path)
		if len(docs) == 0 {
			logger.WarnContext(ctx, "no chunks generated", "path", path)
			continue
		}

		res, err := p.store(ctx, docs)
		total.add(res)
		if err != nil {
			return total, err
		}
		logger.DebugContext(ctx, "ingested faq file", "path", path, "chunks", len(docs), "inserted", res.Inserted)
	}

	logger.InfoContext(ctx, "ingested faq directory",
		"dir", dir,
		"files", len(files),
		"inserted", total.Inserted,
		"duplicates", total.Duplicates,
	)
	return total, nil
}

func (p *Pipeline) store(ctx context.Context, records []document.Document) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)
	res := Result{Read: len(records)}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		doc := rec.Normalize()
		if err := doc.Validate(); err != nil {
			res.Rejected++
			logger.DebugContext(ctx, "rejected record", "id", doc.ID, "error", err)
			continue
		}

		exists, err := p.docs.Exists(ctx, doc)
		if err != nil {
			return res, fmt.Errorf("failed to check existing document: %w", err)
		}
		if exists {
			res.Duplicates++
			continue
		}

		inserted, err := p.docs.Insert(ctx, doc)
		if err != nil {
			return res, fmt.Errorf("failed to insert document %s: %w", doc.ID, err)
		}
		if inserted {
			res.Inserted++
		} else {
			res.Duplicates++
		}
	}
	return res, nil
}

func (r *Result) add(o Result) {
	r.Read += o.Read
	r.Inserted += o.Inserted
	r.Duplicates += o.Duplicates
	r.Rejected += o.Rejected
}

// Rebuild rebuilds the semantic index from the whole collection and refreshes the mirror.
// It returns the number of indexed documents.
func (p *Pipeline) Rebuild(ctx context.Context) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	docs, err := p.docs.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list documents: %w", err)
	}

	if err := p.index.Build(ctx, docs); err != nil {
		return 0, fmt.Errorf("failed to build index: %w", err)
	}

	if p.mirror != nil {
		if err := p.syncMirror(ctx, docs); err != nil {
			return len(docs), fmt.Errorf("failed to mirror documents: %w", err)
		}
	}

	logger.InfoContext(ctx, "rebuild completed", "documents", len(docs), "duration_ms", time.Since(start).Milliseconds())
	return len(docs), nil
}

// syncMirror upserts every document into the collection matching its type.
// Embeddings come from the index, so they are served from the cache the build just filled.
func (p *Pipeline) syncMirror(ctx context.Context, docs []document.Document) error {
	logger := contextutil.LoggerFromContext(ctx)

	byCollection := map[string][]vectorstore.Point{}
	for _, doc := range docs {
		collection := p.mirror.FAQCollection
		if doc.Type == document.TypeNews {
			collection = p.mirror.NewsCollection
		}
		vec := p.index.Embed(ctx, semantic.EmbedText(doc))
		byCollection[collection] = append(byCollection[collection], vectorstore.DocumentPoint(doc, vec))
	}

	for _, collection := range []string{p.mirror.FAQCollection, p.mirror.NewsCollection} {
		points := byCollection[collection]
		if len(points) == 0 {
			continue
		}
		if err := p.mirror.Store.EnsureCollection(ctx, collection, p.mirror.Dim); err != nil {
			return err
		}
		for start := 0; start < len(points); start += mirrorBatchSize {
			end := min(start+mirrorBatchSize, len(points))
			if err := p.mirror.Store.Upsert(ctx, collection, points[start:end]); err != nil {
				return err
			}
		}
		logger.InfoContext(ctx, "mirrored documents", "collection", collection, "points", len(points))
	}
	return nil
}
