// Package app assembles the question-answering pipeline from configuration.
// Both the API server and the operator CLI start from here.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/radulovicigor/CBCGchatbot/internal/answer"
	"github.com/radulovicigor/CBCGchatbot/internal/citation"
	"github.com/radulovicigor/CBCGchatbot/internal/config"
	"github.com/radulovicigor/CBCGchatbot/internal/contextutil"
	"github.com/radulovicigor/CBCGchatbot/internal/ingest"
	"github.com/radulovicigor/CBCGchatbot/internal/llm"
	"github.com/radulovicigor/CBCGchatbot/internal/rag"
	"github.com/radulovicigor/CBCGchatbot/internal/semantic"
	"github.com/radulovicigor/CBCGchatbot/internal/service"
	"github.com/radulovicigor/CBCGchatbot/internal/storage"
	"github.com/radulovicigor/CBCGchatbot/internal/vectorstore"
)

// App holds the wired components.
type App struct {
	Config        *config.Config
	DB            *sql.DB
	Documents     *storage.DocumentRepo
	Conversations *storage.ConversationRepo
	Embeddings    *storage.EmbeddingRepo
	Index         *semantic.Index
	Pipeline      *ingest.Pipeline
	Retriever     rag.Retriever
	Ask           service.AskService

	// Qdrant is nil unless a hosted deployment is configured.
	Qdrant *vectorstore.QdrantStore
}

// NewLogger builds the process logger from the configured level and format.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// New opens the database and wires every component. The semantic index is left
// empty; call LoadIndex before serving local retrieval.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := contextutil.LoggerFromContext(ctx)

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.InfoContext(ctx, "database initialized", "path", cfg.DBPath)

	a := &App{
		Config:        cfg,
		DB:            db,
		Documents:     storage.NewDocumentRepo(db),
		Conversations: storage.NewConversationRepo(db),
		Embeddings:    storage.NewEmbeddingRepo(db),
	}

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingDim)
	a.Index = semantic.NewIndex(embedder, semantic.NewCache(a.Embeddings, cfg.EmbeddingModelName, cfg.EmbeddingDim), semantic.Options{
		Dim:         cfg.EmbeddingDim,
		Dir:         cfg.IndexDir,
		Concurrency: cfg.EmbeddingWorkers,
		RateLimit:   cfg.EmbeddingRateLimit,
	})

	var mirror *ingest.MirrorOptions
	if cfg.UseHostedRetrieval() {
		a.Qdrant, err = vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
		}
		mirror = &ingest.MirrorOptions{
			Store:          a.Qdrant,
			FAQCollection:  cfg.QdrantFAQCollection,
			NewsCollection: cfg.QdrantNewsCollection,
			Dim:            cfg.EmbeddingDim,
		}
		a.Retriever = rag.NewHostedRetriever(a.Qdrant, a.Index, cfg.QdrantFAQCollection, cfg.QdrantNewsCollection, cfg.MaxChunks)
		logger.InfoContext(ctx, "using hosted retrieval", "url", cfg.QdrantURL)
	} else {
		pinned, err := loadPinnedFacts(cfg)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		a.Retriever = rag.NewHybridRetriever(a.Documents, a.Index, pinned, rag.HybridOptions{
			MaxChunks:         cfg.MaxChunks,
			RecencyWindowDays: cfg.RecencyWindowDays,
		})
		logger.InfoContext(ctx, "using local hybrid retrieval", "index_dir", cfg.IndexDir)
	}
	a.Pipeline = ingest.NewPipeline(a.Documents, a.Index, mirror)

	chat := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)
	synthesizer := answer.NewSynthesizer(chat, answer.Options{
		Model:       cfg.LLMModelName,
		Temperature: cfg.AnswerTemperature,
		MaxTokens:   cfg.AnswerMaxTokens,
	})

	var judge citation.Judge
	if cfg.JudgeEnabled {
		judge = llm.NewJudge(chat)
	}
	selector := citation.NewSelector(judge, citation.DefaultThresholds())

	a.Ask = service.NewAskService(a.Retriever, synthesizer, selector, a.Conversations, service.AskOptions{
		K: cfg.RetrievalK,
	})

	logger.DebugContext(ctx, "pipeline wired",
		"llm_model", cfg.LLMModelName,
		"embedding_model", cfg.EmbeddingModelName,
		"judge_enabled", cfg.JudgeEnabled,
	)
	return a, nil
}

func loadPinnedFacts(cfg *config.Config) (*rag.PinnedFacts, error) {
	if cfg.PinnedFactsPath == "" {
		return rag.DefaultPinnedFacts()
	}
	pinned, err := rag.LoadPinnedFacts(cfg.PinnedFactsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pinned facts from %s: %w", cfg.PinnedFactsPath, err)
	}
	return pinned, nil
}

// LoadIndex publishes the persisted semantic index, rebuilding it when it is
// missing or out of step with the collection.
func (a *App) LoadIndex(ctx context.Context) error {
	docs, err := a.Documents.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if err := a.Index.Load(ctx, docs); err != nil {
		return fmt.Errorf("failed to load semantic index: %w", err)
	}
	return nil
}

// Close releases the database and the Qdrant connection.
func (a *App) Close() error {
	var errs []error
	if a.Qdrant != nil {
		errs = append(errs, a.Qdrant.Close())
	}
	errs = append(errs, a.DB.Close())
	return errors.Join(errs...)
}
