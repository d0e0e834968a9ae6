package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/radulovicigor/CBCGchatbot/internal/app"
	"github.com/radulovicigor/CBCGchatbot/internal/document"
	"github.com/radulovicigor/CBCGchatbot/internal/ingest"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show collection and index statistics",
	Long: `Reports document counts by type and source, the newest and oldest news dates,
the cached embedding count and the size of the persisted index. With QDRANT_URL set
the hosted collections are reported too.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output status as JSON")
	rootCmd.AddCommand(statusCmd)
}

type statusReport struct {
	ingest.Status
	Database         string             `json:"database"`
	CachedEmbeddings int                `json:"cached_embeddings"`
	IndexDir         string             `json:"index_dir"`
	IndexBytes       int64              `json:"index_bytes"`
	Collections      []collectionReport `json:"collections,omitempty"`
}

type collectionReport struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	Status string `json:"status"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		docs, err := a.Documents.ListAll(ctx)
		if err != nil {
			return err
		}
		cached, err := a.Embeddings.Count(ctx)
		if err != nil {
			return err
		}

		report := statusReport{
			Status:           ingest.CollectStatus(docs),
			Database:         a.Config.DBPath,
			CachedEmbeddings: cached,
			IndexDir:         a.Config.IndexDir,
			IndexBytes:       dirSize(a.Config.IndexDir),
		}
		if a.Qdrant != nil {
			report.Collections = hostedCollections(ctx, a)
		}

		if statusJSON {
			return writeJSON(cmd.OutOrStdout(), report)
		}
		printStatus(cmd.OutOrStdout(), report)
		return nil
	})
}

func hostedCollections(ctx context.Context, a *app.App) []collectionReport {
	var reports []collectionReport
	for _, name := range []string{a.Config.QdrantFAQCollection, a.Config.QdrantNewsCollection} {
		info, err := a.Qdrant.GetCollectionInfo(ctx, name)
		if err != nil {
			reports = append(reports, collectionReport{Name: name, Status: "unavailable"})
			continue
		}
		reports = append(reports, collectionReport{Name: name, Points: info.PointsCount, Status: info.Status})
	}
	return reports
}

// dirSize sums the sizes of the regular files directly inside dir.
func dirSize(dir string) int64 {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	var total int64
	for _, e := range entries {
		if info, err := e.Info(); err == nil && info.Mode().IsRegular() {
			total += info.Size()
		}
	}
	return total
}

func printStatus(w io.Writer, r statusReport) {
	p := func(format string, args ...any) {
		_, _ = fmt.Fprintf(w, format, args...)
	}

	p("Database: %s\n", r.Database)
	p("Total documents: %d\n", r.Total)
	p("  faq:  %d\n", r.ByType[document.TypeFAQ])
	p("  news: %d\n", r.ByType[document.TypeNews])

	sources := make([]string, 0, len(r.BySource))
	for src := range r.BySource {
		sources = append(sources, src)
	}
	sort.Slice(sources, func(i, j int) bool {
		if r.BySource[sources[i]] != r.BySource[sources[j]] {
			return r.BySource[sources[i]] > r.BySource[sources[j]]
		}
		return sources[i] < sources[j]
	})
	p("\nBy source:\n")
	for _, src := range sources {
		p("  %-30s %d\n", src, r.BySource[src])
	}

	if r.NewestNews != "" {
		p("\nNews dates: %s .. %s\n", r.OldestNews, r.NewestNews)
	}
	if r.Undated > 0 {
		p("Undated news: %d\n", r.Undated)
	}

	p("\nTokens per document: min %d, max %d, mean %.2f, p95 %d\n",
		r.Tokens.Min, r.Tokens.Max, r.Tokens.Mean, r.Tokens.P95)
	p("Cached embeddings: %d\n", r.CachedEmbeddings)
	p("Index: %s (%d bytes)\n", r.IndexDir, r.IndexBytes)

	for _, c := range r.Collections {
		p("Qdrant %s: %d points (%s)\n", c.Name, c.Points, c.Status)
	}
}
