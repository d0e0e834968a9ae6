package main

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/radulovicigor/CBCGchatbot/internal/app"
	"github.com/radulovicigor/CBCGchatbot/internal/ingest"
)

var (
	importNoRebuild bool
	faqNoRebuild    bool
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import scraper output into the collection",
	Long: `Appends the records of a parsed_data.json file to the document collection.
Records already stored (same id, URL or title) are skipped and records with empty
content are rejected. Defaults to DATA_DIR/parsed_data.json.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

var ingestFAQCmd = &cobra.Command{
	Use:   "ingest-faq [dir]",
	Short: "Chunk markdown FAQ files into the collection",
	Long: `Splits every markdown file under the directory into FAQ documents by heading
and stores them. Defaults to FAQ_DIR.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngestFAQ,
}

var buildIndexCmd = &cobra.Command{
	Use:   "build-index",
	Short: "Rebuild the semantic index from the collection",
	Args:  cobra.NoArgs,
	RunE:  runBuildIndex,
}

func init() {
	importCmd.Flags().BoolVar(&importNoRebuild, "no-rebuild", false, "skip the index rebuild after importing")
	ingestFAQCmd.Flags().BoolVar(&faqNoRebuild, "no-rebuild", false, "skip the index rebuild after ingesting")
	rootCmd.AddCommand(importCmd, ingestFAQCmd, buildIndexCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		path := filepath.Join(a.Config.DataDir, "parsed_data.json")
		if len(args) == 1 {
			path = args[0]
		}

		res, err := a.Pipeline.ImportJSON(ctx, path)
		if err != nil {
			return err
		}
		printResult(cmd, res)
		return rebuildIfChanged(ctx, cmd, a, res, importNoRebuild)
	})
}

func runIngestFAQ(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		dir := a.Config.FAQDir
		if len(args) == 1 {
			dir = args[0]
		}
		if dir == "" {
			return errors.New("no directory given and FAQ_DIR is not set")
		}

		res, err := a.Pipeline.IngestFAQ(ctx, dir)
		if err != nil {
			return err
		}
		printResult(cmd, res)
		return rebuildIfChanged(ctx, cmd, a, res, faqNoRebuild)
	})
}

func runBuildIndex(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		n, err := a.Pipeline.Rebuild(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("Indexed %d documents\n", n)
		return nil
	})
}

func rebuildIfChanged(ctx context.Context, cmd *cobra.Command, a *app.App, res ingest.Result, skip bool) error {
	if skip || res.Inserted == 0 {
		return nil
	}
	n, err := a.Pipeline.Rebuild(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Indexed %d documents\n", n)
	return nil
}

func printResult(cmd *cobra.Command, res ingest.Result) {
	cmd.Printf("Read %d, inserted %d, duplicates %d, rejected %d\n",
		res.Read, res.Inserted, res.Duplicates, res.Rejected)
}
