package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/radulovicigor/CBCGchatbot/internal/app"
	"github.com/radulovicigor/CBCGchatbot/internal/contextutil"
	"github.com/radulovicigor/CBCGchatbot/internal/document"
	"github.com/radulovicigor/CBCGchatbot/internal/service"
)

// pdfSourcePrefix marks citations that point into the SEPA Q&A document.
const pdfSourcePrefix = "pdf:"

var evalCmd = &cobra.Command{
	Use:   "eval [golden.csv]",
	Short: "Score the pipeline against a golden question set",
	Long: `Asks every question of a CSV golden set (columns question, expected, page)
and reports how many answers contain the expected text and how many cite the
pdf source.`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
}

type goldenRow struct {
	Question string
	Expected string
	Page     string
}

// EvalSummary aggregates a golden-set run.
type EvalSummary struct {
	Total      int
	Matched    int
	WithSource int
	Errors     int
}

func runEval(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open golden set: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	rows, err := readGoldenSet(f)
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		if err := loadLocalIndex(ctx, a); err != nil {
			return err
		}
		evaluate(ctx, a.Ask, rows, cmd.OutOrStdout())
		return nil
	})
}

// readGoldenSet parses a CSV with a header row. Only the question column is required.
func readGoldenSet(r io.Reader) ([]goldenRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("golden set is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read golden set header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	if _, ok := cols["question"]; !ok {
		return nil, errors.New("golden set has no question column")
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []goldenRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read golden set: %w", err)
		}
		row := goldenRow{
			Question: field(record, "question"),
			Expected: field(record, "expected"),
			Page:     field(record, "page"),
		}
		if row.Question == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// evaluate asks every question and writes one line per row plus a summary.
// A row matches when its expected text appears in the answer, case-insensitively;
// rows without expected text always match.
func evaluate(ctx context.Context, svc service.AskService, rows []goldenRow, w io.Writer) EvalSummary {
	logger := contextutil.LoggerFromContext(ctx)
	var sum EvalSummary

	for _, row := range rows {
		sum.Total++
		label := document.Truncate(row.Question, 50)

		resp, err := svc.Ask(ctx, service.AskRequest{Question: row.Question, Lang: "me"})
		if err != nil {
			sum.Errors++
			logger.WarnContext(ctx, "golden question failed", "question", row.Question, "error", err)
			_, _ = fmt.Fprintf(w, "ERR %s... | %v\n", label, err)
			continue
		}

		match := row.Expected == "" || strings.Contains(strings.ToLower(resp.Answer), strings.ToLower(row.Expected))
		cited := citesPDF(resp.Sources)
		if match {
			sum.Matched++
		}
		if cited {
			sum.WithSource++
		}
		_, _ = fmt.Fprintf(w, "ok  %s... | match=%t | sources=%d\n", label, match, len(resp.Sources))
	}

	_, _ = fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 60))
	_, _ = fmt.Fprintf(w, "Results: %d/%d matched (%.1f%%)\n", sum.Matched, sum.Total, percent(sum.Matched, sum.Total))
	_, _ = fmt.Fprintf(w, "With sources: %d/%d (%.1f%%)\n", sum.WithSource, sum.Total, percent(sum.WithSource, sum.Total))
	if sum.Errors > 0 {
		_, _ = fmt.Fprintf(w, "Errors: %d\n", sum.Errors)
	}
	_, _ = fmt.Fprintf(w, "%s\n", strings.Repeat("=", 60))
	return sum
}

func citesPDF(sources []document.Citation) bool {
	for _, s := range sources {
		if strings.HasPrefix(s.Source, pdfSourcePrefix) {
			return true
		}
	}
	return false
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
