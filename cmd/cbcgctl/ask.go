package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/radulovicigor/CBCGchatbot/internal/app"
	"github.com/radulovicigor/CBCGchatbot/internal/document"
	"github.com/radulovicigor/CBCGchatbot/internal/handlers"
	"github.com/radulovicigor/CBCGchatbot/internal/service"
)

var (
	askSession string
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question with the local pipeline",
	Long: `Runs the full pipeline for a question: pre-filters, retrieval, answer synthesis
and citation selection. Pass --session to continue a stored conversation.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session id for conversation history")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the response as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		if err := loadLocalIndex(ctx, a); err != nil {
			return err
		}

		resp, err := a.Ask.Ask(ctx, service.AskRequest{
			Question:  args[0],
			Lang:      "me",
			SessionID: askSession,
		})
		if err != nil {
			return fmt.Errorf("ask failed: %w", err)
		}

		if askJSON {
			sources := resp.Sources
			if sources == nil {
				sources = []document.Citation{}
			}
			return writeJSON(cmd.OutOrStdout(), handlers.AskResponse{
				Answer:    resp.Answer,
				Sources:   sources,
				AnswerID:  resp.AnswerID,
				SessionID: resp.SessionID,
			})
		}
		printAnswer(cmd.OutOrStdout(), resp)
		return nil
	})
}

func printAnswer(w io.Writer, resp service.AskResponse) {
	_, _ = fmt.Fprintln(w, resp.Answer)
	for _, src := range resp.Sources {
		_, _ = fmt.Fprintf(w, "\nIzvor: %s\n", formatCitation(src))
	}
	if resp.SessionID != "" {
		_, _ = fmt.Fprintf(w, "\nsession: %s (%s)\n", resp.SessionID, resp.AnswerID)
	}
}

func formatCitation(c document.Citation) string {
	s := c.Title + " (" + c.Source
	if c.Page != nil {
		s += fmt.Sprintf(", str. %d", *c.Page)
	}
	if c.PublishedAt != "" {
		s += ", " + c.PublishedAt
	}
	s += ")"
	if c.URL != "" {
		s += " " + c.URL
	}
	return s
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
