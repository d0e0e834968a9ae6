package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/radulovicigor/CBCGchatbot/internal/document"
)

const judgeSystemPrompt = "Ti procjenjuješ relevantnost. Odgovori isključivo jednom riječju: DA ili NE."

// judgeContentLimit bounds the document text sent to the judge.
const judgeContentLimit = 1500

// Judge asks the chat model yes/no relevance questions.
type Judge struct {
	client *Client
	params ChatParams
}

// NewJudge creates a Judge that answers with at most a few tokens.
func NewJudge(client *Client) *Judge {
	return &Judge{
		client: client,
		params: ChatParams{MaxTokens: 3},
	}
}

// AnswersQuestion reports whether answer addresses question.
func (j *Judge) AnswersQuestion(ctx context.Context, question, answer string) (bool, error) {
	prompt := fmt.Sprintf("Pitanje: %s\n\nOdgovor: %s\n\nDa li odgovor zaista odgovara na pitanje?", question, answer)
	return j.ask(ctx, prompt)
}

// SupportsAnswer reports whether doc contains the information stated in answer.
func (j *Judge) SupportsAnswer(ctx context.Context, answer string, doc document.Document) (bool, error) {
	prompt := fmt.Sprintf("Dokument: %s\n%s\n\nOdgovor: %s\n\nDa li dokument sadrži informacije iz odgovora?",
		doc.Title, document.Truncate(doc.Content, judgeContentLimit), answer)
	return j.ask(ctx, prompt)
}

func (j *Judge) ask(ctx context.Context, prompt string) (bool, error) {
	completion, err := j.client.ChatWithMessages(ctx, []Message{
		{Role: RoleSystem, Content: judgeSystemPrompt},
		{Role: RoleUser, Content: prompt},
	}, j.params)
	if err != nil {
		return false, fmt.Errorf("judge request failed: %w", err)
	}
	return parseVerdict(completion.Text)
}

// parseVerdict reads a DA/NE (or yes/no) reply.
func parseVerdict(text string) (bool, error) {
	verdict := strings.ToLower(strings.Trim(strings.TrimSpace(text), ".!"))
	switch {
	case strings.HasPrefix(verdict, "da"), strings.HasPrefix(verdict, "yes"):
		return true, nil
	case strings.HasPrefix(verdict, "ne"), strings.HasPrefix(verdict, "no"):
		return false, nil
	default:
		return false, fmt.Errorf("unrecognized judge verdict %q", text)
	}
}
