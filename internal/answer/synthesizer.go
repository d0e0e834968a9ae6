// Package answer turns retrieved documents into a short plain-text answer.
package answer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_completer.go -package=mocks github.com/radulovicigor/CBCGchatbot/internal/answer Completer

import (
	"context"
	"fmt"

	"github.com/radulovicigor/CBCGchatbot/internal/contextutil"
	"github.com/radulovicigor/CBCGchatbot/internal/document"
	"github.com/radulovicigor/CBCGchatbot/internal/llm"
)

// Reserved answer ids.
const (
	IDNoContext = "no-context"
	IDNoInfo    = "no-info"
)

const (
	// NoContextAnswer is returned when retrieval produced nothing to answer from.
	NoContextAnswer = "Trenutno nemam pouzdan izvor za ovo."
	// NoInfoAnswer replaces answers caught by an override rule.
	NoInfoAnswer = "Nažalost, nemam tu informaciju u dostupnim izvorima."
)

// Completer is the completion capability used to write answers.
type Completer interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (llm.Completion, error)
}

// Options controls the completion call.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// DefaultOptions matches the production answer settings.
func DefaultOptions() Options {
	return Options{Temperature: 0.1, MaxTokens: 800}
}

// Result is a finished answer.
type Result struct {
	Text string
	ID   string
	// Override names the rule that replaced the model output, if any.
	Override string
}

// Synthesizer writes answers with a single completion call and cleans the output.
type Synthesizer struct {
	completer Completer
	params    llm.ChatParams
	rules     []Rule
	overrides []OverrideRule
}

// NewSynthesizer creates a Synthesizer with the default sanitize and override rules.
func NewSynthesizer(completer Completer, opts Options) *Synthesizer {
	return &Synthesizer{
		completer: completer,
		params: llm.ChatParams{
			Model:       opts.Model,
			MaxTokens:   opts.MaxTokens,
			Temperature: opts.Temperature,
		},
		rules:     DefaultRules(),
		overrides: DefaultOverrides(),
	}
}

// Synthesize answers question from docs. With no docs the model is not called.
// A completion failure is returned to the caller; there is no fallback answer.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, docs []document.Document, history []llm.Message) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(docs) == 0 {
		return Result{Text: NoContextAnswer, ID: IDNoContext}, nil
	}

	completion, err := s.completer.ChatWithMessages(ctx, BuildMessages(question, docs, history), s.params)
	if err != nil {
		return Result{}, fmt.Errorf("failed to generate answer: %w", err)
	}

	cleaned := Sanitize(completion.Text, s.rules)
	if rule := firstOverride(s.overrides, question, completion.Text, cleaned); rule != "" {
		logger.DebugContext(ctx, "answer overridden", "rule", rule, "raw_length", len(completion.Text))
		return Result{Text: NoInfoAnswer, ID: IDNoInfo, Override: rule}, nil
	}

	logger.DebugContext(ctx, "answer synthesized",
		"answer_id", completion.ID,
		"raw_length", len(completion.Text),
		"clean_length", len(cleaned),
	)
	return Result{Text: cleaned, ID: completion.ID}, nil
}
