package citation

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_judge.go -package=mocks github.com/radulovicigor/CBCGchatbot/internal/citation Judge

import (
	"context"

	"github.com/radulovicigor/CBCGchatbot/internal/document"
)

// Judge answers yes/no relevance questions. It is optional; errors are never fatal.
type Judge interface {
	AnswersQuestion(ctx context.Context, question, answer string) (bool, error)
	SupportsAnswer(ctx context.Context, answer string, doc document.Document) (bool, error)
}
