package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_ask_service.go -package=mocks github.com/radulovicigor/CBCGchatbot/internal/service AskService
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_synthesizer.go -package=mocks github.com/radulovicigor/CBCGchatbot/internal/service Synthesizer,CitationSelector

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/radulovicigor/CBCGchatbot/internal/answer"
	"github.com/radulovicigor/CBCGchatbot/internal/contextutil"
	"github.com/radulovicigor/CBCGchatbot/internal/document"
	"github.com/radulovicigor/CBCGchatbot/internal/llm"
	"github.com/radulovicigor/CBCGchatbot/internal/rag"
	"github.com/radulovicigor/CBCGchatbot/internal/storage"
)

// MaxQuestionLength bounds the accepted question size in characters.
const MaxQuestionLength = 2000

// historyTurns is how many stored turns are replayed for a session.
const historyTurns = 6

// Synthesizer writes an answer from retrieved documents.
// Implemented by answer.Synthesizer.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, docs []document.Document, history []llm.Message) (answer.Result, error)
}

// CitationSelector picks at most one source for an answer.
// Implemented by citation.Selector.
type CitationSelector interface {
	Select(ctx context.Context, question, answerText string, docs []document.Document) *document.Citation
}

// AskRequest is a question in the domain layer.
type AskRequest struct {
	Question  string
	Lang      string
	SessionID string
	// History overrides stored session turns when non-empty.
	History []llm.Message
}

// AskResponse is the answer with zero or one source.
type AskResponse struct {
	Answer    string
	Sources   []document.Citation
	AnswerID  string
	SessionID string
}

// AskService answers questions.
type AskService interface {
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
}

// AskOptions tunes the pipeline.
type AskOptions struct {
	// K is the number of documents retrieved per question.
	K int
}

type askService struct {
	retriever   rag.Retriever
	synthesizer Synthesizer
	selector    CitationSelector
	sessions    storage.ConversationStore
	prefilters  []Prefilter
	k           int
}

// NewAskService creates the question pipeline. sessions may be nil to disable stored history.
func NewAskService(retriever rag.Retriever, synthesizer Synthesizer, selector CitationSelector, sessions storage.ConversationStore, opts AskOptions) AskService {
	if opts.K <= 0 {
		opts.K = rag.DefaultK
	}
	return &askService{
		retriever:   retriever,
		synthesizer: synthesizer,
		selector:    selector,
		sessions:    sessions,
		prefilters:  DefaultPrefilters(),
		k:           opts.K,
	}
}

// Ask runs pre-filters, retrieval, synthesis and citation selection.
func (s *askService) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		logger.WarnContext(ctx, "empty question in ask request")
		return AskResponse{}, &ValidationError{Field: "question", Message: "cannot be empty"}
	}
	if utf8.RuneCountInString(question) > MaxQuestionLength {
		return AskResponse{}, &ValidationError{Field: "question", Message: "is too long"}
	}

	sessionID := req.SessionID
	if sessionID == "" && s.sessions != nil {
		sessionID = uuid.NewString()
	}

	if f, ok := firstPrefilter(s.prefilters, question); ok {
		logger.InfoContext(ctx, "question answered by prefilter", "prefilter", f.Name)
		resp := AskResponse{Answer: f.Reply, Sources: []document.Citation{}, AnswerID: f.AnswerID, SessionID: sessionID}
		s.remember(ctx, sessionID, question, resp.Answer)
		return resp, nil
	}

	history := s.history(ctx, sessionID, req.History)

	docs, err := s.retriever.Retrieve(ctx, question, s.k)
	if err != nil {
		logger.ErrorContext(ctx, "retrieval failed", "error", err)
		return AskResponse{}, wrapKind(ErrRetrieval, "failed to retrieve documents", err)
	}

	if len(docs) == 0 {
		logger.InfoContext(ctx, "no documents retrieved")
		resp := AskResponse{Answer: answer.NoContextAnswer, Sources: []document.Citation{}, AnswerID: answer.IDNoContext, SessionID: sessionID}
		s.remember(ctx, sessionID, question, resp.Answer)
		return resp, nil
	}

	result, err := s.synthesizer.Synthesize(ctx, question, docs, history)
	if err != nil {
		logger.ErrorContext(ctx, "failed to synthesize answer", "error", err)
		return AskResponse{}, wrapKind(ErrExternalService, "failed to synthesize answer", err)
	}

	sources := []document.Citation{}
	if !reservedID(result.ID) {
		if cit := s.selector.Select(ctx, question, result.Text, docs); cit != nil {
			sources = append(sources, *cit)
		}
	}

	s.remember(ctx, sessionID, question, result.Text)

	logger.InfoContext(ctx, "ask request processed successfully",
		"answer_id", result.ID,
		"documents", len(docs),
		"sources", len(sources),
		"question_length", len(question),
	)
	return AskResponse{Answer: result.Text, Sources: sources, AnswerID: result.ID, SessionID: sessionID}, nil
}

// history prefers the caller's turns and falls back to the stored session.
func (s *askService) history(ctx context.Context, sessionID string, given []llm.Message) []llm.Message {
	if len(given) > 0 || s.sessions == nil || sessionID == "" {
		return given
	}
	turns, err := s.sessions.Recent(ctx, sessionID, historyTurns)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to load session history", "session_id", sessionID, "error", err)
		return nil
	}
	messages := make([]llm.Message, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	return messages
}

// remember stores the exchange; failures only cost future context.
func (s *askService) remember(ctx context.Context, sessionID, question, reply string) {
	if s.sessions == nil || sessionID == "" {
		return
	}
	logger := contextutil.LoggerFromContext(ctx)
	if err := s.sessions.Append(ctx, sessionID, llm.RoleUser, question); err != nil {
		logger.WarnContext(ctx, "failed to store question", "session_id", sessionID, "error", err)
		return
	}
	if err := s.sessions.Append(ctx, sessionID, llm.RoleAssistant, reply); err != nil {
		logger.WarnContext(ctx, "failed to store answer", "session_id", sessionID, "error", err)
	}
}

func reservedID(id string) bool {
	switch id {
	case answer.IDNoContext, answer.IDNoInfo, IDInappropriate, IDGreeting, IDUnclear:
		return true
	}
	return false
}
