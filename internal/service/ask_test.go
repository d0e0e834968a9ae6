package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/radulovicigor/CBCGchatbot/internal/answer"
	answermocks "github.com/radulovicigor/CBCGchatbot/internal/answer/mocks"
	"github.com/radulovicigor/CBCGchatbot/internal/citation"
	"github.com/radulovicigor/CBCGchatbot/internal/document"
	"github.com/radulovicigor/CBCGchatbot/internal/llm"
	"github.com/radulovicigor/CBCGchatbot/internal/rag"
	ragmocks "github.com/radulovicigor/CBCGchatbot/internal/rag/mocks"
	"github.com/radulovicigor/CBCGchatbot/internal/service"
	"github.com/radulovicigor/CBCGchatbot/internal/service/mocks"
	"github.com/radulovicigor/CBCGchatbot/internal/storage"
	storagemocks "github.com/radulovicigor/CBCGchatbot/internal/storage/mocks"
)

func init() {
	// Set default logger to discard output for cleaner test output
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// testContext returns a context for testing.
func testContext() context.Context {
	return context.Background()
}

var testNow = time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC)

const sepaAnswer = "SEPA je jedinstvena platna oblast u kojoj građani, kompanije i pravne osobe izvršavaju i primaju euro plaćanja."

func sepaDoc() document.Document {
	return document.Document{ID: "d1", Title: "SEPA Q&A", Content: "SEPA je platna oblast.", Source: "pdf:SEPA_QnA", Type: document.TypeFAQ}
}

func TestAskService_Prefilters(t *testing.T) {
	tests := []struct {
		name       string
		question   string
		wantAnswer string
		wantID     string
	}{
		{"greeting", "Ćao", answer.GreetingReply, service.IDGreeting},
		{"inappropriate", "Šta je ovo jebem ti SEPA", answer.InappropriateReply, service.IDInappropriate},
		{"unclear", "???", service.UnclearReply, service.IDUnclear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			// no retrieval, synthesis or citation expected
			svc := service.NewAskService(ragmocks.NewMockRetriever(ctrl), mocks.NewMockSynthesizer(ctrl), mocks.NewMockCitationSelector(ctrl), nil, service.AskOptions{})

			resp, err := svc.Ask(testContext(), service.AskRequest{Question: tt.question, Lang: "mne"})
			if err != nil {
				t.Fatalf("Ask() unexpected error: %v", err)
			}
			if resp.Answer != tt.wantAnswer {
				t.Errorf("Ask() answer = %q, want %q", resp.Answer, tt.wantAnswer)
			}
			if resp.AnswerID != tt.wantID {
				t.Errorf("Ask() answer_id = %q, want %q", resp.AnswerID, tt.wantID)
			}
			if resp.Sources == nil || len(resp.Sources) != 0 {
				t.Errorf("Ask() sources = %v, want empty list", resp.Sources)
			}
		})
	}
}

func TestAskService_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := service.NewAskService(ragmocks.NewMockRetriever(ctrl), mocks.NewMockSynthesizer(ctrl), mocks.NewMockCitationSelector(ctrl), nil, service.AskOptions{})

	_, err := svc.Ask(testContext(), service.AskRequest{Question: "   "})

	var validationErr *service.ValidationError
	if !errors.As(err, &validationErr) || validationErr.Field != "question" {
		t.Fatalf("Ask() error = %v, want validation error on question", err)
	}
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Error("Ask() error should match ErrInvalidInput")
	}
}

func TestAskService_Pipeline(t *testing.T) {
	ctrl := gomock.NewController(t)
	retriever := ragmocks.NewMockRetriever(ctrl)
	synth := mocks.NewMockSynthesizer(ctrl)
	selector := mocks.NewMockCitationSelector(ctrl)
	svc := service.NewAskService(retriever, synth, selector, nil, service.AskOptions{K: 8})

	docs := []document.Document{sepaDoc()}
	cit := &document.Citation{Title: "SEPA Q&A", Source: "pdf:SEPA_QnA"}

	gomock.InOrder(
		retriever.EXPECT().Retrieve(gomock.Any(), "Šta je SEPA?", 8).Return(docs, nil),
		synth.EXPECT().Synthesize(gomock.Any(), "Šta je SEPA?", docs, gomock.Nil()).Return(answer.Result{Text: sepaAnswer, ID: "chatcmpl-1"}, nil),
		selector.EXPECT().Select(gomock.Any(), "Šta je SEPA?", sepaAnswer, docs).Return(cit),
	)

	resp, err := svc.Ask(testContext(), service.AskRequest{Question: "  Šta je SEPA?  "})
	if err != nil {
		t.Fatalf("Ask() unexpected error: %v", err)
	}
	if resp.AnswerID != "chatcmpl-1" || resp.Answer != sepaAnswer {
		t.Errorf("Ask() = %+v", resp)
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != *cit {
		t.Errorf("Ask() sources = %+v, want [%+v]", resp.Sources, *cit)
	}
	if resp.SessionID != "" {
		t.Errorf("Ask() session_id = %q, want empty without a session store", resp.SessionID)
	}
}

func TestAskService_ReservedAnswerSkipsCitation(t *testing.T) {
	ctrl := gomock.NewController(t)
	retriever := ragmocks.NewMockRetriever(ctrl)
	synth := mocks.NewMockSynthesizer(ctrl)
	selector := mocks.NewMockCitationSelector(ctrl)
	svc := service.NewAskService(retriever, synth, selector, nil, service.AskOptions{})

	retriever.EXPECT().Retrieve(gomock.Any(), gomock.Any(), rag.DefaultK).Return([]document.Document{sepaDoc()}, nil)
	synth.EXPECT().Synthesize(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(answer.Result{Text: answer.NoInfoAnswer, ID: answer.IDNoInfo}, nil)

	resp, err := svc.Ask(testContext(), service.AskRequest{Question: "Koja je adresa CBCG?"})
	if err != nil {
		t.Fatalf("Ask() unexpected error: %v", err)
	}
	if resp.AnswerID != answer.IDNoInfo || len(resp.Sources) != 0 {
		t.Errorf("Ask() = %+v, want no-info without sources", resp)
	}
}

func TestAskService_Errors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *ragmocks.MockRetriever, s *mocks.MockSynthesizer)
		wantKind error
	}{
		{
			name: "retrieval failure",
			setup: func(r *ragmocks.MockRetriever, _ *mocks.MockSynthesizer) {
				r.EXPECT().Retrieve(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("qdrant down"))
			},
			wantKind: service.ErrRetrieval,
		},
		{
			name: "completion failure",
			setup: func(r *ragmocks.MockRetriever, s *mocks.MockSynthesizer) {
				r.EXPECT().Retrieve(gomock.Any(), gomock.Any(), gomock.Any()).Return([]document.Document{sepaDoc()}, nil)
				s.EXPECT().Synthesize(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(answer.Result{}, errors.New("LLM service unavailable"))
			},
			wantKind: service.ErrExternalService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			retriever := ragmocks.NewMockRetriever(ctrl)
			synth := mocks.NewMockSynthesizer(ctrl)
			tt.setup(retriever, synth)
			svc := service.NewAskService(retriever, synth, mocks.NewMockCitationSelector(ctrl), nil, service.AskOptions{})

			_, err := svc.Ask(testContext(), service.AskRequest{Question: "Šta je SEPA?"})
			if !errors.Is(err, tt.wantKind) {
				t.Errorf("Ask() error = %v, want %v", err, tt.wantKind)
			}
		})
	}
}

func TestAskService_SessionHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	retriever := ragmocks.NewMockRetriever(ctrl)
	synth := mocks.NewMockSynthesizer(ctrl)
	selector := mocks.NewMockCitationSelector(ctrl)
	sessions := storagemocks.NewMockConversationStore(ctrl)
	svc := service.NewAskService(retriever, synth, selector, sessions, service.AskOptions{})

	stored := []storage.Turn{
		{SessionID: "s1", Role: "user", Content: "Šta je SEPA?"},
		{SessionID: "s1", Role: "assistant", Content: "SEPA je platna oblast."},
	}
	wantHistory := []llm.Message{
		{Role: "user", Content: "Šta je SEPA?"},
		{Role: "assistant", Content: "SEPA je platna oblast."},
	}

	sessions.EXPECT().Recent(gomock.Any(), "s1", 6).Return(stored, nil)
	retriever.EXPECT().Retrieve(gomock.Any(), gomock.Any(), gomock.Any()).Return([]document.Document{sepaDoc()}, nil)
	synth.EXPECT().Synthesize(gomock.Any(), "A IBAN?", gomock.Any(), wantHistory).
		Return(answer.Result{Text: "IBAN je broj računa.", ID: "chatcmpl-2"}, nil)
	selector.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	gomock.InOrder(
		sessions.EXPECT().Append(gomock.Any(), "s1", "user", "A IBAN?").Return(nil),
		sessions.EXPECT().Append(gomock.Any(), "s1", "assistant", "IBAN je broj računa.").Return(nil),
	)

	resp, err := svc.Ask(testContext(), service.AskRequest{Question: "A IBAN?", SessionID: "s1"})
	if err != nil {
		t.Fatalf("Ask() unexpected error: %v", err)
	}
	if resp.SessionID != "s1" {
		t.Errorf("Ask() session_id = %q, want s1", resp.SessionID)
	}
}

func TestAskService_GeneratesSessionID(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessions := storagemocks.NewMockConversationStore(ctrl)
	svc := service.NewAskService(ragmocks.NewMockRetriever(ctrl), mocks.NewMockSynthesizer(ctrl), mocks.NewMockCitationSelector(ctrl), sessions, service.AskOptions{})

	// a store failure does not fail the request
	sessions.EXPECT().Append(gomock.Any(), gomock.Any(), "user", "Zdravo").Return(errors.New("disk full"))

	resp, err := svc.Ask(testContext(), service.AskRequest{Question: "Zdravo"})
	if err != nil {
		t.Fatalf("Ask() unexpected error: %v", err)
	}
	if len(resp.SessionID) != 36 {
		t.Errorf("Ask() session_id = %q, want a generated uuid", resp.SessionID)
	}
}

// End-to-end scenarios over the real retriever, synthesizer and citation selector.

func newPipeline(t *testing.T, docs []document.Document, completer answer.Completer) service.AskService {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockDocumentStore(ctrl)
	store.EXPECT().ListAll(gomock.Any()).Return(docs, nil).AnyTimes()

	facts, err := rag.DefaultPinnedFacts()
	if err != nil {
		t.Fatalf("DefaultPinnedFacts() error: %v", err)
	}
	retriever := rag.NewHybridRetriever(store, nil, facts, rag.HybridOptions{Now: func() time.Time { return testNow }})
	synth := answer.NewSynthesizer(completer, answer.DefaultOptions())
	selector := citation.NewSelector(nil, citation.DefaultThresholds())
	return service.NewAskService(retriever, synth, selector, nil, service.AskOptions{})
}

func TestScenario_EmptyStoreUsesFallbackDocuments(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := answermocks.NewMockCompleter(ctrl)
	completer.EXPECT().ChatWithMessages(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(llm.Completion{ID: "chatcmpl-3", Text: sepaAnswer}, nil)

	svc := newPipeline(t, []document.Document{}, completer)
	resp, err := svc.Ask(testContext(), service.AskRequest{Question: "Šta je SEPA?", Lang: "mne"})
	if err != nil {
		t.Fatalf("Ask() unexpected error: %v", err)
	}
	if resp.Answer != sepaAnswer {
		t.Errorf("Ask() answer = %q", resp.Answer)
	}
	for _, src := range resp.Sources {
		if src.Source != "pdf:SEPA_QnA" {
			t.Errorf("Ask() cited %q, want the fallback source", src.Source)
		}
	}
	if len(resp.Sources) != 1 {
		t.Errorf("Ask() sources = %+v, want one fallback citation", resp.Sources)
	}
}

func TestScenario_RecencyQueryWithoutFreshDocuments(t *testing.T) {
	ctrl := gomock.NewController(t)
	// the model must not be called
	completer := answermocks.NewMockCompleter(ctrl)

	old := []document.Document{
		{ID: "n1", Title: "SEPA vijest", Content: "CBCG je objavila vijest o SEPA.", Source: "cbcg.me", URL: "https://www.cbcg.me/n1", PublishedAt: "2024-01-10", Type: document.TypeNews},
		{ID: "f1", Title: "SEPA Q&A", Content: "SEPA je platna oblast.", Source: "pdf:SEPA_QnA", Type: document.TypeFAQ},
	}

	svc := newPipeline(t, old, completer)
	resp, err := svc.Ask(testContext(), service.AskRequest{Question: "Koje su najnovije vijesti o SEPA?"})
	if err != nil {
		t.Fatalf("Ask() unexpected error: %v", err)
	}
	if resp.Answer != "Trenutno nemam pouzdan izvor za ovo." {
		t.Errorf("Ask() answer = %q", resp.Answer)
	}
	if resp.AnswerID != answer.IDNoContext {
		t.Errorf("Ask() answer_id = %q, want %q", resp.AnswerID, answer.IDNoContext)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("Ask() sources = %+v, want none", resp.Sources)
	}
}
