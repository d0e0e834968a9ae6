package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/radulovicigor/CBCGchatbot/internal/document"
	"github.com/radulovicigor/CBCGchatbot/internal/llm"
	"github.com/radulovicigor/CBCGchatbot/internal/service"
	"github.com/radulovicigor/CBCGchatbot/internal/service/mocks"
)

func TestAskHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		body           string
		mockSetup      func(m *mocks.MockAskService)
		expectedStatus int
		check          func(t *testing.T, body []byte)
	}{
		{
			name:   "answer with source",
			method: http.MethodPost,
			body:   `{"question":"Šta je SEPA?","lang":"mne"}`,
			mockSetup: func(m *mocks.MockAskService) {
				m.EXPECT().
					Ask(gomock.Any(), service.AskRequest{Question: "Šta je SEPA?", Lang: "mne"}).
					Return(service.AskResponse{
						Answer:   "SEPA je platna oblast.",
						Sources:  []document.Citation{{Title: "SEPA Q&A", Source: "pdf:SEPA_QnA", Page: document.IntPtr(1)}},
						AnswerID: "chatcmpl-1",
					}, nil)
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp AskResponse
				if err := json.Unmarshal(body, &resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp.AnswerID != "chatcmpl-1" || len(resp.Sources) != 1 || resp.Sources[0].Source != "pdf:SEPA_QnA" {
					t.Errorf("unexpected response: %+v", resp)
				}
			},
		},
		{
			name:   "canned answer has empty sources list",
			method: http.MethodPost,
			body:   `{"question":"Ćao"}`,
			mockSetup: func(m *mocks.MockAskService) {
				m.EXPECT().Ask(gomock.Any(), gomock.Any()).
					Return(service.AskResponse{Answer: "Zdravo! Kako vam mogu pomoći?", AnswerID: "greeting"}, nil)
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				if !strings.Contains(string(body), `"sources":[]`) {
					t.Errorf("expected empty sources array, got %s", body)
				}
			},
		},
		{
			name:   "history is forwarded",
			method: http.MethodPost,
			body:   `{"question":"A IBAN?","session_id":"s1","conversation_history":[{"role":"user","content":"Šta je SEPA?"}]}`,
			mockSetup: func(m *mocks.MockAskService) {
				m.EXPECT().
					Ask(gomock.Any(), service.AskRequest{
						Question:  "A IBAN?",
						SessionID: "s1",
						History:   []llm.Message{{Role: "user", Content: "Šta je SEPA?"}},
					}).
					Return(service.AskResponse{Answer: "IBAN je broj računa.", AnswerID: "chatcmpl-2", SessionID: "s1"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid body",
			method:         http.MethodPost,
			body:           `{invalid`,
			mockSetup:      func(m *mocks.MockAskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "validation error",
			method: http.MethodPost,
			body:   `{"question":""}`,
			mockSetup: func(m *mocks.MockAskService) {
				m.EXPECT().Ask(gomock.Any(), gomock.Any()).
					Return(service.AskResponse{}, &service.ValidationError{Field: "question", Message: "cannot be empty"})
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "service error is generic",
			method: http.MethodPost,
			body:   `{"question":"Šta je SEPA?"}`,
			mockSetup: func(m *mocks.MockAskService) {
				m.EXPECT().Ask(gomock.Any(), gomock.Any()).
					Return(service.AskResponse{}, errors.Join(service.ErrExternalService, errors.New("upstream 502: api key invalid")))
			},
			expectedStatus: http.StatusInternalServerError,
			check: func(t *testing.T, body []byte) {
				var resp ErrorResponse
				if err := json.Unmarshal(body, &resp); err != nil {
					t.Fatalf("failed to decode error: %v", err)
				}
				if resp.Error != "Internal server error" {
					t.Errorf("error = %q, want generic message", resp.Error)
				}
			},
		},
		{
			name:           "method not allowed",
			method:         http.MethodGet,
			mockSetup:      func(m *mocks.MockAskService) {},
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockService := mocks.NewMockAskService(ctrl)
			tt.mockSetup(mockService)

			handler := NewAskHandler(mockService)
			req := httptest.NewRequest(tt.method, "/ask", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("ServeHTTP() status = %v, want %v (body %s)", w.Code, tt.expectedStatus, w.Body.String())
			}
			if tt.check != nil {
				tt.check(t, w.Body.Bytes())
			}
		})
	}
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Health() status = %v, want 200", w.Code)
	}
	var got HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("Health() body is not JSON: %v", err)
	}
	if got.Status != "ok" {
		t.Errorf("Health() status field = %q, want ok", got.Status)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Health() content type = %q", ct)
	}
}
