package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/radulovicigor/CBCGchatbot/internal/handlers"
	"github.com/radulovicigor/CBCGchatbot/internal/service"
	"github.com/radulovicigor/CBCGchatbot/internal/service/mocks"
)

func TestNewRouter(t *testing.T) {
	ctrl := gomock.NewController(t)

	router := NewRouter(&Deps{AskService: mocks.NewMockAskService(ctrl)})

	if router == nil {
		t.Fatal("NewRouter() returned nil")
	}
}

func TestRouter_Routes(t *testing.T) {
	ctrl := gomock.NewController(t)

	mockAskService := mocks.NewMockAskService(ctrl)
	mockAskService.EXPECT().Ask(gomock.Any(), gomock.Any()).
		Return(service.AskResponse{Answer: "SEPA je platna oblast.", AnswerID: "chatcmpl-1"}, nil).
		AnyTimes()

	router := NewRouter(&Deps{AskService: mockAskService})

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{
			name:       "GET /health",
			method:     http.MethodGet,
			path:       "/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST /ask",
			method:     http.MethodPost,
			path:       "/ask",
			body:       `{"question":"Šta je SEPA?"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST /ask with invalid body",
			method:     http.MethodPost,
			path:       "/ask",
			body:       `not json`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "GET /ask method not allowed",
			method:     http.MethodGet,
			path:       "/ask",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "unknown route",
			method:     http.MethodGet,
			path:       "/api/chat",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	ctrl := gomock.NewController(t)

	router := NewRouter(&Deps{AskService: mocks.NewMockAskService(ctrl)})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Router should apply CORS middleware")
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("Router should apply request id middleware")
	}
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	ctrl := gomock.NewController(t)

	mockAskService := mocks.NewMockAskService(ctrl)
	mockAskService.EXPECT().Ask(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, _ service.AskRequest) (service.AskResponse, error) {
			panic("boom")
		})

	router := NewRouter(&Deps{AskService: mockAskService})

	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString(`{"question":"Šta je SEPA?"}`))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Router panic status = %v, want 500", w.Code)
	}
}

func TestRouter_JSONErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := NewRouter(&Deps{AskService: mocks.NewMockAskService(ctrl)})

	tests := []struct {
		method     string
		path       string
		wantStatus int
		wantError  string
	}{
		{method: http.MethodGet, path: "/api/chat", wantStatus: http.StatusNotFound, wantError: "Not found"},
		{method: http.MethodDelete, path: "/ask", wantStatus: http.StatusMethodNotAllowed, wantError: "Method not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body handlers.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body.Error != tt.wantError {
				t.Errorf("error = %q, want %q", body.Error, tt.wantError)
			}
		})
	}
}
