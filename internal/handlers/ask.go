package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/radulovicigor/CBCGchatbot/internal/contextutil"
	"github.com/radulovicigor/CBCGchatbot/internal/document"
	"github.com/radulovicigor/CBCGchatbot/internal/llm"
	"github.com/radulovicigor/CBCGchatbot/internal/service"
)

// maxBodyBytes bounds the ask request body.
const maxBodyBytes = 1 << 20

// AskHandler handles HTTP requests for questions.
type AskHandler struct {
	askService service.AskService
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(askService service.AskService) *AskHandler {
	return &AskHandler{askService: askService}
}

// HistoryTurn is one prior message of the conversation.
//
// swagger:model HistoryTurn
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AskRequest represents the HTTP request payload for a question.
//
// swagger:model AskRequest
type AskRequest struct {
	Question            string        `json:"question"`
	Lang                string        `json:"lang,omitempty"`
	SessionID           string        `json:"session_id,omitempty"`
	ConversationHistory []HistoryTurn `json:"conversation_history,omitempty"`
}

// AskResponse represents the HTTP response payload for a question.
//
// swagger:model AskResponse
type AskResponse struct {
	// The answer text, plain text without markdown
	Answer string `json:"answer"`

	// Zero or one supporting source
	Sources []document.Citation `json:"sources"`

	// Provider response id, or a reserved id such as "no-context" or "greeting"
	AnswerID string `json:"answer_id"`

	// Session to pass back for follow-up questions
	SessionID string `json:"session_id,omitempty"`
}

// ServeHTTP handles HTTP requests for questions.
//
// swagger:route POST /ask askQuestion
//
// # Ask a question about SEPA payments
//
// Returns a short answer and at most one source.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Answer with zero or one source
//	  schema:
//	    "$ref": "#/definitions/AskResponse"
//	'400':
//	  description: Bad request (missing or invalid question)
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var history []llm.Message
	for _, turn := range req.ConversationHistory {
		history = append(history, llm.Message{Role: turn.Role, Content: turn.Content})
	}

	resp, err := h.askService.Ask(ctx, service.AskRequest{
		Question:  req.Question,
		Lang:      req.Lang,
		SessionID: req.SessionID,
		History:   history,
	})
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			logger.WarnContext(ctx, "invalid ask request", "field", validationErr.Field, "error", err)
			writeError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		logger.ErrorContext(ctx, "failed to answer question", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	sources := resp.Sources
	if sources == nil {
		sources = []document.Citation{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(AskResponse{
		Answer:    resp.Answer,
		Sources:   sources,
		AnswerID:  resp.AnswerID,
		SessionID: resp.SessionID,
	}); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
