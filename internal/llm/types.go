package llm

// Chat roles accepted by OpenAI-compatible providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// IsDialogue reports whether m is a user or assistant turn.
// Client-supplied history is limited to these roles.
func (m Message) IsDialogue() bool {
	return m.Role == RoleUser || m.Role == RoleAssistant
}

// ChatParams overrides per-request generation settings. Zero values fall back to the client or provider defaults.
type ChatParams struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// Completion is the model's reply along with the provider's response id.
type Completion struct {
	ID           string
	Text         string
	FinishReason string
}
