// Package types defines the chat payloads exchanged with the browser client
// and the upstream chat-completions API.
package types

// Role constants for message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversation turn forwarded upstream.
// Content is always plain text.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewTextMessage creates a simple text message.
func NewTextMessage(role, content string) Message {
	return Message{
		Role:    role,
		Content: content,
	}
}

// isHistoryRole reports whether a history entry may be forwarded.
// System turns are only accepted through the dedicated system field.
func isHistoryRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}
