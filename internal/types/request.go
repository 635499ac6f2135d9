package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Defaults applied when a field is absent or has the wrong type.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 512
)

// InboundChatRequest is the fully-defaulted form of the browser payload.
// Every field holds a usable value after ParseInbound; callers never see
// partially-populated input.
type InboundChatRequest struct {
	Prompt      string
	System      string
	History     []Message
	Model       string
	Temperature float64
	MaxTokens   int
}

// UpstreamChatRequest is the body sent to the chat-completions endpoint.
// Stream is always false.
type UpstreamChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

// ParseInbound decodes a browser payload leniently.
//
// An empty body, or a JSON value that is not an object, yields all defaults.
// Fields of the wrong type fall back to their default and history entries
// that are not {role: user|assistant, content: string} are dropped.
// The only error is a body that is not valid JSON at all.
// defaultModel replaces DefaultModel when non-empty.
func ParseInbound(body []byte, defaultModel string) (*InboundChatRequest, error) {
	if defaultModel == "" {
		defaultModel = DefaultModel
	}
	req := &InboundChatRequest{
		History:     []Message{},
		Model:       defaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return req, nil
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode request body: %w", err)
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return req, nil
	}

	if s, ok := fields["prompt"].(string); ok {
		req.Prompt = s
	}
	if s, ok := fields["system"].(string); ok {
		req.System = s
	}
	if s, ok := fields["model"].(string); ok {
		req.Model = s
	}
	if f, ok := fields["temperature"].(float64); ok {
		req.Temperature = f
	}
	if f, ok := fields["max_tokens"].(float64); ok && f == math.Trunc(f) && math.Abs(f) <= math.MaxInt32 {
		req.MaxTokens = int(f)
	}
	if entries, ok := fields["history"].([]any); ok {
		req.History = parseHistory(entries)
	}

	return req, nil
}

// parseHistory keeps the well-formed turns in their original order.
func parseHistory(entries []any) []Message {
	history := make([]Message, 0, len(entries))
	for _, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		role, _ := m["role"].(string)
		content, isText := m["content"].(string)
		if !isHistoryRole(role) || !isText {
			continue
		}
		history = append(history, NewTextMessage(role, content))
	}
	return history
}

// Messages builds the ordered conversation: system first, then history,
// then the prompt as the final user turn. The result may be empty.
func (r *InboundChatRequest) Messages() []Message {
	messages := make([]Message, 0, len(r.History)+2)
	if r.System != "" {
		messages = append(messages, NewTextMessage(RoleSystem, r.System))
	}
	messages = append(messages, r.History...)
	if r.Prompt != "" {
		messages = append(messages, NewTextMessage(RoleUser, r.Prompt))
	}
	return messages
}

// Upstream converts the inbound request into the non-streaming upstream body.
func (r *InboundChatRequest) Upstream() *UpstreamChatRequest {
	return &UpstreamChatRequest{
		Model:       r.Model,
		Messages:    r.Messages(),
		Temperature: r.Temperature,
		MaxTokens:   r.MaxTokens,
		Stream:      false,
	}
}
