package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ChatResponse is returned to the browser on success.
type ChatResponse struct {
	Text string `json:"text"`
}

// ExtractText returns choices[0].message.content from an upstream
// response body, trimmed. Any missing or mistyped step in that path yields "".
// The body itself must be valid JSON.
func ExtractText(body []byte) (string, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("decode upstream response: %w", err)
	}

	root, _ := raw.(map[string]any)
	choices, _ := root["choices"].([]any)
	if len(choices) == 0 {
		return "", nil
	}
	choice, _ := choices[0].(map[string]any)
	message, _ := choice["message"].(map[string]any)
	content, _ := message["content"].(string)

	return strings.TrimSpace(content), nil
}
