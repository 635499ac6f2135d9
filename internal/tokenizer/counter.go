package tokenizer

import (
	"strings"

	"github.com/mandalnilabja/chatrelay/internal/types"
)

// Message token overhead varies by model family.
// These values are based on OpenAI's documentation.
const (
	messageOverheadGPT4  = 3 // <|start|>role<|end|>
	messageOverheadGPT35 = 4

	// Reply priming tokens (assistant response start)
	replyPrimingTokens = 3
)

// CountRequest counts total prompt tokens for an upstream request.
func (t *TiktokenTokenizer) CountRequest(req *types.UpstreamChatRequest) (int, error) {
	return t.CountMessages(req.Messages, req.Model)
}

// CountMessages counts tokens for a slice of messages.
// The encoding is resolved once for the whole conversation.
func (t *TiktokenTokenizer) CountMessages(messages []types.Message, model string) (int, error) {
	enc, err := t.getEncoding(model)
	if err != nil {
		return 0, err
	}
	return countMessages(messages, model, func(text string) int {
		return len(enc.Encode(text, nil, nil))
	}), nil
}

// countMessages frames each message with the role, its per-message overhead
// and the final reply priming. count returns the token length of one text.
func countMessages(messages []types.Message, model string, count func(string) int) int {
	overhead := messageOverhead(model)

	total := replyPrimingTokens
	for _, msg := range messages {
		total += count(msg.Role) + count(msg.Content) + overhead
	}
	return total
}

// messageOverhead returns the per-message token overhead for a model.
func messageOverhead(model string) int {
	if strings.HasPrefix(strings.ToLower(model), "gpt-3.5") {
		return messageOverheadGPT35
	}
	return messageOverheadGPT4
}
