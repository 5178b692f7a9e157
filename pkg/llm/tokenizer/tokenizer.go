// Package tokenizer provides client-side token counting so the agent can
// budget its prompt before the API rejects it.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/entrhq/surf/pkg/types"
)

// encoding covers the GPT-4 class of models this runs against.
const encoding = "cl100k_base"

// perMessageOverhead approximates the framing tokens the chat format adds
// around each message.
const perMessageOverhead = 4

// Tokenizer counts tokens with the same BPE encoding the model uses.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New loads the encoding. The first call downloads the BPE ranks unless an
// offline loader is configured via tiktoken-go.
func New() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("loading %s encoding: %w", encoding, err)
	}
	return &Tokenizer{enc: enc}, nil
}

// CountTokens returns the token count of a single string.
func (t *Tokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(t.enc.Encode(text, nil, nil))
}

// CountMessagesTokens returns the approximate token count of a
// conversation, including per-message framing overhead. Image attachments
// are not counted; their cost is model-specific.
func (t *Tokenizer) CountMessagesTokens(messages []*types.Message) int {
	total := 0
	for _, msg := range messages {
		total += t.CountTokens(msg.Content) + perMessageOverhead
	}
	return total
}
