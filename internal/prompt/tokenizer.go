package prompt

import (
	"github.com/pkoukk/tiktoken-go"

	"github.com/capitalize-ai/companion-chat/internal/llm"
)

// Tokenizer estimates prompt sizes.
type Tokenizer struct {
	encoding *tiktoken.Tiktoken
}

// NewTokenizer loads the cl100k_base encoding.
func NewTokenizer() (*Tokenizer, error) {
	tkm, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &Tokenizer{encoding: tkm}, nil
}

// CountTokens returns the token count of a single text.
func (t *Tokenizer) CountTokens(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// CountMessages returns the token count of a chat payload, including the
// per-message role and separator overhead.
func (t *Tokenizer) CountMessages(messages []llm.ChatMessage) int {
	tokens := 0
	for _, m := range messages {
		tokens += 4
		tokens += t.CountTokens(m.Content)
		tokens += t.CountTokens(m.Role)
	}
	return tokens + 3
}
