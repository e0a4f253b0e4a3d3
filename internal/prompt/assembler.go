package prompt

import (
	"fmt"
	"strings"

	"github.com/capitalize-ai/companion-chat/internal/llm"
	"github.com/capitalize-ai/companion-chat/internal/model"
)

// DefaultHistoryWindow is the number of prior turns shown to the model.
const DefaultHistoryWindow = 10

// Assembler builds the ordered message list sent to the language model.
type Assembler struct {
	personas *Personas
	window   int
}

// NewAssembler creates an Assembler. A non-positive window uses
// DefaultHistoryWindow.
func NewAssembler(personas *Personas, window int) *Assembler {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &Assembler{personas: personas, window: window}
}

// Window returns the history window size.
func (a *Assembler) Window() int {
	return a.window
}

// Build returns [system, last N turns in order, current user message].
func (a *Assembler) Build(persona model.Persona, prefs string, history []model.ChatTurn, message string) []llm.ChatMessage {
	if len(history) > a.window {
		history = history[len(history)-a.window:]
	}

	messages := make([]llm.ChatMessage, 0, len(history)+2)
	messages = append(messages, llm.ChatMessage{
		Role:    llm.RoleSystem,
		Content: a.personas.SystemPrompt(persona, prefs),
	})
	for _, t := range history {
		role := llm.RoleAssistant
		if t.IsFromUser() {
			role = llm.RoleUser
		}
		messages = append(messages, llm.ChatMessage{Role: role, Content: t.Text})
	}
	return append(messages, llm.ChatMessage{Role: llm.RoleUser, Content: message})
}

// WithEvidence appends retrieved web results to the user's message.
func WithEvidence(message string, results []model.WebResult, limit int) string {
	if len(results) == 0 {
		return message
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	var b strings.Builder
	b.WriteString(message)
	b.WriteString("\n\nSearch results:\n")
	for _, r := range results {
		fmt.Fprintf(&b, "- %s: %s\n", r.Title, r.Snippet)
	}
	return b.String()
}
