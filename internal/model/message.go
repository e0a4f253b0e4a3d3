package model

import (
	"time"
)

// Author identifies who wrote a chat turn.
type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
)

// ChatTurn is one immutable message in a session.
type ChatTurn struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Author    Author         `json:"author"`
	Text      string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	// JetStream metadata (populated on read)
	Sequence uint64 `json:"sequence,omitempty"`
}

// IsFromUser reports whether the turn was written by the user.
func (t ChatTurn) IsFromUser() bool {
	return t.Author == AuthorUser
}

// SendMessageRequest is the request to send a new message.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessageResponse carries both persisted turns and the raw side data.
type SendMessageResponse struct {
	UserMessage        *ChatTurn     `json:"user_message"`
	AIResponse         *ChatTurn     `json:"ai_response"`
	MarketplaceResults []CatalogItem `json:"marketplace_results"`
	SearchResults      *WebResults   `json:"search_results"`
}

// ListTurnsResponse is the response for listing the turns of a session.
type ListTurnsResponse struct {
	Messages []ChatTurn `json:"messages"`
}
