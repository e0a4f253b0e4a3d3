// Package model defines data structures for the companion chat platform.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Persona is the fixed conversational role a session talks to.
type Persona string

const (
	PersonaFoodie   Persona = "foodie"
	PersonaTravel   Persona = "travel"
	PersonaShopping Persona = "shopping"
)

// Personas lists every supported persona in display order.
var Personas = []Persona{PersonaFoodie, PersonaTravel, PersonaShopping}

// ParsePersona validates a persona id.
func ParsePersona(s string) (Persona, error) {
	p := Persona(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Personas {
		if p == known {
			return p, nil
		}
	}
	return "", NewError(CodeValidation, "unknown_persona", fmt.Errorf("%w: invalid AI friend type %q", ErrValidation, s))
}

// Title returns the persona name with the first letter upper-cased.
func (p Persona) Title() string {
	if p == "" {
		return ""
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}

// Session represents a conversation with one persona.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Persona   Persona   `json:"ai_friend_type"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	TurnCount int       `json:"message_count"`
	LastTurn  *ChatTurn `json:"last_message,omitempty"`
}

// StartSessionRequest is the request to open (or resume) a session with a persona.
type StartSessionRequest struct {
	Persona string `json:"ai_friend_type"`
}

// ListSessionsResponse is the response for listing sessions.
type ListSessionsResponse struct {
	Sessions []Session `json:"sessions"`
	Total    int       `json:"total"`
}
