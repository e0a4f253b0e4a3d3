package model

import (
	"time"
)

// EventType represents the type of marketplace event.
type EventType string

const (
	EventListingCreated EventType = "listing_created"
	EventOrderCreated   EventType = "order_created"
	EventOrderFailed    EventType = "order_failed"
)

// MarketplaceEvent is published whenever the chat pipeline touches the catalog.
type MarketplaceEvent struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Type      EventType `json:"type"`
	ItemID    uint64    `json:"item_id,omitempty"`
	OrderID   uint64    `json:"order_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
