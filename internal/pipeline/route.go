// Package pipeline turns one chat message into one reply. It routes the
// message to exactly one branch (order, listing, marketplace lookup, web
// fallback or conversation) and reports what the branch did as a SideEffect.
package pipeline

import (
	"github.com/capitalize-ai/companion-chat/internal/intent"
	"github.com/capitalize-ai/companion-chat/internal/model"
)

// RouteKind names a pipeline branch.
type RouteKind string

const (
	RouteOrder        RouteKind = "order"
	RouteListing      RouteKind = "listing"
	RouteMarketplace  RouteKind = "marketplace"
	RouteNegation     RouteKind = "negation"
	RouteConversation RouteKind = "conversation"
)

// Route is the computed branch for a message.
type Route struct {
	Kind RouteKind
	// OrderID is set for RouteOrder.
	OrderID uint64
	// Intent is buy or search for RouteMarketplace.
	Intent intent.Kind
}

// RouteOptions tunes routing.
type RouteOptions struct {
	// NegationRequiresMarketplaceTurn makes "none"/"no" trigger the web
	// fallback only right after an assistant turn that showed marketplace
	// results. Otherwise such messages go to the conversational branch.
	NegationRequiresMarketplaceTurn bool
}

// Classify picks the branch for message. prev is the most recent assistant
// turn of the session, or nil. Branches are tried in priority order: an
// explicit order command, then the ordered keyword sets, then negation.
func Classify(message string, prev *model.ChatTurn, opts RouteOptions) Route {
	if id, ok := intent.ParseOrderID(message); ok {
		return Route{Kind: RouteOrder, OrderID: id, Intent: intent.KindOrder}
	}

	switch k := intent.Classify(message); k {
	case intent.KindList:
		return Route{Kind: RouteListing, Intent: k}
	case intent.KindBuy, intent.KindSearch:
		return Route{Kind: RouteMarketplace, Intent: k}
	}

	if intent.IsNegation(message) {
		if !opts.NegationRequiresMarketplaceTurn || showedMarketplaceResults(prev) {
			return Route{Kind: RouteNegation, Intent: intent.KindNone}
		}
	}
	return Route{Kind: RouteConversation, Intent: intent.KindNone}
}

func showedMarketplaceResults(turn *model.ChatTurn) bool {
	if turn == nil || turn.IsFromUser() {
		return false
	}
	_, ok := turn.Metadata[MetaMarketplaceResults]
	return ok
}

// LastAssistantTurn returns the most recent assistant turn in history.
func LastAssistantTurn(history []model.ChatTurn) *model.ChatTurn {
	for i := len(history) - 1; i >= 0; i-- {
		if !history[i].IsFromUser() {
			return &history[i]
		}
	}
	return nil
}
