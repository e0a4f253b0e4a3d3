package intent

import (
	"strings"

	"github.com/capitalize-ai/companion-chat/internal/model"
)

var (
	lookupWords     = []string{"find", "search", "recommend", "suggest", "where", "hotel", "restaurant", "buy", "purchase", "order", "shop", "product"}
	lodgingWords    = []string{"hotel", "accommodation", "stay"}
	foodWords       = []string{"restaurant", "food", "eat", "dining"}
	attractionWords = []string{"attraction", "visit", "see", "tourist"}
	shoppingWords   = []string{"buy", "purchase", "order", "shop", "product", "price"}
)

// EvidenceShape decides whether a conversational message should be grounded
// with web results, and with which shape. It returns false when the message
// does not look like a lookup at all.
func EvidenceShape(message string, persona model.Persona, fallback model.Shape) (model.Shape, bool) {
	m := strings.ToLower(message)
	if !containsAny(m, lookupWords) {
		return "", false
	}
	switch {
	case containsAny(m, lodgingWords):
		return model.ShapeHotels, true
	case containsAny(m, foodWords):
		return model.ShapeRestaurants, true
	case containsAny(m, attractionWords):
		return model.ShapeAttractions, true
	case containsAny(m, shoppingWords) || persona == model.PersonaShopping:
		return model.ShapeProducts, true
	default:
		return fallback, true
	}
}
