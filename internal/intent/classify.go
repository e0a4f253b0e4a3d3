package intent

import "strings"

// Kind is the classified purpose of a message.
type Kind string

const (
	KindNone   Kind = "none"
	KindList   Kind = "list"
	KindBuy    Kind = "buy"
	KindSearch Kind = "search"
	KindOrder  Kind = "order"
)

// keywordSet binds a Kind to the phrases that trigger it.
type keywordSet struct {
	kind     Kind
	keywords []string
}

// marketplaceSets is checked in order; the first set with a match wins, so a
// message that both lists and buys is a listing.
var marketplaceSets = []keywordSet{
	{KindList, []string{
		"sell", "list product", "add product", "create listing", "post product",
		"list hotel", "add hotel", "want to sell", "selling my", "list my",
	}},
	{KindBuy, []string{
		"buy", "order", "purchase", "book hotel", "book room", "want to buy",
		"looking for", "need to buy", "ordering", "get me", "find me",
		"i want", "want a", "want an", "need a", "need an", "get a",
	}},
	{KindSearch, []string{
		"find", "search", "show products", "show items", "browse", "what's available",
		"see products", "list products", "marketplace", "what do you have",
		"available products", "show me", "display", "view products",
	}},
}

// Classify maps a message onto list, buy or search, or KindNone when no
// keyword set matches. Explicit order commands are detected separately by
// ParseOrderID and take precedence over this result.
func Classify(message string) Kind {
	m := strings.ToLower(message)
	for _, set := range marketplaceSets {
		if containsAny(m, set.keywords) {
			return set.kind
		}
	}
	return KindNone
}

var negations = map[string]struct{}{
	"none": {}, "not found": {}, "no": {}, "nope": {},
}

// IsNegation reports whether the whole message is a rejection of the
// previous marketplace results.
func IsNegation(message string) bool {
	_, ok := negations[strings.ToLower(strings.TrimSpace(message))]
	return ok
}
