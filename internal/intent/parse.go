package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var orderPattern = regexp.MustCompile(`(?:order|buy|purchase)\s+(\d+)`)

// ParseOrderID extracts the item id from commands like "order 17" or
// "buy 17". The second result is false when the message is not an order
// command.
func ParseOrderID(message string) (uint64, bool) {
	m := orderPattern.FindStringSubmatch(strings.ToLower(message))
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

var (
	pricePattern  = regexp.MustCompile(`\$?(\d+(?:\.\d{2})?)`)
	titlePatterns = []*regexp.Regexp{
		regexp.MustCompile(`sell my (.+?) for`),
		regexp.MustCompile(`selling (.+?) for`),
		regexp.MustCompile(`sell (.+?) for`),
		regexp.MustCompile(`my (.+?) for`),
		regexp.MustCompile(`a (.+?) for`),
	}
	leadingArticles = []string{"my ", "a ", "the "}
)

const (
	fallbackTitleWords = 3
	fallbackTitleRunes = 30
	maxTitleWords      = 5
)

// Listing holds the arguments of a "create listing" command.
type Listing struct {
	Title string
	Price decimal.Decimal
	// PriceFound is false when Price is the configured default.
	PriceFound bool
}

// ParseListing extracts a title and a price from a listing message such as
// "I want to sell my bicycle for $120". defaultPrice is used when the message
// carries no number.
func ParseListing(message string, defaultPrice decimal.Decimal) Listing {
	out := Listing{Price: defaultPrice}
	if m := pricePattern.FindStringSubmatch(message); m != nil {
		if p, err := decimal.NewFromString(m[1]); err == nil {
			out.Price = p
			out.PriceFound = true
		}
	}
	out.Title = cleanTitle(rawTitle(message))
	return out
}

func rawTitle(message string) string {
	lower := strings.ToLower(message)
	for _, p := range titlePatterns {
		if m := p.FindStringSubmatch(lower); m != nil {
			if t := strings.TrimSpace(m[1]); t != "" {
				return t
			}
		}
	}

	words := strings.Fields(lower)
	for i, w := range words {
		if w != "sell" && w != "selling" {
			continue
		}
		if i+1 < len(words) {
			end := i + 1 + fallbackTitleWords
			if end > len(words) {
				end = len(words)
			}
			return strings.Join(words[i+1:end], " ")
		}
		break
	}

	runes := []rune(message)
	if len(runes) > fallbackTitleRunes {
		runes = runes[:fallbackTitleRunes]
	}
	return string(runes)
}

func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	for stripped := true; stripped; {
		stripped = false
		lower := strings.ToLower(title)
		for _, a := range leadingArticles {
			if strings.HasPrefix(lower, a) {
				title = strings.TrimSpace(title[len(a):])
				stripped = true
				break
			}
		}
	}
	words := strings.Fields(title)
	if len(words) > maxTitleWords {
		words = words[:maxTitleWords]
	}
	return cases.Title(language.Und).String(strings.Join(words, " "))
}
