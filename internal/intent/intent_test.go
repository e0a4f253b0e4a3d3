package intent

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/companion-chat/internal/model"
)

func TestExtractKeywords(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"find me a laptop", "laptop"},
		{"I want to buy a Gaming Laptop, please!", "gaming laptop"},
		{"Where is the red bicycle?", "red bicycle"},
		{"hi", "hi"},
		{"I want it!", "I want it!"},
		{"   ", "   "},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ExtractKeywords(tc.in), "in=%q", tc.in)
	}
}

func TestExtractKeywords_Idempotent(t *testing.T) {
	inputs := []string{
		"find me a laptop",
		"Show me some CHEAP running shoes!!",
		"I want it!",
		"a an the",
		"café crème near the station?",
		"x",
	}
	for _, in := range inputs {
		once := ExtractKeywords(in)
		require.Equal(t, once, ExtractKeywords(once), "in=%q", in)
	}
}

func TestExtractKeywords_NeverEmpty(t *testing.T) {
	for _, in := range []string{"?", "a", "i need", "to the", "...!"} {
		require.NotEmpty(t, ExtractKeywords(in), "in=%q", in)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
	}{
		{"I want to sell my bicycle for $120", KindList},
		{"please list my old couch", KindList},
		{"find me a laptop", KindBuy},
		{"I'm looking for a tent", KindBuy},
		{"browse the marketplace", KindSearch},
		{"show me what's new", KindSearch},
		{"What's a good dessert?", KindNone},
		{"", KindNone},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Classify(tc.in), "in=%q", tc.in)
	}
}

// Listing phrases are checked before buying phrases, so a message that
// carries both is always a listing.
func TestClassify_ListingTakesPrecedenceOverBuying(t *testing.T) {
	for _, in := range []string{
		"I want to buy a new phone so I can sell my old one",
		"Sell or buy, whatever works",
		"find me someone to list my car",
		"BUY LIST PRODUCT",
	} {
		require.Equal(t, KindList, Classify(in), "in=%q", in)
	}
}

func TestClassify_BuyingTakesPrecedenceOverSearching(t *testing.T) {
	require.Equal(t, KindBuy, Classify("search the marketplace, I want a lamp"))
}

func TestIsNegation(t *testing.T) {
	for _, in := range []string{"none", "Not Found", " no ", "NOPE"} {
		require.True(t, IsNegation(in), "in=%q", in)
	}
	for _, in := range []string{"no thanks", "nothing", "none of these fit", ""} {
		require.False(t, IsNegation(in), "in=%q", in)
	}
}

func TestParseOrderID(t *testing.T) {
	for _, in := range []string{"order 17", "buy 17", "purchase 17", "Please ORDER   17 now", "I want to sell my lamp, buy 17"} {
		id, ok := ParseOrderID(in)
		require.True(t, ok, "in=%q", in)
		require.Equal(t, uint64(17), id, "in=%q", in)
	}
	for _, in := range []string{"order a pizza", "buy now", "17", "reorder"} {
		_, ok := ParseOrderID(in)
		require.False(t, ok, "in=%q", in)
	}
}

func TestParseListing(t *testing.T) {
	def := decimal.NewFromFloat(50)

	l := ParseListing("I want to sell my bicycle for $120", def)
	require.Equal(t, "Bicycle", l.Title)
	require.True(t, l.PriceFound)
	require.True(t, decimal.NewFromInt(120).Equal(l.Price))

	l = ParseListing("selling the vintage oak dining table with chairs for 349.99", def)
	require.Equal(t, "Vintage Oak Dining Table With", l.Title)
	require.Equal(t, "349.99", l.Price.String())

	l = ParseListing("I'd like to sell a mountain bike for cheap", def)
	require.Equal(t, "Mountain Bike", l.Title)
}

func TestParseListing_DefaultPrice(t *testing.T) {
	def := decimal.NewFromFloat(50)
	l := ParseListing("sell my guitar for a fair offer", def)
	require.False(t, l.PriceFound)
	require.True(t, def.Equal(l.Price))
	require.Equal(t, "Guitar", l.Title)
}

func TestParseListing_TitleFallbacks(t *testing.T) {
	def := decimal.NewFromFloat(50)

	l := ParseListing("I sell handmade wooden toys and puzzles", def)
	require.Equal(t, "Handmade Wooden Toys", l.Title)

	l = ParseListing("create listing: antique brass lamp in great condition", def)
	require.Equal(t, "Create Listing: Antique Brass", l.Title)
}

func TestEvidenceShape(t *testing.T) {
	cases := []struct {
		in      string
		persona model.Persona
		want    model.Shape
		ok      bool
	}{
		{"Where should I stay, any hotel ideas?", model.PersonaTravel, model.ShapeHotels, true},
		{"recommend a restaurant with vegan food", model.PersonaFoodie, model.ShapeRestaurants, true},
		{"suggest places to visit in Rome", model.PersonaTravel, model.ShapeAttractions, true},
		{"where can I shop for shoes", model.PersonaFoodie, model.ShapeProducts, true},
		{"suggest something fun", model.PersonaShopping, model.ShapeProducts, true},
		{"suggest something fun", model.PersonaTravel, model.ShapeGeneral, true},
		{"What's a good dessert?", model.PersonaFoodie, "", false},
	}
	for _, tc := range cases {
		got, ok := EvidenceShape(tc.in, tc.persona, model.ShapeGeneral)
		require.Equal(t, tc.ok, ok, "in=%q", tc.in)
		require.Equal(t, tc.want, got, "in=%q", tc.in)
	}
}
