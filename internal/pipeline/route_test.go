package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capitalize-ai/companion-chat/internal/intent"
	"github.com/capitalize-ai/companion-chat/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		msg    string
		kind   RouteKind
		intent intent.Kind
	}{
		{"order 17", RouteOrder, intent.KindOrder},
		{"I want to sell, please buy 17", RouteOrder, intent.KindOrder},
		{"I want to sell my lamp and buy a chair", RouteListing, intent.KindList},
		{"looking for a tent", RouteMarketplace, intent.KindBuy},
		{"show me what's in the marketplace", RouteMarketplace, intent.KindSearch},
		{"not found", RouteNegation, intent.KindNone},
		{"  NONE ", RouteNegation, intent.KindNone},
		{"no thanks", RouteConversation, intent.KindNone},
		{"What's a good dessert?", RouteConversation, intent.KindNone},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			r := Classify(tt.msg, nil, RouteOptions{})
			assert.Equal(t, tt.kind, r.Kind)
			assert.Equal(t, tt.intent, r.Intent)
		})
	}

	assert.Equal(t, uint64(17), Classify("purchase 17", nil, RouteOptions{}).OrderID)
}

func TestClassify_StrictNegation(t *testing.T) {
	opts := RouteOptions{NegationRequiresMarketplaceTurn: true}

	assert.Equal(t, RouteConversation, Classify("none", nil, opts).Kind)

	plain := &model.ChatTurn{Author: model.AuthorAssistant, Text: "hello"}
	assert.Equal(t, RouteConversation, Classify("none", plain, opts).Kind)

	shown := &model.ChatTurn{Author: model.AuthorAssistant, Metadata: map[string]any{MetaMarketplaceResults: []any{}}}
	assert.Equal(t, RouteNegation, Classify("none", shown, opts).Kind)
}

func TestLastAssistantTurn(t *testing.T) {
	assert.Nil(t, LastAssistantTurn(nil))

	history := []model.ChatTurn{
		{Author: model.AuthorUser, Text: "a"},
		{Author: model.AuthorAssistant, Text: "b"},
		{Author: model.AuthorUser, Text: "c"},
	}
	got := LastAssistantTurn(history)
	if assert.NotNil(t, got) {
		assert.Equal(t, "b", got.Text)
	}
}

func TestSideEffectMetadata(t *testing.T) {
	assert.Empty(t, None{}.Metadata())

	m := OrderCreated{Order: model.OrderRecord{ID: 9}}.Metadata()
	assert.Equal(t, true, m[MetaOrderCreated])
	assert.Equal(t, uint64(9), m[MetaOrderID])

	m = MarketplaceResults{Items: []model.CatalogItem{{ID: 3}, {ID: 5}}}.Metadata()
	assert.Equal(t, []uint64{3, 5}, m[MetaItemIDs])
}
