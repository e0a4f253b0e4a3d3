package pipeline

import "github.com/capitalize-ai/companion-chat/internal/model"

// Metadata keys attached to assistant turns.
const (
	MetaOrderCreated       = "order_created"
	MetaOrderID            = "order_id"
	MetaListingCreated     = "listing_created"
	MetaProductID          = "product_id"
	MetaMarketplaceResults = "marketplace_results"
	MetaItemIDs            = "item_ids"
	MetaSearchResults      = "search_results"
	MetaSearchType         = "search_type"
)

// SideEffect is what a branch did besides producing text. The set of
// implementations is closed: OrderCreated, ListingCreated,
// MarketplaceResults, WebResults and None.
type SideEffect interface {
	// Metadata renders the effect for the assistant turn's metadata bag.
	Metadata() map[string]any
	sideEffect()
}

// OrderCreated is the result of a successful order command.
type OrderCreated struct {
	Order model.OrderRecord
}

func (e OrderCreated) Metadata() map[string]any {
	return map[string]any{
		MetaOrderCreated: true,
		MetaOrderID:      e.Order.ID,
	}
}

// ListingCreated is the result of a listing command.
type ListingCreated struct {
	Item model.CatalogItem
}

func (e ListingCreated) Metadata() map[string]any {
	return map[string]any{
		MetaListingCreated: true,
		MetaProductID:      e.Item.ID,
	}
}

// MarketplaceResults carries catalog items shown to the user.
type MarketplaceResults struct {
	Items []model.CatalogItem
}

// ItemIDs returns the ids of the shown items in display order.
func (e MarketplaceResults) ItemIDs() []uint64 {
	ids := make([]uint64, len(e.Items))
	for i, it := range e.Items {
		ids[i] = it.ID
	}
	return ids
}

func (e MarketplaceResults) Metadata() map[string]any {
	return map[string]any{
		MetaMarketplaceResults: e.Items,
		MetaItemIDs:            e.ItemIDs(),
	}
}

// WebResults carries web search results used by the reply.
type WebResults struct {
	Results model.WebResults
}

func (e WebResults) Metadata() map[string]any {
	return map[string]any{
		MetaSearchResults: e.Results.Results,
		MetaSearchType:    e.Results.Type,
	}
}

// None means the branch touched nothing.
type None struct{}

func (None) Metadata() map[string]any { return map[string]any{} }

func (OrderCreated) sideEffect()       {}
func (ListingCreated) sideEffect()     {}
func (MarketplaceResults) sideEffect() {}
func (WebResults) sideEffect()         {}
func (None) sideEffect()               {}

// Reply is the pipeline's answer to one message.
type Reply struct {
	Text   string
	Effect SideEffect
	Route  Route
}
