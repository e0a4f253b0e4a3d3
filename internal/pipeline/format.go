package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/capitalize-ai/companion-chat/internal/model"
)

const (
	replyNoItems         = "Sorry, no relevant items found."
	replyNoItemsOnline   = "Sorry, no relevant items found online."
	replySearchNotReady  = "Sorry, no relevant items found. The search service is not configured."
	replyLLMFailure      = "I'm sorry, I'm having trouble responding right now. Please try again. Error: %v"
	descriptionPreview   = 100
	unknownSeller        = "Unknown Seller"
	noDescription        = "No description available"
	marketplaceHeader    = "Here are some items from our marketplace:\n\n"
	marketplaceFooter    = "\n\nIf you don't find what you want, reply with 'none' or 'not found' to search the web."
	webFallbackHeader    = "No items found in our marketplace. Here are some results from the web:\n\n"
	negationHeader       = "Here are some results from the web:\n\n"
	orderHint            = "\n\n💡 **To place an order**, reply with: 'order [product_id]' or 'buy [product_id]'"
	appHint              = "\n📱 **To view in app**, go to Marketplace section"
)

func formatMarketplace(items []model.CatalogItem) string {
	lines := make([]string, 0, len(items))
	for i, it := range items {
		seller := it.Seller
		if seller == "" {
			seller = unknownSeller
		}
		desc := it.Description
		if desc == "" {
			desc = noDescription
		}
		lines = append(lines, fmt.Sprintf("🛍️ %d. **%s** - $%s\n   📝 %s...\n   👤 Seller: %s\n   🆔 Product ID: %d",
			i+1, it.Title, it.Price.StringFixed(2), preview(desc, descriptionPreview), seller, it.ID))
	}
	return marketplaceHeader + strings.Join(lines, "\n\n") + orderHint + appHint + marketplaceFooter
}

func formatWeb(header string, results []model.WebResult, limit int) string {
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	var b strings.Builder
	b.WriteString(header)
	for _, r := range results {
		fmt.Fprintf(&b, "- %s: %s\n", r.Title, r.Snippet)
	}
	return b.String()
}

func formatOrder(o *model.OrderRecord) string {
	return fmt.Sprintf("✅ **Order Created Successfully!**\n\n🆔 Order ID: %d\n📦 Product: %s\n💰 Price: $%s\n📊 Status: %s\n\n📱 You can track your order in the Marketplace section of the app.",
		o.ID, o.ItemTitle, o.TotalPrice.StringFixed(2), o.Status)
}

func formatOrderFailure(err error) string {
	if errors.Is(err, model.ErrOutOfStock) {
		return fmt.Sprintf("❌ **Order Failed**: %v\n\n💡 This item is sold out. Ask me to find something similar, or reply 'none' to search online.", err)
	}
	return fmt.Sprintf("❌ **Order Failed**: %v\n\n💡 Please check the product ID and try again.", err)
}

func formatListing(it *model.CatalogItem) string {
	return fmt.Sprintf("Your product '%s' has been listed in the marketplace!\n\nDetails:\nTitle: %s\nPrice: $%s\nDescription: %s",
		it.Title, it.Title, it.Price.StringFixed(2), it.Description)
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
