package prompt

import (
	"sort"
	"strings"

	"github.com/capitalize-ai/companion-chat/internal/model"
)

// PreferenceContext renders a preference graph as
// "category: a, b; other: c". Empty categories are skipped and an empty
// graph yields "". Categories are emitted in sorted order.
func PreferenceContext(g *model.PreferenceGraph) string {
	if g == nil || len(g.Graph) == 0 {
		return ""
	}
	categories := make([]string, 0, len(g.Graph))
	for c := range g.Graph {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	parts := make([]string, 0, len(categories))
	for _, c := range categories {
		prefs := g.Graph[c]
		if len(prefs) == 0 {
			continue
		}
		parts = append(parts, c+": "+strings.Join(prefs, ", "))
	}
	return strings.Join(parts, "; ")
}
