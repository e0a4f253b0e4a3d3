package model

// Shape selects query templating and result typing at the web search provider.
type Shape string

const (
	ShapeHotels      Shape = "hotels"
	ShapeRestaurants Shape = "restaurants"
	ShapeAttractions Shape = "attractions"
	ShapeFlights     Shape = "flights"
	ShapeProducts    Shape = "products"
	ShapeShopping    Shape = "shopping"
	ShapeGeneral     Shape = "general"
)

// ParseShape maps a request value onto a Shape, falling back to def.
func ParseShape(s string, def Shape) Shape {
	switch sh := Shape(s); sh {
	case ShapeHotels, ShapeRestaurants, ShapeAttractions, ShapeFlights,
		ShapeProducts, ShapeShopping, ShapeGeneral:
		return sh
	}
	return def
}

// ResultType is the singular label attached to each web result.
func (s Shape) ResultType() string {
	switch s {
	case ShapeHotels:
		return "hotel"
	case ShapeRestaurants:
		return "restaurant"
	case ShapeAttractions:
		return "attraction"
	case ShapeFlights:
		return "flight"
	case ShapeProducts, ShapeShopping:
		return "product"
	default:
		return "general"
	}
}

// WebResult is one organic result from the search provider.
type WebResult struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Snippet   string `json:"snippet"`
	PriceInfo string `json:"price_info,omitempty"`
	Type      string `json:"type"`
}

// WebResults is a provider response.
type WebResults struct {
	Results []WebResult `json:"results"`
	Type    Shape       `json:"type"`
}

// SearchRequest is the request body of the direct search endpoint.
type SearchRequest struct {
	Query    string `json:"query"`
	Type     string `json:"type"`
	Location string `json:"location"`
}
