package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/capitalize-ai/companion-chat/internal/middleware"
	"github.com/capitalize-ai/companion-chat/internal/model"
	"github.com/capitalize-ai/companion-chat/pkg/logger"
)

// Catalog is the read side of the marketplace store.
type Catalog interface {
	Search(ctx context.Context, q model.CatalogQuery) ([]model.CatalogItem, error)
	Get(ctx context.Context, id uint64) (*model.CatalogItem, error)
}

// MarketplaceHandler serves catalog browse endpoints.
type MarketplaceHandler struct {
	catalog Catalog
	logger  *logger.Logger
}

// NewMarketplaceHandler creates a new marketplace handler.
func NewMarketplaceHandler(catalog Catalog, log *logger.Logger) *MarketplaceHandler {
	return &MarketplaceHandler{
		catalog: catalog,
		logger:  log,
	}
}

type productList struct {
	Products []model.CatalogItem `json:"products"`
	Count    int                 `json:"count"`
}

// List handles GET /api/v1/marketplace/products?search=&category=&type=&limit=
func (h *MarketplaceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := model.CatalogQuery{
		Text:     q.Get("search"),
		Category: q.Get("category"),
		Type:     model.ItemType(q.Get("type")),
		Limit:    50,
	}
	if l := q.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			query.Limit = parsed
		}
	}

	items, err := h.catalog.Search(r.Context(), query)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to list products")
		return
	}
	if items == nil {
		items = []model.CatalogItem{}
	}

	writeJSON(w, http.StatusOK, productList{Products: items, Count: len(items)})
}

// Get handles GET /api/v1/marketplace/products/:id
func (h *MarketplaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get product")
		return
	}

	writeJSON(w, http.StatusOK, item)
}
