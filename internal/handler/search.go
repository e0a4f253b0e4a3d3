package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/capitalize-ai/companion-chat/internal/middleware"
	"github.com/capitalize-ai/companion-chat/internal/model"
	"github.com/capitalize-ai/companion-chat/pkg/logger"
)

// WebSearch is the search provider behind the direct search endpoint.
type WebSearch interface {
	Search(ctx context.Context, query string, shape model.Shape, location string) (*model.WebResults, error)
}

// SearchHandler exposes the web search provider directly.
type SearchHandler struct {
	search       WebSearch
	defaultShape model.Shape
	logger       *logger.Logger
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(search WebSearch, defaultShape model.Shape, log *logger.Logger) *SearchHandler {
	return &SearchHandler{
		search:       search,
		defaultShape: defaultShape,
		logger:       log,
	}
}

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req model.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateSearchQuery(req.Query); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	shape := model.ParseShape(req.Type, h.defaultShape)
	res, err := h.search.Search(r.Context(), strings.TrimSpace(req.Query), shape, strings.TrimSpace(req.Location))
	if err != nil {
		writeServiceError(w, h.logger, err, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, res)
}
