package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/capitalize-ai/companion-chat/internal/llm"
	"github.com/capitalize-ai/companion-chat/internal/model"
)

type fakeCatalog struct {
	mu       sync.Mutex
	items    map[uint64]*model.CatalogItem
	orders   []model.OrderRecord
	listings []model.NewListing
	queries  []model.CatalogQuery
	nextID   uint64
	err      error
}

func newFakeCatalog(items ...model.CatalogItem) *fakeCatalog {
	c := &fakeCatalog{items: map[uint64]*model.CatalogItem{}, nextID: 100}
	for i := range items {
		it := items[i]
		it.Available = true
		it.Status = model.StatusAvailable
		if it.Quantity == 0 {
			it.Quantity = 1
		}
		c.items[it.ID] = &it
	}
	return c
}

func (c *fakeCatalog) Search(_ context.Context, q model.CatalogQuery) ([]model.CatalogItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, q)
	if c.err != nil {
		return nil, c.err
	}
	var out []model.CatalogItem
	for id := uint64(0); id <= c.nextID; id++ {
		if it, ok := c.items[id]; ok && it.Available {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (c *fakeCatalog) CreateListing(_ context.Context, l model.NewListing) (*model.CatalogItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listings = append(c.listings, l)
	c.nextID++
	it := &model.CatalogItem{
		ID: c.nextID, Seller: l.Seller, Title: l.Title, Description: l.Description,
		Price: l.Price, Quantity: 1, Available: true, Status: model.StatusAvailable, ViaChat: l.ViaChat,
	}
	c.items[it.ID] = it
	return it, nil
}

func (c *fakeCatalog) CreateOrder(_ context.Context, req model.OrderRequest) (*model.OrderRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[req.ItemID]
	if !ok {
		return nil, model.NewError(model.CodeNotFound, "product_not_found",
			fmt.Errorf("%w: product %d does not exist", model.ErrNotFound, req.ItemID))
	}
	if !it.Available {
		return nil, model.NewError(model.CodeOutOfStock, "insufficient_stock",
			fmt.Errorf("%w: product %d is no longer available", model.ErrOutOfStock, req.ItemID))
	}
	it.Quantity--
	if it.Quantity == 0 {
		it.Available = false
		it.Status = model.StatusSold
	}
	o := model.OrderRecord{
		ID: uint64(len(c.orders) + 1), ItemID: it.ID, ItemTitle: it.Title, UnitPrice: it.Price,
		Buyer: req.Buyer, Quantity: 1, TotalPrice: it.Price, Status: model.OrderPending, ViaChat: req.ViaChat,
	}
	c.orders = append(c.orders, o)
	return &o, nil
}

type searchCall struct {
	Query string
	Shape model.Shape
}

type fakeSearch struct {
	mu      sync.Mutex
	calls   []searchCall
	results []model.WebResult
	err     error
}

func (s *fakeSearch) Search(_ context.Context, query string, shape model.Shape, _ string) (*model.WebResults, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, searchCall{Query: query, Shape: shape})
	if s.err != nil {
		return nil, s.err
	}
	return &model.WebResults{Results: s.results, Type: shape}, nil
}

type fakeLLM struct {
	mu       sync.Mutex
	requests []*llm.CompletionRequest
	errs     []error
	reply    string
}

func (f *fakeLLM) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &llm.CompletionResponse{Content: f.reply}, nil
}

func (f *fakeLLM) Name() string { return "fake" }

type fakePreferences struct {
	graph map[string][]string
}

func (p *fakePreferences) GetOrCreate(_ context.Context, owner string) (*model.PreferenceGraph, error) {
	return &model.PreferenceGraph{Owner: owner, Graph: p.graph}, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []model.MarketplaceEvent
}

func (e *fakeEvents) Publish(_ context.Context, ev model.MarketplaceEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return nil
}

func item(id uint64, title string, price int64) model.CatalogItem {
	return model.CatalogItem{ID: id, Title: title, Seller: "sam", Description: title + " in great shape", Price: decimal.NewFromInt(price)}
}
