package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/companion-chat/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func putItem(t *testing.T, c *Catalog, item model.CatalogItem) *model.CatalogItem {
	t.Helper()
	if item.Status == "" {
		item.Status = model.StatusAvailable
		item.Available = true
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	require.NoError(t, c.Put(context.Background(), &item))
	return &item
}

func TestCatalogSearch(t *testing.T) {
	c := NewCatalog(openTestDB(t))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	putItem(t, c, model.CatalogItem{Title: "Red Bicycle", Description: "road bike", Price: decimal.NewFromInt(120), CreatedAt: base})
	putItem(t, c, model.CatalogItem{Title: "Mountain Bicycle", Brand: "Trek", Location: "Denver", Price: decimal.NewFromInt(300), CreatedAt: base.Add(time.Hour)})
	putItem(t, c, model.CatalogItem{Title: "Old Bicycle", Status: model.StatusSold, Price: decimal.NewFromInt(10), CreatedAt: base.Add(2 * time.Hour)})
	putItem(t, c, model.CatalogItem{Title: "Lamp", Category: "Home", Price: decimal.NewFromInt(15), CreatedAt: base.Add(3 * time.Hour)})

	ctx := context.Background()

	items, err := c.Search(ctx, model.CatalogQuery{Text: "bicycle"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Mountain Bicycle", items[0].Title, "newest first")
	assert.Equal(t, "Red Bicycle", items[1].Title)

	items, err = c.Search(ctx, model.CatalogQuery{Text: "BICYCLE denver"})
	require.NoError(t, err)
	require.Len(t, items, 1, "every term must match some field")
	assert.Equal(t, "Mountain Bicycle", items[0].Title)

	items, err = c.Search(ctx, model.CatalogQuery{Text: "trek"})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = c.Search(ctx, model.CatalogQuery{Text: "bicycle", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = c.Search(ctx, model.CatalogQuery{Category: "home"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Lamp", items[0].Title)

	items, err = c.Search(ctx, model.CatalogQuery{Text: "submarine"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCatalogCreateListing(t *testing.T) {
	c := NewCatalog(openTestDB(t))
	ctx := context.Background()

	item, err := c.CreateListing(ctx, model.NewListing{
		Seller:  "alice",
		Title:   "Bicycle",
		Price:   decimal.NewFromInt(120),
		ViaChat: true,
	})
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, model.StatusAvailable, item.Status)
	assert.True(t, item.Available)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, "General", item.Category)
	assert.Equal(t, model.TypeProduct, item.Type)

	got, err := c.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(120)))
	assert.True(t, got.ViaChat)

	_, err = c.CreateListing(ctx, model.NewListing{Title: "  "})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestCatalogCreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("last unit marks item sold", func(t *testing.T) {
		c := NewCatalog(openTestDB(t))
		item := putItem(t, c, model.CatalogItem{Title: "Bicycle", Price: decimal.RequireFromString("120.50")})

		order, err := c.CreateOrder(ctx, model.OrderRequest{Buyer: "bob", ItemID: item.ID, ViaChat: true})
		require.NoError(t, err)
		assert.Equal(t, model.OrderPending, order.Status)
		assert.Equal(t, 1, order.Quantity)
		assert.Equal(t, "bob@example.com", order.BuyerEmail)
		assert.Equal(t, "Bicycle", order.ItemTitle)
		assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("120.50")))
		assert.True(t, order.ViaChat)

		got, err := c.Get(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Quantity)
		assert.Equal(t, model.StatusSold, got.Status)
		assert.False(t, got.Available)

		stored, err := c.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.ItemID, stored.ItemID)

		_, err = c.CreateOrder(ctx, model.OrderRequest{Buyer: "carol", ItemID: item.ID})
		assert.ErrorIs(t, err, model.ErrOutOfStock)
	})

	t.Run("partial quantity keeps item available", func(t *testing.T) {
		c := NewCatalog(openTestDB(t))
		item := putItem(t, c, model.CatalogItem{Title: "Mug", Price: decimal.NewFromInt(4), Quantity: 5})

		order, err := c.CreateOrder(ctx, model.OrderRequest{Buyer: "bob", ItemID: item.ID, Quantity: 3})
		require.NoError(t, err)
		assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(12)))

		got, err := c.Get(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Quantity)
		assert.Equal(t, model.StatusAvailable, got.Status)
		assert.True(t, got.Available)

		_, err = c.CreateOrder(ctx, model.OrderRequest{Buyer: "bob", ItemID: item.ID, Quantity: 3})
		assert.ErrorIs(t, err, model.ErrOutOfStock)
	})

	t.Run("unknown item", func(t *testing.T) {
		c := NewCatalog(openTestDB(t))
		_, err := c.CreateOrder(ctx, model.OrderRequest{Buyer: "bob", ItemID: 999})
		require.ErrorIs(t, err, model.ErrNotFound)

		var coded *model.Error
		require.True(t, errors.As(err, &coded))
		assert.Equal(t, model.CodeNotFound, coded.Code)

		n, err := c.CountOrders(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestCatalogCreateOrderConcurrentLastUnit(t *testing.T) {
	c := NewCatalog(openTestDB(t))
	item := putItem(t, c, model.CatalogItem{Title: "Lamp", Price: decimal.NewFromInt(15)})

	const buyers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		outStock int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.CreateOrder(context.Background(), model.OrderRequest{Buyer: "buyer", ItemID: item.ID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, model.ErrOutOfStock):
				outStock++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, buyers-1, outStock)

	n, err := c.CountOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCatalogSeed(t *testing.T) {
	c := NewCatalog(openTestDB(t))
	n, err := c.seed(context.Background(), []byte(`
items:
  - title: Trail Shoes
    brand: Salomon
    price: "89.99"
    quantity: 2
  - title: City Hotel Room
    type: hotel
    location: Lisbon
    price: "140"
`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	items, err := c.Search(context.Background(), model.CatalogQuery{Text: "lisbon"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.TypeHotel, items[0].Type)

	_, err = c.seed(context.Background(), []byte("items:\n  - title: Bad\n    price: cheap\n"))
	assert.Error(t, err)
}

func TestPreferences(t *testing.T) {
	p := NewPreferences(openTestDB(t))
	ctx := context.Background()

	g, err := p.GetOrCreate(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, g.Graph)

	g.Graph["cuisine"] = []string{"thai", "ramen"}
	require.NoError(t, p.Put(ctx, g))

	again, err := p.GetOrCreate(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"thai", "ramen"}, again.Graph["cuisine"])
}

func TestMemoryHistory(t *testing.T) {
	h := NewMemoryHistory(3)
	ctx := context.Background()

	for i, text := range []string{"a", "b", "c", "d"} {
		seq, err := h.AppendTurn(ctx, "s1", model.ChatTurn{Text: text})
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), seq)
	}
	seq, err := h.AppendTurn(ctx, "s2", model.ChatTurn{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	turns, err := h.RecentTurns(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "b", turns[0].Text)
	assert.Equal(t, uint64(2), turns[0].Sequence)
	assert.Equal(t, uint64(4), turns[2].Sequence)
	assert.Equal(t, "d", turns[2].Text)

	turns, err = h.RecentTurns(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "c", turns[0].Text)

	require.NoError(t, h.DeleteSession(ctx, "s1"))
	turns, err = h.RecentTurns(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessions(openTestDB(t))
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	first, created, err := sessions.Create(ctx, &model.Session{ID: "s1", UserID: "alice", Persona: model.PersonaFoodie, UpdatedAt: now})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "s1", first.ID)

	dup, created, err := sessions.Create(ctx, &model.Session{ID: "s2", UserID: "alice", Persona: model.PersonaFoodie, UpdatedAt: now})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "s1", dup.ID)

	_, _, err = sessions.Create(ctx, &model.Session{ID: "s3", UserID: "alice", Persona: model.PersonaTravel, UpdatedAt: now})
	require.NoError(t, err)
	_, _, err = sessions.Create(ctx, &model.Session{ID: "s4", UserID: "bob", Persona: model.PersonaTravel, UpdatedAt: now})
	require.NoError(t, err)

	require.NoError(t, sessions.Update(ctx, "s1", func(s *model.Session) {
		s.TurnCount = 2
		s.UpdatedAt = now.Add(time.Minute)
	}))

	list, err := sessions.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "s1", list[0].ID)
	assert.Equal(t, 2, list[0].TurnCount)
	assert.Equal(t, "s3", list[1].ID)

	require.NoError(t, sessions.Delete(ctx, "s1"))
	_, err = sessions.Get(ctx, "s1")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, sessions.Update(ctx, "s1", func(*model.Session) {}), model.ErrNotFound)

	again, created, err := sessions.Create(ctx, &model.Session{ID: "s5", UserID: "alice", Persona: model.PersonaFoodie, UpdatedAt: now})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "s5", again.ID)
}
