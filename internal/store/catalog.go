package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	bolt "go.etcd.io/bbolt"

	"github.com/capitalize-ai/companion-chat/internal/model"
)

const (
	defaultCategory    = "General"
	defaultCurrency    = "USD"
	defaultSearchLimit = 20
)

// Catalog is the marketplace item and order store.
type Catalog struct {
	db  *DB
	now func() time.Time
}

// NewCatalog creates a Catalog over an open database.
func NewCatalog(db *DB) *Catalog {
	return &Catalog{db: db, now: time.Now}
}

// Search returns available items whose title, description, brand or
// location contain every whitespace-separated term of q.Text, newest first.
func (c *Catalog) Search(ctx context.Context, q model.CatalogQuery) ([]model.CatalogItem, error) {
	terms := strings.Fields(strings.ToLower(q.Text))
	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	var items []model.CatalogItem
	err := c.db.bolt.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketItems).ForEach(func(_, v []byte) error {
			var item model.CatalogItem
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("decode item: %w", err)
			}
			if matches(item, terms, q) {
				items = append(items, item)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func matches(item model.CatalogItem, terms []string, q model.CatalogQuery) bool {
	if !item.Available {
		return false
	}
	if q.Category != "" && !strings.EqualFold(item.Category, q.Category) {
		return false
	}
	if q.Type != "" && item.Type != q.Type {
		return false
	}
	haystack := strings.ToLower(strings.Join([]string{item.Title, item.Description, item.Brand, item.Location}, "\n"))
	for _, t := range terms {
		if !strings.Contains(haystack, t) {
			return false
		}
	}
	return true
}

// Get returns the item with the given id.
func (c *Catalog) Get(ctx context.Context, id uint64) (*model.CatalogItem, error) {
	var item *model.CatalogItem
	err := c.db.bolt.View(func(tx *bolt.Tx) error {
		var err error
		item, err = getItem(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// CreateListing stores a new available item.
func (c *Catalog) CreateListing(ctx context.Context, l model.NewListing) (*model.CatalogItem, error) {
	if strings.TrimSpace(l.Title) == "" {
		return nil, model.Validation("empty_title", "listing title is required")
	}
	if l.Price.IsNegative() {
		return nil, model.Validation("negative_price", "listing price must not be negative")
	}
	quantity := l.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	category := l.Category
	if category == "" {
		category = defaultCategory
	}
	typ := l.Type
	if typ == "" {
		typ = model.TypeProduct
	}

	now := c.now().UTC()
	item := &model.CatalogItem{
		Seller:      l.Seller,
		Title:       l.Title,
		Description: l.Description,
		Category:    category,
		Type:        typ,
		Price:       l.Price,
		Currency:    defaultCurrency,
		Quantity:    quantity,
		Available:   true,
		Status:      model.StatusAvailable,
		ViaChat:     l.ViaChat,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := c.db.bolt.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketItems)
		id, err := b.NextSequence()
		if err != nil {
			return err
		}
		item.ID = id
		return putJSON(b, id, item)
	})
	if err != nil {
		return nil, fmt.Errorf("store: create listing: %w", err)
	}
	return item, nil
}

// CreateOrder places an order and decrements the item's stock in a single
// transaction. Stock reaching zero marks the item sold and unavailable.
// Concurrent orders for the last unit yield exactly one success; the others
// fail with model.ErrOutOfStock.
func (c *Catalog) CreateOrder(ctx context.Context, req model.OrderRequest) (*model.OrderRecord, error) {
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	email := req.BuyerEmail
	if email == "" {
		email = req.Buyer + "@example.com"
	}

	var order *model.OrderRecord
	err := c.db.bolt.Update(func(tx *bolt.Tx) error {
		item, err := getItem(tx, req.ItemID)
		if err != nil {
			return err
		}
		if !item.Available || item.Status != model.StatusAvailable || item.Quantity < quantity {
			return model.NewError(model.CodeOutOfStock, "insufficient_stock",
				fmt.Errorf("%w: product %d is no longer available", model.ErrOutOfStock, item.ID))
		}

		now := c.now().UTC()
		total := item.Price.Mul(decimal.NewFromInt(int64(quantity)))

		orders := tx.Bucket(bucketOrders)
		id, err := orders.NextSequence()
		if err != nil {
			return err
		}
		order = &model.OrderRecord{
			ID:         id,
			ItemID:     item.ID,
			ItemTitle:  item.Title,
			UnitPrice:  item.Price,
			Buyer:      req.Buyer,
			BuyerEmail: email,
			Quantity:   quantity,
			TotalPrice: total,
			Status:     model.OrderPending,
			ViaChat:    req.ViaChat,
			CreatedAt:  now,
		}

		item.Quantity -= quantity
		if item.Quantity == 0 {
			item.Status = model.StatusSold
			item.Available = false
		}
		item.UpdatedAt = now

		if err := putJSON(orders, id, order); err != nil {
			return err
		}
		return putJSON(tx.Bucket(bucketItems), item.ID, item)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder returns the order with the given id.
func (c *Catalog) GetOrder(ctx context.Context, id uint64) (*model.OrderRecord, error) {
	var order model.OrderRecord
	err := c.db.bolt.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketOrders).Get(itob(id))
		if v == nil {
			return notFound("order", id)
		}
		return json.Unmarshal(v, &order)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CountOrders returns the number of stored orders.
func (c *Catalog) CountOrders(ctx context.Context) (int, error) {
	var n int
	err := c.db.bolt.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketOrders).Stats().KeyN
		return nil
	})
	return n, err
}

func getItem(tx *bolt.Tx, id uint64) (*model.CatalogItem, error) {
	v := tx.Bucket(bucketItems).Get(itob(id))
	if v == nil {
		return nil, notFound("product", id)
	}
	var item model.CatalogItem
	if err := json.Unmarshal(v, &item); err != nil {
		return nil, fmt.Errorf("store: decode item %d: %w", id, err)
	}
	return &item, nil
}

func putJSON(b *bolt.Bucket, id uint64, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(itob(id), data)
}

func notFound(kind string, id uint64) error {
	return model.NewError(model.CodeNotFound, kind+"_not_found",
		fmt.Errorf("%w: %s %d does not exist", model.ErrNotFound, kind, id))
}

// Put stores an item as given, assigning an id when it has none.
func (c *Catalog) Put(ctx context.Context, item *model.CatalogItem) error {
	return c.db.bolt.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketItems)
		if item.ID == 0 {
			id, err := b.NextSequence()
			if err != nil {
				return err
			}
			item.ID = id
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = c.now().UTC()
		}
		if item.UpdatedAt.IsZero() {
			item.UpdatedAt = item.CreatedAt
		}
		return putJSON(b, item.ID, item)
	})
}
