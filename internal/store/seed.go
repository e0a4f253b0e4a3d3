package store

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/capitalize-ai/companion-chat/internal/model"
)

type seedFile struct {
	Items []seedItem `yaml:"items"`
}

type seedItem struct {
	Seller      string `yaml:"seller"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	Type        string `yaml:"type"`
	Brand       string `yaml:"brand"`
	Location    string `yaml:"location"`
	Price       string `yaml:"price"`
	Quantity    int    `yaml:"quantity"`
}

// LoadSeed reads a YAML catalog file and stores its items. It is a no-op
// when the catalog already holds items.
func (c *Catalog) LoadSeed(ctx context.Context, path string) (int, error) {
	existing, err := c.Search(ctx, model.CatalogQuery{Limit: 1})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("store: read seed: %w", err)
	}
	return c.seed(ctx, data)
}

func (c *Catalog) seed(ctx context.Context, data []byte) (int, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("store: parse seed: %w", err)
	}

	for i, s := range f.Items {
		price, err := decimal.NewFromString(s.Price)
		if err != nil {
			return i, fmt.Errorf("store: seed item %q price: %w", s.Title, err)
		}
		qty := s.Quantity
		if qty <= 0 {
			qty = 1
		}
		typ := model.ItemType(s.Type)
		if typ == "" {
			typ = model.TypeProduct
		}
		category := s.Category
		if category == "" {
			category = defaultCategory
		}
		item := &model.CatalogItem{
			Seller:      s.Seller,
			Title:       s.Title,
			Description: s.Description,
			Category:    category,
			Type:        typ,
			Brand:       s.Brand,
			Location:    s.Location,
			Price:       price,
			Currency:    defaultCurrency,
			Quantity:    qty,
			Available:   true,
			Status:      model.StatusAvailable,
		}
		if err := c.Put(ctx, item); err != nil {
			return i, err
		}
	}
	return len(f.Items), nil
}
