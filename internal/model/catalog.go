package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemStatus is the lifecycle status of a catalog item.
type ItemStatus string

const (
	StatusAvailable ItemStatus = "available"
	StatusSold      ItemStatus = "sold"
	StatusReserved  ItemStatus = "reserved"
	StatusInactive  ItemStatus = "inactive"
)

// ItemType distinguishes products from hotels and services.
type ItemType string

const (
	TypeProduct ItemType = "product"
	TypeHotel   ItemType = "hotel"
	TypeService ItemType = "service"
)

// CatalogItem is a marketplace listing.
type CatalogItem struct {
	ID          uint64          `json:"id"`
	Seller      string          `json:"seller"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Type        ItemType        `json:"product_type"`
	Brand       string          `json:"brand,omitempty"`
	Location    string          `json:"location,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Quantity    int             `json:"quantity"`
	Available   bool            `json:"available"`
	Status      ItemStatus      `json:"status"`
	ViaChat     bool            `json:"listed_via_chat"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewListing describes an item to be created.
type NewListing struct {
	Seller      string
	Title       string
	Description string
	Price       decimal.Decimal
	Category    string
	Type        ItemType
	Quantity    int
	ViaChat     bool
}

// CatalogQuery filters a catalog search. Empty fields match everything.
type CatalogQuery struct {
	Text     string
	Category string
	Type     ItemType
	Limit    int
}

// OrderStatus is the lifecycle status of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
	OrderRefunded  OrderStatus = "refunded"
)

// OrderRecord is a purchase of a catalog item.
type OrderRecord struct {
	ID         uint64          `json:"id"`
	ItemID     uint64          `json:"product"`
	ItemTitle  string          `json:"product_title"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Buyer      string          `json:"buyer"`
	BuyerEmail string          `json:"buyer_email"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     OrderStatus     `json:"status"`
	ViaChat    bool            `json:"ordered_via_chat"`
	CreatedAt  time.Time       `json:"created_at"`
}

// OrderRequest describes an order to be placed.
type OrderRequest struct {
	Buyer      string
	BuyerEmail string
	ItemID     uint64
	Quantity   int
	ViaChat    bool
}
