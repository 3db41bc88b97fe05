package domain

import (
	"github.com/shopspring/decimal"
)

// ShopCategory groups shops for customer browsing
type ShopCategory struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	ShopCount   int    `json:"shop_count"`
}

// Shop represents a marketplace tenant. Customers receive the descriptive subset,
// the platform view also fills the operational fields.
type Shop struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	City         string          `json:"city"`
	Rating       float64         `json:"rating"`
	CategoryID   *int64          `json:"category_id,omitempty"`
	IsVerified   bool            `json:"is_verified"`
	IsActive     bool            `json:"is_active"`
	OwnerEmail   string          `json:"owner_email,omitempty"`
	TotalOrders  int             `json:"total_orders"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// Product represents an item sold by a shop
type Product struct {
	ID             int64               `json:"id"`
	ShopID         int64               `json:"shop_id"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Brand          string              `json:"brand"`
	SKU            string              `json:"sku"`
	Barcode        string              `json:"barcode"`
	ImageURL       string              `json:"image_url"`
	Price          decimal.Decimal     `json:"price"`
	CostPrice      decimal.NullDecimal `json:"cost_price"`
	CompareAtPrice decimal.NullDecimal `json:"compare_at_price"`
	Quantity       int                 `json:"quantity"`
	MinStockLevel  int                 `json:"min_stock_level"`
	CategoryID     *int64              `json:"category_id"`
	Tags           string              `json:"tags"`
	Unit           string              `json:"unit"`
	IsFeatured     bool                `json:"is_featured"`
	IsActive       bool                `json:"is_active"`
	SoldCount      int                 `json:"sold_count"`
}

// InStock reports whether at least one unit can be sold
func (p Product) InStock() bool {
	return p.Quantity > 0
}

// OnSale reports whether the product carries a compare-at price
func (p Product) OnSale() bool {
	return p.CompareAtPrice.Valid
}

// Category represents a product category used by shop admins
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
