package cart

import (
	"errors"

	"kommand-console/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrOutOfStock          = errors.New("product is out of stock")
	ErrCheckoutUnavailable = errors.New("checkout is not available")
)

// Item is a product snapshot together with the selected quantity
type Item struct {
	Product domain.Product
	Qty     int
}

// Subtotal returns the unit price multiplied by the quantity
func (i Item) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// Cart is a client-local collection of selected products. It never talks to the
// server and is not safe for concurrent use.
type Cart struct {
	items []Item
}

// New creates an empty cart
func New() *Cart {
	return &Cart{}
}

// Add puts one unit of product into the cart, incrementing an existing line
func (c *Cart) Add(product domain.Product) error {
	if !product.InStock() {
		return ErrOutOfStock
	}

	for i := range c.items {
		if c.items[i].Product.ID == product.ID {
			c.items[i].Qty++
			return nil
		}
	}

	c.items = append(c.items, Item{Product: product, Qty: 1})
	return nil
}

// Remove drops the line for productID regardless of its quantity
func (c *Cart) Remove(productID int64) bool {
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Items returns a copy of the cart lines in insertion order
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Total sums price times quantity over every line
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Count returns the number of units across all lines
func (c *Cart) Count() int {
	count := 0
	for _, item := range c.items {
		count += item.Qty
	}
	return count
}

// Empty reports whether the cart has no lines
func (c *Cart) Empty() bool {
	return len(c.items) == 0
}

// Clear discards every line
func (c *Cart) Clear() {
	c.items = nil
}

// Checkout is the boundary to order placement, which this console does not implement
func (c *Cart) Checkout() error {
	return ErrCheckoutUnavailable
}
