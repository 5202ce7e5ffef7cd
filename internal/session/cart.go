package session

import "urbangear/internal/models"

// Cart holds the line items selected for purchase in one session.
// At most one line per product id; a line's quantity is always >= 1.
// Insertion order is preserved for display.
type Cart struct {
	items []models.CartItem
}

// NewCart creates an empty cart
func NewCart() *Cart {
	return &Cart{}
}

// Add increments the quantity of an existing line or appends a new
// line with quantity 1.
func (c *Cart) Add(product models.Product) {
	for i := range c.items {
		if c.items[i].ID == product.ID {
			c.items[i].Quantity++
			return
		}
	}
	c.items = append(c.items, models.CartItem{Product: product, Quantity: 1})
}

// Remove deletes the line with the given product id. Removing an
// absent id is a no-op, not an error.
func (c *Cart) Remove(productID int64) bool {
	for i := range c.items {
		if c.items[i].ID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateQuantity sets the quantity of the line with the given product
// id. A quantity <= 0 removes the line instead of persisting a
// non-positive value. Unknown ids are left alone.
func (c *Cart) UpdateQuantity(productID int64, quantity int) {
	if quantity <= 0 {
		c.Remove(productID)
		return
	}
	for i := range c.items {
		if c.items[i].ID == productID {
			c.items[i].Quantity = quantity
			return
		}
	}
}

// Clear empties the cart unconditionally
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the current lines in insertion order
func (c *Cart) Items() []models.CartItem {
	items := make([]models.CartItem, len(c.items))
	copy(items, c.items)
	return items
}

// Get returns the line for a product id, if present
func (c *Cart) Get(productID int64) (models.CartItem, bool) {
	for i := range c.items {
		if c.items[i].ID == productID {
			return c.items[i], true
		}
	}
	return models.CartItem{}, false
}

// ItemCount returns the sum of quantities over all lines. It is
// recomputed from the lines on every call, never cached.
func (c *Cart) ItemCount() int {
	count := 0
	for i := range c.items {
		count += c.items[i].Quantity
	}
	return count
}

// TotalPrice returns the sum of price*quantity over all lines, in
// minor currency units. Recomputed on every call.
func (c *Cart) TotalPrice() int64 {
	var total int64
	for i := range c.items {
		total += c.items[i].Price * int64(c.items[i].Quantity)
	}
	return total
}
