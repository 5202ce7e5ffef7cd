package session

import "urbangear/internal/models"

// Wishlist is a set of saved products keyed by id, without
// quantities. Insertion order is preserved for display.
type Wishlist struct {
	items []models.Product
}

// NewWishlist creates an empty wishlist
func NewWishlist() *Wishlist {
	return &Wishlist{}
}

// Add inserts the product if not already present. Adding an
// already-present product is a no-op, not a duplicate.
func (w *Wishlist) Add(product models.Product) bool {
	if w.Contains(product.ID) {
		return false
	}
	w.items = append(w.items, product)
	return true
}

// Remove deletes the product with the given id; no-op if absent
func (w *Wishlist) Remove(productID int64) bool {
	for i := range w.items {
		if w.items[i].ID == productID {
			w.items = append(w.items[:i], w.items[i+1:]...)
			return true
		}
	}
	return false
}

// Toggle adds the product if absent, removes it if present. Returns
// true when the product is present after the call.
func (w *Wishlist) Toggle(product models.Product) bool {
	if w.Remove(product.ID) {
		return false
	}
	w.items = append(w.items, product)
	return true
}

// Contains reports whether the product id is wishlisted
func (w *Wishlist) Contains(productID int64) bool {
	for i := range w.items {
		if w.items[i].ID == productID {
			return true
		}
	}
	return false
}

// Count returns the set cardinality
func (w *Wishlist) Count() int {
	return len(w.items)
}

// Items returns a copy of the saved products in insertion order
func (w *Wishlist) Items() []models.Product {
	items := make([]models.Product, len(w.items))
	copy(items, w.items)
	return items
}
