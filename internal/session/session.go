package session

import (
	"fmt"
	"sync"
	"time"

	"urbangear/internal/models"
	"urbangear/internal/util"
)

// Session owns one cart, one wishlist and one toast queue for the
// lifetime of a shopper's visit. All cart and wishlist mutations go
// through the session mutex, so they apply atomically and in dispatch
// order; the derived aggregates read under the same lock can never
// drift from the underlying collections. Toasts for a mutation are
// pushed while the mutex is still held, so notification order matches
// mutation order even under concurrent requests.
type Session struct {
	ID string

	mu       sync.Mutex
	cart     *Cart
	wishlist *Wishlist
	toasts   *Toasts
	userID   int64
	lastSeen time.Time
}

func newSession(id string, toastTTL time.Duration) *Session {
	return &Session{
		ID:       id,
		cart:     NewCart(),
		wishlist: NewWishlist(),
		toasts:   NewToasts(toastTTL),
		lastSeen: time.Now(),
	}
}

// CartSnapshot is the cart state handed to the rendering layer
type CartSnapshot struct {
	Items      []models.CartItem `json:"items"`
	ItemCount  int               `json:"item_count"`
	TotalPrice int64             `json:"total_price"`
}

// AddToCart adds one unit of the product and emits a toast naming it
func (s *Session) AddToCart(product models.Product) {
	s.mu.Lock()
	s.cart.Add(product)
	s.toasts.Push(fmt.Sprintf("%s added to cart", product.Name), SeveritySuccess)
	s.lastSeen = time.Now()
	s.mu.Unlock()

	util.CartMutationsTotal.WithLabelValues("add").Inc()
}

// RemoveFromCart removes a line by product id. A toast is emitted
// only when something was actually removed; there is no product name
// to report otherwise.
func (s *Session) RemoveFromCart(productID int64) {
	s.mu.Lock()
	item, present := s.cart.Get(productID)
	if present {
		s.cart.Remove(productID)
		s.toasts.Push(fmt.Sprintf("%s removed from cart", item.Name), SeverityInfo)
	}
	s.lastSeen = time.Now()
	s.mu.Unlock()

	if present {
		util.CartMutationsTotal.WithLabelValues("remove").Inc()
	}
}

// UpdateCartQuantity sets a line's quantity; <= 0 removes the line
func (s *Session) UpdateCartQuantity(productID int64, quantity int) {
	s.mu.Lock()
	s.cart.UpdateQuantity(productID, quantity)
	s.lastSeen = time.Now()
	s.mu.Unlock()

	util.CartMutationsTotal.WithLabelValues("update").Inc()
}

// ClearCart empties the cart unconditionally
func (s *Session) ClearCart() {
	s.mu.Lock()
	s.cart.Clear()
	s.lastSeen = time.Now()
	s.mu.Unlock()

	util.CartMutationsTotal.WithLabelValues("clear").Inc()
}

// Cart returns the current cart state with its derived aggregates
func (s *Session) Cart() CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return CartSnapshot{
		Items:      s.cart.Items(),
		ItemCount:  s.cart.ItemCount(),
		TotalPrice: s.cart.TotalPrice(),
	}
}

// ToggleWishlist atomically adds or removes the product and reports
// whether it is wishlisted after the call.
func (s *Session) ToggleWishlist(product models.Product) bool {
	s.mu.Lock()
	wishlisted := s.wishlist.Toggle(product)
	if wishlisted {
		s.toasts.Push(fmt.Sprintf("%s added to wishlist", product.Name), SeveritySuccess)
	} else {
		s.toasts.Push(fmt.Sprintf("%s removed from wishlist", product.Name), SeverityInfo)
	}
	s.lastSeen = time.Now()
	s.mu.Unlock()

	if wishlisted {
		util.WishlistMutationsTotal.WithLabelValues("add").Inc()
	} else {
		util.WishlistMutationsTotal.WithLabelValues("remove").Inc()
	}
	return wishlisted
}

// AddToWishlist inserts the product; adding twice is a no-op
func (s *Session) AddToWishlist(product models.Product) {
	s.mu.Lock()
	added := s.wishlist.Add(product)
	if added {
		s.toasts.Push(fmt.Sprintf("%s added to wishlist", product.Name), SeveritySuccess)
	}
	s.lastSeen = time.Now()
	s.mu.Unlock()

	if added {
		util.WishlistMutationsTotal.WithLabelValues("add").Inc()
	}
}

// RemoveFromWishlist removes by product id; no-op if absent
func (s *Session) RemoveFromWishlist(productID int64) {
	s.mu.Lock()
	var name string
	for _, p := range s.wishlist.Items() {
		if p.ID == productID {
			name = p.Name
			break
		}
	}
	removed := s.wishlist.Remove(productID)
	if removed {
		s.toasts.Push(fmt.Sprintf("%s removed from wishlist", name), SeverityInfo)
	}
	s.lastSeen = time.Now()
	s.mu.Unlock()

	if removed {
		util.WishlistMutationsTotal.WithLabelValues("remove").Inc()
	}
}

// IsWishlisted reports wishlist membership for a product id
func (s *Session) IsWishlisted(productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishlist.Contains(productID)
}

// Wishlist returns the saved products and their count
func (s *Session) Wishlist() ([]models.Product, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishlist.Items(), s.wishlist.Count()
}

// Notify pushes an out-of-band toast, e.g. from the checkout pipeline
func (s *Session) Notify(message, severity string) {
	s.toasts.Push(message, severity)
}

// Notifications returns the currently visible toasts, oldest first
func (s *Session) Notifications() []Toast {
	return s.toasts.Snapshot()
}

// BindUser associates an authenticated user with the session
func (s *Session) BindUser(userID int64) {
	s.mu.Lock()
	s.userID = userID
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// UserID returns the bound user id, or zero if anonymous
func (s *Session) UserID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// LastSeen returns the time of the most recent operation
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Close cancels all pending toast expirations
func (s *Session) Close() {
	s.toasts.Close()
}
