package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWishlistAddAndRemove(t *testing.T) {
	wl := NewWishlist()
	tee := product(1, "Vintage Wash Tee", 2499)

	wl.Add(tee)
	assert.True(t, wl.Contains(tee.ID))
	assert.Equal(t, 1, wl.Count())

	wl.Remove(tee.ID)
	assert.False(t, wl.Contains(tee.ID))
	assert.Equal(t, 0, wl.Count())
}

func TestWishlistAddIsIdempotent(t *testing.T) {
	wl := NewWishlist()
	tee := product(1, "Vintage Wash Tee", 2499)

	assert.True(t, wl.Add(tee))
	assert.False(t, wl.Add(tee))

	assert.Equal(t, 1, wl.Count())
	assert.Len(t, wl.Items(), 1)
}

func TestWishlistRemoveUnknownIDIsNoop(t *testing.T) {
	wl := NewWishlist()
	wl.Add(product(1, "Vintage Wash Tee", 2499))

	assert.False(t, wl.Remove(42))
	assert.Equal(t, 1, wl.Count())
}

func TestWishlistToggle(t *testing.T) {
	wl := NewWishlist()
	tee := product(1, "Vintage Wash Tee", 2499)

	assert.True(t, wl.Toggle(tee))
	assert.True(t, wl.Contains(tee.ID))

	assert.False(t, wl.Toggle(tee))
	assert.False(t, wl.Contains(tee.ID))
	assert.Equal(t, 0, wl.Count())
}

func TestWishlistPreservesInsertionOrder(t *testing.T) {
	wl := NewWishlist()
	wl.Add(product(5, "Retro High-Top Sneakers", 8999))
	wl.Add(product(1, "Vintage Wash Tee", 2499))

	items := wl.Items()
	assert.Equal(t, int64(5), items[0].ID)
	assert.Equal(t, int64(1), items[1].ID)
}
