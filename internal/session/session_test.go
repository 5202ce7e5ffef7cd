package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *Session {
	return newSession("test-session", time.Minute)
}

func TestSessionAddToCartEmitsToast(t *testing.T) {
	sess := newTestSession()
	defer sess.Close()

	sess.AddToCart(product(1, "Vintage Wash Tee", 2499))

	snapshot := sess.Cart()
	assert.Equal(t, 1, snapshot.ItemCount)
	assert.Equal(t, int64(2499), snapshot.TotalPrice)

	toasts := sess.Notifications()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Vintage Wash Tee added to cart", toasts[0].Message)
}

func TestSessionRemoveMissingEmitsNoToast(t *testing.T) {
	sess := newTestSession()
	defer sess.Close()

	sess.RemoveFromCart(42)

	assert.Empty(t, sess.Notifications())
	assert.Equal(t, 0, sess.Cart().ItemCount)
}

func TestSessionUpdateQuantityToZeroRemovesLine(t *testing.T) {
	sess := newTestSession()
	defer sess.Close()

	sess.AddToCart(product(1, "Vintage Wash Tee", 2499))
	sess.UpdateCartQuantity(1, 3)
	assert.Equal(t, 3, sess.Cart().ItemCount)

	sess.UpdateCartQuantity(1, 0)
	snapshot := sess.Cart()
	assert.Empty(t, snapshot.Items)
	assert.Equal(t, 0, snapshot.ItemCount)
}

func TestSessionToggleWishlistEmitsToasts(t *testing.T) {
	sess := newTestSession()
	defer sess.Close()

	tee := product(1, "Vintage Wash Tee", 2499)

	assert.True(t, sess.ToggleWishlist(tee))
	assert.True(t, sess.IsWishlisted(tee.ID))

	assert.False(t, sess.ToggleWishlist(tee))
	assert.False(t, sess.IsWishlisted(tee.ID))

	toasts := sess.Notifications()
	require.Len(t, toasts, 2)
	assert.Equal(t, "Vintage Wash Tee added to wishlist", toasts[0].Message)
	assert.Equal(t, "Vintage Wash Tee removed from wishlist", toasts[1].Message)
}

func TestSessionConcurrentAddsKeepToastOrderAligned(t *testing.T) {
	sess := newTestSession()
	defer sess.Close()

	var wg sync.WaitGroup
	for i := 1; i <= 25; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			sess.AddToCart(product(id, fmt.Sprintf("Item %d", id), 100))
		}(int64(i))
	}
	wg.Wait()

	// The i-th toast must name the i-th cart line: toasts are pushed
	// under the same lock that orders the mutations.
	items := sess.Cart().Items
	toasts := sess.Notifications()
	require.Len(t, toasts, len(items))
	for i, item := range items {
		assert.Equal(t, fmt.Sprintf("%s added to cart", item.Name), toasts[i].Message)
	}
}

func TestSessionBindUser(t *testing.T) {
	sess := newTestSession()
	defer sess.Close()

	assert.Equal(t, int64(0), sess.UserID())
	sess.BindUser(7)
	assert.Equal(t, int64(7), sess.UserID())
}

func TestManagerCreateAndGet(t *testing.T) {
	mgr := NewManager(time.Minute, time.Hour)
	defer mgr.Close()

	sess := mgr.Create()
	require.NotEmpty(t, sess.ID)

	got, ok := mgr.Get(sess.ID)
	require.True(t, ok)
	assert.Same(t, sess, got)

	_, ok = mgr.Get("no-such-session")
	assert.False(t, ok)
}

func TestManagerRemoveClosesSession(t *testing.T) {
	mgr := NewManager(10*time.Millisecond, time.Hour)

	sess := mgr.Create()
	sess.Notify("pending", SeverityInfo)
	mgr.Remove(sess.ID)

	_, ok := mgr.Get(sess.ID)
	assert.False(t, ok)
	assert.Empty(t, sess.Notifications())
}

func TestManagerReapEvictsIdleSessions(t *testing.T) {
	mgr := NewManager(time.Minute, time.Nanosecond)
	defer mgr.Close()

	sess := mgr.Create()
	time.Sleep(time.Millisecond)
	mgr.reap()

	_, ok := mgr.Get(sess.ID)
	assert.False(t, ok)
}
