package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"urbangear/internal/models"
	"urbangear/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore implements Store for tests that exercise the dedupe
// logic without a database.
type memoryStore struct {
	mu            sync.Mutex
	orders        map[int64]*models.Order
	statusUpdates map[int64][]string
	processed     map[string]bool
	statusErr     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		orders:        make(map[int64]*models.Order),
		statusUpdates: make(map[int64][]string),
		processed:     make(map[string]bool),
	}
}

func (m *memoryStore) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.IdempotencyKey == key {
			return o, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) CreateOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order.ID = int64(len(m.orders) + 1)
	m.orders[order.ID] = order
	return nil
}

func (m *memoryStore) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	return nil
}

func (m *memoryStore) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, errors.New("order not found")
	}
	return order, nil
}

func (m *memoryStore) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	return nil, nil
}

func (m *memoryStore) GetPaymentByOrderID(ctx context.Context, orderID int64) (*models.Payment, error) {
	return nil, nil
}

func (m *memoryStore) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statusErr != nil {
		err := m.statusErr
		m.statusErr = nil
		return err
	}
	m.statusUpdates[orderID] = append(m.statusUpdates[orderID], status)
	return nil
}

func (m *memoryStore) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processed[eventID], nil
}

func (m *memoryStore) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[eventID] = true
	return nil
}

func (m *memoryStore) failNextStatusUpdate(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusErr = err
}

// memoryClaims implements EventClaims with a plain set, standing in
// for the SETNX fast path.
type memoryClaims struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemoryClaims() *memoryClaims {
	return &memoryClaims{held: make(map[string]bool)}
}

func (m *memoryClaims) ClaimEvent(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[eventID] {
		return false, nil
	}
	m.held[eventID] = true
	return true, nil
}

func (m *memoryClaims) ReleaseClaim(ctx context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, eventID)
	return nil
}

func paymentSucceeded(eventID string, orderID int64, sessionID string) *models.PaymentSucceededEvent {
	return &models.PaymentSucceededEvent{
		BaseEvent: models.BaseEvent{
			EventID:   eventID,
			EventType: models.EventTypePaymentSucceeded,
			Timestamp: time.Now(),
		},
		OrderID:   orderID,
		SessionID: sessionID,
		Amount:    2499,
		TxID:      "TXN-test",
	}
}

func TestPlaceOrderRejectsEmptyCart(t *testing.T) {
	mgr := session.NewManager(time.Minute, time.Hour)
	defer mgr.Close()

	svc := NewService(newMemoryStore(), nil, nil, mgr)
	sess := mgr.Create()

	_, err := svc.PlaceOrder(context.Background(), 1, sess, "")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPaymentSuccessClearsCartExactlyOnce(t *testing.T) {
	mgr := session.NewManager(time.Minute, time.Hour)
	defer mgr.Close()

	db := newMemoryStore()
	svc := NewService(db, newMemoryClaims(), nil, mgr)
	sess := mgr.Create()
	sess.AddToCart(models.Product{ID: 1, Name: "Vintage Wash Tee", Price: 2499})

	event := paymentSucceeded("evt-1", 1, sess.ID)
	require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), event))
	assert.Equal(t, 0, sess.Cart().ItemCount)
	assert.Equal(t, []string{models.OrderStatusPaid}, db.statusUpdates[1])

	// A redelivered event is acknowledged without clearing again.
	sess.AddToCart(models.Product{ID: 2, Name: "Tech Cargo Pants", Price: 5499})
	require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), event))
	assert.Equal(t, 1, sess.Cart().ItemCount)
	assert.Equal(t, []string{models.OrderStatusPaid}, db.statusUpdates[1])
}

func TestPaymentSuccessDedupedByProcessedTableWithoutClaims(t *testing.T) {
	mgr := session.NewManager(time.Minute, time.Hour)
	defer mgr.Close()

	db := newMemoryStore()
	db.processed["evt-1"] = true

	svc := NewService(db, nil, nil, mgr)
	sess := mgr.Create()
	sess.AddToCart(models.Product{ID: 1, Name: "Vintage Wash Tee", Price: 2499})

	require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), paymentSucceeded("evt-1", 1, sess.ID)))
	assert.Equal(t, 1, sess.Cart().ItemCount)
	assert.Empty(t, db.statusUpdates[1])
}

func TestFailedStatusUpdateReleasesClaimForRedelivery(t *testing.T) {
	mgr := session.NewManager(time.Minute, time.Hour)
	defer mgr.Close()

	db := newMemoryStore()
	claims := newMemoryClaims()
	svc := NewService(db, claims, nil, mgr)
	sess := mgr.Create()
	sess.AddToCart(models.Product{ID: 1, Name: "Vintage Wash Tee", Price: 2499})

	db.failNextStatusUpdate(errors.New("connection reset"))

	event := paymentSucceeded("evt-1", 1, sess.ID)
	require.Error(t, svc.HandlePaymentSucceeded(context.Background(), event))
	assert.Equal(t, 1, sess.Cart().ItemCount)

	// The claim was released, so the redelivered copy must win it
	// again and finish the work.
	require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), event))
	assert.Equal(t, 0, sess.Cart().ItemCount)
	assert.Equal(t, []string{models.OrderStatusPaid}, db.statusUpdates[1])
	assert.True(t, db.processed["evt-1"])
}

func TestPaymentFailureLeavesCartUntouched(t *testing.T) {
	mgr := session.NewManager(time.Minute, time.Hour)
	defer mgr.Close()

	db := newMemoryStore()
	svc := NewService(db, newMemoryClaims(), nil, mgr)
	sess := mgr.Create()
	sess.AddToCart(models.Product{ID: 1, Name: "Vintage Wash Tee", Price: 2499})

	event := &models.PaymentFailedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "evt-2",
			EventType: models.EventTypePaymentFailed,
			Timestamp: time.Now(),
		},
		OrderID:   1,
		SessionID: sess.ID,
		Reason:    "payment_declined",
	}

	require.NoError(t, svc.HandlePaymentFailed(context.Background(), event))
	assert.Equal(t, 1, sess.Cart().ItemCount)
	assert.Equal(t, []string{models.OrderStatusFailed}, db.statusUpdates[1])
}
