package session

import (
	"sync"
	"time"

	"urbangear/internal/util"
)

// Toast severities
const (
	SeverityInfo    = "info"
	SeveritySuccess = "success"
	SeverityError   = "error"
)

// Toast is a short-lived user-facing message. Entries are never
// mutated after creation.
type Toast struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}

// Toasts is a queue of transient notifications. Each entry owns a
// cancellable timer that removes that exact entry (keyed by id, not
// position) after a fixed display duration. There is no cap on queue
// length; under rapid-fire pushes entries coexist until each
// individually expires.
type Toasts struct {
	mu      sync.Mutex
	ttl     time.Duration
	nextID  int64
	entries []Toast
	timers  map[int64]*time.Timer
	closed  bool
}

// NewToasts creates an empty queue with the given display duration
func NewToasts(ttl time.Duration) *Toasts {
	return &Toasts{
		ttl:    ttl,
		timers: make(map[int64]*time.Timer),
	}
}

// Push appends an entry with a fresh monotonic id and schedules its
// removal after the queue's display duration.
func (t *Toasts) Push(message, severity string) Toast {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return Toast{}
	}

	t.nextID++
	toast := Toast{
		ID:        t.nextID,
		Message:   message,
		Severity:  severity,
		CreatedAt: time.Now(),
	}
	t.entries = append(t.entries, toast)
	t.timers[toast.ID] = time.AfterFunc(t.ttl, func() {
		t.expire(toast.ID)
	})

	util.ToastsEmittedTotal.Inc()
	return toast
}

// expire removes a single entry by id once its timer fires
func (t *Toasts) expire(id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}

	for i := range t.entries {
		if t.entries[i].ID == id {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			break
		}
	}
	delete(t.timers, id)
	util.ToastsExpiredTotal.Inc()
}

// Snapshot returns a copy of the currently visible entries, oldest
// first.
func (t *Toasts) Snapshot() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := make([]Toast, len(t.entries))
	copy(entries, t.entries)
	return entries
}

// Close cancels every pending expiration and drops all entries. The
// queue accepts no further pushes afterwards.
func (t *Toasts) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true

	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
	t.entries = nil
}
