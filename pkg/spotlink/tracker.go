// ABOUTME: Outbound request id allocation and pending request table
// ABOUTME: Correlates responses with the method that produced them
package spotlink

import (
	"sync"
	"time"

	"github.com/samber/mo"

	"github.com/spotlink/spotlink/pkg/protocol"
)

// DefaultRequestTTL is how long an unanswered request stays pending.
const DefaultRequestTTL = 30 * time.Second

// PendingRequest is an outbound request awaiting its response.
type PendingRequest struct {
	ID     int64
	Method protocol.Method
	Params any
	SentAt time.Time
}

// Tracker allocates request ids and remembers in-flight requests by id.
//
// Ids start at 0 for every connection and increase by one per request.
// Entries leave the table when their response arrives or when they outlive
// the TTL.
type Tracker struct {
	mu      sync.Mutex
	lastID  int64
	pending map[int64]PendingRequest
	last    mo.Option[PendingRequest]
	ttl     time.Duration
	now     func() time.Time
}

// NewTracker creates an empty tracker. A non-positive ttl disables expiry.
func NewTracker(ttl time.Duration) *Tracker {
	return &Tracker{
		lastID:  -1,
		pending: make(map[int64]PendingRequest),
		last:    mo.None[PendingRequest](),
		ttl:     ttl,
		now:     time.Now,
	}
}

// NextID returns the id the next Record call will use.
func (t *Tracker) NextID() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastID + 1
}

// Record allocates the next id, stores the request as pending and returns the
// envelope to send.
func (t *Tracker) Record(method protocol.Method, params any) protocol.Request {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.expireLocked(now)

	t.lastID++
	p := PendingRequest{ID: t.lastID, Method: method, Params: params, SentAt: now}
	t.pending[p.ID] = p
	t.last = mo.Some(p)

	return protocol.NewRequest(p.ID, method, params)
}

// Matches reports whether id belongs to a pending request.
func (t *Tracker) Matches(id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[id]
	return ok
}

// Resolve removes and returns the pending request with id.
func (t *Tracker) Resolve(id int64) (PendingRequest, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.pending[id]
	if ok {
		delete(t.pending, id)
	}
	return p, ok
}

// Last returns the most recently recorded request, resolved or not.
func (t *Tracker) Last() mo.Option[PendingRequest] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Pending returns the number of unanswered requests.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Expire drops entries older than the TTL and returns how many were removed.
func (t *Tracker) Expire(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expireLocked(now)
}

func (t *Tracker) expireLocked(now time.Time) int {
	if t.ttl <= 0 {
		return 0
	}
	removed := 0
	for id, p := range t.pending {
		if now.Sub(p.SentAt) > t.ttl {
			delete(t.pending, id)
			removed++
		}
	}
	return removed
}

// Reset clears the table and restarts ids at 0.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastID = -1
	clear(t.pending)
	t.last = mo.None[PendingRequest]()
}
