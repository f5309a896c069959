// Package watch fans order updates out to live subscribers: the
// read-side mechanism behind the buyer's tracking view, where a shopper
// parked on the payment screen moves on the instant an admin confirms.
package watch

import (
	"sync"

	"puspita/internal/models"
)

type subscriber struct {
	id int
	fn func(models.Order)
}

// Hub delivers every applied order write to the subscribers of that
// order. Delivery is synchronous and in apply order; nothing is
// coalesced, so a consumer may see the same status twice and must be
// idempotent to that.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string][]subscriber
	nextID int

	// deliverMu serializes fan-out so concurrent Notify calls cannot
	// interleave updates for one subscriber.
	deliverMu sync.Mutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string][]subscriber)}
}

// Subscribe registers fn for updates to the given order and returns the
// function that cancels the subscription. The consumer must call it
// before being discarded or the subscription leaks.
func (h *Hub) Subscribe(orderID string, fn func(models.Order)) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	h.subs[orderID] = append(h.subs[orderID], subscriber{id: id, fn: fn})

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		list := h.subs[orderID]
		for i, s := range list {
			if s.id == id {
				h.subs[orderID] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		if len(h.subs[orderID]) == 0 {
			delete(h.subs, orderID)
		}
	}
}

// Notify invokes every subscriber of the order, synchronously, in
// registration order. Callbacks run outside the registration lock, so a
// callback may subscribe or unsubscribe without deadlocking.
func (h *Hub) Notify(order models.Order) {
	h.mu.RLock()
	list := make([]subscriber, len(h.subs[order.ID]))
	copy(list, h.subs[order.ID])
	h.mu.RUnlock()

	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()
	for _, s := range list {
		s.fn(order)
	}
}
