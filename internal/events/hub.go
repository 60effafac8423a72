// Package events implements an in-process publish/subscribe hub for entity
// change notifications. Subscriptions are keyed by tenant: a subscriber only
// ever receives events for the tenant it subscribed under, so the event
// stream cannot become a side channel between tenants.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types published by the API layer.
const (
	TypeDocumentCreated = "document.created"
	TypeDocumentUpdated = "document.updated"
	TypeDocumentDeleted = "document.deleted"
	TypeTagCreated      = "tag.created"
	TypeTagUpdated      = "tag.updated"
	TypeTagDeleted      = "tag.deleted"
	TypeTagAttached     = "tag.attached"
	TypeTagDetached     = "tag.detached"
)

// Event is a single entity change notification.
type Event struct {
	Type     string    `json:"type"`
	EntityID uuid.UUID `json:"entity_id"`
	Name     string    `json:"name,omitempty"`
	At       time.Time `json:"at"`

	// tenantID routes the event; it is not serialized to subscribers, who
	// already know which tenant they subscribed under.
	tenantID uuid.UUID
}

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls further behind than this starts losing events rather than blocking
// publishers.
const subscriberBuffer = 32

// Hub fans events out to per-tenant subscriber sets.
type Hub struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[chan Event]struct{}

	// OnSubscribe/OnUnsubscribe/OnPublish are optional metric hooks.
	OnSubscribe   func()
	OnUnsubscribe func()
	OnPublish     func(eventType string)
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]map[chan Event]struct{})}
}

// Subscribe registers a subscriber for one tenant's events. The returned
// cancel function must be called exactly once; it closes the channel.
func (h *Hub) Subscribe(tenantID uuid.UUID) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	set, ok := h.subs[tenantID]
	if !ok {
		set = make(map[chan Event]struct{})
		h.subs[tenantID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	if h.OnSubscribe != nil {
		h.OnSubscribe()
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[tenantID], ch)
			if len(h.subs[tenantID]) == 0 {
				delete(h.subs, tenantID)
			}
			h.mu.Unlock()
			close(ch)
			if h.OnUnsubscribe != nil {
				h.OnUnsubscribe()
			}
		})
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of the given tenant. A slow
// subscriber's event is dropped rather than blocking the publisher.
func (h *Hub) Publish(tenantID uuid.UUID, e Event) {
	e.tenantID = tenantID
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	h.mu.RLock()
	for ch := range h.subs[tenantID] {
		select {
		case ch <- e:
		default:
		}
	}
	h.mu.RUnlock()

	if h.OnPublish != nil {
		h.OnPublish(e.Type)
	}
}

// SubscriberCount returns the number of active subscribers for a tenant.
func (h *Hub) SubscriberCount(tenantID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[tenantID])
}
