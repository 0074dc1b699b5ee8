package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Identity is who a cart belongs to. A signed-in shopper has a UserID; a
// browser that has not signed in carries a GuestID token. With neither the
// identity is anonymous and owns no cart.
type Identity struct {
	UserID  uuid.UUID
	Email   string
	GuestID string
}

func User(id uuid.UUID, email string) Identity {
	return Identity{UserID: id, Email: email}
}

func Guest(token string) Identity {
	return Identity{GuestID: token}
}

func Anonymous() Identity {
	return Identity{}
}

func (i Identity) IsAuthenticated() bool {
	return i.UserID != uuid.Nil
}

func (i Identity) IsAnonymous() bool {
	return !i.IsAuthenticated() && i.GuestID == ""
}

// Key is a stable map key for the identity.
func (i Identity) Key() string {
	switch {
	case i.IsAuthenticated():
		return "user:" + i.UserID.String()
	case i.GuestID != "":
		return "guest:" + i.GuestID
	default:
		return "anonymous"
	}
}

type ctxKey struct{}

func WithContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity resolved by the auth middleware, or the
// anonymous identity.
func FromContext(ctx context.Context) Identity {
	if ctx == nil {
		return Anonymous()
	}
	if id, ok := ctx.Value(ctxKey{}).(Identity); ok {
		return id
	}
	return Anonymous()
}

type ChangeKind string

const (
	SignedIn  ChangeKind = "signed_in"
	SignedOut ChangeKind = "signed_out"
)

// Change is an auth-state transition. On sign-in Previous holds the guest
// identity the browser used before, when known.
type Change struct {
	Kind     ChangeKind
	Previous Identity
	Current  Identity
}

type Listener func(ctx context.Context, change Change)

// Hub fans identity changes out to subscribers, synchronously and in
// subscription order.
type Hub struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
	order     []int
}

func NewHub() *Hub {
	return &Hub{listeners: map[int]Listener{}}
}

// Subscribe registers fn and returns a function that removes it.
func (h *Hub) Subscribe(fn Listener) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.order = append(h.order, id)
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners, id)
		for i, candidate := range h.order {
			if candidate == id {
				h.order = append(h.order[:i:i], h.order[i+1:]...)
				break
			}
		}
	}
}

func (h *Hub) Publish(ctx context.Context, change Change) {
	h.mu.RLock()
	listeners := make([]Listener, 0, len(h.order))
	for _, id := range h.order {
		listeners = append(listeners, h.listeners[id])
	}
	h.mu.RUnlock()

	for _, fn := range listeners {
		fn(ctx, change)
	}
}
