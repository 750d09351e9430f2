package ledger

import (
	"context"
	"sync"
	"time"

	"budgetlite/internal/core"

	"github.com/google/uuid"
)

// ChangeKind names what happened to an entity.
type ChangeKind string

// Entity names the kind of record that changed.
type Entity string

const (
	Created ChangeKind = "created"
	Updated ChangeKind = "updated"
	Deleted ChangeKind = "deleted"
	Moved   ChangeKind = "moved"

	EntityCategory Entity = "category"
	EntityExpense  Entity = "expense"
)

// ChangeEvent describes one committed mutation. Months lists the calendar
// months whose statistics the change can affect (empty for category events,
// which affect every month).
type ChangeEvent struct {
	Kind   ChangeKind   `json:"kind"`
	Entity Entity       `json:"entity"`
	ID     uuid.UUID    `json:"id"`
	Months []core.Month `json:"months,omitempty"`
	At     time.Time    `json:"at"`
}

// Listener receives change events after the mutation is committed.
type Listener func(ctx context.Context, ev ChangeEvent)

// Notifier fans change events out to subscribed listeners in subscription order.
type Notifier struct {
	mu        sync.RWMutex
	listeners []Listener
}

// NewNotifier returns an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers l for every future event.
func (n *Notifier) Subscribe(l Listener) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, l)
}

// Notify delivers ev synchronously to every listener.
func (n *Notifier) Notify(ctx context.Context, ev ChangeEvent) {
	n.mu.RLock()
	listeners := append([]Listener(nil), n.listeners...)
	n.mu.RUnlock()
	for _, l := range listeners {
		l(ctx, ev)
	}
}
