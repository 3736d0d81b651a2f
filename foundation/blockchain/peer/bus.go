package peer

import (
	"context"
	"sync"
)

// LocalBus delivers messages between nodes running in the same process.
// Delivery is synchronous and in subscription order, and a message is
// never delivered back to the subscriber registered under its From.
type LocalBus struct {
	mu   sync.RWMutex
	subs []localSub
}

type localSub struct {
	id string
	h  Handler
}

// NewLocalBus constructs an empty bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{}
}

// Join returns a transport bound to the bus for the node with the
// specified id.
func (b *LocalBus) Join(id string) *LocalEndpoint {
	return &LocalEndpoint{bus: b, id: id}
}

// Publish delivers the message to every subscriber other than its sender.
// No lock is held during delivery, so handlers may publish in turn.
func (b *LocalBus) Publish(ctx context.Context, msg Message) error {
	b.mu.RLock()
	subs := make([]localSub, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, sub := range subs {
		if sub.id != "" && sub.id == msg.From {
			continue
		}
		sub.h(ctx, msg)
	}

	return nil
}

func (b *LocalBus) subscribe(id string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs = append(b.subs, localSub{id: id, h: h})
}

// =============================================================================

// LocalEndpoint is a node's view of a LocalBus.
type LocalEndpoint struct {
	bus *LocalBus
	id  string
}

// Publish sends the message to the other nodes on the bus.
func (e *LocalEndpoint) Publish(ctx context.Context, msg Message) error {
	return e.bus.Publish(ctx, msg)
}

// Subscribe registers the handler for messages from the other nodes.
func (e *LocalEndpoint) Subscribe(h Handler) {
	e.bus.subscribe(e.id, h)
}
