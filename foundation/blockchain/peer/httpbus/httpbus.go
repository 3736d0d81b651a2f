// Package httpbus implements the peer transport by posting every message to
// the private API of each known peer.
package httpbus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/treeledger/blockchain/foundation/blockchain/peer"
)

// MessagePath is the private route a node receives messages on.
const MessagePath = "/v1/node/message"

// Bus sends messages to the known peers over HTTP and hands messages the
// node receives to its subscribers.
type Bus struct {
	host       string
	knownPeers *peer.PeerSet
	client     *http.Client
	ev         func(v string, args ...any)

	mu       sync.RWMutex
	handlers []peer.Handler
}

// New constructs a bus for the node reachable at host.
func New(host string, knownPeers *peer.PeerSet, evHandler func(v string, args ...any)) *Bus {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	return &Bus{
		host:       host,
		knownPeers: knownPeers,
		client:     &http.Client{Timeout: 10 * time.Second},
		ev:         evHandler,
	}
}

// Publish posts the message to every known peer. A peer that can't be
// reached doesn't stop delivery to the others; the failures are returned
// joined together.
func (b *Bus) Publish(ctx context.Context, msg peer.Message) error {
	data, err := msg.Marshal()
	if err != nil {
		return err
	}

	var errs []error
	for _, pr := range b.knownPeers.Copy(b.host) {
		url := fmt.Sprintf("http://%s%s", pr.Host, MessagePath)
		if err := b.send(ctx, url, data); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", pr.Host, err))
			continue
		}

		b.ev("httpbus: Publish: %s: sent to peer[%s]", msg.Kind, pr)
	}

	return errors.Join(errs...)
}

// Subscribe registers the handler for messages delivered to this node.
func (b *Bus) Subscribe(h peer.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers = append(b.handlers, h)
}

// Deliver hands a message received from a peer to the subscribers.
func (b *Bus) Deliver(ctx context.Context, msg peer.Message) {
	b.mu.RLock()
	handlers := make([]peer.Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, msg)
	}
}

// =============================================================================

func (b *Bus) send(ctx context.Context, url string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	msg, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
}
