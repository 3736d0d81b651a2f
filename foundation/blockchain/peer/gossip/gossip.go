// Package gossip implements the peer transport over a libp2p gossipsub
// topic shared by every node of a chain.
package gossip

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	p2ppeer "github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
	"github.com/treeledger/blockchain/foundation/blockchain/peer"
)

// Config represents the settings of a gossip node.
type Config struct {
	ListenAddr string   // Multiaddr to listen on, e.g. /ip4/0.0.0.0/tcp/9180.
	Blockchain string   // Name of the chain; it selects the topic.
	Bootstrap  []string // Multiaddrs including the /p2p/ peer id.
	EvHandler  func(v string, args ...any)
}

// Node is a libp2p host joined to the chain's topic.
type Node struct {
	host  host.Host
	topic *pubsub.Topic
	sub   *pubsub.Subscription
	ev    func(v string, args ...any)

	mu       sync.RWMutex
	handlers []peer.Handler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// TopicName returns the gossipsub topic used for the chain.
func TopicName(blockchain string) string {
	return "treeledger/" + blockchain
}

// New starts a libp2p host, joins the chain's topic and connects to the
// bootstrap peers. A bootstrap peer that can't be reached is logged and
// skipped.
func New(ctx context.Context, cfg Config) (*Node, error) {
	if cfg.Blockchain == "" {
		return nil, errors.New("gossip: blockchain name is required")
	}

	ev := cfg.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	h, err := libp2p.New(libp2p.ListenAddrStrings(cfg.ListenAddr))
	if err != nil {
		return nil, fmt.Errorf("gossip: new host: %w", err)
	}

	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("gossip: new gossipsub: %w", err)
	}

	topic, err := ps.Join(TopicName(cfg.Blockchain))
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("gossip: join topic: %w", err)
	}

	sub, err := topic.Subscribe()
	if err != nil {
		topic.Close()
		h.Close()
		return nil, fmt.Errorf("gossip: subscribe: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())

	n := Node{
		host:   h,
		topic:  topic,
		sub:    sub,
		ev:     ev,
		cancel: cancel,
	}

	for _, addr := range cfg.Bootstrap {
		if err := n.Connect(ctx, addr); err != nil {
			ev("gossip: New: bootstrap[%s]: WARNING: %s", addr, err)
		}
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.readLoop(loopCtx)
	}()

	ev("gossip: New: id[%s]: addrs%v: topic[%s]", h.ID(), n.Addrs(), TopicName(cfg.Blockchain))

	return &n, nil
}

// Connect dials the peer at the specified multiaddr.
func (n *Node) Connect(ctx context.Context, addr string) error {
	ma, err := multiaddr.NewMultiaddr(addr)
	if err != nil {
		return fmt.Errorf("parse multiaddr: %w", err)
	}

	info, err := p2ppeer.AddrInfoFromP2pAddr(ma)
	if err != nil {
		return fmt.Errorf("peer info: %w", err)
	}

	if err := n.host.Connect(ctx, *info); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	return nil
}

// Publish sends the message to the topic.
func (n *Node) Publish(ctx context.Context, msg peer.Message) error {
	data, err := msg.Marshal()
	if err != nil {
		return err
	}

	return n.topic.Publish(ctx, data)
}

// Subscribe registers the handler for messages from other hosts.
func (n *Node) Subscribe(h peer.Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.handlers = append(n.handlers, h)
}

// ID returns the libp2p peer id of the host.
func (n *Node) ID() string {
	return n.host.ID().String()
}

// Addrs returns the addresses other nodes can bootstrap from.
func (n *Node) Addrs() []string {
	addrs := make([]string, 0, len(n.host.Addrs()))
	for _, addr := range n.host.Addrs() {
		addrs = append(addrs, fmt.Sprintf("%s/p2p/%s", addr, n.host.ID()))
	}

	return addrs
}

// TopicPeers returns the number of hosts known to be on the topic.
func (n *Node) TopicPeers() int {
	return len(n.topic.ListPeers())
}

// Close leaves the topic and stops the host.
func (n *Node) Close() error {
	n.cancel()
	n.sub.Cancel()
	n.wg.Wait()

	if err := n.topic.Close(); err != nil {
		n.ev("gossip: Close: topic: WARNING: %s", err)
	}

	return n.host.Close()
}

// =============================================================================

func (n *Node) readLoop(ctx context.Context) {
	for {
		m, err := n.sub.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, pubsub.ErrSubscriptionCancelled) {
				return
			}
			n.ev("gossip: readLoop: WARNING: %s", err)
			continue
		}

		if m.ReceivedFrom == n.host.ID() {
			continue
		}

		msg, err := peer.Unmarshal(m.Data)
		if err != nil {
			n.ev("gossip: readLoop: from[%s]: WARNING: %s", m.ReceivedFrom, err)
			continue
		}

		n.mu.RLock()
		handlers := make([]peer.Handler, len(n.handlers))
		copy(handlers, n.handlers)
		n.mu.RUnlock()

		for _, h := range handlers {
			h(ctx, msg)
		}
	}
}
