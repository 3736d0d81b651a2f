package state

import (
	"context"

	"github.com/treeledger/blockchain/foundation/blockchain/database"
	"github.com/treeledger/blockchain/foundation/blockchain/peer"
)

// HandleMessage processes a message delivered by the transport. Messages
// for other chains and messages this node published are ignored.
func (s *State) HandleMessage(ctx context.Context, msg peer.Message) {
	if msg.BlockchainName != s.genesis.Name || msg.From == s.nodeID {
		return
	}

	messagesReceived.WithLabelValues(string(msg.Kind)).Inc()

	switch msg.Kind {
	case peer.KindBlocksBroadcast:
		s.evHandler("state: HandleMessage: %s: from[%s]: blocks[%d]", msg.Kind, msg.From, len(msg.Blocks))

		head := s.db.MaxHeight().Hash()
		for _, data := range msg.Blocks {
			s.addBlock(database.ToBlock(data))
		}

		// If the worker is mining on top of a block that is no longer the
		// head, that work is wasted.
		if s.db.MaxHeight().Hash() != head {
			s.signalCancelMining()
		}

	case peer.KindTransactionBroadcast:
		if msg.Transaction == nil {
			return
		}

		s.evHandler("state: HandleMessage: %s: from[%s]: tx[%s]", msg.Kind, msg.From, msg.Transaction.Hash)

		s.mempool.Upsert(*msg.Transaction)
		pendingTransactions.Set(float64(s.mempool.Count()))
		s.signalStartMining()

	case peer.KindRequestBlocks:
		s.evHandler("state: HandleMessage: %s: from[%s]", msg.Kind, msg.From)

		s.publish(ctx, peer.NewBlocksBroadcast(s.nodeID, s.genesis.Name, s.blockData()))

	default:
		s.evHandler("state: HandleMessage: WARNING: unknown message kind[%s]", msg.Kind)
	}
}

// RequestBlocks asks the peers to announce every block they know.
func (s *State) RequestBlocks(ctx context.Context) {
	s.evHandler("state: RequestBlocks: blockchain[%s]", s.genesis.Name)

	s.publish(ctx, peer.NewRequestBlocks(s.nodeID, s.genesis.Name))
}

// =============================================================================

// publish sends the message to the peers. Failure to publish is logged; a
// peer that missed a message catches up with its next block request.
func (s *State) publish(ctx context.Context, msg peer.Message) {
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.evHandler("state: publish: %s: WARNING: %s", msg.Kind, err)
		return
	}

	messagesPublished.WithLabelValues(string(msg.Kind)).Inc()
}

// blockData returns every known block in insertion order, so parents are
// always announced before their children.
func (s *State) blockData() []database.BlockData {
	blocks := s.db.Values()

	data := make([]database.BlockData, len(blocks))
	for i, block := range blocks {
		data[i] = database.NewBlockData(block)
	}

	return data
}

// nopPublisher is used when the node has no transport.
type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, msg peer.Message) error {
	return nil
}
