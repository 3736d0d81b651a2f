package peer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/treeledger/blockchain/foundation/blockchain/database"
)

// Kind identifies the type of a message exchanged between peers.
type Kind string

// Set of message kinds peers understand.
const (
	KindBlocksBroadcast      Kind = "BLOCKS_BROADCAST"
	KindTransactionBroadcast Kind = "TRANSACTION_BROADCAST"
	KindRequestBlocks        Kind = "REQUEST_BLOCKS"
)

// Message is the envelope for everything published between peers. From
// identifies the publishing node so it can ignore its own messages.
type Message struct {
	Kind           Kind                  `json:"kind"`
	From           string                `json:"from"`
	BlockchainName string                `json:"blockchainName"`
	Blocks         []database.BlockData  `json:"blocks,omitempty"`
	Transaction    *database.Transaction `json:"transaction,omitempty"`
}

// NewBlocksBroadcast constructs an announcement of the specified blocks.
func NewBlocksBroadcast(from string, name string, blocks []database.BlockData) Message {
	return Message{
		Kind:           KindBlocksBroadcast,
		From:           from,
		BlockchainName: name,
		Blocks:         blocks,
	}
}

// NewTransactionBroadcast constructs an announcement of a transaction.
func NewTransactionBroadcast(from string, name string, tx database.Transaction) Message {
	return Message{
		Kind:           KindTransactionBroadcast,
		From:           from,
		BlockchainName: name,
		Transaction:    &tx,
	}
}

// NewRequestBlocks constructs a request for every block a peer knows.
func NewRequestBlocks(from string, name string) Message {
	return Message{
		Kind:           KindRequestBlocks,
		From:           from,
		BlockchainName: name,
	}
}

// Validate checks the message carries the payload its kind requires.
func (m Message) Validate() error {
	if m.BlockchainName == "" {
		return fmt.Errorf("%s: missing blockchain name", m.Kind)
	}

	switch m.Kind {
	case KindBlocksBroadcast:
		return nil
	case KindTransactionBroadcast:
		if m.Transaction == nil {
			return fmt.Errorf("%s: missing transaction", m.Kind)
		}
		return nil
	case KindRequestBlocks:
		return nil
	}

	return fmt.Errorf("unknown message kind %q", m.Kind)
}

// Marshal encodes the message for the wire.
func (m Message) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal decodes and validates a message read from the wire.
func Unmarshal(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("unmarshal message: %w", err)
	}

	if err := msg.Validate(); err != nil {
		return Message{}, err
	}

	return msg, nil
}

// =============================================================================

// Handler is called for every message delivered to a subscriber.
type Handler func(ctx context.Context, msg Message)

// Publisher represents the behavior required to send a message to peers.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Subscriber represents the behavior required to receive messages from
// peers. A subscriber may deliver the node's own messages back to it.
type Subscriber interface {
	Subscribe(h Handler)
}

// Transport is a publisher that also delivers messages.
type Transport interface {
	Publisher
	Subscriber
}
