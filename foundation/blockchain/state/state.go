// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/treeledger/blockchain/foundation/blockchain/database"
	"github.com/treeledger/blockchain/foundation/blockchain/genesis"
	"github.com/treeledger/blockchain/foundation/blockchain/mempool"
	"github.com/treeledger/blockchain/foundation/blockchain/peer"
)

// Set of error variables returned by the state API.
var (
	ErrBlockNotFound    = errors.New("block not found")
	ErrBlockRejected    = errors.New("block rejected")
	ErrInvalidSignature = errors.New("transaction signature is not valid")
	ErrNoBeneficiary    = errors.New("no beneficiary configured for mining")
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of blocks and transactions.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining and peer synchronization.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	NodeID      string
	Genesis     genesis.Genesis
	Beneficiary database.AccountID
	Publisher   peer.Publisher
	OnChange    func()
	EvHandler   EventHandler
}

// State manages the tree of blocks and the pending transactions.
type State struct {
	mu sync.Mutex

	nodeID      string
	genesis     genesis.Genesis
	beneficiary database.AccountID
	publisher   peer.Publisher
	onChange    func()
	evHandler   EventHandler

	db      *database.Database
	mempool *mempool.Mempool

	Worker Worker
}

// New constructs a new blockchain seeded with its genesis block. The caller
// is expected to subscribe HandleMessage to its transport and then call
// RequestBlocks to catch up with its peers.
func New(cfg Config) (*State, error) {
	if err := cfg.Genesis.Validate(); err != nil {
		return nil, err
	}

	if cfg.Beneficiary != "" && !cfg.Beneficiary.IsAccountID() {
		return nil, fmt.Errorf("invalid beneficiary account %q", cfg.Beneficiary)
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	nodeID := cfg.NodeID
	if nodeID == "" {
		nodeID = uuid.NewString()
	}

	publisher := cfg.Publisher
	if publisher == nil {
		publisher = nopPublisher{}
	}

	gen := database.NewGenesisBlock(cfg.Genesis.Name, cfg.Genesis.Timestamp())

	state := State{
		nodeID:      nodeID,
		genesis:     cfg.Genesis,
		beneficiary: cfg.Beneficiary,
		publisher:   publisher,
		onChange:    cfg.OnChange,
		evHandler:   ev,

		db:      database.New(gen),
		mempool: mempool.New(),
	}

	initPrometheusMetrics()

	ev("state: New: blockchain[%s]: node[%s]: genesis[%s]", cfg.Genesis.Name, nodeID, gen.Hash())

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// Name returns the name of the chain.
func (s *State) Name() string {
	return s.genesis.Name
}

// NodeID returns the id this node publishes messages under.
func (s *State) NodeID() string {
	return s.nodeID
}

// Genesis returns the genesis parameters.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// Beneficiary returns the account credited for blocks this node mines.
func (s *State) Beneficiary() database.AccountID {
	return s.beneficiary
}

// =============================================================================

func (s *State) signalStartMining() {
	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}
}

func (s *State) signalCancelMining() {
	if s.Worker != nil {
		s.Worker.SignalCancelMining()
	}
}

func (s *State) notifyChange() {
	if s.onChange != nil {
		s.onChange()
	}
}
