package state

import (
	"github.com/shopspring/decimal"
	"github.com/treeledger/blockchain/foundation/blockchain/database"
	"github.com/treeledger/blockchain/foundation/blockchain/merkle"
	"github.com/treeledger/blockchain/foundation/blockchain/peer"
)

// Blocks returned by the query API are the stored blocks and must be
// treated as read only.

// MaxHeightBlock returns the block with the greatest height. Among blocks of
// equal height the one stored first wins.
func (s *State) MaxHeightBlock() *database.Block {
	return s.db.MaxHeight()
}

// LongestChain returns the path from the genesis block to the max height
// block. It is recomputed on every call.
func (s *State) LongestChain() []*database.Block {
	return s.db.Path(s.db.MaxHeight())
}

// ContainsBlock reports whether a block with the same hash is known.
func (s *State) ContainsBlock(block *database.Block) bool {
	return s.db.Contains(block.Hash())
}

// QueryBlock returns the known block with the specified hash.
func (s *State) QueryBlock(hash string) (*database.Block, error) {
	block, exists := s.db.Get(hash)
	if !exists {
		return nil, ErrBlockNotFound
	}

	return block, nil
}

// Proof is the evidence that a transaction was included in a block.
type Proof struct {
	BlockHash  string        `json:"blockHash"`
	TxHash     string        `json:"txHash"`
	MerkleRoot string        `json:"merkleRoot"`
	Steps      []merkle.Step `json:"steps"`
}

// ProveTransaction builds the merkle proof of the transaction over the
// transactions of the specified block.
func (s *State) ProveTransaction(blockHash string, txHash string) (Proof, error) {
	block, err := s.QueryBlock(blockHash)
	if err != nil {
		return Proof{}, err
	}

	hashes := make([]string, 0, block.TransactionCount())
	for _, tx := range block.Transactions() {
		hashes = append(hashes, tx.Hash)
	}

	if len(hashes) == 0 {
		return Proof{}, merkle.ErrNotFound
	}

	tree, err := merkle.New(hashes)
	if err != nil {
		return Proof{}, err
	}

	steps, err := tree.Proof(txHash)
	if err != nil {
		return Proof{}, err
	}

	proof := Proof{
		BlockHash:  blockHash,
		TxHash:     txHash,
		MerkleRoot: tree.Root(),
		Steps:      steps,
	}

	return proof, nil
}

// RetrieveBlocks returns every known block, forks included, in the order
// they were accepted.
func (s *State) RetrieveBlocks() []*database.Block {
	return s.db.Values()
}

// RetrievePending returns the pending transactions in arrival order.
func (s *State) RetrievePending() []database.Transaction {
	return s.mempool.PickAll(-1)
}

// QueryBalances returns the balances after the block with the specified
// hash. An empty hash selects the max height block.
func (s *State) QueryBalances(hash string) ([]database.UTXO, error) {
	block := s.db.MaxHeight()
	if hash != "" {
		var err error
		if block, err = s.QueryBlock(hash); err != nil {
			return nil, err
		}
	}

	return block.UTXOPool().Values(), nil
}

// QueryBalance returns the balance of the account on the longest chain.
func (s *State) QueryBalance(account database.AccountID) decimal.Decimal {
	return s.db.MaxHeight().Balance(account)
}

// Status returns the summary of this node shared with peers.
func (s *State) Status(knownPeers []peer.Peer) peer.PeerStatus {
	head := s.db.MaxHeight()

	return peer.PeerStatus{
		NodeID:         s.nodeID,
		BlockchainName: s.genesis.Name,
		MaxHeightHash:  head.Hash(),
		MaxHeight:      head.Header.Height,
		Blocks:         s.db.Count(),
		Pending:        s.mempool.Count(),
		KnownPeers:     knownPeers,
	}
}

// LogChain writes the longest chain through the event handler.
func (s *State) LogChain() {
	s.evHandler("state: LogChain: blockchain[%s]", s.genesis.Name)

	for _, block := range s.LongestChain() {
		s.evHandler("state: LogChain: blk[%d]: id[%s]: hash[%s]: parent[%s]: difficulty[%d]: numTrans[%d]",
			block.Header.Height, block.BlockID(), block.Hash(), block.Header.ParentHash, block.Header.Difficulty, block.TransactionCount())
	}
}
