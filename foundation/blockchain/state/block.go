package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/treeledger/blockchain/foundation/blockchain/database"
	"github.com/treeledger/blockchain/foundation/blockchain/peer"
)

// AddBlock accepts a locally proposed block and, if it was accepted,
// announces it to the peers. It reports whether the block was accepted.
func (s *State) AddBlock(ctx context.Context, block *database.Block) bool {
	stored, accepted := s.addBlock(block)
	if !accepted {
		return false
	}

	msg := peer.NewBlocksBroadcast(s.nodeID, s.genesis.Name, []database.BlockData{database.NewBlockData(stored)})
	s.publish(ctx, msg)

	return true
}

// ValidateChain reports whether every block on the longest chain solves its
// proof of work and matches its hash.
func (s *State) ValidateChain() bool {
	for _, block := range s.LongestChain() {
		if !block.IsValid() {
			return false
		}
	}

	return true
}

// =============================================================================

// addBlock runs the acceptance rules and stores the block on success. The
// change hook is called once the lock is released.
func (s *State) addBlock(block *database.Block) (*database.Block, bool) {
	s.mu.Lock()
	stored, reason := s.acceptBlock(block)
	s.mu.Unlock()

	if stored == nil {
		s.evHandler("state: addBlock: REJECTED: blk[%d]: hash[%s]: %s", block.Header.Height, block.Hash(), reason)
		blocksRejected.WithLabelValues(reason).Inc()
		return nil, false
	}

	s.evHandler("state: addBlock: ACCEPTED: blk[%d]: hash[%s]: numTrans[%d]", stored.Header.Height, stored.Hash(), stored.TransactionCount())
	blocksAccepted.Inc()
	chainHeight.Set(float64(s.db.MaxHeight().Header.Height))

	s.blockEvent(stored)
	s.notifyChange()

	return stored, true
}

// acceptBlock applies the acceptance rules in order. The block's
// transactions are re-applied to a scratch copy whose pool is derived from
// the parent, so a rejected block leaves nothing behind and the proposer's
// pool is never trusted. It returns the stored block, or the reason the
// block was rejected.
func (s *State) acceptBlock(block *database.Block) (*database.Block, string) {
	if !block.IsValid() {
		return nil, "proof of work"
	}

	if s.db.Contains(block.Hash()) {
		return nil, "duplicate"
	}

	parent, exists := s.db.Get(block.Header.ParentHash)
	if !exists {
		return nil, "unknown parent"
	}

	if parent.Header.Height+1 != block.Header.Height {
		return nil, "height"
	}

	if exp := database.NextDifficulty(parent, block.Header.Timestamp); block.Header.Difficulty != exp {
		return nil, "difficulty"
	}

	isParentMaxHeight := s.db.MaxHeight().Hash() == parent.Hash()

	pool := parent.UTXOPool()
	pool.AddUTXO(block.Header.CoinbaseBeneficiary, database.BlockSubsidy)

	candidate := block.WithPool(pool)
	for _, tx := range block.Transactions() {
		if !candidate.AddTransaction(tx) {
			return nil, "transaction"
		}
	}

	if candidate.Hash() != block.Hash() {
		return nil, "proof of work"
	}

	if isParentMaxHeight {
		for _, tx := range candidate.Transactions() {
			s.mempool.Delete(tx.Hash)
		}
	}

	if !s.db.Add(candidate) {
		return nil, "duplicate"
	}

	return candidate, ""
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block *database.Block) {
	blockJSON, err := json.Marshal(database.NewBlockData(block))
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: %s`, string(blockJSON))
}
