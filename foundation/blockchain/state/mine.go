package state

import (
	"context"

	"github.com/treeledger/blockchain/foundation/blockchain/database"
)

// MineNewBlock builds a child of the max height block with the pending
// transactions it can cover, solves its proof of work and adds it to the
// chain. Pending transactions the block can't cover are left pending. The
// operation can be cancelled through the context.
func (s *State) MineNewBlock(ctx context.Context) (*database.Block, error) {
	if s.beneficiary == "" {
		return nil, ErrNoBeneficiary
	}

	s.evHandler("state: MineNewBlock: MINING: build candidate block")

	block := s.candidateBlock()

	s.evHandler("state: MineNewBlock: MINING: perform POW: blk[%d]: numTrans[%d]", block.Header.Height, block.TransactionCount())

	// Attempt to solve the POW puzzle. This can be cancelled.
	if err := block.Mine(ctx, s.evHandler); err != nil {
		return nil, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: add block")

	if !s.AddBlock(ctx, block) {
		return nil, ErrBlockRejected
	}
	blocksMined.Inc()

	return block, nil
}

// candidateBlock constructs the next block on the longest chain with as many
// pending transactions as the genesis allows.
func (s *State) candidateBlock() *database.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	block := s.db.MaxHeight().CreateChild(s.beneficiary)

	max := int(s.genesis.TransPerBlock)
	for _, tx := range s.mempool.PickAll(-1) {
		if max > 0 && block.TransactionCount() >= max {
			break
		}

		if !block.AddTransaction(tx) {
			s.evHandler("state: candidateBlock: skip tx[%s]: %s", tx.Hash, block.AddingTransactionErrorMessage(tx))
		}
	}

	return block
}
