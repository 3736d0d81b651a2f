package state

import (
	"context"
	"fmt"

	"github.com/treeledger/blockchain/foundation/blockchain/database"
	"github.com/treeledger/blockchain/foundation/blockchain/peer"
)

// SubmitTransaction accepts a transaction from a local client. It is added
// to the pending transactions, announced to the peers and a mining
// operation is signaled. Whether the input account can cover it is only
// decided when a block includes it.
func (s *State) SubmitTransaction(ctx context.Context, tx database.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	if !tx.HasValidSignature() {
		return ErrInvalidSignature
	}

	s.evHandler("state: SubmitTransaction: tx[%s]: hash[%s]", tx, tx.Hash)

	n := s.mempool.Upsert(tx)
	pendingTransactions.Set(float64(n))

	s.publish(ctx, peer.NewTransactionBroadcast(s.nodeID, s.genesis.Name, tx))
	s.signalStartMining()

	return nil
}

// CheckTransaction reports why the transaction can't be included on top of
// the current head. It is meant for user feedback only; it never decides
// whether a transaction is kept.
func (s *State) CheckTransaction(tx database.Transaction) error {
	head := s.db.MaxHeight()
	if head.IsValidTransaction(tx) {
		return nil
	}

	return fmt.Errorf("%w: %s", database.ErrInvalidTransaction, head.AddingTransactionErrorMessage(tx))
}
