// Package mempool maintains the pending transactions for the blockchain.
package mempool

import (
	"sync"

	"github.com/treeledger/blockchain/foundation/blockchain/database"
)

// Mempool represents a cache of announced transactions that are not yet
// part of a block on the longest chain. Transactions are keyed by hash and
// kept in arrival order.
type Mempool struct {
	mu    sync.RWMutex
	pool  map[string]database.Transaction
	order []string
}

// New constructs a new, empty mempool.
func New() *Mempool {
	return &Mempool{
		pool: make(map[string]database.Transaction),
	}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds or replaces a transaction in the mempool. A replaced
// transaction keeps its original position.
func (mp *Mempool) Upsert(tx database.Transaction) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.pool[tx.Hash]; !exists {
		mp.order = append(mp.order, tx.Hash)
	}
	mp.pool[tx.Hash] = tx

	return len(mp.pool)
}

// Contains reports whether a transaction with the hash is pending.
func (mp *Mempool) Contains(hash string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	_, exists := mp.pool[hash]
	return exists
}

// Delete removes a transaction from the mempool. It reports whether the
// transaction was pending.
func (mp *Mempool) Delete(hash string) bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.pool[hash]; !exists {
		return false
	}

	delete(mp.pool, hash)
	for i, h := range mp.order {
		if h == hash {
			mp.order = append(mp.order[:i], mp.order[i+1:]...)
			break
		}
	}

	return true
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]database.Transaction)
	mp.order = nil
}

// PickAll returns up to howMany transactions in arrival order. A value of
// -1 returns every pending transaction.
func (mp *Mempool) PickAll(howMany int) []database.Transaction {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	if howMany == -1 || howMany > len(mp.order) {
		howMany = len(mp.order)
	}

	trans := make([]database.Transaction, howMany)
	for i, hash := range mp.order[:howMany] {
		trans[i] = mp.pool[hash]
	}

	return trans
}
