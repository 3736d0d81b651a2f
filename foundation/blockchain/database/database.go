// Package database handles all the lower level support for maintaining the
// ledger: accounts, transactions, blocks with their UTXO pools, and the tree
// of every block known to the node.
package database

import (
	"sync"
)

// Database is the append-only tree of known blocks keyed by hash. A block
// points to its parent by hash only; the parent relation is a lookup.
type Database struct {
	mu sync.RWMutex

	genesis *Block
	blocks  map[string]*Block
	order   []string
}

// New constructs a database seeded with the genesis block.
func New(genesis *Block) *Database {
	db := Database{
		genesis: genesis,
		blocks:  map[string]*Block{genesis.Hash(): genesis},
		order:   []string{genesis.Hash()},
	}

	return &db
}

// Genesis returns the root of the tree.
func (db *Database) Genesis() *Block {
	return db.genesis
}

// Add inserts the block. It reports false if a block with that hash is
// already stored or the block's parent is unknown.
func (db *Database) Add(block *Block) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.blocks[block.Hash()]; exists {
		return false
	}

	if _, exists := db.blocks[block.Header.ParentHash]; !exists {
		return false
	}

	db.blocks[block.Hash()] = block
	db.order = append(db.order, block.Hash())

	return true
}

// Get returns the block with the specified hash.
func (db *Database) Get(hash string) (*Block, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	block, exists := db.blocks[hash]
	return block, exists
}

// Contains reports whether a block with the specified hash is stored.
func (db *Database) Contains(hash string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()

	_, exists := db.blocks[hash]
	return exists
}

// Count returns the number of stored blocks.
func (db *Database) Count() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.order)
}

// Values returns every stored block in insertion order.
func (db *Database) Values() []*Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	blocks := make([]*Block, len(db.order))
	for i, hash := range db.order {
		blocks[i] = db.blocks[hash]
	}

	return blocks
}

// MaxHeight returns the block with the greatest height. Ties go to the
// block stored first.
func (db *Database) MaxHeight() *Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	head := db.blocks[db.order[0]]
	for _, hash := range db.order[1:] {
		if block := db.blocks[hash]; block.Header.Height > head.Header.Height {
			head = block
		}
	}

	return head
}

// Path walks parent links from the specified block back to the root and
// returns the blocks root first.
func (db *Database) Path(block *Block) []*Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var path []*Block
	for b := block; b != nil; {
		path = append(path, b)
		if b.IsRoot() {
			break
		}
		b = db.blocks[b.Header.ParentHash]
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path
}
