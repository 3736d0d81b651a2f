package database

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/treeledger/blockchain/foundation/blockchain/digest"
)

// Set of ledger constants every node must agree on.
const (
	InitialDifficulty      uint  = 2
	TargetBlockTime        int64 = 10_000 // Milliseconds.
	MaxDifficulty          uint  = 64     // Length of a hex encoded hash.
	RootHash                     = "root"
	NoTransactionsSentinel       = "No Transactions in Block"
)

// BlockSubsidy is the reward credited to the beneficiary of every block.
var BlockSubsidy = decimal.RequireFromString("12.5")

// =============================================================================

// BlockHeader represents the fields of a block covered by its hash.
type BlockHeader struct {
	ParentHash          string    `json:"parentHash"`
	Height              uint64    `json:"height"`
	CoinbaseBeneficiary AccountID `json:"coinbaseBeneficiary"`
	Nonce               string    `json:"nonce"`
	Timestamp           int64     `json:"timestamp"` // Milliseconds since the epoch.
	Difficulty          uint      `json:"difficulty"`
}

// Block is a header plus the transactions it records and the UTXO pool that
// results from applying them on top of the parent's pool. A block owns its
// pool; it is never shared with another block.
type Block struct {
	Header BlockHeader

	hash    string
	blockID string
	trans   *TxSet
	pool    *UTXOPool
}

// NewGenesisBlock constructs the root of a chain with the specified name.
func NewGenesisBlock(name string, timestamp int64) *Block {
	b := Block{
		Header: BlockHeader{
			ParentHash:          RootHash,
			Height:              1,
			CoinbaseBeneficiary: RootAccountID,
			Nonce:               name,
			Timestamp:           timestamp,
			Difficulty:          InitialDifficulty,
		},
		trans: NewTxSet(),
		pool:  NewUTXOPool(),
	}
	b.setHash()

	return &b
}

// IsRoot reports whether the block is the genesis block of its chain.
func (b *Block) IsRoot() bool {
	return b.Header.ParentHash == RootHash
}

// IsValid reports whether the block's hash solves the proof of work at the
// block's difficulty and still matches the block's content. The genesis
// block is always valid.
func (b *Block) IsValid() bool {
	if b.IsRoot() {
		return true
	}

	return isHashSolved(b.Header.Difficulty, b.hash) && b.hash == b.calculateHash()
}

// CreateChild constructs the next block on top of this one, timestamped now.
func (b *Block) CreateChild(beneficiary AccountID) *Block {
	return b.CreateChildAt(beneficiary, time.Now().UTC().UnixMilli())
}

// CreateChildAt constructs the next block on top of this one with the
// specified timestamp. The child starts from a clone of this block's pool
// credited with the subsidy. This block is not modified.
func (b *Block) CreateChildAt(beneficiary AccountID, timestamp int64) *Block {
	pool := b.pool.Clone()
	pool.AddUTXO(beneficiary, BlockSubsidy)

	nb := Block{
		Header: BlockHeader{
			ParentHash:          b.hash,
			Height:              b.Header.Height + 1,
			CoinbaseBeneficiary: beneficiary,
			Timestamp:           timestamp,
			Difficulty:          NextDifficulty(b, timestamp),
		},
		trans: NewTxSet(),
		pool:  pool,
	}
	nb.setHash()

	return &nb
}

// AddTransaction records the transaction and applies it to the block's
// pool, crediting the fee to the beneficiary. An invalid transaction is
// silently ignored; the return value reports whether it was recorded.
func (b *Block) AddTransaction(tx Transaction) bool {
	if !b.IsValidTransaction(tx) {
		return false
	}

	if b.trans.Contains(tx.Hash) {
		return false
	}

	if err := b.pool.HandleTransaction(tx, b.Header.CoinbaseBeneficiary); err != nil {
		return false
	}

	b.trans.Add(tx)
	b.setHash()

	return true
}

// IsValidTransaction reports whether the block's pool covers the
// transaction and the transaction carries a valid signature.
func (b *Block) IsValidTransaction(tx Transaction) bool {
	return b.pool.IsValidTransaction(tx) && tx.HasValidSignature()
}

// AddingTransactionErrorMessage describes why the transaction can't be
// added to the block.
func (b *Block) AddingTransactionErrorMessage(tx Transaction) string {
	if !tx.HasValidSignature() {
		return "Signature is not valid"
	}

	return b.pool.AddingTransactionErrorMessage(tx)
}

// SetNonce updates the nonce and recomputes the hash.
func (b *Block) SetNonce(nonce string) {
	b.Header.Nonce = nonce
	b.setHash()
}

// AdjustDifficulty returns the difficulty a child of this block should
// carry, given the time this block took relative to its parent. The parent
// is ignored for the genesis block.
func (b *Block) AdjustDifficulty(parent *Block) uint {
	if b.IsRoot() || parent == nil {
		return InitialDifficulty
	}

	return retarget(b.Header.Difficulty, b.Header.Timestamp-parent.Header.Timestamp)
}

// NextDifficulty returns the difficulty required of a child of parent
// timestamped at the specified time.
func NextDifficulty(parent *Block, timestamp int64) uint {
	return retarget(parent.Header.Difficulty, timestamp-parent.Header.Timestamp)
}

// retarget moves the difficulty one step toward the target block time.
func retarget(difficulty uint, timeTaken int64) uint {
	switch {
	case timeTaken < TargetBlockTime/2:
		return difficulty + 1
	case timeTaken > TargetBlockTime*2:
		if difficulty <= 1 {
			return 1
		}
		return difficulty - 1
	}

	return difficulty
}

// CombinedTransactionsHash returns the hash of the transaction hashes in
// insertion order, or the sentinel text when the block has none.
func (b *Block) CombinedTransactionsHash() string {
	if b.trans.Len() == 0 {
		return NoTransactionsSentinel
	}

	return digest.String(strings.Join(b.trans.Hashes(), ""))
}

// Hash returns the block hash.
func (b *Block) Hash() string {
	return b.hash
}

// BlockID returns the short identifier derived from the hash and height.
func (b *Block) BlockID() string {
	return b.blockID
}

// Transactions returns the recorded transactions in insertion order.
func (b *Block) Transactions() []Transaction {
	return b.trans.Values()
}

// TransactionCount returns the number of recorded transactions.
func (b *Block) TransactionCount() int {
	return b.trans.Len()
}

// UTXOPool returns a copy of the block's pool.
func (b *Block) UTXOPool() *UTXOPool {
	return b.pool.Clone()
}

// Balance returns the owner's balance after this block.
func (b *Block) Balance(owner AccountID) decimal.Decimal {
	return b.pool.Balance(owner)
}

// Clone returns a deep copy of the block.
func (b *Block) Clone() *Block {
	trans := NewTxSet()
	for _, tx := range b.trans.Values() {
		trans.Add(tx)
	}

	nb := *b
	nb.trans = trans
	nb.pool = b.pool.Clone()

	return &nb
}

// WithPool returns a copy of the block with an empty transaction set and
// the specified pool, keeping the block's hash. It is used to re-apply the
// block's transactions against a locally computed pool.
func (b *Block) WithPool(pool *UTXOPool) *Block {
	nb := *b
	nb.trans = NewTxSet()
	nb.pool = pool

	return &nb
}

// setHash recomputes the hash and the block id derived from it.
func (b *Block) setHash() {
	b.hash = b.calculateHash()
	b.blockID = blockID(b.hash, b.Header.Height)
}

func (b *Block) calculateHash() string {
	return digest.Concat(
		b.Header.Nonce,
		b.Header.ParentHash,
		string(b.Header.CoinbaseBeneficiary),
		strconv.FormatInt(b.Header.Timestamp, 10),
		b.CombinedTransactionsHash(),
	)
}

// blockID is the first 8 hex characters of the hash of the block hash
// followed by the height.
func blockID(hash string, height uint64) string {
	return digest.String(hash + strconv.FormatUint(height, 10))[:8]
}

// isHashSolved checks the hash ends with a difficulty number of 0's.
func isHashSolved(difficulty uint, hash string) bool {
	if len(hash) != 64 || difficulty > MaxDifficulty {
		return false
	}

	return strings.TrimRight(hash[64-difficulty:], "0") == ""
}

// =============================================================================

// BlockData is the form of a block exchanged between peers. The pool is
// never part of it; receivers recompute it from the parent.
type BlockData struct {
	Hash                string    `json:"hash"`
	BlockID             string    `json:"blockID"`
	Nonce               string    `json:"nonce"`
	ParentHash          string    `json:"parentHash"`
	Height              uint64    `json:"height"`
	CoinbaseBeneficiary AccountID `json:"coinbaseBeneficiary"`
	Timestamp           int64     `json:"timestamp"`
	Difficulty          uint      `json:"difficulty"`
	Transactions        *TxSet    `json:"transactions"`
}

// NewBlockData constructs the value to send to peers.
func NewBlockData(block *Block) BlockData {
	trans := NewTxSet()
	for _, tx := range block.trans.Values() {
		trans.Add(tx)
	}

	return BlockData{
		Hash:                block.hash,
		BlockID:             block.blockID,
		Nonce:               block.Header.Nonce,
		ParentHash:          block.Header.ParentHash,
		Height:              block.Header.Height,
		CoinbaseBeneficiary: block.Header.CoinbaseBeneficiary,
		Timestamp:           block.Header.Timestamp,
		Difficulty:          block.Header.Difficulty,
		Transactions:        trans,
	}
}

// ToBlock converts a BlockData into a Block with an empty pool. The hash is
// kept as sent so a tampered block fails IsValid; a missing hash is
// computed from the content.
func ToBlock(data BlockData) *Block {
	trans := data.Transactions
	if trans == nil {
		trans = NewTxSet()
	}

	b := Block{
		Header: BlockHeader{
			ParentHash:          data.ParentHash,
			Height:              data.Height,
			CoinbaseBeneficiary: data.CoinbaseBeneficiary,
			Nonce:               data.Nonce,
			Timestamp:           data.Timestamp,
			Difficulty:          data.Difficulty,
		},
		hash:  data.Hash,
		trans: trans,
		pool:  NewUTXOPool(),
	}

	if b.hash == "" {
		b.hash = b.calculateHash()
	}
	b.blockID = blockID(b.hash, b.Header.Height)

	return &b
}
