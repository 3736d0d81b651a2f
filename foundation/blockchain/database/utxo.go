package database

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrInvalidTransaction is returned when a transaction is applied to a pool
// that can't cover it.
var ErrInvalidTransaction = errors.New("invalid transaction")

// UTXO is the unspent balance held by a single owner.
type UTXO struct {
	Owner  AccountID       `json:"owner"`
	Amount decimal.Decimal `json:"amount"`
}

// =============================================================================

// UTXOPool maps owners to their unspent balance. An owner absent from the
// pool has a balance of zero.
type UTXOPool struct {
	utxos map[AccountID]UTXO
}

// NewUTXOPool constructs an empty pool.
func NewUTXOPool() *UTXOPool {
	return &UTXOPool{
		utxos: make(map[AccountID]UTXO),
	}
}

// AddUTXO credits the amount to the owner, creating the entry if needed.
// A zero credit to an absent owner creates no entry, so that owner is
// later reported as having no UTXO rather than an uncovering one.
func (p *UTXOPool) AddUTXO(owner AccountID, amount decimal.Decimal) {
	utxo, exists := p.utxos[owner]
	if !exists {
		if amount.IsZero() {
			return
		}
		utxo = UTXO{Owner: owner}
	}

	utxo.Amount = utxo.Amount.Add(amount)
	p.utxos[owner] = utxo
}

// IsValidTransaction reports whether the input owner holds enough to cover
// the amount plus fee, the amount is positive and the fee is not negative.
func (p *UTXOPool) IsValidTransaction(tx Transaction) bool {
	utxo, exists := p.utxos[tx.InputOwner]
	if !exists {
		return false
	}

	if tx.Fee.IsNegative() {
		return false
	}

	return utxo.Amount.GreaterThanOrEqual(tx.Amount.Add(tx.Fee)) && tx.Amount.IsPositive()
}

// HandleTransaction applies the transaction to the pool, crediting the fee
// to the fee receiver. Callers are expected to check IsValidTransaction
// first; applying an invalid transaction returns ErrInvalidTransaction and
// leaves the pool untouched.
func (p *UTXOPool) HandleTransaction(tx Transaction, feeReceiver AccountID) error {
	if !p.IsValidTransaction(tx) {
		return fmt.Errorf("%w: %s", ErrInvalidTransaction, p.AddingTransactionErrorMessage(tx))
	}

	input := p.utxos[tx.InputOwner]
	input.Amount = input.Amount.Sub(tx.Amount.Add(tx.Fee))

	switch input.Amount.IsZero() {
	case true:
		delete(p.utxos, tx.InputOwner)
	default:
		p.utxos[tx.InputOwner] = input
	}

	p.AddUTXO(tx.OutputOwner, tx.Amount)
	p.AddUTXO(feeReceiver, tx.Fee)

	return nil
}

// AddingTransactionErrorMessage describes why the transaction can't be
// applied to the pool. It is meant for user feedback only.
func (p *UTXOPool) AddingTransactionErrorMessage(tx Transaction) string {
	utxo, exists := p.utxos[tx.InputOwner]
	if !exists {
		return "No UTXO was associated with this public key"
	}

	if !tx.Amount.IsPositive() {
		return "Amount has to be at least 0"
	}

	if tx.Fee.IsNegative() {
		return fmt.Sprintf("Fee can't be negative, got %s", tx.Fee)
	}

	needed := tx.Amount.Add(tx.Fee)
	if utxo.Amount.LessThan(needed) {
		return fmt.Sprintf("UTXO associated with this public key (%s) does not cover desired amount (%s) and fee (%s)", utxo.Amount, tx.Amount, tx.Fee)
	}

	return "Unknown error"
}

// Clone returns a deep copy of the pool. Mutating the copy never affects
// the original.
func (p *UTXOPool) Clone() *UTXOPool {
	utxos := make(map[AccountID]UTXO, len(p.utxos))
	for owner, utxo := range p.utxos {
		utxos[owner] = utxo
	}

	return &UTXOPool{utxos: utxos}
}

// Balance returns the unspent balance of the owner.
func (p *UTXOPool) Balance(owner AccountID) decimal.Decimal {
	return p.utxos[owner].Amount
}

// Count returns the number of owners holding a balance.
func (p *UTXOPool) Count() int {
	return len(p.utxos)
}

// Values returns the entries of the pool ordered by owner.
func (p *UTXOPool) Values() []UTXO {
	utxos := make([]UTXO, 0, len(p.utxos))
	for _, utxo := range p.utxos {
		utxos = append(utxos, utxo)
	}

	sort.Slice(utxos, func(i, j int) bool {
		return utxos[i].Owner < utxos[j].Owner
	})

	return utxos
}
