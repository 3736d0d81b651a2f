package database

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/treeledger/blockchain/foundation/blockchain/digest"
	"github.com/treeledger/blockchain/foundation/blockchain/signature"
)

// Transaction is an intent to move funds from one owner to another, paying
// a fee to whoever includes it in a block.
type Transaction struct {
	Hash        string          `json:"hash"`
	InputOwner  AccountID       `json:"inputPublicKey"`
	OutputOwner AccountID       `json:"outputPublicKey"`
	Amount      decimal.Decimal `json:"amount"`
	Fee         decimal.Decimal `json:"fee"`
	Timestamp   int64           `json:"timestamp"`
	Signature   string          `json:"signature"`
}

// txContent is the part of the transaction covered by the hash and the
// signature.
type txContent struct {
	InputOwner  AccountID `json:"inputPublicKey"`
	OutputOwner AccountID `json:"outputPublicKey"`
	Amount      string    `json:"amount"`
	Fee         string    `json:"fee"`
	Timestamp   int64     `json:"timestamp"`
}

// NewTransaction constructs an unsigned transaction. The hash is derived
// from the content, so two transactions only collide if they move the same
// funds at the same millisecond.
func NewTransaction(input AccountID, output AccountID, amount decimal.Decimal, fee decimal.Decimal) Transaction {
	tx := Transaction{
		InputOwner:  input,
		OutputOwner: output,
		Amount:      amount,
		Fee:         fee,
		Timestamp:   time.Now().UTC().UnixMilli(),
	}
	tx.Hash = tx.calculateHash()

	return tx
}

// Sign uses the specified private key to sign the transaction.
func (tx Transaction) Sign(privateKey *ecdsa.PrivateKey) (Transaction, error) {
	sig, err := signature.Sign(tx.content(), privateKey)
	if err != nil {
		return Transaction{}, err
	}

	tx.Signature = sig
	return tx, nil
}

// HasValidSignature reports whether the transaction was signed by the key
// owning the input account and its hash matches its content.
func (tx Transaction) HasValidSignature() bool {
	if tx.Signature == "" || tx.Hash != tx.calculateHash() {
		return false
	}

	return signature.Verify(tx.content(), tx.Signature, string(tx.InputOwner)) == nil
}

// Validate checks the transaction is well formed. It says nothing about
// whether the input account can cover it.
func (tx Transaction) Validate() error {
	if !tx.InputOwner.IsAccountID() {
		return errors.New("invalid account for input owner")
	}

	if !tx.OutputOwner.IsAccountID() {
		return errors.New("invalid account for output owner")
	}

	if !tx.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", tx.Amount)
	}

	if tx.Fee.IsNegative() {
		return fmt.Errorf("fee can't be negative, got %s", tx.Fee)
	}

	if tx.Hash != tx.calculateHash() {
		return errors.New("hash does not match transaction content")
	}

	return nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Transaction) String() string {
	return fmt.Sprintf("%s->%s:%s+%s", tx.InputOwner, tx.OutputOwner, tx.Amount, tx.Fee)
}

// =============================================================================

func (tx Transaction) content() txContent {
	return txContent{
		InputOwner:  tx.InputOwner,
		OutputOwner: tx.OutputOwner,
		Amount:      tx.Amount.String(),
		Fee:         tx.Fee.String(),
		Timestamp:   tx.Timestamp,
	}
}

func (tx Transaction) calculateHash() string {
	data, err := json.Marshal(tx.content())
	if err != nil {
		return ""
	}

	return digest.Hash(data)
}
