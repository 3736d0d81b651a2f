package database

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// TxSet is the set of transactions recorded in a block, keyed by hash and
// kept in insertion order. The order is part of the block hash, so it must
// survive a round trip through JSON.
type TxSet struct {
	order []string
	trans map[string]Transaction
}

// NewTxSet constructs an empty transaction set.
func NewTxSet() *TxSet {
	return &TxSet{
		trans: make(map[string]Transaction),
	}
}

// Add records the transaction under its hash. It reports false if a
// transaction with that hash is already recorded.
func (ts *TxSet) Add(tx Transaction) bool {
	if ts.trans == nil {
		ts.trans = make(map[string]Transaction)
	}

	if _, exists := ts.trans[tx.Hash]; exists {
		return false
	}

	ts.order = append(ts.order, tx.Hash)
	ts.trans[tx.Hash] = tx

	return true
}

// Contains reports whether a transaction with the hash is recorded.
func (ts *TxSet) Contains(hash string) bool {
	_, exists := ts.trans[hash]
	return exists
}

// Len returns the number of recorded transactions.
func (ts *TxSet) Len() int {
	return len(ts.order)
}

// Values returns the transactions in insertion order.
func (ts *TxSet) Values() []Transaction {
	trans := make([]Transaction, len(ts.order))
	for i, hash := range ts.order {
		trans[i] = ts.trans[hash]
	}

	return trans
}

// Hashes returns the transaction hashes in insertion order.
func (ts *TxSet) Hashes() []string {
	hashes := make([]string, len(ts.order))
	copy(hashes, ts.order)

	return hashes
}

// MarshalJSON writes the set as a JSON object of hash to transaction with
// the keys in insertion order.
func (ts *TxSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, hash := range ts.order {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(hash)
		if err != nil {
			return nil, err
		}

		value, err := json.Marshal(ts.trans[hash])
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of hash to transaction keeping the
// order the keys appear in.
func (ts *TxSet) UnmarshalJSON(data []byte) error {
	ts.order = nil
	ts.trans = make(map[string]Transaction)

	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	if tok == nil {
		return nil
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("transactions: expecting a json object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}

		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("transactions: unexpected key %v", tok)
		}

		var tx Transaction
		if err := dec.Decode(&tx); err != nil {
			return fmt.Errorf("transactions: %s: %w", key, err)
		}

		if tx.Hash == "" {
			tx.Hash = key
		}

		if tx.Hash != key {
			return fmt.Errorf("transactions: key %s does not match hash %s", key, tx.Hash)
		}

		ts.Add(tx)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	return nil
}
