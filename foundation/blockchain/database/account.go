package database

import (
	"crypto/ecdsa"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// RootAccountID is the beneficiary of the genesis block. It doesn't belong
// to any key pair.
const RootAccountID AccountID = "root"

// AccountID identifies an owner of funds in the ledger. Accounts backed by a
// key pair are hex-encoded addresses derived from the public key.
type AccountID string

// ToAccountID converts a hex-encoded string to an account and validates the
// hex-encoded string is formatted correctly. The result is returned in its
// checksummed form so the same address always maps to the same balance.
func ToAccountID(hex string) (AccountID, error) {
	a := AccountID(hex)
	if !a.IsAccountID() {
		return "", errors.New("invalid account format")
	}

	return AccountID(common.HexToAddress(hex).Hex()), nil
}

// PublicKeyToAccountID converts the public key to an account value.
func PublicKeyToAccountID(pk ecdsa.PublicKey) AccountID {
	return AccountID(crypto.PubkeyToAddress(pk).Hex())
}

// IsAccountID verifies whether the underlying data represents a valid
// hex-encoded address.
func (a AccountID) IsAccountID() bool {
	return common.IsHexAddress(string(a))
}

// String implements the fmt.Stringer interface.
func (a AccountID) String() string {
	return string(a)
}
