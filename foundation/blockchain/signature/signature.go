// Package signature provides helper functions for handling the ledger's
// transaction signature needs.
package signature

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ledgerID is an arbitrary number added to the recovery id so signatures
// produced here are recognizable. Ethereum and Bitcoin use 27.
const ledgerID = 29

// ErrInvalidSignature is returned when a signature is malformed or does not
// recover to the expected address.
var ErrInvalidSignature = errors.New("invalid signature")

// =============================================================================

// Sign uses the specified private key to sign the value. The signature is
// returned hex encoded in the [R|S|V] format with the ledger id in V.
func Sign(value any, privateKey *ecdsa.PrivateKey) (string, error) {
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return "", err
	}

	// Check the public key extracted from the data and signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, sig[:crypto.RecoveryIDOffset]) {
		return "", ErrInvalidSignature
	}

	sig[crypto.RecoveryIDOffset] += ledgerID

	return hexutil.Encode(sig), nil
}

// FromAddress extracts the address of the account that signed the value.
func FromAddress(value any, sigHex string) (string, error) {
	sig, err := toSignatureBytes(sigHex)
	if err != nil {
		return "", err
	}

	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	return crypto.PubkeyToAddress(*publicKey).String(), nil
}

// Verify checks the signature was produced over the value by the owner of
// the specified address.
func Verify(value any, sigHex string, address string) error {
	from, err := FromAddress(value, sigHex)
	if err != nil {
		return err
	}

	if !strings.EqualFold(from, address) {
		return fmt.Errorf("%w: signed by %s, expected %s", ErrInvalidSignature, from, address)
	}

	return nil
}

// =============================================================================

// stamp returns a 32 byte hash of the value with the ledger stamp embedded
// so signatures produced here can't be replayed as Ethereum messages.
func stamp(value any) ([]byte, error) {
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	txHash := crypto.Keccak256(v)
	stamp := []byte("\x19Ledger Signed Message:\n32")

	return crypto.Keccak256(stamp, txHash), nil
}

// toSignatureBytes decodes the hex signature, validates its values and
// removes the ledger id from the recovery byte.
func toSignatureBytes(sigHex string) ([]byte, error) {
	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}

	if sig[crypto.RecoveryIDOffset] < ledgerID {
		return nil, fmt.Errorf("%w: invalid recovery id", ErrInvalidSignature)
	}
	v := sig[crypto.RecoveryIDOffset] - ledgerID
	if v != 0 && v != 1 {
		return nil, fmt.Errorf("%w: invalid recovery id", ErrInvalidSignature)
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(v, r, s, false) {
		return nil, fmt.Errorf("%w: invalid signature values", ErrInvalidSignature)
	}

	raw := make([]byte, crypto.SignatureLength)
	copy(raw, sig)
	raw[crypto.RecoveryIDOffset] = v

	return raw, nil
}
