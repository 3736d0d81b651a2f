// Package errs provides types and support related to web v1 functionality.
package errs

import (
	"errors"
	"net/http"

	"github.com/treeledger/blockchain/foundation/blockchain/database"
	"github.com/treeledger/blockchain/foundation/blockchain/merkle"
	"github.com/treeledger/blockchain/foundation/blockchain/state"
	"github.com/treeledger/blockchain/foundation/nameservice"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// Unwrap gives errors.Is access to the wrapped error.
func (te *Trusted) Unwrap() error {
	return te.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var te *Trusted
	return errors.As(err, &te)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var te *Trusted
	if !errors.As(err, &te) {
		return nil
	}
	return te
}

// FromLedger classifies the sentinel errors returned by the ledger packages
// as trusted errors. Anything else is returned as is and treated as a
// server failure.
func FromLedger(err error) error {
	switch {
	case errors.Is(err, state.ErrBlockNotFound),
		errors.Is(err, merkle.ErrNotFound),
		errors.Is(err, nameservice.ErrNotFound):
		return NewTrusted(err, http.StatusNotFound)

	case errors.Is(err, nameservice.ErrExists):
		return NewTrusted(err, http.StatusConflict)

	case errors.Is(err, state.ErrInvalidSignature),
		errors.Is(err, nameservice.ErrInvalidName),
		errors.Is(err, state.ErrNoBeneficiary),
		errors.Is(err, database.ErrInvalidTransaction):
		return NewTrusted(err, http.StatusBadRequest)
	}

	return err
}
