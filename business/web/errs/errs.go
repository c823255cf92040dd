// Package errs provides types and support related to web v1 functionality.
package errs

import (
	"errors"
	"net/http"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
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

// FromLedger wraps an error returned by the ledger with the status code
// matching its kind. Errors the ledger does not know about are returned
// untouched and end up as internal errors.
func FromLedger(err error) error {
	switch {
	case database.IsValidationError(err), errors.Is(err, wallet.ErrInsufficientFunds):
		return NewTrusted(err, http.StatusBadRequest)

	case errors.Is(err, database.ErrEmptyChain), errors.Is(err, database.ErrStaleBlock):
		return NewTrusted(err, http.StatusConflict)

	case errors.Is(err, database.ErrBlockNotFound), errors.Is(err, database.ErrTxNotFound):
		return NewTrusted(err, http.StatusNotFound)

	case database.GetConsistencyError(err) != nil:
		return NewTrusted(err, http.StatusConflict)
	}

	return err
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// Unwrap provides access to the wrapped error.
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
