package database

import (
	"errors"
	"fmt"
)

// Transaction validation failures. The offending transaction is discarded
// and the UTXO set is left unchanged.
var (
	ErrSignatureInvalid        = errors.New("signature invalid")
	ErrInputMissing            = errors.New("input missing")
	ErrInputNotOwned           = errors.New("input not owned by sender")
	ErrBelowMinimum            = errors.New("inputs below minimum transaction value")
	ErrInsufficientInputs      = errors.New("inputs do not cover value")
	ErrOutputOrderingViolation = errors.New("output ordering violation")
	ErrAlreadyProcessed        = errors.New("transaction already processed")
	ErrKeyNotCanonical         = errors.New("public key is not in canonical form")
)

// Consensus failures found while re-deriving the chain.
var (
	ErrHashMismatch         = errors.New("hash mismatch")
	ErrPreviousHashMismatch = errors.New("previous hash mismatch")
	ErrProofOfWorkNotMet    = errors.New("proof of work not met")
	ErrMerkleRootMismatch   = errors.New("merkle root mismatch")
	ErrInputValueMismatch   = errors.New("input value mismatch")
	ErrOutputMismatch       = errors.New("output does not match its transaction")
	ErrConservation         = errors.New("inputs do not equal outputs")
	ErrUTXOSetMismatch      = errors.New("utxo set does not match the chain")
)

// Structural failures signal misuse of the API rather than bad data.
var (
	ErrEmptyChain      = errors.New("chain has no blocks")
	ErrNilTransaction  = errors.New("nil transaction")
	ErrBlockSealed     = errors.New("block already mined")
	ErrNotGenesisBlock = errors.New("first block must be a genesis block")
	ErrStaleBlock      = errors.New("block does not extend the latest block")
	ErrBlockNotFound   = errors.New("block not found")
	ErrTxNotFound      = errors.New("transaction not found in block")
)

// ErrMiningTimeout is returned when the nonce search runs out of attempts
// before finding a solution.
var ErrMiningTimeout = errors.New("mining attempts exhausted")

// =============================================================================

// ValidationError identifies the transaction that failed processing and
// the rule it broke.
type ValidationError struct {
	TxID string
	Err  error
}

// Error implements the error interface.
func (ve *ValidationError) Error() string {
	if ve.TxID == "" {
		return fmt.Sprintf("transaction invalid: %s", ve.Err)
	}
	return fmt.Sprintf("transaction %s invalid: %s", ve.TxID, ve.Err)
}

// Unwrap provides access to the rule that was broken.
func (ve *ValidationError) Unwrap() error {
	return ve.Err
}

// IsValidationError checks if an error of type ValidationError exists.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// =============================================================================

// NoTx is the TxIndex of a ConsistencyError raised by a block level rule.
const NoTx = -1

// ConsistencyError identifies where a full chain check failed.
type ConsistencyError struct {
	BlockIndex uint64
	TxIndex    int
	Err        error
}

// Error implements the error interface.
func (ce *ConsistencyError) Error() string {
	if ce.TxIndex == NoTx {
		return fmt.Sprintf("block[%d]: %s", ce.BlockIndex, ce.Err)
	}
	return fmt.Sprintf("block[%d] tx[%d]: %s", ce.BlockIndex, ce.TxIndex, ce.Err)
}

// Unwrap provides access to the rule that was broken.
func (ce *ConsistencyError) Unwrap() error {
	return ce.Err
}

// GetConsistencyError returns the ConsistencyError in the chain, if any.
func GetConsistencyError(err error) *ConsistencyError {
	var ce *ConsistencyError
	if !errors.As(err, &ce) {
		return nil
	}
	return ce
}
