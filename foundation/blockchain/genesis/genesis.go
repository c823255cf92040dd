// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/utxoledger/foundation/validate"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date                    time.Time `json:"date"`
	ChainID                 uint16    `json:"chain_id"`                  // The chain id represents an unique id for this running instance.
	Difficulty              uint      `json:"difficulty" validate:"lte=16"` // Number of leading 0 hex characters a block hash needs.
	MinimumTransactionValue uint64    `json:"minimum_transaction_value"` // Floor on the summed inputs of a transaction.
	MaxMiningAttempts       uint64    `json:"max_mining_attempts"`       // Upper bound on nonces tried per block, 0 is unbounded.
	Coinbase                Coinbase  `json:"coinbase"`
}

// Coinbase describes the single value-issuing transaction in the genesis block.
type Coinbase struct {
	Issuer    string `json:"issuer" validate:"required"`    // Name of the account that signs the coinbase.
	Recipient string `json:"recipient" validate:"required"` // Name of the account receiving the issued value.
	Value     uint64 `json:"value" validate:"gt=0"`
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the genesis values are usable.
func (g Genesis) Validate() error {
	if err := validate.Check(g); err != nil {
		return fmt.Errorf("invalid genesis: %w", err)
	}

	return nil
}
