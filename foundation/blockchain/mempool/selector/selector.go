// Package selector provides different transaction selecting algorithms.
package selector

import (
	"fmt"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

// List of different select strategies.
const (
	StrategyFIFO  = "fifo"
	StrategyValue = "value"
)

// Map of different select strategies with functions.
var strategies = map[string]Func{
	StrategyFIFO:  fifoSelect,
	StrategyValue: valueSelect,
}

// Func defines a function that takes the mempool transactions in arrival
// order and selects howMany of them in an order based on the functions
// strategy. All selector functions MUST keep the arrival order of the
// transactions from the same sender.
type Func func(transactions []database.Tx, howMany int) []database.Tx

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}

// =============================================================================

// fifoSelect returns the transactions in the order they arrived.
var fifoSelect = func(txs []database.Tx, howMany int) []database.Tx {
	if howMany > len(txs) {
		howMany = len(txs)
	}

	return append([]database.Tx(nil), txs[:howMany]...)
}
