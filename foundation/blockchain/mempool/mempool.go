// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/mempool/selector"
)

// entry is a pooled transaction with its arrival sequence.
type entry struct {
	tx  database.Tx
	seq uint64
}

// Mempool represents a cache of wallet transactions waiting for a block,
// keyed by sender:nonce.
type Mempool struct {
	mu       sync.RWMutex
	pool     map[string]entry
	seq      uint64
	selectFn selector.Func
}

// New constructs a new mempool using the default select strategy.
func New() (*Mempool, error) {
	return NewWithStrategy(selector.StrategyFIFO)
}

// NewWithStrategy constructs a new mempool with specified select strategy.
func NewWithStrategy(strategy string) (*Mempool, error) {
	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	mp := Mempool{
		pool:     make(map[string]entry),
		selectFn: selectFn,
	}

	return &mp, nil
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds or replaces a transaction in the mempool. A replaced
// transaction keeps its place in line.
func (mp *Mempool) Upsert(tx database.Tx) (int, error) {
	if tx.ID != "" || len(tx.Outputs) > 0 {
		return 0, fmt.Errorf("upsert: %w", database.ErrAlreadyProcessed)
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	key := mapKey(tx)

	e, exists := mp.pool[key]
	if !exists {
		mp.seq++
		e.seq = mp.seq
	}
	e.tx = tx
	mp.pool[key] = e

	return len(mp.pool), nil
}

// Delete removes a transaction from the mempool.
func (mp *Mempool) Delete(tx database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	delete(mp.pool, mapKey(tx))
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]entry)
}

// Values returns every transaction in arrival order.
func (mp *Mempool) Values() []database.Tx {
	return mp.ordered()
}

// PickBest uses the configured select strategy to return the next set
// of transactions for the next block. Pass -1 for all the transactions.
func (mp *Mempool) PickBest(howMany int) []database.Tx {
	txs := mp.ordered()
	if howMany < 0 || howMany > len(txs) {
		howMany = len(txs)
	}

	return mp.selectFn(txs, howMany)
}

// =============================================================================

// ordered returns the pooled transactions sorted by arrival.
func (mp *Mempool) ordered() []database.Tx {
	mp.mu.RLock()
	entries := make([]entry, 0, len(mp.pool))
	for _, e := range mp.pool {
		entries = append(entries, e)
	}
	mp.mu.RUnlock()

	slices.SortFunc(entries, func(a, b entry) int {
		return cmp.Compare(a.seq, b.seq)
	})

	txs := make([]database.Tx, len(entries))
	for i, e := range entries {
		txs[i] = e.tx
	}

	return txs
}

// mapKey is used to generate the map key.
func mapKey(tx database.Tx) string {
	return fmt.Sprintf("%s:%s", tx.Sender, tx.Nonce)
}
