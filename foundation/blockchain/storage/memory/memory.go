// Package memory implements the ability to read and write blocks to memory
// using a slice.
package memory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

// ErrEndOfChain is returned by the iterator once every block was read.
var ErrEndOfChain = errors.New("end of chain")

// Memory represents the storage implementation for reading and storing
// blocks in memory using a slice. This implements the database.Storage
// interface.
type Memory struct {
	mu     sync.RWMutex
	blocks []database.Block
}

// New constructs an Memory value for use.
func New() (*Memory, error) {
	return &Memory{}, nil
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write takes the specified block and stores it in memory. Blocks must be
// written in index order.
func (m *Memory) Write(block database.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if uint64(len(m.blocks)) != block.Index {
		return fmt.Errorf("block is out of order, got %d, exp %d", block.Index, len(m.blocks))
	}

	m.blocks = append(m.blocks, block)

	return nil
}

// GetBlock returns the block with the specified index.
func (m *Memory) GetBlock(num uint64) (database.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if num >= uint64(len(m.blocks)) {
		return database.Block{}, fmt.Errorf("block %d does not exist", num)
	}

	return m.blocks[num], nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with the genesis block.
func (m *Memory) ForEach() database.Iterator {
	return &memoryIterator{storage: m}
}

// Reset will clear out the blocks.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = nil
	return nil
}

// =============================================================================

// memoryIterator represents the iteration implementation for walking
// through the blocks. This implements the database Iterator interface.
type memoryIterator struct {
	storage *Memory // Access to the storage API.
	current uint64  // Current block index being iterated over.
	eoc     bool    // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block.
func (mi *memoryIterator) Next() (database.Block, error) {
	if mi.eoc {
		return database.Block{}, ErrEndOfChain
	}

	block, err := mi.storage.GetBlock(mi.current)
	if err != nil {
		mi.eoc = true
		return database.Block{}, ErrEndOfChain
	}

	mi.current++

	return block, nil
}

// Done returns the end of chain value.
func (mi *memoryIterator) Done() bool {
	return mi.eoc
}
