// Package database handles the lower level support for maintaining the
// blocks of the chain and the index of unspent transaction outputs.
package database

import (
	"fmt"
	"sync"
)

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blocks.
type Storage interface {
	Write(block Block) error
	GetBlock(num uint64) (Block, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}

// =============================================================================

// Database manages the sealed blocks and the UTXO set they produce.
type Database struct {
	mu          sync.RWMutex
	difficulty  uint
	latestBlock Block
	height      uint64
	utxos       *UTXOSet
	storage     Storage
}

// New constructs a database over the storage. Any blocks already held by
// the storage are verified and replayed to rebuild the UTXO set.
func New(storage Storage, difficulty uint, evHandler func(v string, args ...any)) (*Database, error) {
	db := Database{
		difficulty: difficulty,
		utxos:      NewUTXOSet(),
		storage:    storage,
	}

	var blocks []Block
	iter := storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	if len(blocks) == 0 {
		return &db, nil
	}

	utxos, err := VerifyChain(blocks, difficulty, evHandler)
	if err != nil {
		return nil, fmt.Errorf("replaying storage: %w", err)
	}

	db.utxos = utxos
	db.latestBlock = blocks[len(blocks)-1]
	db.height = uint64(len(blocks))

	return &db, nil
}

// Close closes the underlying storage.
func (db *Database) Close() error {
	return db.storage.Close()
}

// Reset clears out the chain and the UTXO set.
func (db *Database) Reset() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.storage.Reset(); err != nil {
		return err
	}

	db.latestBlock = Block{}
	db.height = 0
	db.utxos = NewUTXOSet()

	return nil
}

// Append adds a sealed block to the chain and makes the UTXO set produced
// by processing its transactions the current set. The block must extend
// the latest block, or be a genesis block for an empty chain.
func (db *Database) Append(block Block, utxos *UTXOSet) error {
	if !block.IsSealed() {
		return fmt.Errorf("append blk[%d]: block has not been mined", block.Index)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	switch db.height {
	case 0:
		if !block.IsGenesis() || block.Index != 0 {
			return ErrNotGenesisBlock
		}

	default:
		if block.PreviousHash != db.latestBlock.Hash || block.Index != db.latestBlock.Index+1 {
			return fmt.Errorf("%w: blk[%d] prev[%s], latest blk[%d] hash[%s]", ErrStaleBlock, block.Index, block.PreviousHash, db.latestBlock.Index, db.latestBlock.Hash)
		}
	}

	if !IsHashSolved(db.difficulty, block.Hash) {
		return fmt.Errorf("append blk[%d]: %w", block.Index, ErrProofOfWorkNotMet)
	}

	if err := db.storage.Write(block); err != nil {
		return err
	}

	db.latestBlock = block
	db.height++
	db.utxos = utxos

	return nil
}

// LatestBlock returns the latest block and whether the chain has any blocks.
func (db *Database) LatestBlock() (Block, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock, db.height > 0
}

// Height returns the number of blocks in the chain.
func (db *Database) Height() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.height
}

// UTXOs returns a copy of the current UTXO set.
func (db *Database) UTXOs() *UTXOSet {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.utxos.Copy()
}

// Blocks returns every block of the chain in index order. The blocks and
// the UTXO set returned belong to the same point in time.
func (db *Database) Blocks() ([]Block, *UTXOSet, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	blocks := make([]Block, 0, db.height)
	iter := db.storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, nil, err
		}
		blocks = append(blocks, block)
	}

	return blocks, db.utxos.Copy(), nil
}

// GetBlock returns the block with the specified index.
func (db *Database) GetBlock(num uint64) (Block, error) {
	return db.storage.GetBlock(num)
}
