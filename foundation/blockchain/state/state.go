// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"sync"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/mempool"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining() (done func())
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Genesis        genesis.Genesis
	Storage        database.Storage
	SelectStrategy string
	EvHandler      EventHandler
}

// State manages the blockchain database.
type State struct {
	mu        sync.Mutex
	evHandler EventHandler

	genesis genesis.Genesis
	mempool *mempool.Mempool
	db      *database.Database

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, err
	}

	// Access the storage for the blockchain. Blocks already held by the
	// storage are verified and replayed.
	db, err := database.New(cfg.Storage, cfg.Genesis.Difficulty, ev)
	if err != nil {
		return nil, err
	}

	// Construct a mempool with the specified select strategy.
	var mp *mempool.Mempool
	switch cfg.SelectStrategy {
	case "":
		mp, err = mempool.New()
	default:
		mp, err = mempool.NewWithStrategy(cfg.SelectStrategy)
	}
	if err != nil {
		return nil, err
	}

	state := State{
		evHandler: ev,
		genesis:   cfg.Genesis,
		mempool:   mp,
		db:        db,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {

	// Make sure the storage is properly closed.
	defer func() {
		s.db.Close()
	}()

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// Truncate resets the chain and the mempool.
func (s *State) Truncate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mempool.Truncate()

	return s.db.Reset()
}
