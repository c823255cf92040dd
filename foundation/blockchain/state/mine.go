package state

import (
	"context"
	"errors"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are not enough transactions.
var ErrNoTransactions = errors.New("no transactions in mempool")

// =============================================================================

// MineNewBlock drafts the next block from the mempool and attempts to mine
// it and add it to the chain. Transactions that no longer process are
// dropped from the mempool.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	// Are there enough transactions in the pool.
	if s.mempool.Count() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	draft, err := s.CreateNextBlock()
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: MineNewBlock: MINING: process transactions")

	for _, tx := range s.mempool.PickBest(-1) {
		if err := draft.AddTransaction(&tx); err != nil {
			s.evHandler("state: MineNewBlock: MINING: WARNING: dropping tx[%s]: %s", tx, err)
			s.mempool.Delete(tx)
		}
	}

	if len(draft.block.Transactions) == 0 {
		return database.Block{}, ErrNoTransactions
	}

	return s.AddAndMineBlock(ctx, draft)
}
