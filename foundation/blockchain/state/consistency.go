package state

import (
	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

// ConsistencyCheck re-derives the UTXO set from the genesis block forward,
// verifying every block and transaction, and compares the result with the
// chain's live set. A failure is reported as a *database.ConsistencyError
// identifying the block, transaction and rule.
func (s *State) ConsistencyCheck() error {
	s.evHandler("state: ConsistencyCheck: started")
	defer s.evHandler("state: ConsistencyCheck: completed")

	blocks, utxos, err := s.db.Blocks()
	if err != nil {
		return err
	}

	derived, err := database.VerifyChain(blocks, s.genesis.Difficulty, s.evHandler)
	if err != nil {
		s.evHandler("state: ConsistencyCheck: FAILED: %s", err)
		return err
	}

	if !derived.Equal(utxos) {
		ce := database.ConsistencyError{
			BlockIndex: blocks[len(blocks)-1].Index,
			TxIndex:    database.NoTx,
			Err:        database.ErrUTXOSetMismatch,
		}
		s.evHandler("state: ConsistencyCheck: FAILED: %s", &ce)
		return &ce
	}

	return nil
}

// IsConsistent reports whether the consistency check passes.
func (s *State) IsConsistent() bool {
	return s.ConsistencyCheck() == nil
}
