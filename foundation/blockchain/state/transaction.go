package state

import (
	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

// SubmitWalletTransaction accepts a signed transaction from a wallet for
// inclusion in the next block. The transaction is checked against a copy
// of the current UTXO set before it is pooled.
func (s *State) SubmitWalletTransaction(tx database.Tx) error {
	if _, err := tx.Process(s.db.UTXOs(), s.genesis.MinimumTransactionValue); err != nil {
		return err
	}

	n, err := s.mempool.Upsert(tx)
	if err != nil {
		return err
	}

	s.evHandler("state: SubmitWalletTransaction: tx[%s]: mempool[%d]", tx, n)

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return nil
}
