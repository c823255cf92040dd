package state

import (
	"fmt"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/genesis"
)

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// =============================================================================

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() (database.Block, error) {
	block, exists := s.db.LatestBlock()
	if !exists {
		return database.Block{}, database.ErrEmptyChain
	}
	return block, nil
}

// QueryMempool returns a copy of the mempool in arrival order.
func (s *State) QueryMempool() []database.Tx {
	return s.mempool.Values()
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryBalance returns the value of the unspent outputs owned by the key.
func (s *State) QueryBalance(pk database.PublicKey) uint64 {
	return s.db.UTXOs().Balance(pk)
}

// QueryUTXOs returns the unspent outputs owned by the key. If the key is
// empty, every unspent output is returned.
func (s *State) QueryUTXOs(pk database.PublicKey) []database.Output {
	utxos := s.db.UTXOs()
	if pk == "" {
		return utxos.Values()
	}
	return utxos.Owned(pk)
}

// QueryBlocksByNumber returns the set of blocks based on block numbers.
func (s *State) QueryBlocksByNumber(from uint64, to uint64) []database.Block {
	latest, exists := s.db.LatestBlock()
	if !exists {
		return nil
	}

	if from == QueryLatest {
		from = latest.Index
		to = from
	}
	if to == QueryLatest || to > latest.Index {
		to = latest.Index
	}

	var out []database.Block
	for i := from; i <= to; i++ {
		block, err := s.db.GetBlock(i)
		if err != nil {
			s.evHandler("state: getblock: ERROR: %s", err)
			return nil
		}
		out = append(out, block)
	}

	return out
}

// QueryBlocksByKey returns the set of blocks holding a transaction sent or
// received by the key. If the key is empty, all blocks are returned.
func (s *State) QueryBlocksByKey(pk database.PublicKey) ([]database.Block, error) {
	blocks, _, err := s.db.Blocks()
	if err != nil {
		return nil, err
	}

	if pk == "" {
		return blocks, nil
	}

	var out []database.Block
	for _, block := range blocks {
		for _, tx := range block.Transactions {
			if tx.Sender == pk || tx.Recipient == pk {
				out = append(out, block)
				break
			}
		}
	}

	return out, nil
}

// QueryTxProof returns the merkle inclusion proof for the transaction held
// in the specified block.
func (s *State) QueryTxProof(blockIndex uint64, txID string) (database.MerkleProof, error) {
	latest, exists := s.db.LatestBlock()
	if !exists || blockIndex > latest.Index {
		return database.MerkleProof{}, fmt.Errorf("%w: blk[%d]", database.ErrBlockNotFound, blockIndex)
	}

	block, err := s.db.GetBlock(blockIndex)
	if err != nil {
		return database.MerkleProof{}, err
	}

	return block.Proof(txID)
}
