package state

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

// Draft is a block under construction. Transactions added to the draft are
// processed against a staged copy of the chain's UTXO set; the staged set
// only becomes the chain's set when the mined block is appended.
type Draft struct {
	block   database.Block
	utxos   *database.UTXOSet
	minimum uint64
}

// AddTransaction processes the transaction against the draft's staged UTXO
// set and adds it to the block. A failed transaction is discarded.
func (d *Draft) AddTransaction(tx *database.Tx) error {
	return d.block.AddTransaction(tx, d.utxos, d.minimum)
}

// Block returns a copy of the block being built.
func (d *Draft) Block() database.Block {
	return d.block
}

// =============================================================================

// CreateGenesisBlock starts the index 0 block. The coinbase transaction
// still needs to be added and the draft mined.
func (s *State) CreateGenesisBlock() *Draft {
	return &Draft{
		block:   database.NewGenesisBlock(),
		utxos:   database.NewUTXOSet(),
		minimum: s.genesis.MinimumTransactionValue,
	}
}

// CreateNextBlock starts the block that follows the latest block.
func (s *State) CreateNextBlock() (*Draft, error) {
	latest, exists := s.db.LatestBlock()
	if !exists {
		return nil, database.ErrEmptyChain
	}

	draft := Draft{
		block:   database.NewNextBlock(latest),
		utxos:   s.db.UTXOs(),
		minimum: s.genesis.MinimumTransactionValue,
	}

	return &draft, nil
}

// AddAndMineBlock mines the draft and then appends the sealed block to the
// chain. Nothing is visible to readers until mining has completed. When
// mining fails the draft keeps the nonce reached so calling this again
// resumes the search.
func (s *State) AddAndMineBlock(ctx context.Context, draft *Draft) (database.Block, error) {
	if draft == nil {
		return database.Block{}, errors.New("add and mine: draft is nil")
	}

	s.evHandler("state: AddAndMineBlock: MINING: perform POW: blk[%d]: txs[%d]", draft.block.Index, len(draft.block.Transactions))

	block, err := draft.block.Mine(ctx, database.MineConfig{
		Difficulty:  s.genesis.Difficulty,
		MaxAttempts: s.genesis.MaxMiningAttempts,
		EvHandler:   s.evHandler,
	})
	if err != nil {
		if !block.IsSealed() {
			draft.block = block
		}
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: AddAndMineBlock: MINING: append: blk[%d]", block.Index)

	if err := s.appendBlock(block, draft.utxos); err != nil {
		return database.Block{}, err
	}

	draft.block = block

	return block, nil
}

// MineGenesisBlock issues the configured coinbase value to the recipient,
// signed by the issuer, and seals it into the genesis block.
func (s *State) MineGenesisBlock(ctx context.Context, issuer *ecdsa.PrivateKey, recipient database.PublicKey) (database.Block, error) {
	coinbase, err := database.NewCoinbaseTx(issuer, recipient, s.genesis.Coinbase.Value)
	if err != nil {
		return database.Block{}, err
	}

	draft := s.CreateGenesisBlock()
	if err := draft.AddTransaction(&coinbase); err != nil {
		return database.Block{}, err
	}

	return s.AddAndMineBlock(ctx, draft)
}

// =============================================================================

// appendBlock writes the sealed block to the chain, swaps in the UTXO set
// it produced and removes its transactions from the mempool.
func (s *State) appendBlock(block database.Block, utxos *database.UTXOSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Append(block, utxos); err != nil {
		return err
	}

	s.evHandler("state: appendBlock: remove from mempool: blk[%d]", block.Index)

	for _, tx := range block.Transactions {
		s.mempool.Delete(tx)
	}

	s.blockEvent(block)

	return nil
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(block)
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"hash":%q,"block":%s}`, block.Hash, string(blockJSON))
}
