package database

import (
	"context"
	"encoding/hex"
	"fmt"
	"slices"
	"time"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/merkle"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
)

// cancelCheckInterval is how many nonces are tried between checks of the
// cancellation signal.
const cancelCheckInterval = 1 << 10

// progressInterval is how many nonces are tried between progress events.
const progressInterval = 1_000_000

// =============================================================================

// Block represents a group of transactions batched together and sealed by
// proof of work.
type Block struct {
	Index        uint64 `json:"index"`
	Timestamp    int64  `json:"timestamp"`     // Unix nanoseconds captured at construction.
	MerkleRoot   string `json:"merkle_root"`   // Commitment to the transactions, set by mining.
	PreviousHash string `json:"previous_hash"` // Empty for the genesis block.
	Hash         string `json:"hash"`          // Empty until the block is mined.
	Nonce        uint64 `json:"nonce"`
	Transactions []Tx   `json:"transactions"`
}

// NewGenesisBlock constructs the index 0 block. The coinbase transaction
// still needs to be added and the block mined.
func NewGenesisBlock() Block {
	return Block{
		Index:     0,
		Timestamp: time.Now().UTC().UnixNano(),
	}
}

// NewNextBlock constructs the block that follows the specified block.
func NewNextBlock(prevBlock Block) Block {
	return Block{
		Index:        prevBlock.Index + 1,
		Timestamp:    time.Now().UTC().UnixNano(),
		PreviousHash: prevBlock.Hash,
	}
}

// IsGenesis reports whether this is the first block of a chain.
func (b Block) IsGenesis() bool {
	return b.PreviousHash == ""
}

// IsSealed reports whether the block has been mined.
func (b Block) IsSealed() bool {
	return b.Hash != ""
}

// AddTransaction processes the transaction against the UTXO set and appends
// the committed result to the block. The coinbase of a genesis block is
// checked and its outputs seed the set. On failure the transaction is
// discarded and the block and set are unchanged.
func (b *Block) AddTransaction(tx *Tx, utxos *UTXOSet, minimum uint64) error {
	if tx == nil {
		return ErrNilTransaction
	}

	if b.IsSealed() {
		return ErrBlockSealed
	}

	if b.IsGenesis() {
		if err := verifyCoinbase(*tx, utxos); err != nil {
			return &ValidationError{TxID: tx.ID, Err: err}
		}
		b.Transactions = append(b.Transactions, *tx)
		return nil
	}

	committed, err := tx.Process(utxos, minimum)
	if err != nil {
		return err
	}

	b.Transactions = append(b.Transactions, committed)

	return nil
}

// CalculateHash hashes the header fields of the block with the current nonce.
func (b Block) CalculateHash() string {
	data := fmt.Sprintf("%d_%d_%s_%s_%d", b.Index, b.Timestamp, b.MerkleRoot, b.PreviousHash, b.Nonce)
	return signature.Hash(data, "")
}

// MineConfig provides the parameters for a proof of work search.
type MineConfig struct {
	Difficulty  uint
	MaxAttempts uint64 // Zero means the search is unbounded.
	EvHandler   func(v string, args ...any)
}

// Mine commits to the transactions with a merkle root and then searches for
// a nonce that solves the proof of work puzzle, starting at the block's
// current nonce. A new sealed block is returned. When the search is
// cancelled or runs out of attempts, the unsealed block is returned with
// the nonce reached so calling Mine on it resumes the search.
func (b Block) Mine(ctx context.Context, cfg MineConfig) (Block, error) {
	ev := cfg.EvHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	if b.IsSealed() {
		return b, ErrBlockSealed
	}

	root, err := MerkleRoot(b.Transactions)
	if err != nil {
		return b, err
	}

	nb := b
	nb.MerkleRoot = root
	nb.Transactions = append([]Tx(nil), b.Transactions...)

	ev("database: Mine: MINING: started: blk[%d]: nonce[%d]", nb.Index, nb.Nonce)

	for attempts := uint64(0); ; attempts++ {
		if cfg.MaxAttempts > 0 && attempts >= cfg.MaxAttempts {
			ev("database: Mine: MINING: TIMEOUT: blk[%d]: nonce[%d]", nb.Index, nb.Nonce)
			return nb, ErrMiningTimeout
		}

		if attempts%cancelCheckInterval == 0 && ctx.Err() != nil {
			ev("database: Mine: MINING: CANCELLED: blk[%d]: nonce[%d]", nb.Index, nb.Nonce)
			return nb, ctx.Err()
		}

		if attempts > 0 && attempts%progressInterval == 0 {
			ev("database: Mine: MINING: in progress: blk[%d]: nonce[%d]", nb.Index, nb.Nonce)
		}

		hash := nb.CalculateHash()
		if IsHashSolved(cfg.Difficulty, hash) {
			nb.Hash = hash
			ev("database: Mine: MINING: SOLVED: blk[%d]: hash[%s]: attempts[%d]", nb.Index, hash, attempts+1)
			return nb, nil
		}

		nb.Nonce++
	}
}

// Proof builds the merkle inclusion proof for the specified transaction.
// The tree is rebuilt from the block's transactions and must reproduce the
// recorded merkle root.
func (b Block) Proof(txID string) (MerkleProof, error) {
	idx := slices.IndexFunc(b.Transactions, func(tx Tx) bool { return tx.ID == txID })
	if idx == -1 {
		return MerkleProof{}, fmt.Errorf("%w: blk[%d]: tx[%s]", ErrTxNotFound, b.Index, txID)
	}
	tx := b.Transactions[idx]

	tree, err := merkle.NewTree(b.Transactions)
	if err != nil {
		return MerkleProof{}, err
	}

	if tree.RootHex() != b.MerkleRoot {
		return MerkleProof{}, fmt.Errorf("%w: got %s, exp %s", ErrMerkleRootMismatch, b.MerkleRoot, tree.RootHex())
	}

	if err := tree.VerifyData(tx); err != nil {
		return MerkleProof{}, fmt.Errorf("%w: %s", ErrMerkleRootMismatch, err)
	}

	hashes, order, err := tree.Proof(tx)
	if err != nil {
		return MerkleProof{}, err
	}

	proof := MerkleProof{
		BlockIndex: b.Index,
		BlockHash:  b.Hash,
		MerkleRoot: b.MerkleRoot,
		Tx:         tx,
		Hashes:     make([]string, len(hashes)),
		Order:      order,
	}
	for i, h := range hashes {
		proof.Hashes[i] = hex.EncodeToString(h)
	}

	return proof, nil
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("Block %d @ %s: %s hash: %s txs: %d", b.Index, time.Unix(0, b.Timestamp).UTC().Format(time.RFC3339), b.MerkleRoot, b.Hash, len(b.Transactions))
}

// =============================================================================

// MerkleProof shows a transaction is committed to by a block's merkle root
// without needing the other transactions of the block.
type MerkleProof struct {
	BlockIndex uint64   `json:"block_index"`
	BlockHash  string   `json:"block_hash"`
	MerkleRoot string   `json:"merkle_root"`
	Tx         Tx       `json:"tx"`
	Hashes     []string `json:"hashes"`
	Order      []int64  `json:"order"` // 0 means the proof hash is concatenated first, 1 second.
}

// Verify checks the proof's transaction hashes up to the merkle root.
func (mp MerkleProof) Verify() error {
	leaf, err := mp.Tx.Hash()
	if err != nil {
		return err
	}

	root, err := hex.DecodeString(mp.MerkleRoot)
	if err != nil {
		return fmt.Errorf("%w: root: %s", ErrMerkleRootMismatch, err)
	}

	hashes := make([][]byte, len(mp.Hashes))
	for i, h := range mp.Hashes {
		if hashes[i], err = hex.DecodeString(h); err != nil {
			return fmt.Errorf("%w: proof hash %d: %s", ErrMerkleRootMismatch, i, err)
		}
	}

	if err := merkle.VerifyProof(leaf, hashes, mp.Order, root); err != nil {
		return fmt.Errorf("%w: %s", ErrMerkleRootMismatch, err)
	}

	return nil
}

// =============================================================================

// MerkleRoot returns the hex merkle root for the ordered transactions. No
// transactions produce an empty root.
func MerkleRoot(txs []Tx) (string, error) {
	if len(txs) == 0 {
		return "", nil
	}

	tree, err := merkle.NewTree(txs)
	if err != nil {
		return "", err
	}

	return tree.RootHex(), nil
}

// IsHashSolved checks the hash to make sure it complies with the proof of
// work rules. The hash needs to start with difficulty number of 0's.
func IsHashSolved(difficulty uint, hash string) bool {
	const match = "0000000000000000000000000000000000000000000000000000000000000000"

	if len(hash) != len(match) || difficulty > uint(len(match)) {
		return false
	}

	return hash[:difficulty] == match[:difficulty]
}
