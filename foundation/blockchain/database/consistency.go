package database

import "fmt"

// VerifyChain re-derives the UTXO set from the genesis block forward and
// checks every block and transaction along the way. Nothing that was
// recorded is trusted: hashes, links, proof of work, merkle roots,
// signatures and spends are all recomputed. The first failure aborts the
// walk and is returned as a *ConsistencyError. On success the derived UTXO
// set is returned.
func VerifyChain(blocks []Block, difficulty uint, evHandler func(v string, args ...any)) (*UTXOSet, error) {
	ev := evHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	utxos := NewUTXOSet()

	for i, block := range blocks {
		ev("database: VerifyChain: blk[%d]: check: header", block.Index)

		var prevBlock *Block
		if i > 0 {
			prevBlock = &blocks[i-1]
		}

		if err := verifyHeader(block, prevBlock, difficulty); err != nil {
			return nil, &ConsistencyError{BlockIndex: block.Index, TxIndex: NoTx, Err: err}
		}

		ev("database: VerifyChain: blk[%d]: check: transactions[%d]", block.Index, len(block.Transactions))

		// The coinbase outputs seed the set.
		if block.IsGenesis() {
			for txIndex, tx := range block.Transactions {
				if err := verifyCoinbase(tx, utxos); err != nil {
					return nil, &ConsistencyError{BlockIndex: block.Index, TxIndex: txIndex, Err: err}
				}
			}
			continue
		}

		for txIndex, tx := range block.Transactions {
			if err := verifyTx(tx, utxos); err != nil {
				return nil, &ConsistencyError{BlockIndex: block.Index, TxIndex: txIndex, Err: err}
			}
		}
	}

	return utxos, nil
}

// =============================================================================

// verifyHeader checks the block's own hash, its link to the previous block,
// the proof of work and the merkle commitment.
func verifyHeader(block Block, prevBlock *Block, difficulty uint) error {
	if hash := block.CalculateHash(); hash != block.Hash {
		return fmt.Errorf("%w: got %s, exp %s", ErrHashMismatch, block.Hash, hash)
	}

	switch {
	case prevBlock == nil:
		if !block.IsGenesis() {
			return ErrNotGenesisBlock
		}

	default:
		if block.PreviousHash != prevBlock.Hash {
			return fmt.Errorf("%w: got %s, exp %s", ErrPreviousHashMismatch, block.PreviousHash, prevBlock.Hash)
		}

		if block.Index != prevBlock.Index+1 {
			return fmt.Errorf("%w: index %d does not follow %d", ErrPreviousHashMismatch, block.Index, prevBlock.Index)
		}
	}

	if !IsHashSolved(difficulty, block.Hash) {
		return fmt.Errorf("%w: difficulty %d, hash %s", ErrProofOfWorkNotMet, difficulty, block.Hash)
	}

	root, err := MerkleRoot(block.Transactions)
	if err != nil {
		return err
	}

	if root != block.MerkleRoot {
		return fmt.Errorf("%w: got %s, exp %s", ErrMerkleRootMismatch, block.MerkleRoot, root)
	}

	return nil
}

// verifyCoinbase checks a value issuing transaction: signed by the issuer,
// no inputs, and a single output paying exactly the issued value to the
// recipient.
func verifyCoinbase(tx Tx, utxos *UTXOSet) error {
	if !tx.IsCoinbase() {
		return fmt.Errorf("%w: genesis transaction %s is not a coinbase", ErrConservation, tx.ID)
	}

	if err := tx.checkKeys(); err != nil {
		return err
	}

	if err := tx.VerifySignature(); err != nil {
		return err
	}

	if len(tx.Outputs) != 1 || tx.Outputs[0].Recipient != tx.Recipient {
		return ErrOutputOrderingViolation
	}

	if err := tx.verifyOutputs(); err != nil {
		return err
	}

	return utxos.update(func(outputs map[string]Output) error {
		if err := checkOutputs(outputs, tx.Outputs); err != nil {
			return err
		}

		for _, out := range tx.Outputs {
			outputs[out.ID] = out
		}

		return nil
	})
}

// verifyTx checks a committed transaction and replays it against the set.
// The set is only changed when every check passes.
func verifyTx(tx Tx, utxos *UTXOSet) error {
	if err := tx.checkKeys(); err != nil {
		return err
	}

	if err := tx.VerifySignature(); err != nil {
		return err
	}

	if tx.ID != tx.calculateID() {
		return fmt.Errorf("%w: transaction id %s", ErrHashMismatch, tx.ID)
	}

	if in, out := tx.SumInputValues(), tx.SumOutputValues(); in != out {
		return fmt.Errorf("%w: inputs %d, outputs %d", ErrConservation, in, out)
	}

	if len(tx.Outputs) != 2 || tx.Outputs[0].Recipient != tx.Recipient || tx.Outputs[1].Recipient != tx.Sender {
		return ErrOutputOrderingViolation
	}

	if err := tx.verifyOutputs(); err != nil {
		return err
	}

	return utxos.update(func(outputs map[string]Output) error {
		seen := make(map[string]bool, len(tx.Inputs))
		for _, in := range tx.Inputs {
			if seen[in.OutputID] {
				return fmt.Errorf("%w: output %s referenced twice", ErrInputMissing, in.OutputID)
			}
			seen[in.OutputID] = true

			if in.UTXO == nil {
				return fmt.Errorf("%w: output %s unresolved", ErrInputMissing, in.OutputID)
			}

			out, exists := outputs[in.OutputID]
			if !exists {
				return fmt.Errorf("%w: output %s", ErrInputMissing, in.OutputID)
			}

			if out.Value != in.UTXO.Value {
				return fmt.Errorf("%w: output %s, got %d, exp %d", ErrInputValueMismatch, in.OutputID, in.UTXO.Value, out.Value)
			}

			if !out.IsMine(tx.Sender) {
				return fmt.Errorf("%w: output %s", ErrInputNotOwned, in.OutputID)
			}
		}

		if err := checkOutputs(outputs, tx.Outputs); err != nil {
			return err
		}

		for _, in := range tx.Inputs {
			delete(outputs, in.OutputID)
		}

		for _, out := range tx.Outputs {
			outputs[out.ID] = out
		}

		return nil
	})
}

// checkOutputs makes sure none of the new outputs would replace an output
// already in the set or another new output.
func checkOutputs(outputs map[string]Output, newOutputs []Output) error {
	seen := make(map[string]bool, len(newOutputs))
	for _, out := range newOutputs {
		if _, exists := outputs[out.ID]; exists || seen[out.ID] {
			return fmt.Errorf("%w: output %s already exists", ErrAlreadyProcessed, out.ID)
		}
		seen[out.ID] = true
	}

	return nil
}
