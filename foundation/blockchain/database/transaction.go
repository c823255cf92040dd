package database

import (
	"bytes"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
)

// CoinbaseTxID is the id given to the value issuing transaction of the
// genesis block.
const CoinbaseTxID = "0"

// =============================================================================

// Output is an amount of value owned by a recipient. Once created it is
// never modified; it moves from unspent to spent exactly once.
type Output struct {
	ID         string    `json:"id"`
	Recipient  PublicKey `json:"recipient"`
	Value      uint64    `json:"value"`
	ParentTxID string    `json:"parent_tx_id"`
}

// NewOutput constructs an output and derives its id from the recipient,
// value and parent transaction id.
func NewOutput(recipient PublicKey, value uint64, parentTxID string) Output {
	var b strings.Builder
	b.WriteString(string(recipient))
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteString(parentTxID)

	return Output{
		ID:         signature.Hash(b.String(), ""),
		Recipient:  recipient,
		Value:      value,
		ParentTxID: parentTxID,
	}
}

// IsMine reports whether the output is owned by the specified key.
func (o Output) IsMine(pk PublicKey) bool {
	return o.Recipient == pk
}

// Input references an output being spent. UTXO is only bound when the
// owning transaction is processed.
type Input struct {
	OutputID string  `json:"output_id"`
	UTXO     *Output `json:"utxo,omitempty"`
}

// NewInput constructs an unresolved input for the specified output id.
func NewInput(outputID string) Input {
	return Input{OutputID: outputID}
}

// =============================================================================

// Tx is a value transfer from a sender to a recipient. The inputs prove the
// sender holds the funds; the outputs are produced by processing.
type Tx struct {
	ID        string    `json:"id"`
	Sender    PublicKey `json:"sender"`
	Recipient PublicKey `json:"recipient"`
	Value     uint64    `json:"value"`
	Nonce     string    `json:"nonce"` // Supplied by the wallet so otherwise identical transactions get different ids.
	Signature []byte    `json:"signature"`
	Inputs    []Input   `json:"inputs"`
	Outputs   []Output  `json:"outputs"`
}

// NewTx constructs a new unsigned, unprocessed transaction.
func NewTx(sender PublicKey, recipient PublicKey, value uint64, nonce string, inputs []Input) (Tx, error) {
	if !sender.IsCanonical() {
		return Tx{}, errors.New("sender is not a canonical public key")
	}

	if !recipient.IsCanonical() {
		return Tx{}, errors.New("recipient is not a canonical public key")
	}

	tx := Tx{
		Sender:    sender,
		Recipient: recipient,
		Value:     value,
		Nonce:     nonce,
		Inputs:    inputs,
	}

	return tx, nil
}

// NewCoinbaseTx constructs the transaction that issues value in the genesis
// block. It has no inputs and a single output for the recipient.
func NewCoinbaseTx(issuer *ecdsa.PrivateKey, recipient PublicKey, value uint64) (Tx, error) {
	tx, err := NewTx(ToPublicKey(issuer.PublicKey), recipient, value, "", nil)
	if err != nil {
		return Tx{}, err
	}

	tx, err = tx.Sign(issuer)
	if err != nil {
		return Tx{}, err
	}

	tx.ID = CoinbaseTxID
	tx.Outputs = []Output{NewOutput(recipient, value, CoinbaseTxID)}

	return tx, nil
}

// Sign uses the specified private key to sign the transaction. The key must
// belong to the sender.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (Tx, error) {
	if ToPublicKey(privateKey.PublicKey) != tx.Sender {
		return Tx{}, errors.New("private key does not belong to the sender")
	}

	sig, err := signature.Sign(privateKey, tx.message())
	if err != nil {
		return Tx{}, err
	}

	tx.Signature = sig

	return tx, nil
}

// VerifySignature checks the sender signed this transaction.
func (tx Tx) VerifySignature() error {
	pk, err := tx.Sender.ECDSA()
	if err != nil {
		return fmt.Errorf("%w: sender: %s", ErrSignatureInvalid, err)
	}

	if !signature.Verify(pk, tx.message(), tx.Signature) {
		return ErrSignatureInvalid
	}

	return nil
}

// Process validates the transaction against the UTXO set and commits it:
// the spent outputs are removed and the payment and change outputs are
// added in one critical section. The committed transaction is returned with
// its id, resolved inputs and outputs. A failure leaves the set unchanged.
// A committed transaction can't be processed again.
func (tx Tx) Process(utxos *UTXOSet, minimum uint64) (Tx, error) {
	fail := func(err error) (Tx, error) {
		return Tx{}, &ValidationError{TxID: tx.ID, Err: err}
	}

	if tx.ID != "" || len(tx.Outputs) > 0 {
		return fail(ErrAlreadyProcessed)
	}

	if err := tx.checkKeys(); err != nil {
		return fail(err)
	}

	if err := tx.VerifySignature(); err != nil {
		return fail(err)
	}

	if len(tx.Inputs) == 0 {
		return fail(fmt.Errorf("%w: no inputs", ErrInputMissing))
	}

	committed := tx
	committed.Inputs = make([]Input, len(tx.Inputs))

	err := utxos.update(func(outputs map[string]Output) error {

		// Resolve every input against the unspent outputs.
		var totalIn uint64
		seen := make(map[string]bool, len(tx.Inputs))
		for i, in := range tx.Inputs {
			if seen[in.OutputID] {
				return fmt.Errorf("%w: output %s referenced twice", ErrInputMissing, in.OutputID)
			}
			seen[in.OutputID] = true

			out, exists := outputs[in.OutputID]
			if !exists {
				return fmt.Errorf("%w: output %s", ErrInputMissing, in.OutputID)
			}

			if !out.IsMine(tx.Sender) {
				return fmt.Errorf("%w: output %s", ErrInputNotOwned, in.OutputID)
			}

			totalIn += out.Value
			committed.Inputs[i] = Input{OutputID: in.OutputID, UTXO: &out}
		}

		if totalIn < minimum {
			return fmt.Errorf("%w: inputs %d, minimum %d", ErrBelowMinimum, totalIn, minimum)
		}

		if tx.Value > totalIn {
			return fmt.Errorf("%w: inputs %d, value %d", ErrInsufficientInputs, totalIn, tx.Value)
		}

		// Payment first, change second.
		committed.ID = tx.calculateID()
		committed.Outputs = []Output{
			NewOutput(tx.Recipient, tx.Value, committed.ID),
			NewOutput(tx.Sender, totalIn-tx.Value, committed.ID),
		}

		if err := checkOutputs(outputs, committed.Outputs); err != nil {
			return err
		}

		for _, out := range committed.Outputs {
			outputs[out.ID] = out
		}

		for _, in := range committed.Inputs {
			delete(outputs, in.OutputID)
		}

		return nil
	})

	if err != nil {
		return fail(err)
	}

	return committed, nil
}

// SumInputValues adds up the values of the resolved inputs.
func (tx Tx) SumInputValues() uint64 {
	var total uint64
	for _, in := range tx.Inputs {
		if in.UTXO != nil {
			total += in.UTXO.Value
		}
	}
	return total
}

// SumOutputValues adds up the values of the outputs.
func (tx Tx) SumOutputValues() uint64 {
	var total uint64
	for _, out := range tx.Outputs {
		total += out.Value
	}
	return total
}

// IsCoinbase reports whether this is the value issuing transaction.
func (tx Tx) IsCoinbase() bool {
	return tx.ID == CoinbaseTxID && len(tx.Inputs) == 0
}

// Hash implements the merkle Hashable interface for providing a hash
// of a block transaction.
func (tx Tx) Hash() ([]byte, error) {
	var b strings.Builder
	b.WriteString(tx.ID)
	b.WriteString(tx.message())
	b.WriteString(tx.Nonce)
	b.WriteString(signature.SignatureString(tx.Signature))
	for _, in := range tx.Inputs {
		b.WriteString(in.OutputID)
	}
	for _, out := range tx.Outputs {
		b.WriteString(out.ID)
		b.WriteString(string(out.Recipient))
		b.WriteString(strconv.FormatUint(out.Value, 10))
		b.WriteString(out.ParentTxID)
	}

	return signature.HashBytes([]byte(b.String()), nil), nil
}

// Equals implements the merkle Hashable interface for providing an equality
// check between two block transactions.
func (tx Tx) Equals(otherTx Tx) bool {
	return tx.ID == otherTx.ID && bytes.Equal(tx.Signature, otherTx.Signature)
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%d from: %s to: %s", tx.Value, tx.Sender.Short(), tx.Recipient.Short())
}

// =============================================================================

// message is what gets signed: the sender key, recipient key and the
// decimal value concatenated.
func (tx Tx) message() string {
	var b strings.Builder
	b.WriteString(string(tx.Sender))
	b.WriteString(string(tx.Recipient))
	b.WriteString(strconv.FormatUint(tx.Value, 10))
	return b.String()
}

// checkKeys makes sure both parties are named by their canonical key.
func (tx Tx) checkKeys() error {
	if !tx.Sender.IsCanonical() {
		return fmt.Errorf("%w: sender %s", ErrKeyNotCanonical, tx.Sender.Short())
	}

	if !tx.Recipient.IsCanonical() {
		return fmt.Errorf("%w: recipient %s", ErrKeyNotCanonical, tx.Recipient.Short())
	}

	return nil
}

// verifyOutputs checks every output is the one its transaction would
// produce: parented by the transaction, with an id derived from its own
// recipient and value, and the first output paying the transaction value.
func (tx Tx) verifyOutputs() error {
	for _, out := range tx.Outputs {
		if out.ParentTxID != tx.ID {
			return fmt.Errorf("%w: output %s parent %s", ErrOutputMismatch, out.ID, out.ParentTxID)
		}

		if exp := NewOutput(out.Recipient, out.Value, tx.ID); out.ID != exp.ID {
			return fmt.Errorf("%w: output %s, exp %s", ErrOutputMismatch, out.ID, exp.ID)
		}
	}

	if len(tx.Outputs) == 0 || tx.Outputs[0].Value != tx.Value {
		return fmt.Errorf("%w: payment does not carry value %d", ErrOutputMismatch, tx.Value)
	}

	return nil
}

// calculateID hashes the signed message together with the nonce.
func (tx Tx) calculateID() string {
	return signature.Hash(tx.message()+tx.Nonce, "")
}
