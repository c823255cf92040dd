package public

import (
	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
	"github.com/ardanlabs/utxoledger/foundation/nameservice"
)

type output struct {
	ID            string             `json:"id"`
	Recipient     database.PublicKey `json:"recipient"`
	RecipientName string             `json:"recipient_name"`
	Value         uint64             `json:"value"`
	ParentTxID    string             `json:"parent_tx_id"`
}

type tx struct {
	ID            string             `json:"id"`
	Sender        database.PublicKey `json:"sender"`
	SenderName    string             `json:"sender_name"`
	Recipient     database.PublicKey `json:"recipient"`
	RecipientName string             `json:"recipient_name"`
	Value         uint64             `json:"value"`
	Nonce         string             `json:"nonce"`
	Sig           string             `json:"sig"`
	Inputs        []string           `json:"inputs"`
	Outputs       []output           `json:"outputs"`
}

type block struct {
	Index        uint64 `json:"index"`
	Timestamp    int64  `json:"timestamp"`
	MerkleRoot   string `json:"merkle_root"`
	PreviousHash string `json:"previous_hash"`
	Hash         string `json:"hash"`
	Nonce        uint64 `json:"nonce"`
	Transactions []tx   `json:"transactions"`
}

type proof struct {
	BlockIndex uint64   `json:"block_index"`
	BlockHash  string   `json:"block_hash"`
	MerkleRoot string   `json:"merkle_root"`
	Tx         tx       `json:"tx"`
	Hashes     []string `json:"hashes"`
	Order      []int64  `json:"order"`
}

type balance struct {
	Key     database.PublicKey `json:"key"`
	Name    string             `json:"name"`
	Balance uint64             `json:"balance"`
}

type balances struct {
	LatestBlock string    `json:"latest_block"`
	Uncommitted int       `json:"uncommitted"`
	Balances    []balance `json:"balances"`
}

type verify struct {
	Consistent bool   `json:"consistent"`
	Height     int    `json:"height"`
	Error      string `json:"error,omitempty"`
	BlockIndex uint64 `json:"block_index,omitempty"`
	TxIndex    int    `json:"tx_index,omitempty"`
}

// SendRequest asks the node to send value from one of the wallets it holds.
type SendRequest struct {
	From  string `json:"from" validate:"required"`
	To    string `json:"to" validate:"required"`
	Value uint64 `json:"value" validate:"gt=0"`
}

// SubmitRequest carries a transaction signed by an outside wallet.
type SubmitRequest struct {
	Sender    string   `json:"sender" validate:"required"`
	Recipient string   `json:"recipient" validate:"required"`
	Value     uint64   `json:"value"`
	Nonce     string   `json:"nonce" validate:"required"`
	Signature string   `json:"signature" validate:"required"`
	Inputs    []string `json:"inputs" validate:"required,min=1,dive,required"`
}

// =============================================================================

func toTx(ns *nameservice.NameService, dbTx database.Tx) tx {
	inputs := make([]string, len(dbTx.Inputs))
	for i, in := range dbTx.Inputs {
		inputs[i] = in.OutputID
	}

	outputs := make([]output, len(dbTx.Outputs))
	for i, out := range dbTx.Outputs {
		outputs[i] = output{
			ID:            out.ID,
			Recipient:     out.Recipient,
			RecipientName: ns.Lookup(out.Recipient),
			Value:         out.Value,
			ParentTxID:    out.ParentTxID,
		}
	}

	return tx{
		ID:            dbTx.ID,
		Sender:        dbTx.Sender,
		SenderName:    ns.Lookup(dbTx.Sender),
		Recipient:     dbTx.Recipient,
		RecipientName: ns.Lookup(dbTx.Recipient),
		Value:         dbTx.Value,
		Nonce:         dbTx.Nonce,
		Sig:           signature.SignatureString(dbTx.Signature),
		Inputs:        inputs,
		Outputs:       outputs,
	}
}

func toBlock(ns *nameservice.NameService, dbBlock database.Block) block {
	trans := make([]tx, len(dbBlock.Transactions))
	for i, dbTx := range dbBlock.Transactions {
		trans[i] = toTx(ns, dbTx)
	}

	return block{
		Index:        dbBlock.Index,
		Timestamp:    dbBlock.Timestamp,
		MerkleRoot:   dbBlock.MerkleRoot,
		PreviousHash: dbBlock.PreviousHash,
		Hash:         dbBlock.Hash,
		Nonce:        dbBlock.Nonce,
		Transactions: trans,
	}
}

func toOutputs(ns *nameservice.NameService, dbOutputs []database.Output) []output {
	outputs := make([]output, len(dbOutputs))
	for i, out := range dbOutputs {
		outputs[i] = output{
			ID:            out.ID,
			Recipient:     out.Recipient,
			RecipientName: ns.Lookup(out.Recipient),
			Value:         out.Value,
			ParentTxID:    out.ParentTxID,
		}
	}
	return outputs
}

// toDatabaseTx rebuilds the unprocessed transaction a wallet signed.
func (sr SubmitRequest) toDatabaseTx() (database.Tx, error) {
	sender, err := database.ParsePublicKey(sr.Sender)
	if err != nil {
		return database.Tx{}, err
	}

	recipient, err := database.ParsePublicKey(sr.Recipient)
	if err != nil {
		return database.Tx{}, err
	}

	inputs := make([]database.Input, len(sr.Inputs))
	for i, id := range sr.Inputs {
		inputs[i] = database.NewInput(id)
	}

	dbTx, err := database.NewTx(sender, recipient, sr.Value, sr.Nonce, inputs)
	if err != nil {
		return database.Tx{}, err
	}

	sig, err := signature.FromSignatureString(sr.Signature)
	if err != nil {
		return database.Tx{}, err
	}
	dbTx.Signature = sig

	return dbTx, nil
}
