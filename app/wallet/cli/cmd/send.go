package cmd

import (
	"fmt"
	"log"

	"github.com/ardanlabs/utxoledger/app/services/node/handlers/public"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var (
	to    string
	value uint64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign a transaction and submit it to the node",
	Run:   sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Public key of the recipient.")
	sendCmd.Flags().Uint64VarP(&value, "value", "v", 0, "Value to send.")
}

func sendRun(cmd *cobra.Command, args []string) {
	w, err := wallet.Load(accountKeyName(), getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	recipient, err := database.ParsePublicKey(to)
	if err != nil {
		log.Fatal(err)
	}

	ledger := nodeLedger{url: url}
	tx, err := w.Send(&ledger, recipient, value)
	if err != nil {
		if ledger.err != nil {
			log.Fatal(ledger.err)
		}
		log.Fatal(err)
	}

	inputs := make([]string, len(tx.Inputs))
	for i, in := range tx.Inputs {
		inputs[i] = in.OutputID
	}

	req := public.SubmitRequest{
		Sender:    string(tx.Sender),
		Recipient: string(tx.Recipient),
		Value:     tx.Value,
		Nonce:     tx.Nonce,
		Signature: signature.SignatureString(tx.Signature),
		Inputs:    inputs,
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := post(fmt.Sprintf("%s/v1/tx/submit", url), req, &resp); err != nil {
		log.Fatal(err)
	}

	fmt.Println(tx.ID, resp.Status)
}
