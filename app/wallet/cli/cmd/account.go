package cmd

import (
	"fmt"
	"log"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Print the public key for the specific wallet",
	Run:   accountRun,
}

func init() {
	rootCmd.AddCommand(accountCmd)
}

func accountRun(cmd *cobra.Command, args []string) {
	w, err := wallet.Load(accountKeyName(), getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(w.PublicKey())
}
