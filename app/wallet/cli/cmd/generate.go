package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new key pair",
	Run:   generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) {
	path := getPrivateKeyPath()
	if _, err := os.Stat(path); err == nil {
		log.Fatalf("key file %s already exists", path)
	}

	w, err := wallet.New(accountKeyName())
	if err != nil {
		log.Fatal(err)
	}

	if err := w.Save(path); err != nil {
		log.Fatal(err)
	}

	fmt.Println(w.PublicKey())
}
