package cmd

import (
	"fmt"
	"log"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

type balance struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Balance uint64 `json:"balance"`
}

type balances struct {
	LatestBlock string    `json:"latest_block"`
	Uncommitted int       `json:"uncommitted"`
	Balances    []balance `json:"balances"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	w, err := wallet.Load(accountKeyName(), getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("For Account:", w.PublicKey())

	var bals balances
	if err := get(fmt.Sprintf("%s/v1/balances/%s", url, w.PublicKey()), &bals); err != nil {
		log.Fatal(err)
	}

	if len(bals.Balances) > 0 {
		fmt.Println(bals.Balances[0].Balance)
	}
}
