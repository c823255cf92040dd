package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Ask the node to re-derive and check the whole chain",
	Run:   verifyRun,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func verifyRun(cmd *cobra.Command, args []string) {
	var resp struct {
		Consistent bool   `json:"consistent"`
		Height     int    `json:"height"`
		Error      string `json:"error"`
		BlockIndex uint64 `json:"block_index"`
		TxIndex    int    `json:"tx_index"`
	}
	if err := get(fmt.Sprintf("%s/v1/chain/verify", url), &resp); err != nil {
		log.Fatal(err)
	}

	if !resp.Consistent {
		fmt.Printf("INCONSISTENT: blk[%d] tx[%d]: %s\n", resp.BlockIndex, resp.TxIndex, resp.Error)
		os.Exit(1)
	}

	fmt.Printf("consistent: %d blocks\n", resp.Height)
}
