// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"fmt"
	"slices"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/state"
	"github.com/ardanlabs/utxoledger/foundation/nameservice"
)

// Balances prints the balance of every named account.
func Balances(st *state.State, ns *nameservice.NameService) {
	var latest string
	if block, err := st.RetrieveLatestBlock(); err == nil {
		latest = block.Hash
	}
	fmt.Printf("LatestBlockHash: %s\n", latest)

	accounts := ns.Copy()
	names := make([]string, 0, len(accounts))
	for _, name := range accounts {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		pk, _ := ns.Key(name)
		fmt.Printf("Account: %-8s Balance: %d\n", name, st.QueryBalance(pk))
	}
	fmt.Print("\n")
}
