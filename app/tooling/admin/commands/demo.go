package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/state"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/storage/memory"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
	"github.com/ardanlabs/utxoledger/foundation/nameservice"
	"go.uber.org/zap"
)

// transfer is one step of the demo scenario.
type transfer struct {
	from  string
	to    string
	value uint64
}

// Demo issues the coinbase value to the genesis recipient and then moves
// value between the named accounts, printing balances after every block.
// The chain is verified at the end.
func Demo(log *zap.SugaredLogger, genesisPath string, accountPath string) error {
	gen, err := genesis.Load(genesisPath)
	if err != nil {
		return err
	}

	ns, err := nameservice.New(accountPath)
	if err != nil {
		return err
	}

	storage, err := memory.New()
	if err != nil {
		return err
	}

	ev := func(v string, args ...any) {
		log.Debugw(fmt.Sprintf(v, args...))
	}

	st, err := state.New(state.Config{
		Genesis:   gen,
		Storage:   storage,
		EvHandler: ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	ctx := context.Background()

	issuer, err := loadWallet(ns, gen.Coinbase.Issuer)
	if err != nil {
		return err
	}

	recipient, err := ns.Resolve(gen.Coinbase.Recipient)
	if err != nil {
		return err
	}

	block, err := st.MineGenesisBlock(ctx, issuer.PrivateKey(), recipient)
	if err != nil {
		return err
	}
	fmt.Println(block)
	Balances(st, ns)

	other := "bob"
	if gen.Coinbase.Recipient == other {
		other = "alice"
	}

	steps := []transfer{
		{from: gen.Coinbase.Recipient, to: other, value: gen.Coinbase.Value / 2},
		{from: gen.Coinbase.Recipient, to: other, value: gen.Coinbase.Value * 10},
		{from: other, to: gen.Coinbase.Recipient, value: gen.Coinbase.Value / 5},
	}

	for _, step := range steps {
		fmt.Printf("%s sends %d to %s\n", step.from, step.value, step.to)

		block, err := send(ctx, st, ns, step)
		switch {
		case errors.Is(err, wallet.ErrInsufficientFunds), database.IsValidationError(err):
			fmt.Printf("REJECTED: %s\n\n", err)
			continue
		case err != nil:
			return err
		}

		fmt.Println(block)
		Balances(st, ns)
	}

	if err := st.ConsistencyCheck(); err != nil {
		return fmt.Errorf("chain is not consistent: %w", err)
	}
	fmt.Println("Chain is consistent")

	return nil
}

// =============================================================================

func send(ctx context.Context, st *state.State, ns *nameservice.NameService, step transfer) (database.Block, error) {
	from, err := loadWallet(ns, step.from)
	if err != nil {
		return database.Block{}, err
	}

	to, err := ns.Resolve(step.to)
	if err != nil {
		return database.Block{}, err
	}

	tx, err := from.Send(st, to, step.value)
	if err != nil {
		return database.Block{}, err
	}

	draft, err := st.CreateNextBlock()
	if err != nil {
		return database.Block{}, err
	}

	if err := draft.AddTransaction(&tx); err != nil {
		return database.Block{}, err
	}

	return st.AddAndMineBlock(ctx, draft)
}

func loadWallet(ns *nameservice.NameService, name string) (*wallet.Wallet, error) {
	path, exists := ns.File(name)
	if !exists {
		return nil, fmt.Errorf("account %q has no key file", name)
	}

	return wallet.Load(name, path)
}
