package state_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/state"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/storage/memory"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	issuerKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	aliceKey  = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
	bobKey    = "9f332e3700d8fc2446eaf6d15034cf96e0c2745e40353deef032a5dbf1dfed93"
)

func ifErrFailNow(t *testing.T, err error) {
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
}

func testGenesis() genesis.Genesis {
	return genesis.Genesis{
		ChainID:                 1,
		Difficulty:              2,
		MinimumTransactionValue: 1,
		Coinbase: genesis.Coinbase{
			Issuer:    "issuer",
			Recipient: "alice",
			Value:     100,
		},
	}
}

// tamperStorage hands out blocks altered by the tamper function. A limit
// above zero stops the walk after that many blocks.
type tamperStorage struct {
	*memory.Memory
	tamper func(block *database.Block)
	limit  int
}

func (ts *tamperStorage) ForEach() database.Iterator {
	return &tamperIterator{Iterator: ts.Memory.ForEach(), tamper: ts.tamper, limit: ts.limit}
}

type tamperIterator struct {
	database.Iterator
	tamper func(block *database.Block)
	limit  int
	read   int
	done   bool
}

func (ti *tamperIterator) Next() (database.Block, error) {
	if ti.limit > 0 && ti.read >= ti.limit {
		ti.done = true
		return database.Block{}, nil
	}
	ti.read++

	block, err := ti.Iterator.Next()
	if err == nil && ti.tamper != nil {
		ti.tamper(&block)
	}
	return block, err
}

func (ti *tamperIterator) Done() bool {
	return ti.done || ti.Iterator.Done()
}

type fixture struct {
	state  *state.State
	strg   *tamperStorage
	issuer *wallet.Wallet
	alice  *wallet.Wallet
	bob    *wallet.Wallet
}

func newFixture(t *testing.T) fixture {
	mem, err := memory.New()
	ifErrFailNow(t, err)

	strg := tamperStorage{Memory: mem}

	st, err := state.New(state.Config{
		Genesis: testGenesis(),
		Storage: &strg,
		EvHandler: func(v string, args ...any) {
			t.Logf(v, args...)
		},
	})
	ifErrFailNow(t, err)

	issuer, err := wallet.FromHex("issuer", issuerKey)
	ifErrFailNow(t, err)
	alice, err := wallet.FromHex("alice", aliceKey)
	ifErrFailNow(t, err)
	bob, err := wallet.FromHex("bob", bobKey)
	ifErrFailNow(t, err)

	return fixture{state: st, strg: &strg, issuer: issuer, alice: alice, bob: bob}
}

// send builds a block holding a single wallet transfer and mines it.
func (f fixture) send(t *testing.T, from *wallet.Wallet, to *wallet.Wallet, value uint64) (database.Block, error) {
	tx, err := from.Send(f.state, to.PublicKey(), value)
	if err != nil {
		return database.Block{}, err
	}

	draft, err := f.state.CreateNextBlock()
	ifErrFailNow(t, err)

	if err := draft.AddTransaction(&tx); err != nil {
		return database.Block{}, err
	}

	return f.state.AddAndMineBlock(context.Background(), draft)
}

// =============================================================================

func Test_Scenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	balances := func(a uint64, b uint64) bool {
		return f.alice.Balance(f.state) == a && f.bob.Balance(f.state) == b
	}

	t.Log("Given the need to move value between wallets.")
	{
		t.Logf("\tWhen issuing 100 to alice in the genesis block.")
		{
			block, err := f.state.MineGenesisBlock(ctx, f.issuer.PrivateKey(), f.alice.PublicKey())
			if err != nil {
				t.Fatalf("\t%s\tShould be able to mine the genesis block: %v", failed, err)
			}
			t.Logf("\t%s\tShould be able to mine the genesis block: %s", success, block.Hash)

			if block.Hash[:2] != "00" {
				t.Fatalf("\t%s\tShould meet difficulty 2: %s", failed, block.Hash)
			}

			if !balances(100, 0) {
				t.Fatalf("\t%s\tShould have alice=100 bob=0.", failed)
			}
			t.Logf("\t%s\tShould have alice=100 bob=0.", success)
		}

		t.Logf("\tWhen alice sends 50 to bob.")
		{
			if _, err := f.send(t, f.alice, f.bob, 50); err != nil {
				t.Fatalf("\t%s\tShould be able to send: %v", failed, err)
			}

			if !balances(50, 50) {
				t.Fatalf("\t%s\tShould have alice=50 bob=50.", failed)
			}
			t.Logf("\t%s\tShould have alice=50 bob=50.", success)

			if err := f.state.ConsistencyCheck(); err != nil {
				t.Fatalf("\t%s\tShould be consistent: %v", failed, err)
			}
			t.Logf("\t%s\tShould be consistent.", success)
		}

		t.Logf("\tWhen alice sends 1000 to bob.")
		{
			latest, _ := f.state.RetrieveLatestBlock()

			_, err := f.send(t, f.alice, f.bob, 1000)
			if !errors.Is(err, wallet.ErrInsufficientFunds) {
				t.Fatalf("\t%s\tShould be rejected by the wallet: %v", failed, err)
			}
			t.Logf("\t%s\tShould be rejected by the wallet.", success)

			after, _ := f.state.RetrieveLatestBlock()
			if after.Hash != latest.Hash || !balances(50, 50) {
				t.Fatalf("\t%s\tShould leave the chain unchanged.", failed)
			}
			t.Logf("\t%s\tShould leave the chain unchanged.", success)
		}

		t.Logf("\tWhen bob sends 20 to alice.")
		{
			if _, err := f.send(t, f.bob, f.alice, 20); err != nil {
				t.Fatalf("\t%s\tShould be able to send: %v", failed, err)
			}

			if !balances(70, 30) {
				t.Fatalf("\t%s\tShould have alice=70 bob=30.", failed)
			}
			t.Logf("\t%s\tShould have alice=70 bob=30.", success)

			if !f.state.IsConsistent() {
				t.Fatalf("\t%s\tShould be consistent.", failed)
			}
			t.Logf("\t%s\tShould be consistent.", success)
		}

		t.Logf("\tWhen querying the chain.")
		{
			if blocks := f.state.QueryBlocksByNumber(0, state.QueryLatest); len(blocks) != 3 {
				t.Fatalf("\t%s\tShould get 3 blocks, got %d.", failed, len(blocks))
			}

			blocks, err := f.state.QueryBlocksByKey(f.bob.PublicKey())
			if err != nil || len(blocks) != 2 {
				t.Fatalf("\t%s\tShould get bob's 2 blocks: %v", failed, err)
			}

			if utxos := f.state.QueryUTXOs(""); len(utxos) != 3 {
				t.Fatalf("\t%s\tShould get 3 unspent outputs, got %d.", failed, len(utxos))
			}
			t.Logf("\t%s\tShould be able to query blocks and outputs.", success)
		}
	}
}

func Test_Drafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Log("Given the need to build blocks from drafts.")
	{
		if _, err := f.state.CreateNextBlock(); !errors.Is(err, database.ErrEmptyChain) {
			t.Fatalf("\t%s\tShould not create a next block on an empty chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould not create a next block on an empty chain.", success)

		if _, err := f.state.MineGenesisBlock(ctx, f.issuer.PrivateKey(), f.alice.PublicKey()); err != nil {
			t.Fatalf("\t%s\tShould be able to mine the genesis block: %v", failed, err)
		}

		first, err := f.state.CreateNextBlock()
		ifErrFailNow(t, err)
		second, err := f.state.CreateNextBlock()
		ifErrFailNow(t, err)

		tx1, err := f.alice.Send(f.state, f.bob.PublicKey(), 10)
		ifErrFailNow(t, err)
		tx2, err := f.alice.Send(f.state, f.bob.PublicKey(), 20)
		ifErrFailNow(t, err)

		ifErrFailNow(t, first.AddTransaction(&tx1))
		ifErrFailNow(t, second.AddTransaction(&tx2))

		if f.alice.Balance(f.state) != 100 {
			t.Fatalf("\t%s\tShould not change the chain before a draft is mined.", failed)
		}
		t.Logf("\t%s\tShould not change the chain before a draft is mined.", success)

		if _, err := f.state.AddAndMineBlock(ctx, first); err != nil {
			t.Fatalf("\t%s\tShould be able to mine the first draft: %v", failed, err)
		}

		if _, err := f.state.AddAndMineBlock(ctx, second); !errors.Is(err, database.ErrStaleBlock) {
			t.Fatalf("\t%s\tShould reject a draft built on an older block: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a draft built on an older block.", success)

		if err := first.AddTransaction(&tx2); !errors.Is(err, database.ErrBlockSealed) {
			t.Fatalf("\t%s\tShould not add to a mined draft: %v", failed, err)
		}
		t.Logf("\t%s\tShould not add to a mined draft.", success)

		if f.alice.Balance(f.state) != 90 || !f.state.IsConsistent() {
			t.Fatalf("\t%s\tShould only apply the mined draft.", failed)
		}
		t.Logf("\t%s\tShould only apply the mined draft.", success)
	}
}

func Test_MineNewBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Log("Given the need to mine wallet transactions from the mempool.")
	{
		if _, err := f.state.MineGenesisBlock(ctx, f.issuer.PrivateKey(), f.alice.PublicKey()); err != nil {
			t.Fatalf("\t%s\tShould be able to mine the genesis block: %v", failed, err)
		}

		if _, err := f.state.MineNewBlock(ctx); !errors.Is(err, state.ErrNoTransactions) {
			t.Fatalf("\t%s\tShould not mine an empty mempool: %v", failed, err)
		}
		t.Logf("\t%s\tShould not mine an empty mempool.", success)

		tx1, err := f.alice.Send(f.state, f.bob.PublicKey(), 40)
		ifErrFailNow(t, err)
		tx2, err := f.alice.Send(f.state, f.bob.PublicKey(), 30)
		ifErrFailNow(t, err)

		ifErrFailNow(t, f.state.SubmitWalletTransaction(tx1))
		ifErrFailNow(t, f.state.SubmitWalletTransaction(tx2))

		bad := tx1
		bad.Value = 99
		if err := f.state.SubmitWalletTransaction(bad); !errors.Is(err, database.ErrSignatureInvalid) {
			t.Fatalf("\t%s\tShould reject a tampered transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a tampered transaction.", success)

		if n := len(f.state.QueryMempool()); n != 2 {
			t.Fatalf("\t%s\tShould hold 2 transactions, got %d.", failed, n)
		}

		block, err := f.state.MineNewBlock(ctx)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine the mempool: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to mine the mempool.", success)

		// Both spend the coinbase output so only the first makes it.
		if len(block.Transactions) != 1 || f.state.QueryMempoolLength() != 0 {
			t.Fatalf("\t%s\tShould mine one transaction and drop the double spend.", failed)
		}
		t.Logf("\t%s\tShould mine one transaction and drop the double spend.", success)

		if f.bob.Balance(f.state) != 40 || !f.state.IsConsistent() {
			t.Fatalf("\t%s\tShould apply the first transaction.", failed)
		}
		t.Logf("\t%s\tShould apply the first transaction.", success)
	}
}

func Test_ConsistencyCheck(t *testing.T) {
	type table struct {
		name   string
		tamper func(block *database.Block)
		err    error
	}

	tt := []table{
		{name: "timestamp", tamper: func(b *database.Block) { b.Timestamp++ }, err: database.ErrHashMismatch},
		{name: "merkle", tamper: func(b *database.Block) { b.MerkleRoot = "" }, err: database.ErrHashMismatch},
		{name: "previous", tamper: func(b *database.Block) { b.PreviousHash = b.Hash }, err: database.ErrHashMismatch},
		{name: "outputs", tamper: func(b *database.Block) {
			tx := b.Transactions[0]
			tx.Outputs = append([]database.Output(nil), tx.Outputs...)
			tx.Outputs[0].Value, tx.Outputs[1].Value = tx.Outputs[1].Value+10, tx.Outputs[0].Value-10
			b.Transactions = []database.Tx{tx}
		}, err: database.ErrMerkleRootMismatch},
	}

	t.Log("Given the need to detect a tampered chain.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				fx := newFixture(t)
				ctx := context.Background()

				_, err := fx.state.MineGenesisBlock(ctx, fx.issuer.PrivateKey(), fx.alice.PublicKey())
				ifErrFailNow(t, err)
				_, err = fx.send(t, fx.alice, fx.bob, 50)
				ifErrFailNow(t, err)

				fx.strg.tamper = func(b *database.Block) {
					if b.Index == 1 {
						tst.tamper(b)
					}
				}

				err = fx.state.ConsistencyCheck()
				if !errors.Is(err, tst.err) {
					t.Fatalf("\t%s\tTest %d:\tShould fail with %v: got %v", failed, testID, tst.err, err)
				}

				var ce *database.ConsistencyError
				if !errors.As(err, &ce) || ce.BlockIndex != 1 {
					t.Fatalf("\t%s\tTest %d:\tShould identify block 1: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould fail with %v at block 1.", success, testID, tst.err)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_ConsistencyCheckUTXOSet(t *testing.T) {
	t.Log("Given the need to compare the derived set with the live set.")
	{
		fx := newFixture(t)
		ctx := context.Background()

		_, err := fx.state.MineGenesisBlock(ctx, fx.issuer.PrivateKey(), fx.alice.PublicKey())
		ifErrFailNow(t, err)
		_, err = fx.send(t, fx.alice, fx.bob, 50)
		ifErrFailNow(t, err)

		if err := fx.state.ConsistencyCheck(); err != nil {
			t.Fatalf("\t%s\tShould pass before storage loses a block: %v", failed, err)
		}
		t.Logf("\t%s\tShould pass before storage loses a block.", success)

		// Storage now only returns the genesis block while the live set
		// still holds the spend from block 1.
		fx.strg.limit = 1

		err = fx.state.ConsistencyCheck()
		if !errors.Is(err, database.ErrUTXOSetMismatch) {
			t.Fatalf("\t%s\tShould fail with %v: got %v", failed, database.ErrUTXOSetMismatch, err)
		}

		var ce *database.ConsistencyError
		if !errors.As(err, &ce) || ce.BlockIndex != 0 || ce.TxIndex != database.NoTx {
			t.Fatalf("\t%s\tShould report the last block read: %v", failed, err)
		}
		t.Logf("\t%s\tShould fail with %v at the last block read.", success, database.ErrUTXOSetMismatch)
	}
}
