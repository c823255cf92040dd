package worker_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/state"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/storage/memory"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/worker"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Mining(t *testing.T) {
	t.Log("Given the need to mine submitted transactions in the background.")
	{
		strg, err := memory.New()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct storage: %v", failed, err)
		}

		st, err := state.New(state.Config{
			Genesis: genesis.Genesis{
				Difficulty:              1,
				MinimumTransactionValue: 1,
				Coinbase:                genesis.Coinbase{Issuer: "issuer", Recipient: "alice", Value: 100},
			},
			Storage: strg,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
		}

		issuer, _ := wallet.New("issuer")
		alice, _ := wallet.New("alice")
		bob, _ := wallet.New("bob")

		if _, err := st.MineGenesisBlock(context.Background(), issuer.PrivateKey(), alice.PublicKey()); err != nil {
			t.Fatalf("\t%s\tShould be able to mine the genesis block: %v", failed, err)
		}

		w := worker.Run(st, nil)
		t.Logf("\t%s\tShould be able to start the worker.", success)

		tx, err := alice.Send(st, bob.PublicKey(), 25)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the transaction: %v", failed, err)
		}

		if err := st.SubmitWalletTransaction(tx); err != nil {
			t.Fatalf("\t%s\tShould be able to submit the transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to submit the transaction.", success)

		deadline := time.Now().Add(10 * time.Second)
		for bob.Balance(st) != 25 || st.QueryMempoolLength() != 0 {
			if time.Now().After(deadline) {
				t.Fatalf("\t%s\tShould mine the transaction in the background.", failed)
			}
			time.Sleep(10 * time.Millisecond)
		}
		t.Logf("\t%s\tShould mine the transaction in the background.", success)

		if !st.IsConsistent() {
			t.Fatalf("\t%s\tShould leave a consistent chain.", failed)
		}
		t.Logf("\t%s\tShould leave a consistent chain.", success)

		done := w.SignalCancelMining()
		done()

		if err := st.Shutdown(); err != nil {
			t.Fatalf("\t%s\tShould be able to shutdown: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to shutdown.", success)
	}
}

func Test_MiningTimeout(t *testing.T) {
	t.Log("Given the need to stop mining after the attempts run out.")
	{
		strg, err := memory.New()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct storage: %v", failed, err)
		}

		// One nonce per search at this difficulty almost never solves.
		st, err := state.New(state.Config{
			Genesis: genesis.Genesis{
				Difficulty:              4,
				MaxMiningAttempts:       1,
				MinimumTransactionValue: 1,
				Coinbase:                genesis.Coinbase{Issuer: "issuer", Recipient: "alice", Value: 100},
			},
			Storage: strg,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
		}

		issuer, _ := wallet.New("issuer")
		alice, _ := wallet.New("alice")
		bob, _ := wallet.New("bob")

		coinbase, err := database.NewCoinbaseTx(issuer.PrivateKey(), alice.PublicKey(), 100)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the coinbase: %v", failed, err)
		}

		draft := st.CreateGenesisBlock()
		if err := draft.AddTransaction(&coinbase); err != nil {
			t.Fatalf("\t%s\tShould be able to add the coinbase: %v", failed, err)
		}

		// The draft keeps the nonce reached, so each call tries the next one.
		for attempt := 0; ; attempt++ {
			_, err := st.AddAndMineBlock(context.Background(), draft)
			if err == nil {
				break
			}
			if attempt > 1<<22 {
				t.Fatalf("\t%s\tShould be able to mine the genesis block: %v", failed, err)
			}
		}
		t.Logf("\t%s\tShould be able to mine the genesis block one nonce at a time.", success)

		var started, exhausted atomic.Int32
		ev := func(v string, args ...any) {
			switch {
			case strings.HasPrefix(v, "worker: runMiningOperation: MINING: started"):
				started.Add(1)
			case strings.HasPrefix(v, "worker: runMiningOperation: MINING: WARNING: attempts exhausted"):
				exhausted.Add(1)
			}
		}

		w := worker.Run(st, ev)

		tx, err := alice.Send(st, bob.PublicKey(), 25)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the transaction: %v", failed, err)
		}

		if err := st.SubmitWalletTransaction(tx); err != nil {
			t.Fatalf("\t%s\tShould be able to submit the transaction: %v", failed, err)
		}

		deadline := time.Now().Add(10 * time.Second)
		for exhausted.Load() == 0 {
			if time.Now().After(deadline) {
				t.Fatalf("\t%s\tShould run out of mining attempts.", failed)
			}
			time.Sleep(10 * time.Millisecond)
		}
		t.Logf("\t%s\tShould run out of mining attempts.", success)

		time.Sleep(200 * time.Millisecond)

		if n := started.Load(); n != 1 {
			t.Fatalf("\t%s\tShould not restart the search after running out, got %d runs.", failed, n)
		}
		t.Logf("\t%s\tShould not restart the search after running out.", success)

		if st.QueryMempoolLength() != 1 {
			t.Fatalf("\t%s\tShould keep the transaction in the mempool.", failed)
		}
		t.Logf("\t%s\tShould keep the transaction in the mempool.", success)

		done := w.SignalCancelMining()
		done()

		if err := st.Shutdown(); err != nil {
			t.Fatalf("\t%s\tShould be able to shutdown: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to shutdown.", success)
	}
}
