package wallet_test

import (
	"path/filepath"
	"testing"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ledger serves outputs straight from a UTXO set.
type ledger struct {
	utxos *database.UTXOSet
}

func (l ledger) QueryUTXOs(pk database.PublicKey) []database.Output {
	return l.utxos.Owned(pk)
}

func TestSend(t *testing.T) {
	alice, err := wallet.FromHex("alice", "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0")
	require.NoError(t, err)

	bob, err := wallet.New("bob")
	require.NoError(t, err)

	l := ledger{utxos: database.NewUTXOSet(
		database.NewOutput(alice.PublicKey(), 30, "tx1"),
		database.NewOutput(alice.PublicKey(), 50, "tx2"),
		database.NewOutput(bob.PublicKey(), 5, "tx3"),
	)}

	assert.Equal(t, uint64(80), alice.Balance(l))
	assert.Equal(t, uint64(5), bob.Balance(l))

	t.Run("covered", func(t *testing.T) {
		tx, err := alice.Send(l, bob.PublicKey(), 60)
		require.NoError(t, err)

		assert.Equal(t, alice.PublicKey(), tx.Sender)
		assert.Equal(t, bob.PublicKey(), tx.Recipient)
		assert.Len(t, tx.Inputs, 2)
		assert.NotEmpty(t, tx.Nonce)
		assert.Empty(t, tx.ID)
		assert.NoError(t, tx.VerifySignature())

		committed, err := tx.Process(l.utxos.Copy(), 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(60), committed.Outputs[0].Value)
		assert.Equal(t, uint64(20), committed.Outputs[1].Value)
	})

	t.Run("unique", func(t *testing.T) {
		tx1, err := alice.Send(l, bob.PublicKey(), 10)
		require.NoError(t, err)
		tx2, err := alice.Send(l, bob.PublicKey(), 10)
		require.NoError(t, err)

		assert.NotEqual(t, tx1.Nonce, tx2.Nonce)
	})

	t.Run("insufficient", func(t *testing.T) {
		_, err := alice.Send(l, bob.PublicKey(), 1000)
		assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)

		_, err = bob.Send(l, alice.PublicKey(), 6)
		assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)
	})
}

func TestSaveLoad(t *testing.T) {
	w, err := wallet.New("carol")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "carol.ecdsa")
	require.NoError(t, w.Save(path))

	loaded, err := wallet.Load("carol", path)
	require.NoError(t, err)

	assert.Equal(t, w.PublicKey(), loaded.PublicKey())
	assert.Equal(t, "carol", loaded.Name())
}
