// Package wallet holds a key pair and builds signed transactions that spend
// the unspent outputs it owns.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// ErrInsufficientFunds is returned when the wallet does not own enough
// value to cover a send. No transaction is built.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Ledger represents the behavior the wallet needs to find its outputs.
type Ledger interface {
	QueryUTXOs(pk database.PublicKey) []database.Output
}

// =============================================================================

// Wallet is a named key pair.
type Wallet struct {
	name       string
	privateKey *ecdsa.PrivateKey
	publicKey  database.PublicKey
}

// New generates a wallet with a new random key pair.
func New(name string) (*Wallet, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	return fromKey(name, privateKey), nil
}

// Load reads the hex encoded private key stored in the file.
func Load(name string, path string) (*Wallet, error) {
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("loading key %q: %w", path, err)
	}

	return fromKey(name, privateKey), nil
}

// FromHex constructs a wallet from a hex encoded private key.
func FromHex(name string, hexKey string) (*Wallet, error) {
	privateKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parsing key: %w", err)
	}

	return fromKey(name, privateKey), nil
}

// Save writes the private key to the file as hex.
func (w *Wallet) Save(path string) error {
	return crypto.SaveECDSA(path, w.privateKey)
}

// Name returns the name of the wallet.
func (w *Wallet) Name() string {
	return w.name
}

// PublicKey returns the wallet's address.
func (w *Wallet) PublicKey() database.PublicKey {
	return w.publicKey
}

// PrivateKey returns the wallet's signing key.
func (w *Wallet) PrivateKey() *ecdsa.PrivateKey {
	return w.privateKey
}

// Balance returns the value of the outputs the wallet owns.
func (w *Wallet) Balance(ledger Ledger) uint64 {
	var total uint64
	for _, out := range ledger.QueryUTXOs(w.publicKey) {
		total += out.Value
	}
	return total
}

// Send builds and signs a transaction moving value to the recipient. Owned
// outputs are gathered in id order until they cover the value.
func (w *Wallet) Send(ledger Ledger, recipient database.PublicKey, value uint64) (database.Tx, error) {
	var total uint64
	var inputs []database.Input
	for _, out := range ledger.QueryUTXOs(w.publicKey) {
		if total >= value && len(inputs) > 0 {
			break
		}
		total += out.Value
		inputs = append(inputs, database.NewInput(out.ID))
	}

	if len(inputs) == 0 || total < value {
		return database.Tx{}, fmt.Errorf("%w: balance %d, value %d", ErrInsufficientFunds, total, value)
	}

	tx, err := database.NewTx(w.publicKey, recipient, value, uuid.NewString(), inputs)
	if err != nil {
		return database.Tx{}, err
	}

	return tx.Sign(w.privateKey)
}

// =============================================================================

func fromKey(name string, privateKey *ecdsa.PrivateKey) *Wallet {
	return &Wallet{
		name:       name,
		privateKey: privateKey,
		publicKey:  database.ToPublicKey(privateKey.PublicKey),
	}
}
