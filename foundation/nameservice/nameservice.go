// Package nameservice reads the zblock/accounts folder and creates a name
// service lookup for the demo wallets.
package nameservice

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/crypto"
)

// NameService maintains a map of public keys for name lookup.
type NameService struct {
	names map[database.PublicKey]string
	keys  map[string]database.PublicKey
	files map[string]string
}

// New constructs a name service with the keys from the zblock/accounts folder.
func New(root string) (*NameService, error) {
	ns := NameService{
		names: make(map[database.PublicKey]string),
		keys:  make(map[string]database.PublicKey),
		files: make(map[string]string),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != ".ecdsa" {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return err
		}

		name := strings.TrimSuffix(path.Base(fileName), ".ecdsa")
		pk := database.ToPublicKey(privateKey.PublicKey)

		ns.names[pk] = name
		ns.keys[name] = pk
		ns.files[name] = fileName

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified key, or the short form of the
// key when it has no name.
func (ns *NameService) Lookup(pk database.PublicKey) string {
	name, exists := ns.names[pk]
	if !exists {
		return pk.Short()
	}
	return name
}

// Key returns the public key registered under the name.
func (ns *NameService) Key(name string) (database.PublicKey, bool) {
	pk, exists := ns.keys[name]
	return pk, exists
}

// File returns the path of the key file registered under the name.
func (ns *NameService) File(name string) (string, bool) {
	file, exists := ns.files[name]
	return file, exists
}

// Resolve accepts either a registered name or a hex encoded public key.
func (ns *NameService) Resolve(nameOrKey string) (database.PublicKey, error) {
	if pk, exists := ns.keys[nameOrKey]; exists {
		return pk, nil
	}

	return database.ParsePublicKey(nameOrKey)
}

// Copy returns a copy of the map of names and keys.
func (ns *NameService) Copy() map[database.PublicKey]string {
	cpy := make(map[database.PublicKey]string, len(ns.names))
	for pk, name := range ns.names {
		cpy[pk] = name
	}
	return cpy
}
