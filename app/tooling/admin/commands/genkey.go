package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
)

// GenKey writes a new private key for the named account into the folder.
func GenKey(name string, accountPath string) error {
	if name == "" {
		return errors.New("missing account name")
	}

	path := filepath.Join(accountPath, name+".ecdsa")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("key file %s already exists", path)
	}

	w, err := wallet.New(name)
	if err != nil {
		return err
	}

	if err := w.Save(path); err != nil {
		return err
	}

	fmt.Printf("Account: %s  Key: %s\n", name, w.PublicKey())

	return nil
}
