package nameservice_test

import (
	"path/filepath"
	"testing"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
	"github.com/ardanlabs/utxoledger/foundation/nameservice"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_NameService(t *testing.T) {
	t.Log("Given the need to resolve names from a folder of key files.")
	{
		dir := t.TempDir()

		alice, err := wallet.New("alice")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a wallet: %v", failed, err)
		}
		if err := alice.Save(filepath.Join(dir, "alice.ecdsa")); err != nil {
			t.Fatalf("\t%s\tShould be able to save the key: %v", failed, err)
		}

		ns, err := nameservice.New(dir)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the folder: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to load the folder.", success)

		if ns.Lookup(alice.PublicKey()) != "alice" {
			t.Fatalf("\t%s\tShould find the name for the key.", failed)
		}
		if pk, exists := ns.Key("alice"); !exists || pk != alice.PublicKey() {
			t.Fatalf("\t%s\tShould find the key for the name.", failed)
		}
		t.Logf("\t%s\tShould map names and keys both ways.", success)

		if pk, err := ns.Resolve(string(alice.PublicKey())); err != nil || pk != alice.PublicKey() {
			t.Fatalf("\t%s\tShould resolve a raw key: %v", failed, err)
		}
		if _, err := ns.Resolve("nobody"); err == nil {
			t.Fatalf("\t%s\tShould fail to resolve an unknown name.", failed)
		}
		t.Logf("\t%s\tShould resolve names and raw keys.", success)
	}
}
