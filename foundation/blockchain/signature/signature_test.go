package signature_test

import (
	"strings"
	"testing"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	otherKey = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
)

// =============================================================================

func Test_Signing(t *testing.T) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	const message = "04aa04bb100"

	sig, err := signature.Sign(pk, message)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if !signature.Verify(&pk.PublicKey, message, sig) {
		t.Fatalf("Should be able to verify the signature.")
	}

	if signature.Verify(&pk.PublicKey, message+"0", sig) {
		t.Fatalf("Should not verify the signature for different data.")
	}

	other, err := crypto.HexToECDSA(otherKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	if signature.Verify(&other.PublicKey, message, sig) {
		t.Fatalf("Should not verify the signature with a different key.")
	}

	str := signature.SignatureString(sig)
	back, err := signature.FromSignatureString(str)
	if err != nil {
		t.Fatalf("Should be able to decode the signature string: %s", err)
	}

	if !signature.Verify(&pk.PublicKey, message, back) {
		t.Fatalf("Should be able to verify the decoded signature.")
	}
}

func Test_Hash(t *testing.T) {

	// HMAC-SHA256 with an empty key over "abc".
	const exp = "fd7adb152c05ef80dccf50a1fa4c05d5a3ec6da95575fc312ae7c5d091836351"

	h := signature.Hash("abc", "")
	if h != exp {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", exp)
		t.Fatalf("Should get back the right hash.")
	}

	if h != signature.Hash("abc", "") {
		t.Fatalf("Should get back the same hash twice.")
	}

	if h == signature.Hash("abc", "key") {
		t.Fatalf("Should get a different hash with a different key.")
	}

	if h != strings.ToLower(h) || len(h) != 64 {
		t.Fatalf("Should get back 64 lowercase hex characters: %s", h)
	}
}

func Test_KeyHex(t *testing.T) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	keyHex := signature.KeyHex(&pk.PublicKey)
	if len(keyHex) != 130 || !strings.HasPrefix(keyHex, "04") {
		t.Fatalf("Should get the uncompressed key encoding: %s", keyHex)
	}

	pub, err := signature.KeyFromHex(keyHex)
	if err != nil {
		t.Fatalf("Should be able to decode the key: %s", err)
	}

	if !pub.Equal(&pk.PublicKey) {
		t.Fatalf("Should get back the same public key.")
	}
}
