package database

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
)

// PublicKey is the hex encoded, uncompressed public key of an owner. It is
// a value type so ownership is decided by comparing key bytes, never by
// comparing key instances.
type PublicKey string

// ToPublicKey converts the public key to its value form.
func ToPublicKey(pk ecdsa.PublicKey) PublicKey {
	return PublicKey(signature.KeyHex(&pk))
}

// ParsePublicKey validates the hex-encoded string is a public key and
// returns it in canonical lowercase form, so any spelling of the same key
// bytes produces the same owner.
func ParsePublicKey(hex string) (PublicKey, error) {
	key, err := signature.KeyFromHex(hex)
	if err != nil {
		return "", fmt.Errorf("invalid public key format: %w", err)
	}

	return ToPublicKey(*key), nil
}

// IsCanonical reports whether the key decodes and is already spelled the
// way ToPublicKey renders it.
func (pk PublicKey) IsCanonical() bool {
	key, err := pk.ECDSA()
	if err != nil {
		return false
	}
	return ToPublicKey(*key) == pk
}

// ECDSA returns the key in a form usable for signature verification.
func (pk PublicKey) ECDSA() (*ecdsa.PublicKey, error) {
	return signature.KeyFromHex(string(pk))
}

// Short returns an abbreviated form of the key for logging.
func (pk PublicKey) Short() string {
	const size = 10

	// The first two characters are always the 04 uncompressed marker.
	if len(pk) < size+2 {
		return string(pk)
	}
	return string(pk[2:size+2]) + "..."
}
