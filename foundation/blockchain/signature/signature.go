// Package signature provides helper functions for handling the blockchain
// hashing and signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidSignature is returned when a signature can't be produced or
// doesn't have the expected [R|S|V] length.
var ErrInvalidSignature = errors.New("invalid signature")

// =============================================================================

// Hash returns the HMAC-SHA256 of the message using the specified key, encoded
// as lowercase hex. An empty key still produces a keyed hash, not a bare
// SHA256. Ids, block hashes and merkle nodes all go through this function.
func Hash(message string, key string) string {
	return hex.EncodeToString(HashBytes([]byte(message), []byte(key)))
}

// HashBytes is the raw form of Hash.
func HashBytes(message []byte, key []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}

// Sign uses the specified private key to sign the message. The message is
// digested with SHA256 before the secp256k1 ECDSA signature is produced.
func Sign(privateKey *ecdsa.PrivateKey, message string) ([]byte, error) {
	if privateKey == nil {
		return nil, errors.New("private key is required")
	}

	digest := sha256.Sum256([]byte(message))

	sig, err := crypto.Sign(digest[:], privateKey)
	if err != nil {
		return nil, err
	}

	// Make sure what was produced verifies with the matching public key.
	if !Verify(&privateKey.PublicKey, message, sig) {
		return nil, ErrInvalidSignature
	}

	return sig, nil
}

// Verify checks the signature was produced over the message by the private
// key matching the specified public key.
func Verify(publicKey *ecdsa.PublicKey, message string, sig []byte) bool {
	if publicKey == nil || len(sig) < crypto.RecoveryIDOffset {
		return false
	}

	digest := sha256.Sum256([]byte(message))

	// The recovery byte is not part of the ECDSA verification.
	return crypto.VerifySignature(crypto.FromECDSAPub(publicKey), digest[:], sig[:crypto.RecoveryIDOffset])
}

// KeyHex returns the lowercase hex form of the uncompressed public key bytes.
func KeyHex(publicKey *ecdsa.PublicKey) string {
	return hex.EncodeToString(crypto.FromECDSAPub(publicKey))
}

// KeyFromHex converts the hex form of the uncompressed public key bytes back
// into a public key.
func KeyFromHex(keyHex string) (*ecdsa.PublicKey, error) {
	b, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, err
	}

	return crypto.UnmarshalPubkey(b)
}

// SignatureString returns the signature as a 0x prefixed string.
func SignatureString(sig []byte) string {
	return hexutil.Encode(sig)
}

// FromSignatureString converts the 0x prefixed form back into bytes.
func FromSignatureString(sigStr string) ([]byte, error) {
	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return nil, err
	}

	if len(sig) != crypto.SignatureLength {
		return nil, ErrInvalidSignature
	}

	return sig, nil
}
