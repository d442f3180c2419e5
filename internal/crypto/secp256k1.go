// Package crypto holds the secp256k1 keys that sign RPC submissions and the
// derivation of account addresses from them.
package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Common error definitions
var (
	ErrInvalidSeed       = errors.New("invalid seed")
	ErrInvalidPublicKey  = errors.New("invalid public key")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrNonCanonical      = errors.New("signature is not canonical")
	ErrSignatureMismatch = errors.New("signature does not match message")
)

// KeyPair is a secp256k1 signing key and its compressed public key.
type KeyPair struct {
	private *secp256k1.PrivateKey
	public  []byte
}

// KeyPairFromSeed derives a key deterministically: the private scalar is
// Sha512Half(seed). The same seed always yields the same account.
func KeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	digest := Sha512Half(seed)
	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetBytes(&digest); overflow != 0 || scalar.IsZero() {
		return nil, ErrInvalidSeed
	}
	priv := secp256k1.NewPrivateKey(&scalar)
	return &KeyPair{
		private: priv,
		public:  priv.PubKey().SerializeCompressed(),
	}, nil
}

// PublicKey returns the 33-byte compressed public key.
func (k *KeyPair) PublicKey() []byte {
	out := make([]byte, len(k.public))
	copy(out, k.public)
	return out
}

// PublicKeyHex returns the compressed public key in upper-case hex.
func (k *KeyPair) PublicKeyHex() string {
	return strings.ToUpper(hex.EncodeToString(k.public))
}

// Address is the account the key signs for.
func (k *KeyPair) Address() types.Address {
	return AccountID(k.public)
}

// Sign signs Sha512Half(message) and returns the DER signature. The
// signature is deterministic (RFC 6979) and canonical.
func (k *KeyPair) Sign(message []byte) []byte {
	digest := Sha512Half(message)
	return ecdsa.Sign(k.private, digest[:]).Serialize()
}

// SignHex is Sign encoded as upper-case hex.
func (k *KeyPair) SignHex(message []byte) string {
	return strings.ToUpper(hex.EncodeToString(k.Sign(message)))
}

// ParsePublicKey decodes a hex compressed secp256k1 public key.
func ParsePublicKey(publicKeyHex string) ([]byte, error) {
	raw, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(raw) != secp256k1.PubKeyBytesLenCompressed {
		return nil, ErrInvalidPublicKey
	}
	if _, err := secp256k1.ParsePubKey(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return raw, nil
}

// Verify checks a hex DER signature over Sha512Half(message). Signatures
// with a high S value are rejected so a signature cannot be altered into a
// second valid one.
func Verify(message []byte, publicKeyHex, signatureHex string) error {
	raw, err := ParsePublicKey(publicKeyHex)
	if err != nil {
		return err
	}
	pub, err := secp256k1.ParsePubKey(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	sigBytes, err := hex.DecodeString(signatureHex)
	if err != nil || len(sigBytes) == 0 {
		return ErrInvalidSignature
	}
	sig, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	s := sig.S()
	if s.IsOverHalfOrder() {
		return ErrNonCanonical
	}

	digest := Sha512Half(message)
	if !sig.Verify(digest[:], pub) {
		return ErrSignatureMismatch
	}
	return nil
}
