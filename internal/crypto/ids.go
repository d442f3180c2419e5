package crypto

import (
	"crypto/sha256"
	"crypto/sha512"

	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/decred/dcrd/crypto/ripemd160"
)

// Sha512Half returns the first 32 bytes of the SHA-512 digest of data.
func Sha512Half(data ...[]byte) [32]byte {
	h := sha512.New()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// AccountID computes the account address of a public key as
// RIPEMD160(SHA256(publicKey)).
func AccountID(publicKey []byte) types.Address {
	sum := sha256.Sum256(publicKey)
	hasher := ripemd160.New()
	hasher.Write(sum[:])

	var addr types.Address
	copy(addr[:], hasher.Sum(nil))
	return addr
}
