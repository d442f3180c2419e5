// Package keylet computes the state keys of every entry the engine stores.
// A key is the SHA512-Half of a two-byte namespace followed by the fields
// that identify the entry.
package keylet

import (
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"

	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/holiman/uint256"
)

// Type identifies the kind of entry stored under a key.
type Type uint16

const (
	TypeAccount Type = iota + 1
	TypeShareLedger
	TypeShareBalance
	TypeShareAllowance
	TypeAsset
	TypeAssetApproval
	TypeVault
	TypeVaultIndex
	TypeVaultByAsset
	TypeAcceptance
	TypeMarket
	TypeSellOrder
)

var typeNames = map[Type]string{
	TypeAccount:        "Account",
	TypeShareLedger:    "ShareLedger",
	TypeShareBalance:   "ShareBalance",
	TypeShareAllowance: "ShareAllowance",
	TypeAsset:          "Asset",
	TypeAssetApproval:  "AssetApproval",
	TypeVault:          "Vault",
	TypeVaultIndex:     "VaultIndex",
	TypeVaultByAsset:   "VaultByAsset",
	TypeAcceptance:     "Acceptance",
	TypeMarket:         "Market",
	TypeSellOrder:      "SellOrder",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// Space identifiers for key generation
const (
	spaceAccount       uint16 = 'a'
	spaceShareLedger   uint16 = 'L'
	spaceShareBalance  uint16 = 'h'
	spaceAllowance     uint16 = 'w'
	spaceAsset         uint16 = 'n'
	spaceAssetApproval uint16 = 'p'
	spaceVault         uint16 = 'V'
	spaceVaultIndex    uint16 = 'v'
	spaceVaultByAsset  uint16 = 'x'
	spaceAcceptance    uint16 = 'c'
	spaceMarket        uint16 = 'm'
	spaceSellOrder     uint16 = 'o'
)

// Keylet represents an addressable location in the state.
type Keylet struct {
	Type Type
	Key  [32]byte
}

// String returns the entry type and hex key, for logs and errors.
func (k Keylet) String() string {
	return k.Type.String() + ":" + hex.EncodeToString(k.Key[:])
}

func indexHash(space uint16, data ...[]byte) [32]byte {
	h := sha512.New()
	var spaceBytes [2]byte
	binary.BigEndian.PutUint16(spaceBytes[:], space)
	h.Write(spaceBytes[:])
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil)[:32])
	return out
}

func u64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func u256(v *uint256.Int) []byte {
	b := v.Bytes32()
	return b[:]
}

// Account returns the keylet of a native-currency account.
func Account(addr types.Address) Keylet {
	return Keylet{Type: TypeAccount, Key: indexHash(spaceAccount, addr[:])}
}

// ShareLedger returns the keylet of the share ledger bound to a vault.
// Its Key doubles as the ledger identity.
func ShareLedger(vaultID uint64) Keylet {
	return Keylet{Type: TypeShareLedger, Key: indexHash(spaceShareLedger, u64(vaultID))}
}

// ShareBalance returns the keylet of a holder's balance in a share ledger.
func ShareBalance(ledger [32]byte, holder types.Address) Keylet {
	return Keylet{Type: TypeShareBalance, Key: indexHash(spaceShareBalance, ledger[:], holder[:])}
}

// ShareAllowance returns the keylet of the amount spender may pull from owner.
func ShareAllowance(ledger [32]byte, owner, spender types.Address) Keylet {
	return Keylet{Type: TypeShareAllowance, Key: indexHash(spaceAllowance, ledger[:], owner[:], spender[:])}
}

// Asset returns the keylet of a collectible's ownership record.
func Asset(collection types.Address, assetID *uint256.Int) Keylet {
	return Keylet{Type: TypeAsset, Key: indexHash(spaceAsset, collection[:], u256(assetID))}
}

// AssetApproval returns the keylet of an operator approval over all of
// owner's assets in a collection.
func AssetApproval(collection, owner, operator types.Address) Keylet {
	return Keylet{Type: TypeAssetApproval, Key: indexHash(spaceAssetApproval, collection[:], owner[:], operator[:])}
}

// Vault returns the keylet of a vault.
func Vault(id uint64) Keylet {
	return Keylet{Type: TypeVault, Key: indexHash(spaceVault, u64(id))}
}

// VaultIndex returns the singleton keylet holding the vault count.
func VaultIndex() Keylet {
	return Keylet{Type: TypeVaultIndex, Key: indexHash(spaceVaultIndex)}
}

// VaultByAsset returns the keylet mapping a custodied asset to its vault.
func VaultByAsset(collection types.Address, assetID *uint256.Int) Keylet {
	return Keylet{Type: TypeVaultByAsset, Key: indexHash(spaceVaultByAsset, collection[:], u256(assetID))}
}

// Acceptance returns the keylet of the shares a holder delegated toward
// the current offer on a vault.
func Acceptance(vaultID uint64, holder types.Address) Keylet {
	return Keylet{Type: TypeAcceptance, Key: indexHash(spaceAcceptance, u64(vaultID), holder[:])}
}

// Market returns the keylet of the marketplace bound to a share ledger.
func Market(ledger [32]byte) Keylet {
	return Keylet{Type: TypeMarket, Key: indexHash(spaceMarket, ledger[:])}
}

// SellOrder returns the keylet of a seller's standing order in a market.
func SellOrder(ledger [32]byte, seller types.Address) Keylet {
	return Keylet{Type: TypeSellOrder, Key: indexHash(spaceSellOrder, ledger[:], seller[:])}
}
