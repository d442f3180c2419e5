package keylet

import (
	"testing"

	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestKeyletsAreDistinct(t *testing.T) {
	alice := types.ModuleAddress("alice")
	bob := types.ModuleAddress("bob")
	ledger := ShareLedger(0).Key
	asset := uint256.NewInt(7)

	keys := []Keylet{
		Account(alice),
		Account(bob),
		ShareLedger(0),
		ShareLedger(1),
		ShareBalance(ledger, alice),
		ShareAllowance(ledger, alice, bob),
		ShareAllowance(ledger, bob, alice),
		Asset(alice, asset),
		AssetApproval(alice, bob, alice),
		Vault(0),
		VaultIndex(),
		VaultByAsset(alice, asset),
		Acceptance(0, alice),
		Acceptance(1, alice),
		Market(ledger),
		SellOrder(ledger, alice),
	}

	seen := make(map[[32]byte]string)
	for _, k := range keys {
		prev, dup := seen[k.Key]
		assert.False(t, dup, "key collision between %s and %s", prev, k)
		seen[k.Key] = k.String()
	}
}

func TestKeyletDeterministic(t *testing.T) {
	assert.Equal(t, Vault(3), Vault(3))
	assert.Equal(t, TypeVault, Vault(3).Type)
	assert.Equal(t, "Vault", Vault(3).Type.String())
	assert.Equal(t, "Unknown", Type(999).String())
}
