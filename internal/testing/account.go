package testing

import (
	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/LeJamon/goFracVault/internal/crypto"
)

// Account is a named test account.
type Account struct {
	// Name is a human-readable identifier for the account (used for debugging).
	Name string

	// Key signs RPC submissions for the account.
	Key *crypto.KeyPair

	// Address is derived from Key, so the same name always yields the same
	// account.
	Address types.Address
}

// NewAccount creates a test account whose key is seeded with the name.
func NewAccount(name string) *Account {
	key, err := crypto.KeyPairFromSeed([]byte(name))
	if err != nil {
		panic("jtx: account " + name + ": " + err.Error())
	}
	return &Account{Name: name, Key: key, Address: key.Address()}
}

func (a *Account) String() string {
	return a.Name + "(" + a.Address.String() + ")"
}
