// Package testing provides test infrastructure for settlement engine tests.
//
// It offers a deterministic environment in the style of a jtx harness:
// named accounts, a manual clock, an in-memory engine with the vault
// registry, marketplace and wallet wired up, and result assertions.
//
// # Basic Usage
//
//	func TestBuyout(t *testing.T) {
//	    env := testing.NewTestEnv(t)
//
//	    owner := testing.NewAccount("owner")
//	    buyer := testing.NewAccount("buyer")
//	    env.Fund(1000, buyer)
//
//	    id := env.Fractionalize(owner, "Punk")
//	    result := env.Submit(&vault.MakeOffer{
//	        Buyer: buyer.Address, VaultID: id,
//	        Duration: 2 * 24 * time.Hour, Payment: amount.Units(1000),
//	    })
//	    testing.RequireTxSuccess(t, result)
//	}
//
// # Clock Control
//
// The engine reads time from a ManualClock:
//
//	env.AdvanceTime(3 * 24 * time.Hour)
//	env.Now()
package testing
