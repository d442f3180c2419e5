package testing

import (
	"testing"

	"github.com/LeJamon/goFracVault/internal/core/events"
	"github.com/LeJamon/goFracVault/internal/core/tx"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

// RequireTxSuccess asserts that an operation result indicates success.
func RequireTxSuccess(t *testing.T, result TxResult) {
	t.Helper()
	require.True(t, result.Success,
		"Expected operation success, got %s: %s", result.Code, result.Message)
	require.Equal(t, tx.TesSUCCESS, result.Code,
		"Expected tesSUCCESS, got %s: %s", result.Code, result.Message)
}

// RequireTxFail asserts that an operation failed with a specific code.
func RequireTxFail(t *testing.T, result TxResult, expectedCode tx.Result) {
	t.Helper()
	require.False(t, result.Success,
		"Expected operation failure with code %s, but it succeeded", expectedCode)
	require.Equal(t, expectedCode, result.Code,
		"Expected failure code %s, got %s: %s", expectedCode, result.Code, result.Message)
}

// RequireBalance asserts an account's native balance.
func RequireBalance(t *testing.T, env *TestEnv, acc *Account, expected *uint256.Int) {
	t.Helper()
	actual := env.Balance(acc)
	require.True(t, expected.Eq(actual),
		"Account %s balance mismatch: expected %s, got %s", acc.Name, expected.Dec(), actual.Dec())
}

// RequireShares asserts an account's share balance in a vault.
func RequireShares(t *testing.T, env *TestEnv, vaultID uint64, acc *Account, expected *uint256.Int) {
	t.Helper()
	actual := env.ShareBalance(vaultID, acc)
	require.True(t, expected.Eq(actual),
		"Account %s shares in vault %d: expected %s, got %s", acc.Name, vaultID, expected.Dec(), actual.Dec())
}

// RequireEvent asserts that the result emitted an event of type typ and
// returns the first one.
func RequireEvent(t *testing.T, result TxResult, typ events.Type) events.Event {
	t.Helper()
	for _, ev := range result.Events {
		if ev.Type == typ {
			return ev
		}
	}
	require.Failf(t, "missing event", "no %s event among %d", typ, len(result.Events))
	return events.Event{}
}
