package testing

import (
	"github.com/LeJamon/goFracVault/internal/core/events"
	"github.com/LeJamon/goFracVault/internal/core/tx"
)

// TxResult represents the result of applying an operation.
type TxResult struct {
	// Code is the engine result code (e.g., tx.TesSUCCESS).
	Code tx.Result

	// Success indicates whether the operation was committed.
	Success bool

	// Message provides additional details about the result.
	Message string

	// Events are the records the operation emitted.
	Events []events.Event

	// Output is the operation's return value, if any.
	Output any
}

func resultOf(res *tx.ApplyResult, err error) TxResult {
	if res == nil {
		return TxResult{Code: tx.ResultOf(err), Message: errString(err)}
	}
	return TxResult{
		Code:    res.Result,
		Success: err == nil && res.Result.IsSuccess(),
		Message: res.Message,
		Events:  res.Events,
		Output:  res.Output,
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
