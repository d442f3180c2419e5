package rpc_types

import (
	"errors"

	"github.com/LeJamon/goFracVault/internal/core/custody"
	"github.com/LeJamon/goFracVault/internal/core/shares"
	"github.com/LeJamon/goFracVault/internal/core/tx/market"
	"github.com/LeJamon/goFracVault/internal/core/tx/vault"
)

// RpcError represents an RPC error with code and message
type RpcError struct {
	Code        int    `json:"error_code"`
	ErrorString string `json:"error"`
	Type        string `json:"type"`
	Message     string `json:"error_message,omitempty"`
}

func (e RpcError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.ErrorString
}

// Error codes
const (
	// Universal errors
	RpcUNKNOWN          = -1
	RpcJSON_RPC         = -32600
	RpcMETHOD_NOT_FOUND = -32601
	RpcINVALID_PARAMS   = -32602
	RpcINTERNAL         = -32603
	RpcPARSE_ERROR      = -32700

	// General purpose errors
	RpcGENERAL           = 1
	RpcMISSING_COMMAND   = 2
	RpcCOMMAND_UNTRUSTED = 3

	// Server state
	RpcNOT_STANDALONE = 10
	RpcSHUT_DOWN      = 11

	// Account errors
	RpcACT_MALFORMED = 50

	// Signing errors
	RpcPUBLIC_MALFORMED  = 62
	RpcBAD_SIGNATURE     = 63
	RpcSIGNATURE_EXPIRED = 64
	RpcALREADY_SUBMITTED = 65

	// Subscription errors
	RpcSTREAM_MALFORMED = 26

	// Object errors
	RpcOBJECT_NOT_FOUND = 92
)

func NewRpcError(code int, error, errorType, message string) *RpcError {
	return &RpcError{
		Code:        code,
		ErrorString: error,
		Type:        errorType,
		Message:     message,
	}
}

func RpcErrorInvalidParams(message string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", "invalidParams", message)
}

func RpcErrorMethodNotFound(method string) *RpcError {
	return NewRpcError(RpcMETHOD_NOT_FOUND, "unknownCmd", "unknownCmd", "Unknown method: "+method)
}

func RpcErrorInternal(message string) *RpcError {
	return NewRpcError(RpcINTERNAL, "internal", "internal", message)
}

func RpcErrorNotStandalone(message string) *RpcError {
	return NewRpcError(RpcNOT_STANDALONE, "notStandalone", "notStandalone", message)
}

func RpcErrorActMalformed(field string) *RpcError {
	return NewRpcError(RpcACT_MALFORMED, "actMalformed", "actMalformed", "Account malformed in field '"+field+"'.")
}

func RpcErrorPublicMalformed() *RpcError {
	return NewRpcError(RpcPUBLIC_MALFORMED, "publicMalformed", "publicMalformed", "Public key is malformed.")
}

func RpcErrorBadSignature(message string) *RpcError {
	return NewRpcError(RpcBAD_SIGNATURE, "badSignature", "badSignature", message)
}

func RpcErrorSignatureExpired() *RpcError {
	return NewRpcError(RpcSIGNATURE_EXPIRED, "signatureExpired", "signatureExpired", "Signed request has expired.")
}

func RpcErrorAlreadySubmitted() *RpcError {
	return NewRpcError(RpcALREADY_SUBMITTED, "alreadySubmitted", "alreadySubmitted", "Signed request was already submitted.")
}

func RpcErrorStreamMalformed(message string) *RpcError {
	return NewRpcError(RpcSTREAM_MALFORMED, "malformedStream", "malformedStream", message)
}

func RpcErrorObjectNotFound(message string) *RpcError {
	return NewRpcError(RpcOBJECT_NOT_FOUND, "objectNotFound", "objectNotFound", message)
}

// RpcErrorMissingField returns an error for missing required field
func RpcErrorMissingField(field string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", "invalidParams", "Missing field '"+field+"'.")
}

// RpcErrorInvalidField returns an error for invalid field value
func RpcErrorInvalidField(field string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", "invalidParams", "Invalid field '"+field+"'.")
}

// RpcErrorFromQuery classifies an error returned by a read-only service
// call. Lookups of unknown vaults, markets, ledgers and assets become
// objectNotFound.
func RpcErrorFromQuery(err error) *RpcError {
	switch {
	case errors.Is(err, vault.ErrUnknownVault),
		errors.Is(err, vault.ErrNotVaulted),
		errors.Is(err, market.ErrUnknownMarket),
		errors.Is(err, shares.ErrUnknownLedger),
		errors.Is(err, custody.ErrUnknownAsset):
		return RpcErrorObjectNotFound(err.Error())
	case errors.Is(err, market.ErrOrderIndex):
		return RpcErrorInvalidField("index")
	default:
		return RpcErrorInternal(err.Error())
	}
}
