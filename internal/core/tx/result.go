package tx

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goFracVault/internal/core/amount"
	"github.com/LeJamon/goFracVault/internal/core/bank"
	"github.com/LeJamon/goFracVault/internal/core/custody"
	"github.com/LeJamon/goFracVault/internal/core/shares"
)

// Result represents an operation result code
type Result int

// Result codes are organized by category: tes, tec, tef, tem
const (
	// tesSUCCESS (0)
	TesSUCCESS Result = 0

	// tec codes (100-199): a precondition failed after state was consulted.
	// Nothing is committed.
	TecUNFUNDED_PAYMENT   Result = 104
	TecNO_AUTH            Result = 134
	TecNO_TARGET          Result = 138
	TecNO_PERMISSION      Result = 139
	TecNO_ENTRY           Result = 140
	TecINTERNAL           Result = 144
	TecEXPIRED            Result = 148
	TecDUPLICATE          Result = 149
	TecTOO_SOON           Result = 152
	TecHOOK_REJECTED      Result = 153
	TecINSUFFICIENT_FUNDS Result = 159
	TecOFFER_ACTIVE       Result = 194
	TecNO_OFFER           Result = 195
	TecBAD_PRICE          Result = 196

	// tef codes (-199 to -100): the operation could not be attempted
	TefFAILURE   Result = -199
	TefINTERNAL  Result = -192
	TefREENTRANT Result = -178

	// tem codes (-299 to -200): malformed, rejected before reading state
	TemMALFORMED      Result = -299
	TemBAD_AMOUNT     Result = -298
	TemBAD_EXPIRATION Result = -296
	TemINVALID        Result = -277
)

var resultNames = map[Result]string{
	TesSUCCESS:            "tesSUCCESS",
	TecUNFUNDED_PAYMENT:   "tecUNFUNDED_PAYMENT",
	TecNO_AUTH:            "tecNO_AUTH",
	TecNO_TARGET:          "tecNO_TARGET",
	TecNO_PERMISSION:      "tecNO_PERMISSION",
	TecNO_ENTRY:           "tecNO_ENTRY",
	TecINTERNAL:           "tecINTERNAL",
	TecEXPIRED:            "tecEXPIRED",
	TecDUPLICATE:          "tecDUPLICATE",
	TecTOO_SOON:           "tecTOO_SOON",
	TecHOOK_REJECTED:      "tecHOOK_REJECTED",
	TecINSUFFICIENT_FUNDS: "tecINSUFFICIENT_FUNDS",
	TecOFFER_ACTIVE:       "tecOFFER_ACTIVE",
	TecNO_OFFER:           "tecNO_OFFER",
	TecBAD_PRICE:          "tecBAD_PRICE",
	TefFAILURE:            "tefFAILURE",
	TefINTERNAL:           "tefINTERNAL",
	TefREENTRANT:          "tefREENTRANT",
	TemMALFORMED:          "temMALFORMED",
	TemBAD_AMOUNT:         "temBAD_AMOUNT",
	TemBAD_EXPIRATION:     "temBAD_EXPIRATION",
	TemINVALID:            "temINVALID",
}

// String returns the string representation of the result code
func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", r)
}

// Error lets a Result be used as an errors.Is target.
func (r Result) Error() string {
	return r.String()
}

// IsSuccess returns true if the result indicates success
func (r Result) IsSuccess() bool {
	return r == TesSUCCESS
}

// IsTec returns true if this is a tec (precondition) code
func (r Result) IsTec() bool {
	return r >= 100 && r < 200
}

// IsTef returns true if this is a tef (failure) code
func (r Result) IsTef() bool {
	return r >= -199 && r <= -100
}

// IsTem returns true if this is a tem (malformed) code
func (r Result) IsTem() bool {
	return r >= -299 && r <= -200
}

// Message returns a human-readable message for the result
func (r Result) Message() string {
	switch r {
	case TesSUCCESS:
		return "The operation was applied."
	case TecUNFUNDED_PAYMENT:
		return "Insufficient native balance to send."
	case TecNO_AUTH:
		return "Share allowance does not match the amount."
	case TecNO_TARGET:
		return "No sell order for that seller."
	case TecNO_PERMISSION:
		return "No permission to perform requested operation."
	case TecNO_ENTRY:
		return "No matching entry found."
	case TecEXPIRED:
		return "The offer deadline has passed."
	case TecDUPLICATE:
		return "The asset is already vaulted."
	case TecTOO_SOON:
		return "The offer deadline has not passed yet."
	case TecHOOK_REJECTED:
		return "A receiving account rejected the payment."
	case TecINSUFFICIENT_FUNDS:
		return "Insufficient share balance."
	case TecOFFER_ACTIVE:
		return "An offer is already active."
	case TecNO_OFFER:
		return "No active offer."
	case TecBAD_PRICE:
		return "The order has no price."
	case TefREENTRANT:
		return "The vault or order is already being operated on."
	case TefINTERNAL:
		return "Internal error."
	case TemBAD_AMOUNT:
		return "Can only use positive amounts."
	case TemBAD_EXPIRATION:
		return "Offer duration out of range."
	case TemMALFORMED:
		return "The operation is ill-formed."
	default:
		return r.String()
	}
}

// ResultError is the error returned for every non-success result.
type ResultError struct {
	Result  Result
	Message string
	Err     error
}

func (e *ResultError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Result.Message()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Result, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Result, msg)
}

// Is matches a Result target against the carried code.
func (e *ResultError) Is(target error) bool {
	r, ok := target.(Result)
	return ok && r == e.Result
}

func (e *ResultError) Unwrap() error {
	return e.Err
}

// ResultOf extracts the result code carried by err.
func ResultOf(err error) Result {
	if err == nil {
		return TesSUCCESS
	}
	var re *ResultError
	if errors.As(err, &re) {
		return re.Result
	}
	var r Result
	if errors.As(err, &r) {
		return r
	}
	return TefINTERNAL
}

// ResultFromError classifies an error raised by a component while an
// operation applies.
func ResultFromError(err error) Result {
	switch {
	case err == nil:
		return TesSUCCESS
	case errors.Is(err, bank.ErrHookRejected):
		return TecHOOK_REJECTED
	case errors.Is(err, bank.ErrInsufficientBalance):
		return TecUNFUNDED_PAYMENT
	case errors.Is(err, shares.ErrInsufficientBalance):
		return TecINSUFFICIENT_FUNDS
	case errors.Is(err, shares.ErrInsufficientAllowance):
		return TecNO_AUTH
	case errors.Is(err, shares.ErrUnknownLedger), errors.Is(err, custody.ErrUnknownAsset):
		return TecNO_ENTRY
	case errors.Is(err, custody.ErrNotApproved), errors.Is(err, custody.ErrNotOwner):
		return TecNO_PERMISSION
	case errors.Is(err, custody.ErrAssetExists), errors.Is(err, shares.ErrLedgerExists):
		return TecDUPLICATE
	case errors.Is(err, shares.ErrZeroAddress), errors.Is(err, custody.ErrZeroAddress):
		return TemMALFORMED
	case errors.Is(err, amount.ErrDivideByZero):
		return TecBAD_PRICE
	}
	return ResultOf(err)
}
