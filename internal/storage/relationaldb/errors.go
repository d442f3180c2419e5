package relationaldb

import (
	"errors"
	"fmt"
)

// Error types for different categories of database errors
var (
	// Configuration errors
	ErrMissingHost           = errors.New("database host is required")
	ErrMissingDatabase       = errors.New("database name is required")
	ErrInvalidPort           = errors.New("invalid database port")
	ErrInvalidDriver         = errors.New("invalid database driver")
	ErrInvalidMaxOpenConns   = errors.New("max open connections must be >= 0")
	ErrInvalidMaxIdleConns   = errors.New("max idle connections must be >= 0")
	ErrMaxIdleExceedsMaxOpen = errors.New("max idle connections cannot exceed max open connections")
	ErrInvalidTimeout        = errors.New("timeout must be positive")
	ErrInvalidMaxRetries     = errors.New("max retries must be >= 0")

	// Connection errors
	ErrDatabaseClosed = errors.New("database connection is closed")

	// Data errors
	ErrInvalidDataFormat = errors.New("invalid data format")
)

// ErrorType represents different categories of database errors
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeConfiguration
	ErrorTypeConnection
	ErrorTypeTransaction
	ErrorTypeQuery
	ErrorTypeSchema
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeConfiguration:
		return "configuration"
	case ErrorTypeConnection:
		return "connection"
	case ErrorTypeTransaction:
		return "transaction"
	case ErrorTypeQuery:
		return "query"
	case ErrorTypeSchema:
		return "schema"
	default:
		return "unknown"
	}
}

// DatabaseError provides detailed information about database errors
type DatabaseError struct {
	Type      ErrorType `json:"type"`
	Operation string    `json:"operation"`
	Message   string    `json:"message"`
	Cause     error     `json:"cause,omitempty"`
	Retryable bool      `json:"retryable"`
}

// Error implements the error interface
func (e *DatabaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying cause error
func (e *DatabaseError) Unwrap() error {
	return e.Cause
}

func NewConfigurationError(operation, message string, cause error) *DatabaseError {
	return &DatabaseError{Type: ErrorTypeConfiguration, Operation: operation, Message: message, Cause: cause}
}

// NewConnectionError marks connection failures retryable.
func NewConnectionError(operation, message string, cause error) *DatabaseError {
	return &DatabaseError{Type: ErrorTypeConnection, Operation: operation, Message: message, Cause: cause, Retryable: true}
}

func NewTransactionError(operation, message string, cause error) *DatabaseError {
	return &DatabaseError{Type: ErrorTypeTransaction, Operation: operation, Message: message, Cause: cause, Retryable: true}
}

func NewQueryError(operation, message string, cause error) *DatabaseError {
	return &DatabaseError{Type: ErrorTypeQuery, Operation: operation, Message: message, Cause: cause}
}

func NewSchemaError(operation, message string, cause error) *DatabaseError {
	return &DatabaseError{Type: ErrorTypeSchema, Operation: operation, Message: message, Cause: cause}
}

// IsRetryable reports whether err is a DatabaseError worth retrying.
func IsRetryable(err error) bool {
	var dbErr *DatabaseError
	return errors.As(err, &dbErr) && dbErr.Retryable
}
