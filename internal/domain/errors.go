package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrInvalidArgument    = errors.New("invalid_argument")
	ErrAssetNotFound      = errors.New("asset_not_found")
	ErrDuplicateSymbol    = errors.New("duplicate_symbol")
	ErrInsufficientFunds  = errors.New("insufficient_funds")
	ErrInsufficientAssets = errors.New("insufficient_assets")
	ErrPersistence        = errors.New("persistence_failure")
)

// ValidationError represents an invalid argument passed to a constructor
// or operation. It matches ErrInvalidArgument under errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is reports whether target is ErrInvalidArgument.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidArgument
}
