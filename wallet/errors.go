package wallet

import (
	"errors"
	"fmt"
)

// ErrNoKeyForAlgorithm is returned when the wallet holds no key of the
// requested algorithm.
var ErrNoKeyForAlgorithm = errors.New("wallet has no key for algorithm")

// ErrUnsupportedAlgorithm is returned for algorithms outside the supported
// signature schemes (ES256K, ES256).
var ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

// ValidationError marks a malformed unsigned transaction. It is raised
// before any signature is attempted so that bad input does not consume a
// rotation slot.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("unsigned transaction is not well formed: missing %s", e.Field)
}

// SignatureError wraps a failure while producing a signature.
type SignatureError struct {
	Err error
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("signature failed: %v", e.Err)
}

func (e *SignatureError) Unwrap() error {
	return e.Err
}
