package errors

import (
	stdErrors "errors"
	"fmt"
)

// TransportError wraps a failure that happened before a usable HTTP response
// was obtained, or while decoding it.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps err with the failed operation name.
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

// IsTransportError checks if err is a TransportError (even when wrapped).
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return stdErrors.As(err, &transportErr)
}

// KindOf classifies err. It returns "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var catalogErr *CatalogError
	if stdErrors.As(err, &catalogErr) {
		return catalogErr.Kind()
	}
	return KindUnavailable
}
