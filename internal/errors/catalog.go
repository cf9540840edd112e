// Package errors defines the failure taxonomy for remote catalog calls.
package errors

import (
	stdErrors "errors"
	"fmt"
	"strings"
)

// Kind classifies a remote failure.
type Kind string

const (
	// KindUnavailable is a transport-level failure: DNS, connection, timeout, undecodable body.
	KindUnavailable Kind = "unavailable"
	// KindRejected is a non-2xx HTTP response.
	KindRejected Kind = "rejected"
	// KindQuotaExhausted is the catalog's 403 quota response.
	KindQuotaExhausted Kind = "quota_exhausted"
)

// CatalogError represents a non-2xx response from the remote catalog.
type CatalogError struct {
	Message    string
	StatusCode int
	APIMessage string // body excerpt from the catalog, if any
}

func (e *CatalogError) Error() string {
	if e.APIMessage != "" {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Message, e.StatusCode, e.APIMessage)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// Kind reports KindQuotaExhausted for 403 responses and KindRejected otherwise.
func (e *CatalogError) Kind() Kind {
	if e.StatusCode == 403 {
		return KindQuotaExhausted
	}
	return KindRejected
}

// NewCatalogError creates a CatalogError for the given HTTP status.
func NewCatalogError(statusCode int, apiMessage string) *CatalogError {
	var message string
	apiLower := strings.ToLower(apiMessage)

	switch {
	case statusCode == 403 && strings.Contains(apiLower, "daily limit"):
		message = "Catalog daily quota exhausted"
	case statusCode == 403:
		message = "Catalog quota exhausted or access forbidden"
	case statusCode == 400 && strings.Contains(apiLower, "api key"):
		message = "Invalid catalog API key"
	case statusCode == 429:
		message = "Catalog rate limit exceeded"
	case statusCode >= 500:
		message = "Catalog server error"
	default:
		message = "Catalog API error"
	}

	return &CatalogError{
		Message:    message,
		StatusCode: statusCode,
		APIMessage: strings.TrimSpace(apiMessage),
	}
}

// IsCatalogError checks if err is a CatalogError (even when wrapped).
func IsCatalogError(err error) bool {
	var catalogErr *CatalogError
	return stdErrors.As(err, &catalogErr)
}

// IsQuotaExhausted reports whether err is a 403 CatalogError.
func IsQuotaExhausted(err error) bool {
	var catalogErr *CatalogError
	return stdErrors.As(err, &catalogErr) && catalogErr.Kind() == KindQuotaExhausted
}
