// Package domain defines the core domain models for tenantgate.
package domain

import (
	"errors"
	"fmt"
)

// DomainError is a business error carrying a stable code.
// Codes follow TG-<AREA>-<NNNN>; the last four digits mirror the HTTP status
// family the error maps to.
type DomainError struct {
	Code    string // e.g. "TG-AUTH-4011"
	Message string
	Details string
	Cause   error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError reports whether err is a DomainError with the given code.
// An empty code matches any DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the code from a DomainError, or "" for other errors.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Authentication errors (AUTH). None of these escape the gateway as a
// response; resolvers log them and continue anonymously.
var (
	ErrCredentialMissing = NewDomainError("TG-AUTH-4010", "credential not provided")
	ErrTokenInvalid      = NewDomainError("TG-AUTH-4011", "invalid bearer token")
	ErrTokenExpired      = NewDomainError("TG-AUTH-4012", "bearer token expired")
	ErrAPIKeyUnknown     = NewDomainError("TG-AUTH-4013", "unknown api key")
	ErrAPIKeyInactive    = NewDomainError("TG-AUTH-4014", "api key inactive")
	ErrAPIKeyExpired     = NewDomainError("TG-AUTH-4015", "api key expired")
	ErrAPIKeyValidation  = NewDomainError("TG-AUTH-4001", "api key validation failed")
	ErrAPIKeyNotFound    = NewDomainError("TG-AUTH-4040", "api key not found")
	ErrAPIKeyConflict    = NewDomainError("TG-AUTH-4090", "api key conflict")
)

// Tenant errors (TENANT).
var (
	ErrTenantIDMalformed    = NewDomainError("TG-TENANT-4000", "malformed tenant id")
	ErrMembershipValidation = NewDomainError("TG-TENANT-4001", "membership validation failed")
	ErrTenantNotMember      = NewDomainError("TG-TENANT-4030", "user is not a member of tenant")
	ErrTenantNotSelected    = NewDomainError("TG-TENANT-4040", "no tenant in request context")
	ErrMembershipNotFound   = NewDomainError("TG-TENANT-4041", "membership not found")
	ErrMembershipConflict   = NewDomainError("TG-TENANT-4090", "membership already exists")
)

// Rate limit errors (RATE).
var (
	ErrRateLimited = NewDomainError("TG-RATE-5030", "rate limit exceeded")
)

// System errors (SYS).
var (
	ErrBadRequest         = NewDomainError("TG-SYS-4000", "bad request")
	ErrInternalServer     = NewDomainError("TG-SYS-5000", "internal server error")
	ErrStorageError       = NewDomainError("TG-SYS-5001", "storage error")
	ErrHashUnavailable    = NewDomainError("TG-SYS-5002", "key hashing primitive unavailable")
	ErrServiceUnavailable = NewDomainError("TG-SYS-5031", "service unavailable")
)

// Argument errors (ARG).
var (
	ErrInvalidArgument = NewDomainError("TG-ARG-1001", "invalid argument")
	ErrMissingArgument = NewDomainError("TG-ARG-1002", "missing required argument")
)
