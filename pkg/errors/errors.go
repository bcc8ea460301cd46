// Package errors defines structured error types for the tidecat auth core.
// Every authentication failure carries an OAuth 2.0 error code, an HTTP
// status, and a classification reason so callers can branch on the failure
// category without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Reason classifies an authentication or exchange failure.
type Reason string

const (
	ReasonMalformed            Reason = "malformed"
	ReasonInvalidIssuer        Reason = "invalid_issuer"
	ReasonUnsupportedAlgorithm Reason = "unsupported_algorithm"
	ReasonKeyNotFound          Reason = "key_not_found"
	ReasonBadSignature         Reason = "bad_signature"
	ReasonMissingClaim         Reason = "missing_claim"
	ReasonExpired              Reason = "expired"
	ReasonNotYetValid          Reason = "not_yet_valid"
	ReasonAudienceMismatch     Reason = "audience_mismatch"
	ReasonRateLimited          Reason = "rate_limited"
	ReasonPermissionDenied     Reason = "permission_denied"
	ReasonInvalidRequest       Reason = "invalid_request"
	ReasonInternal             Reason = "internal"
)

// OAuth 2.0 error codes used on the wire.
const (
	CodeInvalidRequest = "invalid_request"
	CodeInvalidGrant   = "invalid_grant"
	CodeInvalidClient  = "invalid_client"
	CodeAccessDenied   = "access_denied"
	CodeServerError    = "server_error"
	CodeSlowDown       = "slow_down"
)

// ================================================================================
// CatalogError
// ================================================================================

// CatalogError is a structured error with OAuth code, HTTP status, and a
// classification reason.
type CatalogError interface {
	error

	// Code returns the OAuth 2.0 error code.
	Code() string

	// HTTPStatus returns the HTTP status the error maps to.
	HTTPStatus() int

	// Reason returns the failure classification.
	Reason() Reason

	// Unwrap returns the underlying cause, if any.
	Unwrap() error

	// WithCause attaches a cause to the error chain.
	WithCause(cause error) CatalogError
}

type catalogError struct {
	reason  Reason
	code    string
	status  int
	message string
	cause   error
}

func (e *catalogError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *catalogError) Code() string    { return e.code }
func (e *catalogError) HTTPStatus() int { return e.status }
func (e *catalogError) Reason() Reason  { return e.reason }
func (e *catalogError) Unwrap() error   { return e.cause }

func (e *catalogError) WithCause(cause error) CatalogError {
	return &catalogError{
		reason:  e.reason,
		code:    e.code,
		status:  e.status,
		message: e.message,
		cause:   cause,
	}
}

// New creates a CatalogError with explicit classification.
func New(reason Reason, code string, status int, message string) CatalogError {
	return &catalogError{reason: reason, code: code, status: status, message: message}
}

// ================================================================================
// Constructors, one per taxonomy entry
// ================================================================================

// Malformed reports a token that cannot be decoded at all.
func Malformed(message string) CatalogError {
	return New(ReasonMalformed, CodeInvalidRequest, http.StatusBadRequest, message)
}

// InvalidIssuer reports an unknown, mismatched, or unsupported issuer.
func InvalidIssuer(message string) CatalogError {
	return New(ReasonInvalidIssuer, CodeInvalidGrant, http.StatusBadRequest, message)
}

// UnsupportedAlgorithm reports a non-RSA key or an algorithm outside RS256/384/512.
func UnsupportedAlgorithm(message string) CatalogError {
	return New(ReasonUnsupportedAlgorithm, CodeInvalidGrant, http.StatusBadRequest, message)
}

// KeyNotFound reports that no key with the token's kid exists at the issuer.
func KeyNotFound(message string) CatalogError {
	return New(ReasonKeyNotFound, CodeInvalidGrant, http.StatusBadRequest, message)
}

// BadSignature reports a signature verification failure.
func BadSignature(message string) CatalogError {
	return New(ReasonBadSignature, CodeInvalidGrant, http.StatusBadRequest, message)
}

// MissingClaim reports an absent required claim.
func MissingClaim(claim string) CatalogError {
	return New(ReasonMissingClaim, CodeInvalidGrant, http.StatusBadRequest,
		fmt.Sprintf("missing required claim: %s", claim))
}

// Expired reports a token past its expiry beyond the clock-skew allowance.
func Expired(message string) CatalogError {
	return New(ReasonExpired, CodeInvalidGrant, http.StatusBadRequest, message)
}

// NotYetValid reports a token whose nbf is in the future.
func NotYetValid(message string) CatalogError {
	return New(ReasonNotYetValid, CodeInvalidGrant, http.StatusBadRequest, message)
}

// AudienceMismatch reports an audience that does not match the expected one.
func AudienceMismatch(message string) CatalogError {
	return New(ReasonAudienceMismatch, CodeInvalidGrant, http.StatusBadRequest, message)
}

// RateLimited reports that key discovery for an issuer is being throttled.
// The message deliberately does not reveal whether the issuer's keys are valid.
func RateLimited(issuer string) CatalogError {
	return New(ReasonRateLimited, CodeSlowDown, http.StatusTooManyRequests,
		"key discovery rate limit exceeded, try again later").
		WithCause(fmt.Errorf("issuer %s", issuer))
}

// PermissionDenied reports a disabled or disallowed user.
func PermissionDenied(message string) CatalogError {
	return New(ReasonPermissionDenied, CodeAccessDenied, http.StatusForbidden, message)
}

// InvalidRequest reports malformed OAuth parameters.
func InvalidRequest(message string) CatalogError {
	return New(ReasonInvalidRequest, CodeInvalidRequest, http.StatusBadRequest, message)
}

// Internal reports an unexpected or collaborator failure.
func Internal(message string) CatalogError {
	return New(ReasonInternal, CodeServerError, http.StatusInternalServerError, message)
}

// ================================================================================
// Inspection helpers
// ================================================================================

// AsCatalogError extracts a CatalogError from an error chain.
func AsCatalogError(err error) (CatalogError, bool) {
	var ce CatalogError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// ReasonOf returns the classification of err, or ReasonInternal for
// unclassified errors.
func ReasonOf(err error) Reason {
	if ce, ok := AsCatalogError(err); ok {
		return ce.Reason()
	}
	return ReasonInternal
}

// IsRateLimited reports whether err is a rate-limiting failure.
func IsRateLimited(err error) bool {
	return ReasonOf(err) == ReasonRateLimited
}

// ================================================================================
// Wire shape
// ================================================================================

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// ToErrorResponse converts any error to its wire shape. Unclassified errors
// are reported as server_error without leaking internals.
func ToErrorResponse(err error) *ErrorResponse {
	if ce, ok := AsCatalogError(err); ok {
		return &ErrorResponse{Error: ce.Code(), ErrorDescription: ce.Error()}
	}
	return &ErrorResponse{Error: CodeServerError, ErrorDescription: "an unexpected error occurred"}
}

// HTTPStatusOf returns the HTTP status for err, defaulting to 500.
func HTTPStatusOf(err error) int {
	if ce, ok := AsCatalogError(err); ok {
		return ce.HTTPStatus()
	}
	return http.StatusInternalServerError
}
