package taskapi

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCreds      = "auth_invalid_credentials"
	TextCodeTokenExpired      = "auth_token_expired"
	TextCodeTokenInvalidSig   = "auth_token_invalid_signature"
	TextCodeTokenMalformed    = "auth_token_malformed"
	TextCodeIdentityNotFound  = "auth_identity_not_found"
	TextCodeTooManyAttempts   = "auth_too_many_attempts"
	TextCodeDuplicateUsername = "auth_duplicate_username"
	TextCodeDuplicateEmail    = "auth_duplicate_email"
	TextCodeForbidden         = "authz_forbidden"
	TextCodeTaskNotFound      = "task_not_found"
	TextCodeInvalidStatus     = "task_invalid_status"
)

// ErrMismatchedHashAndPassword covers both unknown identifier and wrong
// password so login behavior never leaks which one failed.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString is returned when hashing an empty password.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is returned for tokens whose exp claim is in the past.
var ErrTokenExpired = errors.New("token has expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenInvalidSignature is returned for tampered or foreign-key tokens.
var ErrTokenInvalidSignature = errors.New("token signature is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalidSig).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for structurally broken token input.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities,
// including principals deleted after token issuance.
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrTooManyLoginAttempts rate limits repeated credential failures.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrDuplicateUsername is returned when a registration reuses a username.
// The message is client facing.
var ErrDuplicateUsername = errors.New("Username is already taken!", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateUsername).
	WithCode(errors.CodeConflict)

// ErrDuplicateEmail is returned when a registration reuses an email.
var ErrDuplicateEmail = errors.New("Email is already in use!", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(errors.CodeConflict)

// ErrForbidden is returned when an authorization rule rejects the caller.
var ErrForbidden = errors.New("forbidden", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrTaskNotFound is returned for absent task records.
var ErrTaskNotFound = errors.New("task not found", errors.CategoryNotFound).
	WithTextCode(TextCodeTaskNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidTaskStatus is returned when a task carries a status outside the
// known lifecycle values.
var ErrInvalidTaskStatus = errors.New("invalid task status", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidStatus).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens, including errors coming
// from the JWT library before they are mapped to our sentinels.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired") ||
		strings.Contains(err.Error(), "token has expired")
}

// IsInvalidSignatureError will check for tampered tokens.
func IsInvalidSignatureError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenInvalidSignature) {
		return true
	}
	return strings.Contains(err.Error(), "signature is invalid")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
