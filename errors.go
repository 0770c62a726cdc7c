package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeIdentityNotFound   = "identity_not_found"
	TextCodeIdentityExists     = "identity_exists"
	TextCodeInvalidCredentials = "invalid_credentials"
	TextCodeInvalidCode        = "invalid_verification_code"
	TextCodeInvalidToken       = "invalid_token"
	TextCodeTokenExpired       = "token_expired"
	TextCodeTokenMalformed     = "token_malformed"
	TextCodeNotActivated       = "identity_not_activated"
	TextCodeInsufficientScope  = "insufficient_scope"
)

// ErrIdentityNotFound is returned when an email or id resolves to no identity.
// Surfacing it verbatim on the public endpoints allows email enumeration; that
// tradeoff is deliberate and mirrors the behavior clients already depend on.
var ErrIdentityNotFound = errors.New("a user with this email address does not exist", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrIdentityExists is returned when registering an email that already has an
// active identity.
var ErrIdentityExists = errors.New("a user already exists with this email address", errors.CategoryConflict).
	WithTextCode(TextCodeIdentityExists).
	WithCode(errors.CodeBadRequest)

// ErrInvalidCredentials is returned on a password mismatch. The message never
// says which field was wrong, and the HTTP code is 400 rather than 401.
var ErrInvalidCredentials = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeBadRequest)

// ErrInvalidCode is returned when a verification code check fails.
var ErrInvalidCode = errors.New("incorrect verification code", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCode).
	WithCode(errors.CodeBadRequest)

// ErrInvalidToken is returned when a refresh is attempted with tokens whose
// subject or scope set do not match, or with an invalid refresh token.
var ErrInvalidToken = errors.New("invalid token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is returned for tokens past their expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail to parse or whose
// signature does not verify.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrNotActivated is returned when a cryptographically valid token references
// an identity that has not completed email verification.
var ErrNotActivated = errors.New("user not activated", errors.CategoryAuth).
	WithTextCode(TextCodeNotActivated).
	WithCode(errors.CodeUnauthorized)

// ErrInsufficientScope is returned when a valid token does not grant any of
// the scopes a route requires.
var ErrInsufficientScope = errors.New("insufficient scope", errors.CategoryAuth).
	WithTextCode(TextCodeInsufficientScope).
	WithCode(errors.CodeForbidden)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the error for bcrypt comparison failures.
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password", errors.CategoryAuth).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
