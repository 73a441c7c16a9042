// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package passkey

import (
	"errors"
	"fmt"
)

// Sentinel errors for ceremony operations.
var (
	// ErrUserNotFound is returned when a user cannot be found.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists is returned when attempting to create a user that already exists.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrNoCredentials is returned when a user has no registered credentials.
	ErrNoCredentials = errors.New("user has no registered credentials")

	// ErrChallengeMissing is returned when a finish operation arrives with no
	// pending challenge for the ceremony type.
	ErrChallengeMissing = errors.New("no pending challenge")

	// ErrChallengeExpired is returned when the pending challenge has passed
	// its expiry. The challenge is consumed regardless.
	ErrChallengeExpired = errors.New("challenge expired")

	// ErrCredentialNotFound is returned when an assertion references a
	// credential the user never registered.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrAttestationInvalid is returned when a registration response fails
	// verification (challenge, origin, RP ID, or attestation signature).
	ErrAttestationInvalid = errors.New("attestation verification failed")

	// ErrAssertionInvalid is returned when an authentication response fails
	// verification (challenge, origin, RP ID, or assertion signature).
	ErrAssertionInvalid = errors.New("assertion verification failed")

	// ErrClonedAuthenticator is returned when the signature counter did not
	// advance, indicating a possible cloned authenticator replaying an old
	// signature. The stored counter is never advanced in this case.
	ErrClonedAuthenticator = errors.New("cloned authenticator detected")

	// ErrMalformedResponse is returned when an authenticator response cannot
	// be decoded into the expected WebAuthn wire structures.
	ErrMalformedResponse = errors.New("malformed authenticator response")

	// ErrInvalidUsername is returned when a username fails input validation
	// before any ceremony work is attempted.
	ErrInvalidUsername = errors.New("invalid username")

	// ErrStoreUnavailable is returned when the backing store fails to commit
	// or read a record.
	ErrStoreUnavailable = errors.New("credential store unavailable")

	// ErrNotConfigured is returned when the service is not properly configured.
	ErrNotConfigured = errors.New("passkey service not configured")
)

// CeremonyError wraps an error with the ceremony operation that failed.
type CeremonyError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

// Error returns the error message.
func (e *CeremonyError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *CeremonyError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches.
func (e *CeremonyError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new CeremonyError with the given operation and error.
func NewError(op string, err error) error {
	return &CeremonyError{
		Op:  op,
		Err: err,
	}
}

// WrapError wraps an error with an operation name if it's not nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(op, err)
}

// StoreError converts a backend failure into ErrStoreUnavailable, preserving
// the underlying cause in the message.
func StoreError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// IsUserNotFound returns true if the error indicates a user was not found.
func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

// IsUserAlreadyExists returns true if the error indicates the username is taken.
func IsUserAlreadyExists(err error) bool {
	return errors.Is(err, ErrUserAlreadyExists)
}

// IsInvalidUsername returns true if the error indicates a rejected username.
func IsInvalidUsername(err error) bool {
	return errors.Is(err, ErrInvalidUsername)
}

// IsChallengeMissing returns true if the error indicates no pending challenge.
func IsChallengeMissing(err error) bool {
	return errors.Is(err, ErrChallengeMissing)
}

// IsChallengeExpired returns true if the error indicates the pending
// challenge outlived its TTL.
func IsChallengeExpired(err error) bool {
	return errors.Is(err, ErrChallengeExpired)
}

// IsMalformedResponse returns true if the error indicates an undecodable
// client response.
func IsMalformedResponse(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}

// IsCredentialNotFound returns true if the error indicates a credential was not found.
func IsCredentialNotFound(err error) bool {
	return errors.Is(err, ErrCredentialNotFound)
}

// IsCloneDetected returns true if the error indicates a possible cloned authenticator.
func IsCloneDetected(err error) bool {
	return errors.Is(err, ErrClonedAuthenticator)
}

// IsVerificationFailed returns true if the error indicates an attestation or
// assertion failed cryptographic verification.
func IsVerificationFailed(err error) bool {
	return errors.Is(err, ErrAttestationInvalid) || errors.Is(err, ErrAssertionInvalid)
}
