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

package http

import "encoding/json"

// OptionsRequest is the request body for starting a ceremony.
type OptionsRequest struct {
	// Username is the account the ceremony is performed for (required).
	Username string `json:"username"`
}

// VerifyRequest is the request body for finishing a ceremony.
type VerifyRequest struct {
	// Username is the account the ceremony is performed for (required).
	Username string `json:"username"`

	// Response is the authenticator's attestation or assertion response,
	// passed through verbatim to the ceremony engine.
	Response json.RawMessage `json:"response"`
}

// VerifyResponse is the response after a finished ceremony.
type VerifyResponse struct {
	// Verified indicates the response passed verification.
	Verified bool `json:"verified"`

	// Username is the account the ceremony was performed for.
	Username string `json:"username"`
}

// UserStatusResponse is the response for the user status endpoint.
type UserStatusResponse struct {
	// Exists indicates the username is registered.
	Exists bool `json:"exists"`

	// HasPasskey indicates the user has at least one credential.
	HasPasskey bool `json:"hasPasskey"`

	// Username echoes the queried username.
	Username string `json:"username"`
}

// ErrorResponse is the response format for errors.
type ErrorResponse struct {
	// Error is the error code.
	Error string `json:"error"`

	// Message is a human-readable error message.
	Message string `json:"message"`
}

// Error codes returned in ErrorResponse.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeUserNotFound       = "user_not_found"
	ErrorCodeNoCredentials      = "no_credentials"
	ErrorCodeChallengeMissing   = "challenge_missing"
	ErrorCodeChallengeExpired   = "challenge_expired"
	ErrorCodeCredentialNotFound = "credential_not_found"
	ErrorCodeVerificationFailed = "verification_failed"
	ErrorCodeCloneDetected      = "clone_detected"
	ErrorCodeStoreUnavailable   = "store_unavailable"
	ErrorCodeInternalError      = "internal_error"
)
