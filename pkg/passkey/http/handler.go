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

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jeremyhahn/go-passkey/pkg/passkey"
)

// Handler provides HTTP handlers for passkey ceremonies.
// These handlers can be mounted on any HTTP router.
type Handler struct {
	service *passkey.Service
	logger  *slog.Logger
}

// NewHandler creates a new passkey HTTP handler.
func NewHandler(service *passkey.Service) *Handler {
	return &Handler{
		service: service,
		logger:  slog.Default(),
	}
}

// WithLogger sets a custom logger for the handler.
func (h *Handler) WithLogger(logger *slog.Logger) *Handler {
	h.logger = logger
	return h
}

// RegisterOptions handles POST /register/options
//
// Request body:
//
//	{"username": "alice"}
//
// Response: WebAuthn PublicKeyCredentialCreationOptions.
// The account is created on first contact.
func (h *Handler) RegisterOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	username, ok := h.decodeUsername(w, r)
	if !ok {
		return
	}

	options, err := h.service.BeginRegistration(r.Context(), username)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, options)
}

// RegisterVerify handles POST /register/verify
//
// Request body:
//
//	{"username": "alice", "response": {...attestation response...}}
//
// Response: {"verified": true, "username": "alice"}
func (h *Handler) RegisterVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	req, ok := h.decodeVerify(w, r)
	if !ok {
		return
	}

	result, err := h.service.FinishRegistration(r.Context(), req.Username, req.Response)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, VerifyResponse{
		Verified: result.Verified,
		Username: result.Username,
	})
}

// LoginOptions handles POST /login/options
//
// Request body:
//
//	{"username": "alice"}
//
// Response: WebAuthn PublicKeyCredentialRequestOptions with the allow
// list restricted to the user's registered credentials.
func (h *Handler) LoginOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	username, ok := h.decodeUsername(w, r)
	if !ok {
		return
	}

	options, err := h.service.BeginLogin(r.Context(), username)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, options)
}

// LoginVerify handles POST /login/verify
//
// Request body:
//
//	{"username": "alice", "response": {...assertion response...}}
//
// Response: {"verified": true, "username": "alice"}
func (h *Handler) LoginVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	req, ok := h.decodeVerify(w, r)
	if !ok {
		return
	}

	result, err := h.service.FinishLogin(r.Context(), req.Username, req.Response)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, VerifyResponse{
		Verified: result.Verified,
		Username: result.Username,
	})
}

// UserStatus handles GET /user
//
// Query param: username (required)
// Response: {"exists": true, "hasPasskey": true, "username": "alice"}
func (h *Handler) UserStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	username := r.URL.Query().Get("username")
	if username == "" {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "username is required")
		return
	}

	exists, hasPasskey, err := h.service.UserExists(r.Context(), username)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, UserStatusResponse{
		Exists:     exists,
		HasPasskey: hasPasskey,
		Username:   username,
	})
}

func (h *Handler) decodeUsername(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req OptionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid request body")
		return "", false
	}
	if req.Username == "" {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "username is required")
		return "", false
	}
	return req.Username, true
}

func (h *Handler) decodeVerify(w http.ResponseWriter, r *http.Request) (*VerifyRequest, bool) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid request body")
		return nil, false
	}
	if req.Username == "" {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "username is required")
		return nil, false
	}
	if len(req.Response) == 0 {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "response is required")
		return nil, false
	}
	return &req, true
}

// handleServiceError maps service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case passkey.IsInvalidUsername(err):
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid username")
	case passkey.IsUserNotFound(err):
		h.writeError(w, http.StatusNotFound, ErrorCodeUserNotFound, "user not found")
	case errors.Is(err, passkey.ErrNoCredentials):
		h.writeError(w, http.StatusBadRequest, ErrorCodeNoCredentials, "user has no registered credentials")
	case passkey.IsChallengeMissing(err):
		h.writeError(w, http.StatusBadRequest, ErrorCodeChallengeMissing, "no ceremony in progress")
	case passkey.IsChallengeExpired(err):
		h.writeError(w, http.StatusBadRequest, ErrorCodeChallengeExpired, "challenge expired")
	case passkey.IsMalformedResponse(err):
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid authenticator response")
	case passkey.IsCredentialNotFound(err):
		h.writeError(w, http.StatusUnauthorized, ErrorCodeCredentialNotFound, "credential not registered")
	case passkey.IsCloneDetected(err):
		h.writeError(w, http.StatusUnauthorized, ErrorCodeCloneDetected, "signature counter regression detected")
	case passkey.IsVerificationFailed(err):
		h.writeError(w, http.StatusUnauthorized, ErrorCodeVerificationFailed, "verification failed")
	case errors.Is(err, passkey.ErrStoreUnavailable):
		h.writeError(w, http.StatusServiceUnavailable, ErrorCodeStoreUnavailable, "storage unavailable")
	default:
		h.logger.Error("unhandled service error", "error", err)
		h.writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal server error")
	}
}

// writeJSON writes a JSON response.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Response headers already written, can only log the error
		h.logger.Error("failed to encode JSON response",
			"error", err,
			"status", status)
	}
}

// writeError writes an error response.
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}
