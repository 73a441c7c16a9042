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
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"

	"github.com/jeremyhahn/go-passkey/pkg/validation"
)

// Service provides passkey registration and authentication ceremonies.
type Service struct {
	webauthn   *webauthn.WebAuthn
	config     *Config
	users      UserStore
	metrics    MetricsRecorder
	logger     *slog.Logger
	now        func() time.Time
	configured bool
}

// ServiceParams contains dependencies for creating a passkey service.
type ServiceParams struct {
	// Config is the relying party configuration (required).
	Config *Config

	// UserStore is the user persistence layer (required).
	UserStore UserStore

	// Metrics receives ceremony outcomes. Optional; defaults to a no-op.
	Metrics MetricsRecorder

	// Logger is the structured logger. Optional; defaults to slog.Default.
	Logger *slog.Logger
}

// NewService creates a new passkey service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if params.UserStore == nil {
		return nil, fmt.Errorf("user store is required")
	}

	// Set defaults and validate
	params.Config.SetDefaults()
	if err := params.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Create the go-webauthn instance
	wa, err := webauthn.New(params.Config.ToWebAuthnConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create webauthn instance: %w", err)
	}

	if params.Metrics == nil {
		params.Metrics = noopMetrics{}
	}
	if params.Logger == nil {
		params.Logger = slog.Default()
	}

	return &Service{
		webauthn:   wa,
		config:     params.Config,
		users:      params.UserStore,
		metrics:    params.Metrics,
		logger:     params.Logger,
		now:        time.Now,
		configured: true,
	}, nil
}

// BeginRegistration starts the registration ceremony for the given
// username, creating the account on first contact. The returned options
// carry the challenge; the matching session state is stored on the user
// record, replacing any ceremony already in flight.
func (s *Service) BeginRegistration(ctx context.Context, username string) (*protocol.CredentialCreation, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUsername, err)
	}

	user, err := s.users.Get(ctx, username)
	if err != nil {
		if !IsUserNotFound(err) {
			return nil, WrapError("get user", err)
		}
		user = &User{
			ID:        uuid.NewString(),
			Username:  username,
			Devices:   []Device{},
			CreatedAt: s.now().UTC(),
		}
		if err := s.users.Create(ctx, user); err != nil {
			// Lost a create race; the winner's record is the account.
			if !IsUserAlreadyExists(err) {
				return nil, WrapError("create user", err)
			}
			if user, err = s.users.Get(ctx, username); err != nil {
				return nil, WrapError("get user", err)
			}
		}
	}

	options, session, err := s.webauthn.BeginRegistration(user,
		webauthn.WithExclusions(user.CredentialDescriptors()),
		webauthn.WithCredentialParameters(s.config.CredentialParameters()),
	)
	if err != nil {
		return nil, WrapError("begin registration", err)
	}

	if _, err := s.users.Mutate(ctx, username, func(u *User) error {
		u.CurrentCeremony = &CeremonySession{
			Kind:    CeremonyRegistration,
			Session: *session,
		}
		return nil
	}); err != nil {
		return nil, WrapError("store challenge", err)
	}

	s.logger.Debug("registration ceremony started",
		"username", username,
		"challenge", session.Challenge)

	return options, nil
}

// FinishRegistration completes the registration ceremony by verifying the
// authenticator's attestation response against the pending challenge. The
// challenge is consumed regardless of the outcome; on success the new
// credential is appended to the user's devices.
func (s *Service) FinishRegistration(ctx context.Context, username string, response []byte) (*Result, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	started := s.now()

	user, session, err := s.consumeCeremony(ctx, username, CeremonyRegistration)
	if err != nil {
		s.recordFinish(CeremonyRegistration, err, started)
		return nil, err
	}

	parsed, err := protocol.ParseCredentialCreationResponseBytes(response)
	if err != nil {
		s.recordFinish(CeremonyRegistration, ErrMalformedResponse, started)
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	credential, err := s.webauthn.CreateCredential(user, *session, parsed)
	if err != nil {
		s.recordFinish(CeremonyRegistration, ErrAttestationInvalid, started)
		return nil, fmt.Errorf("%w: %v", ErrAttestationInvalid, err)
	}

	device := DeviceFromCredential(credential)
	if _, err := s.users.Mutate(ctx, username, func(u *User) error {
		if u.FindDevice(credential.ID) != nil {
			// Same credential submitted twice; nothing new to store.
			return nil
		}
		u.Devices = append(u.Devices, device)
		return nil
	}); err != nil {
		s.recordFinish(CeremonyRegistration, err, started)
		return nil, WrapError("store credential", err)
	}

	s.recordFinish(CeremonyRegistration, nil, started)
	s.logger.Info("passkey registered",
		"username", username,
		"credentialID", device.CredentialID)

	return &Result{Verified: true, Username: username, UserID: user.ID}, nil
}

// BeginLogin starts the authentication ceremony for the given username.
// The allow list is restricted to the user's registered credentials.
func (s *Service) BeginLogin(ctx context.Context, username string) (*protocol.CredentialAssertion, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUsername, err)
	}

	user, err := s.users.Get(ctx, username)
	if err != nil {
		return nil, WrapError("get user", err)
	}
	if len(user.Devices) == 0 {
		return nil, NewError("begin login", ErrNoCredentials)
	}

	options, session, err := s.webauthn.BeginLogin(user)
	if err != nil {
		return nil, WrapError("begin login", err)
	}

	if _, err := s.users.Mutate(ctx, username, func(u *User) error {
		u.CurrentCeremony = &CeremonySession{
			Kind:    CeremonyAuthentication,
			Session: *session,
		}
		return nil
	}); err != nil {
		return nil, WrapError("store challenge", err)
	}

	s.logger.Debug("authentication ceremony started",
		"username", username,
		"challenge", session.Challenge)

	return options, nil
}

// FinishLogin completes the authentication ceremony by verifying the
// authenticator's assertion against the pending challenge. The challenge
// is consumed regardless of the outcome. A signature counter that fails
// to advance past the stored value is reported as ErrClonedAuthenticator
// and the stored counter is left untouched.
func (s *Service) FinishLogin(ctx context.Context, username string, response []byte) (*Result, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	started := s.now()

	user, session, err := s.consumeCeremony(ctx, username, CeremonyAuthentication)
	if err != nil {
		s.recordFinish(CeremonyAuthentication, err, started)
		return nil, err
	}

	parsed, err := protocol.ParseCredentialRequestResponseBytes(response)
	if err != nil {
		s.recordFinish(CeremonyAuthentication, ErrMalformedResponse, started)
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if user.FindDevice(parsed.RawID) == nil {
		s.recordFinish(CeremonyAuthentication, ErrCredentialNotFound, started)
		return nil, NewError("finish login", ErrCredentialNotFound)
	}

	credential, err := s.webauthn.ValidateLogin(user, *session, parsed)
	if err != nil {
		s.recordFinish(CeremonyAuthentication, ErrAssertionInvalid, started)
		return nil, fmt.Errorf("%w: %v", ErrAssertionInvalid, err)
	}

	if credential.Authenticator.CloneWarning {
		s.metrics.RecordCloneWarning()
		s.recordFinish(CeremonyAuthentication, ErrClonedAuthenticator, started)
		s.logger.Warn("signature counter regression, possible cloned authenticator",
			"username", username,
			"credentialID", EncodeBytes(credential.ID))
		return nil, NewError("finish login", ErrClonedAuthenticator)
	}

	if _, err := s.users.Mutate(ctx, username, func(u *User) error {
		device := u.FindDevice(credential.ID)
		if device == nil {
			return NewError("finish login", ErrCredentialNotFound)
		}
		device.Counter = credential.Authenticator.SignCount
		device.LastUsedAt = s.now().UTC()
		return nil
	}); err != nil {
		s.recordFinish(CeremonyAuthentication, err, started)
		return nil, WrapError("update credential", err)
	}

	s.recordFinish(CeremonyAuthentication, nil, started)
	s.logger.Info("passkey authenticated",
		"username", username,
		"credentialID", EncodeBytes(credential.ID),
		"counter", credential.Authenticator.SignCount)

	return &Result{Verified: true, Username: username, UserID: user.ID}, nil
}

// consumeCeremony atomically pops the pending ceremony of the given kind
// from the user record. A missing or mismatched ceremony is
// ErrChallengeMissing; an expired one is consumed and reported as
// ErrChallengeExpired. The returned user snapshot reflects the record at
// the moment of consumption.
func (s *Service) consumeCeremony(ctx context.Context, username string, kind CeremonyKind) (*User, *webauthn.SessionData, error) {
	var ceremony *CeremonySession
	user, err := s.users.Mutate(ctx, username, func(u *User) error {
		if u.CurrentCeremony == nil || u.CurrentCeremony.Kind != kind {
			return NewError("consume challenge", ErrChallengeMissing)
		}
		ceremony = u.CurrentCeremony
		u.CurrentCeremony = nil
		return nil
	})
	if err != nil {
		if IsUserNotFound(err) || IsChallengeMissing(err) {
			return nil, nil, err
		}
		return nil, nil, WrapError("consume challenge", err)
	}

	if ceremony.Expired(s.now()) {
		return nil, nil, NewError("consume challenge", ErrChallengeExpired)
	}
	return user, &ceremony.Session, nil
}

// GetUser returns the user record for the given username.
func (s *Service) GetUser(ctx context.Context, username string) (*User, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUsername, err)
	}
	return s.users.Get(ctx, username)
}

// UserExists reports whether the username is registered and whether it
// has at least one passkey.
func (s *Service) UserExists(ctx context.Context, username string) (exists, hasPasskey bool, err error) {
	if !s.configured {
		return false, false, ErrNotConfigured
	}
	if err := validation.ValidateUsername(username); err != nil {
		return false, false, fmt.Errorf("%w: %v", ErrInvalidUsername, err)
	}
	user, err := s.users.Get(ctx, username)
	if err != nil {
		if IsUserNotFound(err) {
			return false, false, nil
		}
		return false, false, WrapError("get user", err)
	}
	return true, len(user.Devices) > 0, nil
}

// ListUsers returns all registered users.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	return s.users.List(ctx)
}

// DeleteUser removes the user and all of its credentials.
func (s *Service) DeleteUser(ctx context.Context, username string) error {
	if !s.configured {
		return ErrNotConfigured
	}
	if err := validation.ValidateUsername(username); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUsername, err)
	}
	return s.users.Delete(ctx, username)
}

func (s *Service) recordFinish(kind CeremonyKind, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = statusForError(err)
	}
	s.metrics.RecordCeremony(kind, status, s.now().Sub(started))
}

func statusForError(err error) string {
	switch {
	case IsUserNotFound(err):
		return "user_not_found"
	case IsChallengeMissing(err):
		return "challenge_missing"
	case IsChallengeExpired(err):
		return "challenge_expired"
	case IsCredentialNotFound(err):
		return "credential_not_found"
	case IsCloneDetected(err):
		return "clone_detected"
	case IsMalformedResponse(err):
		return "malformed_response"
	case IsVerificationFailed(err):
		return "verification_failed"
	default:
		return "error"
	}
}
