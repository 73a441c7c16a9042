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
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// CeremonyKind identifies which ceremony a pending challenge belongs to.
type CeremonyKind string

const (
	// CeremonyRegistration is the credential creation ceremony.
	CeremonyRegistration CeremonyKind = "registration"

	// CeremonyAuthentication is the credential assertion ceremony.
	CeremonyAuthentication CeremonyKind = "authentication"
)

// CeremonySession is the single pending challenge slot on a user record.
// At most one ceremony may be in flight per user; beginning a new ceremony
// overwrites this slot and invalidates the prior challenge.
type CeremonySession struct {
	// Kind is the ceremony type the challenge was issued for.
	Kind CeremonyKind `json:"kind"`

	// Session holds the library session state bound to the challenge,
	// including the challenge value itself and its expiry.
	Session webauthn.SessionData `json:"session"`
}

// Expired reports whether the pending challenge has passed its expiry.
func (c *CeremonySession) Expired(now time.Time) bool {
	return !c.Session.Expires.IsZero() && now.After(c.Session.Expires)
}

// Device is a registered public-key credential bound to one user and one
// authenticator. Binary fields are persisted as unpadded URL-safe base64
// so records stay JSON-safe end to end; verification operates on the
// decoded bytes.
type Device struct {
	// CredentialID is the authenticator-assigned credential identifier.
	CredentialID string `json:"credentialID"`

	// PublicKey is the credential public key in COSE format.
	PublicKey string `json:"credentialPublicKey"`

	// Counter is the authenticator signature counter used for clone
	// detection. Zero for authenticators that do not implement counters.
	Counter uint32 `json:"counter"`

	// Transports are advisory hints describing how the browser may reach
	// the authenticator. Not security-relevant.
	Transports []string `json:"transports,omitempty"`

	// AttestationType records the attestation format negotiated at
	// registration ("none" unless configured otherwise).
	AttestationType string `json:"attestationType,omitempty"`

	// CreatedAt is when the credential was registered.
	CreatedAt time.Time `json:"createdAt"`

	// LastUsedAt is when the credential last completed an authentication.
	LastUsedAt time.Time `json:"lastUsedAt,omitempty"`
}

// Credential converts the Device into the library credential type,
// decoding the persisted text fields into raw bytes.
func (d *Device) Credential() (webauthn.Credential, error) {
	id, err := DecodeString(d.CredentialID)
	if err != nil {
		return webauthn.Credential{}, WrapError("decode credential id", err)
	}
	publicKey, err := DecodeString(d.PublicKey)
	if err != nil {
		return webauthn.Credential{}, WrapError("decode public key", err)
	}

	transports := make([]protocol.AuthenticatorTransport, len(d.Transports))
	for i, t := range d.Transports {
		transports[i] = protocol.AuthenticatorTransport(t)
	}

	return webauthn.Credential{
		ID:              id,
		PublicKey:       publicKey,
		AttestationType: d.AttestationType,
		Transport:       transports,
		Authenticator: webauthn.Authenticator{
			SignCount: d.Counter,
		},
	}, nil
}

// DeviceFromCredential creates a Device from a freshly verified library
// credential.
func DeviceFromCredential(cred *webauthn.Credential) Device {
	transports := make([]string, len(cred.Transport))
	for i, t := range cred.Transport {
		transports[i] = string(t)
	}

	return Device{
		CredentialID:    EncodeBytes(cred.ID),
		PublicKey:       EncodeBytes(cred.PublicKey),
		Counter:         cred.Authenticator.SignCount,
		Transports:      transports,
		AttestationType: cred.AttestationType,
		CreatedAt:       time.Now().UTC(),
	}
}

// User is a relying-party account with its registered devices and the
// single pending ceremony slot.
type User struct {
	// ID is the opaque stable identifier assigned at creation, never reused.
	ID string `json:"id"`

	// Username is the unique human-readable handle and primary lookup key.
	Username string `json:"username"`

	// Devices are the registered credentials in registration order.
	Devices []Device `json:"devices"`

	// CurrentCeremony is the pending challenge, if a ceremony is in flight.
	CurrentCeremony *CeremonySession `json:"currentChallenge,omitempty"`

	// CreatedAt is when the account was created.
	CreatedAt time.Time `json:"createdAt"`
}

// WebAuthnID returns the user handle presented to authenticators.
func (u *User) WebAuthnID() []byte {
	return []byte(u.ID)
}

// WebAuthnName returns the user's login name.
func (u *User) WebAuthnName() string {
	return u.Username
}

// WebAuthnDisplayName returns the name shown by the platform UI.
func (u *User) WebAuthnDisplayName() string {
	return u.Username
}

// WebAuthnCredentials returns the user's registered credentials in the
// library's representation. Devices with undecodable fields are skipped;
// they can never verify anyway.
func (u *User) WebAuthnCredentials() []webauthn.Credential {
	creds := make([]webauthn.Credential, 0, len(u.Devices))
	for i := range u.Devices {
		cred, err := u.Devices[i].Credential()
		if err != nil {
			continue
		}
		creds = append(creds, cred)
	}
	return creds
}

// CredentialDescriptors returns descriptors for every registered device,
// used as the registration exclude list and the authentication allow list.
func (u *User) CredentialDescriptors() []protocol.CredentialDescriptor {
	descriptors := make([]protocol.CredentialDescriptor, 0, len(u.Devices))
	for i := range u.Devices {
		raw, err := DecodeString(u.Devices[i].CredentialID)
		if err != nil {
			continue
		}
		transports := make([]protocol.AuthenticatorTransport, len(u.Devices[i].Transports))
		for j, t := range u.Devices[i].Transports {
			transports[j] = protocol.AuthenticatorTransport(t)
		}
		descriptors = append(descriptors, protocol.CredentialDescriptor{
			Type:         protocol.PublicKeyCredentialType,
			CredentialID: raw,
			Transport:    transports,
		})
	}
	return descriptors
}

// FindDevice returns the device matching the raw credential ID, or nil.
func (u *User) FindDevice(credentialID []byte) *Device {
	encoded := EncodeBytes(credentialID)
	for i := range u.Devices {
		if u.Devices[i].CredentialID == encoded {
			return &u.Devices[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the user record.
func (u *User) Clone() *User {
	clone := *u
	clone.Devices = make([]Device, len(u.Devices))
	copy(clone.Devices, u.Devices)
	for i := range clone.Devices {
		clone.Devices[i].Transports = append([]string(nil), u.Devices[i].Transports...)
	}
	if u.CurrentCeremony != nil {
		ceremony := *u.CurrentCeremony
		clone.CurrentCeremony = &ceremony
	}
	return &clone
}

// Result is the outcome of a finished ceremony.
type Result struct {
	// Verified reports whether the response passed verification.
	Verified bool `json:"verified"`

	// Username is the account the ceremony was performed for.
	Username string `json:"username"`

	// UserID is the account's stable identifier.
	UserID string `json:"userID,omitempty"`
}
