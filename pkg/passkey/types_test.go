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
	"testing"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDevice(t *testing.T, id, key []byte, counter uint32) Device {
	t.Helper()
	return Device{
		CredentialID: EncodeBytes(id),
		PublicKey:    EncodeBytes(key),
		Counter:      counter,
		Transports:   []string{"internal"},
		CreatedAt:    time.Now().UTC(),
	}
}

func TestDevice_CredentialRoundTrip(t *testing.T) {
	device := testDevice(t, []byte("cred-id"), []byte("cose-key"), 7)

	cred, err := device.Credential()
	require.NoError(t, err)
	assert.Equal(t, []byte("cred-id"), cred.ID)
	assert.Equal(t, []byte("cose-key"), cred.PublicKey)
	assert.Equal(t, uint32(7), cred.Authenticator.SignCount)
	require.Len(t, cred.Transport, 1)
	assert.Equal(t, "internal", string(cred.Transport[0]))

	back := DeviceFromCredential(&cred)
	assert.Equal(t, device.CredentialID, back.CredentialID)
	assert.Equal(t, device.PublicKey, back.PublicKey)
	assert.Equal(t, device.Counter, back.Counter)
	assert.Equal(t, device.Transports, back.Transports)
}

func TestDevice_CredentialBadEncoding(t *testing.T) {
	device := Device{CredentialID: "not!!base64url", PublicKey: "also bad"}
	_, err := device.Credential()
	assert.Error(t, err)
}

func TestUser_WebAuthnInterface(t *testing.T) {
	user := &User{
		ID:       "user-id-1",
		Username: "alice",
		Devices: []Device{
			testDevice(t, []byte("cred-1"), []byte("key-1"), 1),
			testDevice(t, []byte("cred-2"), []byte("key-2"), 2),
		},
	}

	assert.Equal(t, []byte("user-id-1"), user.WebAuthnID())
	assert.Equal(t, "alice", user.WebAuthnName())
	assert.Equal(t, "alice", user.WebAuthnDisplayName())

	creds := user.WebAuthnCredentials()
	require.Len(t, creds, 2)
	assert.Equal(t, []byte("cred-1"), creds[0].ID)
	assert.Equal(t, []byte("cred-2"), creds[1].ID)
}

func TestUser_CredentialDescriptors(t *testing.T) {
	user := &User{
		ID:       "user-id-1",
		Username: "alice",
		Devices: []Device{
			testDevice(t, []byte("cred-1"), []byte("key-1"), 1),
		},
	}

	descriptors := user.CredentialDescriptors()
	require.Len(t, descriptors, 1)
	assert.Equal(t, []byte("cred-1"), []byte(descriptors[0].CredentialID))
}

func TestUser_FindDevice(t *testing.T) {
	user := &User{
		Username: "alice",
		Devices: []Device{
			testDevice(t, []byte("cred-1"), []byte("key-1"), 1),
		},
	}

	found := user.FindDevice([]byte("cred-1"))
	require.NotNil(t, found)
	assert.Equal(t, EncodeBytes([]byte("cred-1")), found.CredentialID)

	assert.Nil(t, user.FindDevice([]byte("missing")))

	// FindDevice returns a pointer into the slice so counter updates stick.
	found.Counter = 42
	assert.Equal(t, uint32(42), user.Devices[0].Counter)
}

func TestUser_Clone(t *testing.T) {
	user := &User{
		ID:       "user-id-1",
		Username: "alice",
		Devices: []Device{
			testDevice(t, []byte("cred-1"), []byte("key-1"), 1),
		},
		CurrentCeremony: &CeremonySession{
			Kind:    CeremonyRegistration,
			Session: webauthn.SessionData{Challenge: "abc"},
		},
	}

	clone := user.Clone()
	clone.Devices[0].Counter = 99
	clone.Devices[0].Transports[0] = "usb"
	clone.CurrentCeremony.Kind = CeremonyAuthentication

	assert.Equal(t, uint32(1), user.Devices[0].Counter)
	assert.Equal(t, "internal", user.Devices[0].Transports[0])
	assert.Equal(t, CeremonyRegistration, user.CurrentCeremony.Kind)
}

func TestCeremonySession_Expired(t *testing.T) {
	now := time.Now()

	active := &CeremonySession{Session: webauthn.SessionData{Expires: now.Add(time.Minute)}}
	assert.False(t, active.Expired(now))

	expired := &CeremonySession{Session: webauthn.SessionData{Expires: now.Add(-time.Second)}}
	assert.True(t, expired.Expired(now))

	// Zero expiry means no enforcement.
	unbounded := &CeremonySession{}
	assert.False(t, unbounded.Expired(now))
}

func TestChallengeEncoding(t *testing.T) {
	challenge, err := NewChallenge()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(challenge), 16)

	encoded := EncodeBytes(challenge)
	assert.NotContains(t, encoded, "=")

	decoded, err := DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, []byte(challenge), decoded)
}
