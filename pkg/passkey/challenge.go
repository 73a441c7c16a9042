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
	"encoding/base64"

	"github.com/go-webauthn/webauthn/protocol"
)

// Challenge generation is delegated to the WebAuthn library, which issues
// 32 bytes from crypto/rand for every Begin call. The helpers here cover the
// transport-safe encoding used for persisted and wire representations of
// binary credential fields: unpadded URL-safe base64, the same alphabet the
// browser uses for credential IDs.

// NewChallenge generates a fresh random challenge value.
func NewChallenge() ([]byte, error) {
	challenge, err := protocol.CreateChallenge()
	if err != nil {
		return nil, err
	}
	return challenge, nil
}

// EncodeBytes encodes raw bytes into the transport-safe text form.
func EncodeBytes(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeString decodes the transport-safe text form back into raw bytes.
func DecodeString(encoded string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(encoded)
}
