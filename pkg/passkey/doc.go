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

// Package passkey implements the WebAuthn ceremony engine for passwordless
// authentication: it issues challenges bound to a user and ceremony type,
// verifies attestation and assertion responses against the configured
// relying party, persists public-key credentials per user, and detects
// cloned authenticators through the signature counter.
//
// The package is transport-agnostic. Applications provide a UserStore for
// persistence and drive the four ceremony operations:
//
//	svc, _ := passkey.NewService(passkey.ServiceParams{
//	    Config: &passkey.Config{
//	        RPID:          "example.com",
//	        RPDisplayName: "Example Corp",
//	        RPOrigins:     []string{"https://example.com"},
//	    },
//	    UserStore: passkey.NewMemoryUserStore(),
//	})
//
//	options, _ := svc.BeginRegistration(ctx, "alice")
//	// ... browser invokes navigator.credentials.create(options) ...
//	result, _ := svc.FinishRegistration(ctx, "alice", response)
//
// Cryptographic verification (client-data hashing, authenticator-data
// parsing, COSE signature checks) is delegated to
// github.com/go-webauthn/webauthn; this package owns the ceremony state
// machine and the credential lifecycle around it.
//
// Each user holds at most one pending ceremony. Beginning a new ceremony
// overwrites any outstanding challenge, and finishing a ceremony consumes
// the challenge unconditionally, whether verification succeeds or fails.
package passkey
