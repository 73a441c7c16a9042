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

// Package validation provides centralized input validation for the public
// surfaces (REST, CLI). Usernames become storage keys and log fields, so
// they are validated before reaching the ceremony engine.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// MaxUsernameLength bounds usernames to keep storage keys and WebAuthn
// user handles reasonable.
const MaxUsernameLength = 255

// usernamePattern allows email-style identifiers: alphanumerics plus the
// punctuation commonly found in account names.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9@_\-\.\+]+$`)

// ValidateUsername validates an account identifier.
// Prevents path traversal, injection, and other attacks by:
// - Rejecting empty strings
// - Rejecting null bytes and control characters
// - Rejecting absolute paths and parent directory references (..)
// - Allowing only safe characters
// - Enforcing length limits
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	// Check for null bytes (can bypass some path checks)
	if strings.Contains(username, "\x00") {
		return fmt.Errorf("username contains null byte")
	}

	// Check length before other validations (prevent ReDoS)
	if len(username) > MaxUsernameLength {
		return fmt.Errorf("username too long (max %d characters)", MaxUsernameLength)
	}

	// Check for absolute paths
	if filepath.IsAbs(username) {
		return fmt.Errorf("username cannot be an absolute path")
	}

	// Check for path traversal attempts
	cleaned := filepath.Clean(username)
	if strings.HasPrefix(cleaned, "..") || strings.Contains(cleaned, string(filepath.Separator)+"..") {
		return fmt.Errorf("username contains path traversal attempt")
	}

	// Check for control characters
	for _, r := range username {
		if r < 32 || r == 127 {
			return fmt.Errorf("username contains control characters")
		}
	}

	// Only allow safe characters
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("username contains invalid characters (allowed: a-z, A-Z, 0-9, @, -, _, ., +)")
	}

	return nil
}
