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

package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  string
	}{
		{name: "simple", username: "alice"},
		{name: "email style", username: "alice@example.com"},
		{name: "with plus tag", username: "alice+tag@example.com"},
		{name: "with dots and dashes", username: "first.last-name_99"},
		{name: "empty", username: "", wantErr: "empty"},
		{name: "null byte", username: "alice\x00", wantErr: "null byte"},
		{name: "too long", username: strings.Repeat("a", 256), wantErr: "too long"},
		{name: "max length ok", username: strings.Repeat("a", 255)},
		{name: "absolute path", username: "/etc/passwd", wantErr: "absolute path"},
		{name: "traversal", username: "../alice", wantErr: "traversal"},
		{name: "embedded traversal", username: "users/../../alice", wantErr: "traversal"},
		{name: "control characters", username: "alice\n", wantErr: "control characters"},
		{name: "path separator", username: "users/alice", wantErr: "invalid characters"},
		{name: "spaces", username: "alice smith", wantErr: "invalid characters"},
		{name: "quotes", username: `alice"`, wantErr: "invalid characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
