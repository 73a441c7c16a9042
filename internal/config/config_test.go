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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.RelyingParty.ID)
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.RelyingParty.Origins)
	assert.Equal(t, 2*time.Minute, cfg.RelyingParty.ChallengeTTL)
	assert.Equal(t, []string{"ES256", "RS256"}, cfg.RelyingParty.Algorithms)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.True(t, cfg.Health.Enabled)
	assert.Equal(t, "/healthz", cfg.Health.Path)
	assert.Equal(t, "/readyz", cfg.Health.ReadyPath)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)

	require.NoError(t, cfg.Validate())
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a map")
	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9443
relying_party:
  id: example.com
  display_name: Example
  origins:
    - https://example.com
  challenge_ttl: 5m
storage:
  backend: file
  path: /var/lib/passkey
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9443, cfg.Server.Port)
	// Unset fields keep their defaults.
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "example.com", cfg.RelyingParty.ID)
	assert.Equal(t, 5*time.Minute, cfg.RelyingParty.ChallengeTTL)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/passkey", cfg.Storage.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PASSKEY_HOST", "0.0.0.0")
	t.Setenv("PASSKEY_PORT", "9999")
	t.Setenv("PASSKEY_RP_ID", "env.example.com")
	t.Setenv("PASSKEY_RP_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("PASSKEY_LOG_LEVEL", "debug")
	t.Setenv("PASSKEY_STORAGE_BACKEND", "file")
	t.Setenv("PASSKEY_DATA_DIR", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "env.example.com", cfg.RelyingParty.ID)
	assert.Equal(t,
		[]string{"https://a.example.com", "https://b.example.com"},
		cfg.RelyingParty.Origins)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "file", cfg.Storage.Backend)
}

func TestLoad_InvalidEnvPortIgnored(t *testing.T) {
	t.Setenv("PASSKEY_PORT", "not-a-number")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)

	t.Setenv("PASSKEY_PORT", "70000")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server port",
		},
		{
			name:    "missing rp id",
			mutate:  func(c *Config) { c.RelyingParty.ID = "" },
			wantErr: "relying party ID",
		},
		{
			name:    "missing origins",
			mutate:  func(c *Config) { c.RelyingParty.Origins = nil },
			wantErr: "origin",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Storage.Backend = "redis" },
			wantErr: "unknown storage backend",
		},
		{
			name: "file backend without path",
			mutate: func(c *Config) {
				c.Storage.Backend = "file"
				c.Storage.Path = ""
			},
			wantErr: "storage path",
		},
		{
			name:    "tls without cert",
			mutate:  func(c *Config) { c.TLS.Enabled = true },
			wantErr: "cert_file",
		},
		{
			name:    "bad algorithm",
			mutate:  func(c *Config) { c.RelyingParty.Algorithms = []string{"EdDSA"} },
			wantErr: "unsupported algorithm",
		},
		{
			name:    "bad user verification",
			mutate:  func(c *Config) { c.RelyingParty.UserVerification = "always" },
			wantErr: "user verification",
		},
		{
			name: "rate limit without rate",
			mutate: func(c *Config) {
				c.RateLimit.Enabled = true
				c.RateLimit.RequestsPerMinute = 0
			},
			wantErr: "requests_per_minute",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestConfig_PasskeyConfig(t *testing.T) {
	cfg := Default()
	cfg.RelyingParty.ID = "example.com"
	cfg.RelyingParty.DisplayName = "Example"
	cfg.RelyingParty.Origins = []string{"https://example.com"}
	cfg.Logging.Level = "DEBUG"

	pc := cfg.PasskeyConfig()
	assert.Equal(t, "example.com", pc.RPID)
	assert.Equal(t, "Example", pc.RPDisplayName)
	assert.Equal(t, []string{"https://example.com"}, pc.RPOrigins)
	assert.Equal(t, 2*time.Minute, pc.ChallengeTTL)
	assert.True(t, pc.Debug)

	// Defaults are filled in for unset ceremony fields.
	assert.Equal(t, "preferred", pc.UserVerification)
	assert.Equal(t, "none", pc.AttestationPreference)
	assert.Equal(t, "required", pc.ResidentKeyRequirement)
}
