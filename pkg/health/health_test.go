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

package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecker_Live(t *testing.T) {
	checker := NewChecker()
	result := checker.Live(context.Background())
	assert.Equal(t, StatusHealthy, result.Status)
	assert.Equal(t, "liveness", result.Name)
}

func TestChecker_Ready_NoChecks(t *testing.T) {
	checker := NewChecker()
	results := checker.Ready(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, StatusHealthy, results[0].Status)
	assert.True(t, checker.IsHealthy(context.Background()))
}

func TestChecker_Ready_WithChecks(t *testing.T) {
	checker := NewChecker()
	checker.RegisterCheck("store", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy}
	})
	checker.RegisterCheck("broken", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusUnhealthy, Error: "down"}
	})

	results := checker.Ready(context.Background())
	assert.Len(t, results, 2)
	assert.False(t, checker.IsHealthy(context.Background()))

	// Names default to the registration key.
	names := map[string]bool{}
	for _, r := range results {
		names[r.Name] = true
	}
	assert.True(t, names["store"])
	assert.True(t, names["broken"])

	checker.UnregisterCheck("broken")
	assert.True(t, checker.IsHealthy(context.Background()))
	assert.Equal(t, []string{"store"}, checker.GetAllChecks())
}

func TestChecker_Startup(t *testing.T) {
	checker := NewChecker()

	result := checker.Startup(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.False(t, checker.IsStarted())

	checker.MarkStarted()
	result = checker.Startup(context.Background())
	assert.Equal(t, StatusHealthy, result.Status)
	assert.True(t, checker.IsStarted())

	checker.MarkNotStarted()
	assert.False(t, checker.IsStarted())
}

func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		name    string
		results []CheckResult
		want    Status
	}{
		{
			name:    "empty",
			results: nil,
			want:    StatusHealthy,
		},
		{
			name:    "all healthy",
			results: []CheckResult{{Status: StatusHealthy}, {Status: StatusHealthy}},
			want:    StatusHealthy,
		},
		{
			name:    "one degraded",
			results: []CheckResult{{Status: StatusHealthy}, {Status: StatusDegraded}},
			want:    StatusDegraded,
		},
		{
			name:    "unhealthy wins",
			results: []CheckResult{{Status: StatusDegraded}, {Status: StatusUnhealthy}},
			want:    StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AggregateStatus(tt.results))
		})
	}
}

func TestStoreCheck(t *testing.T) {
	ok := StoreCheck("store", func(ctx context.Context) error { return nil })
	result := ok(context.Background())
	assert.Equal(t, StatusHealthy, result.Status)
	assert.Equal(t, "store", result.Name)

	bad := StoreCheck("store", func(ctx context.Context) error { return errors.New("io error") })
	result = bad(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.Equal(t, "io error", result.Error)
}
