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
	"time"
)

// UserStore persists user records keyed by username. Implementations must
// be safe for concurrent use. Infrastructure failures are reported as
// ErrStoreUnavailable (wrapped); absence is ErrUserNotFound.
type UserStore interface {
	// Exists reports whether a user with the given username exists.
	Exists(ctx context.Context, username string) (bool, error)

	// Get returns a copy of the user record. Returns ErrUserNotFound if
	// no such user exists.
	Get(ctx context.Context, username string) (*User, error)

	// Create stores a new user record. Returns ErrUserAlreadyExists if
	// the username is taken.
	Create(ctx context.Context, user *User) error

	// Update replaces an existing user record. Returns ErrUserNotFound
	// if no such user exists.
	Update(ctx context.Context, user *User) error

	// Mutate applies fn to the user record as a single atomic
	// read-modify-write. fn receives a private copy; the mutated copy is
	// written back only when fn returns nil. Errors from fn are returned
	// unchanged. Returns ErrUserNotFound if no such user exists.
	Mutate(ctx context.Context, username string, fn func(user *User) error) (*User, error)

	// List returns all user records.
	List(ctx context.Context) ([]*User, error)

	// Delete removes the user record. Returns ErrUserNotFound if no such
	// user exists.
	Delete(ctx context.Context, username string) error
}

// MetricsRecorder receives ceremony outcomes for instrumentation.
// Implementations must not block.
type MetricsRecorder interface {
	// RecordCeremony records a finished ceremony with its outcome status
	// and end-to-end duration.
	RecordCeremony(kind CeremonyKind, status string, duration time.Duration)

	// RecordCloneWarning records a detected signature counter regression.
	RecordCloneWarning()
}

// noopMetrics is used when no recorder is configured.
type noopMetrics struct{}

func (noopMetrics) RecordCeremony(CeremonyKind, string, time.Duration) {}
func (noopMetrics) RecordCloneWarning()                                {}
