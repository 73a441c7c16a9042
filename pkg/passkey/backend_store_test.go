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
	"errors"
	"testing"
	"time"

	"github.com/jeremyhahn/go-passkey/pkg/storage/file"
	"github.com/jeremyhahn/go-passkey/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-passkey/pkg/storage"
)

func newBackendStores(t *testing.T) map[string]*BackendUserStore {
	t.Helper()

	fileBackend, err := file.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { fileBackend.Close() })

	memBackend := memory.New()
	t.Cleanup(func() { memBackend.Close() })

	stores := make(map[string]*BackendUserStore)
	for name, backend := range map[string]storage.Backend{
		"file":   fileBackend,
		"memory": memBackend,
	} {
		store, err := NewBackendUserStore(backend)
		require.NoError(t, err)
		stores[name] = store
	}
	return stores
}

func TestNewBackendUserStore_NilBackend(t *testing.T) {
	_, err := NewBackendUserStore(nil)
	assert.Error(t, err)
}

func TestBackendUserStore_CRUD(t *testing.T) {
	for name, store := range newBackendStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "alice")
			assert.True(t, IsUserNotFound(err))

			user := newTestUser("alice")
			user.Devices = append(user.Devices, Device{
				CredentialID: "Y3JlZC0x",
				PublicKey:    "cHVi",
				Counter:      3,
				Transports:   []string{"internal"},
				CreatedAt:    time.Now().UTC(),
			})
			require.NoError(t, store.Create(ctx, user))

			err = store.Create(ctx, newTestUser("alice"))
			assert.True(t, IsUserAlreadyExists(err))

			exists, err := store.Exists(ctx, "alice")
			require.NoError(t, err)
			assert.True(t, exists)

			got, err := store.Get(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
			require.Len(t, got.Devices, 1)
			assert.Equal(t, uint32(3), got.Devices[0].Counter)
			assert.Equal(t, []string{"internal"}, got.Devices[0].Transports)

			got.Devices[0].Counter = 10
			require.NoError(t, store.Update(ctx, got))

			got, err = store.Get(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, uint32(10), got.Devices[0].Counter)

			err = store.Update(ctx, newTestUser("ghost"))
			assert.True(t, IsUserNotFound(err))

			require.NoError(t, store.Delete(ctx, "alice"))
			err = store.Delete(ctx, "alice")
			assert.True(t, IsUserNotFound(err))
		})
	}
}

func TestBackendUserStore_Mutate(t *testing.T) {
	for name, store := range newBackendStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Create(ctx, newTestUser("alice")))

			_, err := store.Mutate(ctx, "ghost", func(u *User) error { return nil })
			assert.True(t, IsUserNotFound(err))

			sentinel := errors.New("abort")
			_, err = store.Mutate(ctx, "alice", func(u *User) error {
				u.Devices = append(u.Devices, Device{CredentialID: "c1"})
				return sentinel
			})
			assert.ErrorIs(t, err, sentinel)

			got, err := store.Get(ctx, "alice")
			require.NoError(t, err)
			assert.Empty(t, got.Devices)

			result, err := store.Mutate(ctx, "alice", func(u *User) error {
				u.Devices = append(u.Devices, Device{CredentialID: "c1"})
				return nil
			})
			require.NoError(t, err)
			assert.Len(t, result.Devices, 1)

			got, err = store.Get(ctx, "alice")
			require.NoError(t, err)
			assert.Len(t, got.Devices, 1)
		})
	}
}

func TestBackendUserStore_List(t *testing.T) {
	for name, store := range newBackendStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			users, err := store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, users)

			require.NoError(t, store.Create(ctx, newTestUser("alice")))
			require.NoError(t, store.Create(ctx, newTestUser("bob")))

			users, err = store.List(ctx)
			require.NoError(t, err)
			assert.Len(t, users, 2)
		})
	}
}

func TestBackendUserStore_CeremonyRoundtrip(t *testing.T) {
	ctx := context.Background()
	backend, err := file.New(t.TempDir())
	require.NoError(t, err)
	defer backend.Close()

	store, err := NewBackendUserStore(backend)
	require.NoError(t, err)

	user := newTestUser("alice")
	require.NoError(t, store.Create(ctx, user))

	expires := time.Now().Add(2 * time.Minute).UTC().Truncate(time.Second)
	_, err = store.Mutate(ctx, "alice", func(u *User) error {
		u.CurrentCeremony = &CeremonySession{Kind: CeremonyRegistration}
		u.CurrentCeremony.Session.Challenge = "Y2hhbGxlbmdl"
		u.CurrentCeremony.Session.Expires = expires
		return nil
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got.CurrentCeremony)
	assert.Equal(t, CeremonyRegistration, got.CurrentCeremony.Kind)
	assert.Equal(t, "Y2hhbGxlbmdl", got.CurrentCeremony.Session.Challenge)
	assert.True(t, expires.Equal(got.CurrentCeremony.Session.Expires))
}
