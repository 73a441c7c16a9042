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

package file

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jeremyhahn/go-passkey/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) (storage.Backend, string) {
	t.Helper()
	dir := t.TempDir()
	backend, err := New(dir)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return backend, dir
}

func TestNew_EmptyRootDir(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestNew_CreatesRootDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "store")
	_, err := New(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFileStorage_PutGet(t *testing.T) {
	backend, _ := newTestBackend(t)

	_, err := backend.Get("missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, backend.Put("users/alice.json", []byte(`{"id":"1"}`), storage.DefaultOptions()))

	data, err := backend.Get("users/alice.json")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":"1"}`), data)

	// Overwrite
	require.NoError(t, backend.Put("users/alice.json", []byte(`{"id":"2"}`), storage.DefaultOptions()))
	data, err = backend.Get("users/alice.json")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":"2"}`), data)
}

func TestFileStorage_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}

	backend, dir := newTestBackend(t)
	require.NoError(t, backend.Put("users/alice.json", []byte("secret"), storage.DefaultOptions()))

	info, err := os.Stat(filepath.Join(dir, "users", "alice.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	info, err = os.Stat(filepath.Join(dir, "users"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestFileStorage_Delete(t *testing.T) {
	backend, _ := newTestBackend(t)

	assert.ErrorIs(t, backend.Delete("missing"), storage.ErrNotFound)

	require.NoError(t, backend.Put("users/alice.json", []byte("x"), nil))
	require.NoError(t, backend.Delete("users/alice.json"))

	_, err := backend.Get("users/alice.json")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileStorage_List(t *testing.T) {
	backend, _ := newTestBackend(t)

	keys, err := backend.List("")
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, backend.Put("users/bob.json", []byte("b"), nil))
	require.NoError(t, backend.Put("users/alice.json", []byte("a"), nil))
	require.NoError(t, backend.Put("other/thing", []byte("o"), nil))

	keys, err = backend.List("users/")
	require.NoError(t, err)
	assert.Equal(t, []string{"users/alice.json", "users/bob.json"}, keys)

	keys, err = backend.List("")
	require.NoError(t, err)
	assert.Len(t, keys, 3)
}

func TestFileStorage_Exists(t *testing.T) {
	backend, _ := newTestBackend(t)

	ok, err := backend.Exists("users/alice.json")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.Put("users/alice.json", []byte("x"), nil))

	ok, err = backend.Exists("users/alice.json")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFileStorage_KeyTraversalBlocked(t *testing.T) {
	backend, dir := newTestBackend(t)

	// Plant a file outside the root; traversal keys must not reach it.
	outside := filepath.Join(filepath.Dir(dir), "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0600))
	t.Cleanup(func() { os.Remove(outside) })

	for _, key := range []string{
		"../outside.txt",
		"users/../../outside.txt",
		"/etc/passwd",
		"bad\x00key",
		"",
	} {
		_, err := backend.Get(key)
		assert.ErrorIs(t, err, storage.ErrInvalidKey, "Get %q", key)

		assert.ErrorIs(t, backend.Put(key, []byte("x"), nil), storage.ErrInvalidKey, "Put %q", key)
		assert.ErrorIs(t, backend.Delete(key), storage.ErrInvalidKey, "Delete %q", key)

		_, err = backend.Exists(key)
		assert.ErrorIs(t, err, storage.ErrInvalidKey, "Exists %q", key)
	}

	// Nothing outside the root was touched and nothing was written inside it.
	data, err := os.ReadFile(outside)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), data)

	keys, err := backend.List("")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFileStorage_InvalidKeysDoNotAlias(t *testing.T) {
	backend, _ := newTestBackend(t)

	// Two different invalid keys must not collapse onto one file.
	assert.ErrorIs(t, backend.Put("../a", []byte("a"), nil), storage.ErrInvalidKey)
	assert.ErrorIs(t, backend.Put("../b", []byte("b"), nil), storage.ErrInvalidKey)

	keys, err := backend.List("")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestListUsernames(t *testing.T) {
	backend, _ := newTestBackend(t)

	require.NoError(t, backend.Put(storage.UserPath("alice"), []byte("{}"), nil))
	require.NoError(t, backend.Put(storage.UserPath("bob"), []byte("{}"), nil))

	names, err := storage.ListUsernames(backend)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, names)
}
