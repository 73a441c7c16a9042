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
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jeremyhahn/go-passkey/pkg/storage"
)

// BackendUserStore persists user records as JSON documents in a
// storage.Backend under users/{username}.json. A store-level mutex
// serializes read-modify-write sequences so Mutate is atomic even though
// the backend only offers single-key operations.
type BackendUserStore struct {
	mu      sync.Mutex
	backend storage.Backend
}

// NewBackendUserStore creates a UserStore backed by the given storage
// backend.
func NewBackendUserStore(backend storage.Backend) (*BackendUserStore, error) {
	if backend == nil {
		return nil, fmt.Errorf("storage backend is required")
	}
	return &BackendUserStore{backend: backend}, nil
}

// Exists reports whether a user with the given username exists.
func (s *BackendUserStore) Exists(ctx context.Context, username string) (bool, error) {
	ok, err := s.backend.Exists(storage.UserPath(username))
	if err != nil {
		return false, StoreError(err)
	}
	return ok, nil
}

// Get returns the user record for the given username.
func (s *BackendUserStore) Get(ctx context.Context, username string) (*User, error) {
	return s.read(username)
}

// Create stores a new user record, failing if the username is taken.
func (s *BackendUserStore) Create(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := storage.UserPath(user.Username)
	exists, err := s.backend.Exists(key)
	if err != nil {
		return StoreError(err)
	}
	if exists {
		return ErrUserAlreadyExists
	}
	return s.write(user)
}

// Update replaces an existing user record.
func (s *BackendUserStore) Update(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.backend.Exists(storage.UserPath(user.Username))
	if err != nil {
		return StoreError(err)
	}
	if !exists {
		return ErrUserNotFound
	}
	return s.write(user)
}

// Mutate applies fn to the stored record under the store lock and writes
// the result back only when fn succeeds.
func (s *BackendUserStore) Mutate(ctx context.Context, username string, fn func(user *User) error) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.read(username)
	if err != nil {
		return nil, err
	}
	if err := fn(user); err != nil {
		return nil, err
	}
	if err := s.write(user); err != nil {
		return nil, err
	}
	return user.Clone(), nil
}

// List returns all user records ordered by username.
func (s *BackendUserStore) List(ctx context.Context) ([]*User, error) {
	usernames, err := storage.ListUsernames(s.backend)
	if err != nil {
		return nil, StoreError(err)
	}

	users := make([]*User, 0, len(usernames))
	for _, name := range usernames {
		user, err := s.read(name)
		if err != nil {
			// Deleted between List and Get; skip.
			if IsUserNotFound(err) {
				continue
			}
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// Delete removes the user record.
func (s *BackendUserStore) Delete(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Delete(storage.UserPath(username)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUserNotFound
		}
		return StoreError(err)
	}
	return nil
}

func (s *BackendUserStore) read(username string) (*User, error) {
	data, err := s.backend.Get(storage.UserPath(username))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, StoreError(err)
	}

	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, StoreError(fmt.Errorf("decode user %q: %w", username, err))
	}
	return &user, nil
}

func (s *BackendUserStore) write(user *User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return StoreError(fmt.Errorf("encode user %q: %w", user.Username, err))
	}
	if err := s.backend.Put(storage.UserPath(user.Username), data, storage.DefaultOptions()); err != nil {
		return StoreError(err)
	}
	return nil
}
