package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// User is one entry in the identity directory.
type User struct {
	Email   string `json:"email"`
	Role    string `json:"role"`
	Enabled bool   `json:"enabled"`
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role == "admin"
}

// Users is the identity directory, loaded from a JSON file of the form
// {"users": {"admin": {"email": ..., "role": "admin", "enabled": true}}}.
// It is safe for concurrent use and can be reloaded in place.
type Users struct {
	path string

	mu    sync.RWMutex
	users map[string]User
}

type usersFile struct {
	Users map[string]User `json:"users"`
}

// LoadUsers reads the directory from path.
func LoadUsers(path string) (*Users, error) {
	u := &Users{path: path}
	if err := u.Reload(); err != nil {
		return nil, err
	}

	return u, nil
}

// NewStaticUsers builds a directory from an in-memory map, for tests
// and single-user setups.
func NewStaticUsers(users map[string]User) *Users {
	return &Users{users: users}
}

// Reload re-reads the directory file.
func (u *Users) Reload() error {
	if u.path == "" {
		return nil
	}

	data, err := os.ReadFile(u.path) //nolint:gosec // path comes from operator config
	if err != nil {
		return fmt.Errorf("failed to read users file: %w", err)
	}

	var parsed usersFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse users file: %w", err)
	}

	u.mu.Lock()
	u.users = parsed.Users
	u.mu.Unlock()

	return nil
}

// Get returns the user for an identity.
func (u *Users) Get(identity string) (User, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	user, ok := u.users[identity]

	return user, ok
}

// IsEnabled reports whether the identity exists and is enabled.
func (u *Users) IsEnabled(identity string) bool {
	user, ok := u.Get(identity)

	return ok && user.Enabled
}

// EnabledIdentities returns all enabled identities in sorted order.
func (u *Users) EnabledIdentities() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()

	identities := make([]string, 0, len(u.users))

	for identity, user := range u.users {
		if user.Enabled {
			identities = append(identities, identity)
		}
	}

	sort.Strings(identities)

	return identities
}
