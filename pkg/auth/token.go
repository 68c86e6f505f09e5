// Package auth stores the optional dataset-host API token.
//
// The dataset publisher hosts batches behind a general-purpose hosting API
// with tight anonymous request limits. A personal access token raises
// those limits; this package keeps it in the system keychain with an
// environment-variable fallback.
package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	// EnvToken is the environment variable holding the token when the
	// keychain is unavailable or unwanted.
	EnvToken = "DECENSOR_API_TOKEN"
)

var (
	// ErrTokenNotFound indicates no token is stored anywhere
	ErrTokenNotFound = errors.New("no API token stored")

	// ErrStoreUnavailable indicates the store cannot perform the operation
	ErrStoreUnavailable = errors.New("token store unavailable")
)

// TokenStore is the interface for storing and retrieving the API token
type TokenStore interface {
	// Store saves the token
	Store(token string) error

	// Retrieve gets the stored token
	Retrieve() (string, error)

	// Delete removes the stored token
	Delete() error

	// Exists checks if a token is stored
	Exists() bool
}

// Manager resolves the token across storage backends, preferring the
// system keychain and falling back to the environment.
type Manager struct {
	stores []TokenStore
}

// NewManager creates a token manager with the available backends
func NewManager() *Manager {
	var stores []TokenStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}
}

// Token returns the first token found across the backends. An empty
// string with ErrTokenNotFound means anonymous access.
func (m *Manager) Token() (string, error) {
	for _, store := range m.stores {
		token, err := store.Retrieve()
		if err == nil && token != "" {
			return token, nil
		}
	}
	return "", ErrTokenNotFound
}

// Store saves the token to the first writable backend
func (m *Manager) Store(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token must not be empty")
	}

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(token); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	if lastErr == nil {
		lastErr = ErrStoreUnavailable
	}
	return fmt.Errorf("failed to store token: %w", lastErr)
}

// Delete removes the token from every backend that holds one
func (m *Manager) Delete() error {
	deleted := false
	for _, store := range m.stores {
		if !store.Exists() {
			continue
		}
		if err := store.Delete(); err != nil {
			if errors.Is(err, ErrStoreUnavailable) {
				continue
			}
			return err
		}
		deleted = true
	}

	if !deleted {
		return ErrTokenNotFound
	}
	return nil
}

// Exists checks if any backend holds a token
func (m *Manager) Exists() bool {
	for _, store := range m.stores {
		if store.Exists() {
			return true
		}
	}
	return false
}

// EnvironmentStore reads the token from the environment. It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based token store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(token string) error {
	return ErrStoreUnavailable
}

// Retrieve gets the token from the environment
func (e *EnvironmentStore) Retrieve() (string, error) {
	token := os.Getenv(EnvToken)
	if token == "" {
		return "", ErrTokenNotFound
	}
	return token, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete() error {
	return ErrStoreUnavailable
}

// Exists checks if the environment variable is set
func (e *EnvironmentStore) Exists() bool {
	return os.Getenv(EnvToken) != ""
}
