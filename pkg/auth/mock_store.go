package auth

import "sync"

// MockStore is an in-memory TokenStore for testing
type MockStore struct {
	mu    sync.Mutex
	token string
	set   bool

	// StoreErr, if set, is returned by Store
	StoreErr error
}

// NewMockStore creates a new mock token store
func NewMockStore() *MockStore {
	return &MockStore{}
}

// Store saves the token in memory
func (m *MockStore) Store(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.StoreErr != nil {
		return m.StoreErr
	}

	m.token = token
	m.set = true
	return nil
}

// Retrieve gets the in-memory token
func (m *MockStore) Retrieve() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.set {
		return "", ErrTokenNotFound
	}
	return m.token, nil
}

// Delete removes the in-memory token
func (m *MockStore) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.set {
		return ErrTokenNotFound
	}
	m.token = ""
	m.set = false
	return nil
}

// Exists checks if a token is stored
func (m *MockStore) Exists() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set
}

// NewManagerWithStores creates a Manager over explicit backends, for tests
func NewManagerWithStores(stores ...TokenStore) *Manager {
	return &Manager{stores: stores}
}
