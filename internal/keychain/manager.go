// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides centralized, thread-safe keychain operations for
// the Geo Engine CLI. It manages all interactions with the OS credential
// store, providing a unified interface for the session token, the server URL
// it belongs to, and serialized login state.
//
// Native backends are used on every platform: macOS Keychain, Windows
// Credential Manager, and Secret Service / KWallet / pass on Linux. There is
// no plaintext file fallback.
package keychain

import (
	"sync"

	"github.com/99designs/keyring"
)

// Global keychain manager instance
var (
	globalManager *Manager
	globalError   error
	mu            sync.Mutex
)

// Manager provides centralized, thread-safe operations for the OS keychain.
type Manager struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "geoengine"

// Keys used for storing secrets in the OS keychain.
const (
	KeySessionToken = "session_token"
	KeyServerURL    = "server_url"
	KeyAuthState    = "auth_state"
)

// NewManager creates a new keychain manager with the OS keyring initialized.
func NewManager() (*Manager, error) {
	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return &Manager{ring: ring}, nil
}

// GetManager returns the global keychain manager instance.
// If not initialized, it will be created on first call.
// If initialization fails, it will retry on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}

	globalManager, globalError = NewManager()
	if globalError != nil {
		globalManager = nil
		return nil, globalError
	}
	return globalManager, nil
}

// MustGetManager returns the global keychain manager instance.
// Panics if initialization fails. Use only when initialization is known to succeed.
func MustGetManager() *Manager {
	manager, err := GetManager()
	if err != nil {
		panic(err)
	}
	return manager
}

// openRing opens the OS keyring using native platform backends only.
func openRing() (keyring.Keyring, error) {
	return keyring.Open(keyring.Config{
		ServiceName: ServiceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
		},
		KeychainTrustApplication: true,
	})
}

// SaveSession stores the session token and the server URL it was issued by.
func (m *Manager) SaveSession(token, serverURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token != "" {
		if err := m.set(KeySessionToken, token); err != nil {
			return err
		}
	}
	if serverURL != "" {
		if err := m.set(KeyServerURL, serverURL); err != nil {
			return err
		}
	}
	return nil
}

// LoadSessionToken retrieves the session token from the keychain.
// A missing entry yields an empty string, not an error.
func (m *Manager) LoadSessionToken() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.get(KeySessionToken)
}

// LoadServerURL retrieves the server URL the stored session belongs to.
func (m *Manager) LoadServerURL() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.get(KeyServerURL)
}

// ClearSession removes the session token and server URL from the keychain.
func (m *Manager) ClearSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for _, key := range []string{KeySessionToken, KeyServerURL} {
		if err := m.delete(key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SaveAuthState stores serialized login state in the keychain.
func (m *Manager) SaveAuthState(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ring.Set(keyring.Item{Key: KeyAuthState, Data: data})
}

// LoadAuthState retrieves serialized login state. Missing state yields nil.
func (m *Manager) LoadAuthState() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, err := m.ring.Get(KeyAuthState)
	if err == keyring.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.Data, nil
}

// ClearAuthState removes the stored login state from the keychain.
func (m *Manager) ClearAuthState() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.delete(KeyAuthState)
}

func (m *Manager) set(key, value string) error {
	return m.ring.Set(keyring.Item{Key: key, Data: []byte(value)})
}

func (m *Manager) get(key string) (string, error) {
	item, err := m.ring.Get(key)
	if err == keyring.ErrKeyNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(item.Data), nil
}

func (m *Manager) delete(key string) error {
	err := m.ring.Remove(key)
	if err == keyring.ErrKeyNotFound {
		return nil
	}
	return err
}
