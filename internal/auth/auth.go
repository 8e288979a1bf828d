// Package auth resolves and stores the API key. Resolution order: explicit
// flag/env value, then the OS keyring entry written by `fathom login`.
// The key itself never touches the settings file.
package auth

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

// ServiceName namespaces our entries in the OS keyring.
const ServiceName = "fathom-cli"

const apiKeyEntry = "api_key"

// ErrNotLoggedIn is returned when no API key can be found anywhere.
var ErrNotLoggedIn = errors.New("no API key found; run `fathom login` or set FATHOM_API_KEY")

func openRing() (keyring.Keyring, error) {
	return keyring.Open(keyring.Config{
		ServiceName:              ServiceName,
		KeychainTrustApplication: true,
		FilePasswordFunc:         keyring.FixedStringPrompt(""),
	})
}

// ResolveAPIKey returns the explicit key when given, otherwise the stored
// one. A missing key yields ErrNotLoggedIn.
func ResolveAPIKey(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	key, err := StoredAPIKey()
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", ErrNotLoggedIn
	}
	return key, nil
}

// StoredAPIKey reads the API key from the OS keyring. A missing entry is
// not an error; it returns the empty string.
func StoredAPIKey() (string, error) {
	ring, err := openRing()
	if err != nil {
		return "", fmt.Errorf("failed to open keyring: %w", err)
	}
	item, err := ring.Get(apiKeyEntry)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read keyring: %w", err)
	}
	return string(item.Data), nil
}

// StoreAPIKey writes the API key to the OS keyring.
func StoreAPIKey(key string) error {
	ring, err := openRing()
	if err != nil {
		return fmt.Errorf("failed to open keyring: %w", err)
	}
	if err := ring.Set(keyring.Item{Key: apiKeyEntry, Data: []byte(key)}); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}
	return nil
}

// ClearAPIKey removes the stored API key; clearing an absent key is fine.
func ClearAPIKey() error {
	ring, err := openRing()
	if err != nil {
		return fmt.Errorf("failed to open keyring: %w", err)
	}
	if err := ring.Remove(apiKeyEntry); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to clear API key: %w", err)
	}
	return nil
}
