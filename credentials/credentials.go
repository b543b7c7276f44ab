// Package credentials stores provider secrets outside the configuration
// file, so a shared pagetrans.yaml never has to carry API keys.
//
// The store lives in the XDG data directory:
//
//	$XDG_DATA_HOME/pagetrans/auth.json  (default: ~/.local/share/pagetrans/)
//
// It is a JSON object keyed by provider name. File permissions are 0600.
//
// Lookup order for a provider key:
//  1. configuration file or PAGETRANS_* / legacy environment variable
//  2. this store
package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dataDirName = "pagetrans"
	fileName    = "auth.json"
)

// Info holds the stored secrets of one provider.
type Info struct {
	Key     string `json:"key,omitempty"`
	BaseURL string `json:"baseUrl,omitempty"`
	// Email raises the MyMemory daily quota.
	Email string `json:"email,omitempty"`
}

// Store holds all provider entries, keyed by provider name.
type Store map[string]*Info

// ---------------------------------------------------------------------------
// File path
// ---------------------------------------------------------------------------

func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

func filePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// FilePath returns the auth.json path for display purposes.
func FilePath() string {
	p, err := filePath()
	if err != nil {
		return ""
	}
	return p
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the store. A missing or unreadable file yields an empty store.
func Load() Store {
	path, err := filePath()
	if err != nil {
		return make(Store)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	return store
}

// Save writes the store with 0600 permissions.
func Save(store Store) error {
	path, err := filePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Get returns the entry of a provider, or nil.
func (s Store) Get(provider string) *Info {
	return s[provider]
}

// Set stores an entry (upsert). Empty fields keep their previous value.
func Set(provider string, info Info) error {
	store := Load()
	if old := store[provider]; old != nil {
		if info.Key == "" {
			info.Key = old.Key
		}
		if info.BaseURL == "" {
			info.BaseURL = old.BaseURL
		}
		if info.Email == "" {
			info.Email = old.Email
		}
	}
	store[provider] = &info
	return Save(store)
}

// Remove deletes the entry of a provider.
func Remove(provider string) error {
	store := Load()
	if _, ok := store[provider]; !ok {
		return nil
	}
	delete(store, provider)
	return Save(store)
}

// RemoveAll deletes the store file.
func RemoveAll() error {
	path, err := filePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing auth file: %w", err)
	}
	return nil
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
