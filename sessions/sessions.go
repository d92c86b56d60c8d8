// Package sessions persists per-site login cookies captured by the browser.
package sessions

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrNoSession  = errors.New("no saved session")
	ErrInvalidKey = errors.New("invalid site key")
)

// Cookie is one browser cookie as captured after login.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}

// Store maps a site key to its saved cookies.
type Store interface {
	Has(key string) bool
	Load(key string) ([]Cookie, error)
	Save(key string, cookies []Cookie) error
	Delete(key string) (bool, error)
	List() ([]string, error)
}

const cookieSuffix = "-cookies.json"

var validKey = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// FileStore keeps one JSON file per site under a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key+cookieSuffix), nil
}

// Has reports whether a cookie file exists for key.
func (s *FileStore) Has(key string) bool {
	path, err := s.path(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Load returns the saved cookies for key, or ErrNoSession.
func (s *FileStore) Load(key string) ([]Cookie, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return cookies, nil
}

// Save replaces the cookies stored for key.
func (s *FileStore) Save(key string, cookies []Cookie) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if cookies == nil {
		cookies = []Cookie{}
	}

	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Delete removes the session for key. It reports false when there was
// nothing to remove.
func (s *FileStore) Delete(key string) (bool, error) {
	path, err := s.path(key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	return true, nil
}

// List returns the keys that have a saved session, sorted.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	keys := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, cookieSuffix) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, cookieSuffix))
	}
	sort.Strings(keys)
	return keys, nil
}
