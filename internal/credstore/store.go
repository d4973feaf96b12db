package credstore

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Store reads and writes named secrets backed by a flat key=value env file.
// Get falls back to the process environment for values that were never
// written to the file (CI secrets, shell exports).
type Store struct {
	path  string
	cache map[string]string
}

// New creates a store over the given env file path. The file does not
// need to exist yet; the first Set creates it.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the value for name, or "" if absent.
func (s *Store) Get(name string) string {
	if s.cache == nil {
		vals, err := godotenv.Read(s.path)
		if err != nil {
			vals = map[string]string{}
		}
		s.cache = vals
	}
	if v, ok := s.cache[name]; ok && v != "" {
		return v
	}
	return os.Getenv(name)
}

// Set durably persists name=value, replacing only the matching key and
// leaving unrelated entries untouched. The new value is visible to the
// process environment and to subsequent Get calls immediately.
func (s *Store) Set(name, value string) error {
	vals, err := godotenv.Read(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("read %s: %w", s.path, err)
		}
		vals = map[string]string{}
	}
	vals[name] = value

	if err := godotenv.Write(vals, s.path); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := os.Setenv(name, value); err != nil {
		return fmt.Errorf("set env %s: %w", name, err)
	}

	// Drop the cache so the next Get re-reads persisted state.
	s.cache = nil
	return nil
}

// Placeholder reports whether a credential value is an unfilled template
// entry (e.g. "your_api_key_here") rather than a real secret.
func Placeholder(value string) bool {
	return strings.Contains(value, "your_")
}
