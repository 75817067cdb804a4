// Package preferences persists the explorer's per-user settings in a small
// YAML file.
package preferences

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	Theme          = "theme"
	EditMode       = "editMode"
	GraphQLResults = "graphQLResults"
	UserID         = "userId"
)

var ErrUnknownKey = errors.New("unknown preference")

type rule struct {
	def     string
	allowed []string // nil accepts any value passing check
	check   func(string) error
}

var rules = map[string]rule{
	Theme:          {def: "auto", allowed: []string{"auto", "dark", "light"}},
	EditMode:       {def: "basic", allowed: []string{"basic", "developer"}},
	GraphQLResults: {def: "table", allowed: []string{"table", "json", "chart"}},
	UserID: {check: func(v string) error {
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			return errors.New("must be an integer")
		}
		return nil
	}},
}

// Keys lists the known preferences in display order.
var Keys = []string{Theme, EditMode, GraphQLResults, UserID}

// Default returns the built-in value of key.
func Default(key string) (string, bool) {
	s, ok := rules[key]
	if !ok {
		return "", false
	}
	return s.def, true
}

// Allowed returns the accepted values of key, or nil when any value of the
// right shape is accepted.
func Allowed(key string) []string {
	return rules[key].allowed
}

// Validate checks value against the rules of key.
func Validate(key, value string) error {
	s, ok := rules[key]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	if s.allowed != nil && !slices.Contains(s.allowed, value) {
		return fmt.Errorf("invalid %s %q, want one of %v", key, value, s.allowed)
	}
	if s.check != nil {
		if err := s.check(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
	}
	return nil
}

// Store holds the preferences read from one file. Changes are kept in
// memory until Save.
type Store struct {
	path   string
	values map[string]string
}

// Open reads the store at path. A missing file is an empty store. Unknown
// keys in the file are dropped.
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: map[string]string{}}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode preferences %s: %w", path, err)
	}
	for k, v := range raw {
		if _, ok := rules[k]; ok {
			s.values[k] = v
		}
	}
	return s, nil
}

// Path returns the file the store is saved to.
func (s *Store) Path() string {
	return s.path
}

// Get returns the stored value of key, falling back to its default.
func (s *Store) Get(key string) string {
	if v, ok := s.values[key]; ok {
		return v
	}
	v, _ := Default(key)
	return v
}

// IsSet reports whether key has a stored value.
func (s *Store) IsSet(key string) bool {
	_, ok := s.values[key]
	return ok
}

func (s *Store) Set(key, value string) error {
	if err := Validate(key, value); err != nil {
		return err
	}
	s.values[key] = value
	return nil
}

// Remove drops the stored value of key so Get returns the default again.
func (s *Store) Remove(key string) error {
	if _, ok := rules[key]; !ok {
		return fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	delete(s.values, key)
	return nil
}

// Reset drops every stored value.
func (s *Store) Reset() {
	clear(s.values)
}

// Save writes the stored values. The file is created with mode 0600 since
// it can hold a user id.
func (s *Store) Save() error {
	data, err := yaml.Marshal(s.values)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, data, 0o600)
}
