package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fnos-labs/fnos-cli/internal/branding"
	"github.com/fnos-labs/fnos-cli/internal/platform"
	"github.com/spf13/viper"
)

const (
	fileName = "settings"
	fileType = "json"

	dirPerm  os.FileMode = 0o700
	filePerm os.FileMode = 0o600
)

// authFields are the settings keys holding login credentials.
var authFields = []string{"endpoint", "username", "password", "token", "longToken", "secret"}

// Dir returns the path to the settings directory (~/.fnos/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the settings file path. FNOS_SETTINGS overrides the
// default ~/.fnos/settings.json.
func FilePath() string {
	if p := os.Getenv(branding.EnvVar("SETTINGS")); p != "" {
		return p
	}
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// Credentials holds the authentication fields persisted by login.
type Credentials struct {
	Endpoint  string `json:"endpoint,omitempty"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
	Token     string `json:"token,omitempty"`
	LongToken string `json:"longToken,omitempty"`
	Secret    string `json:"secret,omitempty"`
}

// IsZero reports whether no credential field is set.
func (c Credentials) IsZero() bool {
	return c == Credentials{}
}

// Store is the settings file plus environment overrides. Key lookups go
// through Viper so FNOS_<KEY> variables win over the file; the raw document
// is kept alongside because Viper folds key case and plugin settings are
// case-sensitive.
type Store struct {
	mu     sync.RWMutex
	path   string
	v      *viper.Viper
	raw    map[string]any
	exists bool
}

// NewStore creates a store backed by the file at path. Nothing is read until Load.
func NewStore(path string) *Store {
	return &Store{path: path, v: newViper(), raw: map[string]any{}}
}

// Default returns a store for FilePath().
func Default() *Store {
	return NewStore(FilePath())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType(fileType)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.AutomaticEnv()
	return v
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads the settings file. A missing file is not an error and leaves
// the store empty.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v = newViper()
	s.raw = map[string]any{}
	s.exists = false

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading settings %s: %w", s.path, err)
	}
	s.exists = true

	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing settings %s: %w", s.path, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	s.raw = raw

	if err := s.v.ReadConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("loading settings %s: %w", s.path, err)
	}
	return nil
}

// Exists reports whether the settings file was present at the last Load or Save.
func (s *Store) Exists() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exists
}

// All returns a deep copy of the settings document with original key case.
func (s *Store) All() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return deepCopy(s.raw)
}

// Get returns the value for key, honoring environment overrides.
func (s *Store) Get(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.Get(key)
}

// GetString returns the value for key as a string. Returns empty string if not set.
func (s *Store) GetString(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetString(key)
}

// Set stores a top-level key. Call Save to persist it.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[key] = value
	s.v.Set(key, value)
}

// Save writes the settings document with owner-only permissions.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	data, err := json.MarshalIndent(s.raw, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, filePerm); err != nil {
		return fmt.Errorf("writing settings %s: %w", s.path, err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := platform.Chmod(s.path, filePerm); err != nil {
		return fmt.Errorf("securing settings %s: %w", s.path, err)
	}
	s.exists = true
	return nil
}

// Clear removes the settings file entirely.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing settings %s: %w", s.path, err)
	}
	s.raw = map[string]any{}
	s.v = newViper()
	s.exists = false
	return nil
}

// ClearCredentials removes only the authentication fields, keeping plugin
// settings and plugin paths. The file is rewritten even when it ends up empty.
func (s *Store) ClearCredentials() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists {
		return nil
	}
	for _, f := range authFields {
		delete(s.raw, f)
	}
	if err := s.saveLocked(); err != nil {
		return err
	}
	return s.reloadViperLocked()
}

// Credentials returns the stored credentials, or nil when none are set.
func (s *Store) Credentials() *Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := Credentials{
		Endpoint:  s.v.GetString("endpoint"),
		Username:  s.v.GetString("username"),
		Password:  s.v.GetString("password"),
		Token:     s.v.GetString("token"),
		LongToken: s.v.GetString("longToken"),
		Secret:    s.v.GetString("secret"),
	}
	if c.IsZero() {
		return nil
	}
	return &c
}

// SaveCredentials merges the credentials into the settings and saves them.
func (s *Store) SaveCredentials(c Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := map[string]string{
		"endpoint":  c.Endpoint,
		"username":  c.Username,
		"password":  c.Password,
		"token":     c.Token,
		"longToken": c.LongToken,
		"secret":    c.Secret,
	}
	for k, v := range values {
		if v == "" {
			continue
		}
		s.raw[k] = v
	}
	if err := s.saveLocked(); err != nil {
		return err
	}
	return s.reloadViperLocked()
}

// PluginPaths returns the user-configured plugin directories.
func (s *Store) PluginPaths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, ok := s.raw["pluginPaths"].([]any)
	if !ok {
		return nil
	}
	var paths []string
	for _, p := range list {
		if str, ok := p.(string); ok && strings.TrimSpace(str) != "" {
			paths = append(paths, str)
		}
	}
	return paths
}

func (s *Store) reloadViperLocked() error {
	data, err := json.Marshal(s.raw)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	v := newViper()
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	s.v = v
	return nil
}

// deepCopy copies nested maps and slices so callers cannot mutate the store.
func deepCopy(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopy(val)
	case []any:
		a := make([]any, len(val))
		for i, item := range val {
			a[i] = copyValue(item)
		}
		return a
	default:
		return val
	}
}
