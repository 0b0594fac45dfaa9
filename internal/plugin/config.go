package plugin

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fnos-labs/fnos-cli/internal/config"
	"github.com/fnos-labs/fnos-cli/internal/schema"
)

// ErrReadonly is matched by every error returned from ReadonlyAuth writes.
var ErrReadonly = errors.New("readonly credentials")

// ReadonlyError reports an attempted write to a ReadonlyAuth property.
type ReadonlyError struct {
	Op       string // "modify" or "delete"
	Property string
}

func (e *ReadonlyError) Error() string {
	return fmt.Sprintf("cannot %s readonly property '%s'", e.Op, e.Property)
}

// Is makes errors.Is(err, ErrReadonly) true.
func (e *ReadonlyError) Is(target error) bool {
	return target == ErrReadonly
}

// GetConfig returns the configuration of plugin name from settings, or an
// empty Config when the settings have no plugins section or no entry for
// the plugin. Values that are not mappings count as absent.
func GetConfig(name string, settings map[string]any) Config {
	plugins, ok := settings["plugins"].(map[string]any)
	if !ok {
		return Config{}
	}
	cfg, ok := plugins[name].(map[string]any)
	if !ok {
		return Config{}
	}
	out := make(Config, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}
	return out
}

// ValidateConfig checks cfg against a plugin's schema. A nil schema accepts
// everything. The error return is for schemas that do not compile.
func ValidateConfig(cfg Config, doc map[string]any) (schema.Result, error) {
	if doc == nil {
		return schema.Result{Valid: true}, nil
	}
	if cfg == nil {
		cfg = Config{}
	}
	return schema.Validate(map[string]any(cfg), doc)
}

// ReadonlyAuth is a getter-only view of the stored credentials. It keeps
// its own copy, so later changes to the source are not visible through it.
type ReadonlyAuth struct {
	c config.Credentials
}

// NewReadonlyAuth wraps c. A nil c yields a nil view.
func NewReadonlyAuth(c *config.Credentials) *ReadonlyAuth {
	if c == nil {
		return nil
	}
	return &ReadonlyAuth{c: *c}
}

func (a *ReadonlyAuth) Endpoint() string  { return a.c.Endpoint }
func (a *ReadonlyAuth) Username() string  { return a.c.Username }
func (a *ReadonlyAuth) Password() string  { return a.c.Password }
func (a *ReadonlyAuth) Token() string     { return a.c.Token }
func (a *ReadonlyAuth) LongToken() string { return a.c.LongToken }
func (a *ReadonlyAuth) Secret() string    { return a.c.Secret }

// Credentials returns a copy of the wrapped credentials.
func (a *ReadonlyAuth) Credentials() config.Credentials { return a.c }

// Get reads a property by its settings key.
func (a *ReadonlyAuth) Get(key string) (string, bool) {
	switch key {
	case "endpoint":
		return a.c.Endpoint, true
	case "username":
		return a.c.Username, true
	case "password":
		return a.c.Password, true
	case "token":
		return a.c.Token, true
	case "longToken":
		return a.c.LongToken, true
	case "secret":
		return a.c.Secret, true
	}
	return "", false
}

// Set always fails.
func (a *ReadonlyAuth) Set(key string, _ any) error {
	return &ReadonlyError{Op: "modify", Property: key}
}

// Delete always fails.
func (a *ReadonlyAuth) Delete(key string) error {
	return &ReadonlyError{Op: "delete", Property: key}
}

// MarshalJSON encodes the credentials with their settings keys.
func (a *ReadonlyAuth) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.c)
}
