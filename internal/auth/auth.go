// Package auth resolves the credentials a command runs with.
package auth

import (
	"errors"

	"github.com/fnos-labs/fnos-cli/internal/config"
)

// Credential sources.
const (
	SourceCommandLine  = "command_line"
	SourceSettingsFile = "settings_file"
)

var (
	// ErrPartialCredentials is returned when some but not all of endpoint,
	// username and password are given on the command line.
	ErrPartialCredentials = errors.New("endpoint, username and password must be given together")

	// ErrNoCredentials is returned when neither flags nor settings hold a
	// complete login.
	ErrNoCredentials = errors.New(`no valid credentials found: use "fnos login" or provide -e/-u/-p`)
)

// Flags are the credential values given on the command line.
type Flags struct {
	Endpoint string
	Username string
	Password string
}

// Resolved is the outcome of ResolveCredentials.
type Resolved struct {
	config.Credentials
	Source string
}

// HasPartialCredentials reports whether at least one but not all three
// values are set.
func HasPartialCredentials(f Flags) bool {
	n := 0
	for _, v := range []string{f.Endpoint, f.Username, f.Password} {
		if v != "" {
			n++
		}
	}
	return n > 0 && n < 3
}

// ResolveCredentials prefers complete command-line flags, which are never
// saved, and falls back to the credentials stored in settings.
func ResolveCredentials(f Flags, store *config.Store) (*Resolved, error) {
	if HasPartialCredentials(f) {
		return nil, ErrPartialCredentials
	}
	if f.Endpoint != "" {
		return &Resolved{
			Credentials: config.Credentials{Endpoint: f.Endpoint, Username: f.Username, Password: f.Password},
			Source:      SourceCommandLine,
		}, nil
	}

	c := store.Credentials()
	if c == nil || c.Endpoint == "" || c.Username == "" || c.Password == "" {
		return nil, ErrNoCredentials
	}
	return &Resolved{Credentials: *c, Source: SourceSettingsFile}, nil
}
