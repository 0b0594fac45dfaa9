// Package config manages user-level settings stored at ~/.fnos/settings.json:
// login credentials, extra plugin directories and per-plugin configuration
// under the "plugins" key.
package config
