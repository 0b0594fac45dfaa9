package runtime

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fnos-labs/fnos-cli/internal/branding"
	"github.com/fnos-labs/fnos-cli/internal/manifest"
	"github.com/joho/godotenv"
)

// envFile is read from the plugin directory and added to the subprocess
// environment.
const envFile = "plugin.env"

// buildEnv constructs the environment for a subprocess plugin. It inherits
// the current process environment, adds the plugin.env values and sets
// FNOS_PLUGIN_NAME and FNOS_PLUGIN_DIR.
func buildEnv(m *manifest.Manifest, pluginDir string) ([]string, error) {
	env := os.Environ()

	vars, err := loadEnvFile(filepath.Join(pluginDir, envFile))
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = setEnv(env, k, vars[k])
	}

	env = setEnv(env, branding.EnvVar("PLUGIN_NAME"), m.Name)
	env = setEnv(env, branding.EnvVar("PLUGIN_DIR"), pluginDir)
	return env, nil
}

// loadEnvFile reads a dotenv file. A missing file yields no variables.
func loadEnvFile(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	for k, v := range vars {
		if strings.TrimSpace(k) == "" || v == "" {
			delete(vars, k)
		}
	}
	return vars, nil
}

// setEnv sets or replaces an environment variable in the env slice.
func setEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, e := range env {
		if strings.HasPrefix(e, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}
