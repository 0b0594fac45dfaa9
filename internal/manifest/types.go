package manifest

// Manifest file names, in lookup order. JSON is a subset of YAML so both go
// through the same decoder. A package.json counts only when it carries a
// fnos.plugin section, which is then read as the manifest.
const (
	FileYAML        = "plugin.yaml"
	FileJSON        = "plugin.json"
	FilePackageJSON = "package.json"
)

// Runtime constants for the runtime field.
const (
	RuntimeBuiltin = "builtin"
	RuntimeExec    = "exec"
	RuntimeNode    = "node"
)

// ValidRuntimes contains all valid runtime values.
var ValidRuntimes = []string{
	RuntimeBuiltin,
	RuntimeExec,
	RuntimeNode,
}

// Manifest describes a plugin directory.
type Manifest struct {
	Name        string `yaml:"name" json:"name"`
	Version     string `yaml:"version" json:"version"`
	Entry       string `yaml:"entry" json:"entry"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Author      string `yaml:"author,omitempty" json:"author,omitempty"`
	Runtime     string `yaml:"runtime,omitempty" json:"runtime,omitempty"`
	// Fnos is a semver constraint on the host CLI version, e.g. ">= 1.2".
	Fnos string `yaml:"fnos,omitempty" json:"fnos,omitempty"`

	// File is the manifest file the values were read from.
	File string `yaml:"-" json:"-"`

	raw map[string]any
}

// RuntimeName returns the declared runtime, defaulting to exec.
func (m *Manifest) RuntimeName() string {
	if m.Runtime == "" {
		return RuntimeExec
	}
	return m.Runtime
}

// Raw returns the decoded manifest document as read from disk.
func (m *Manifest) Raw() map[string]any {
	return m.raw
}
