package plugin

import (
	"context"

	"github.com/fnos-labs/fnos-cli/internal/manifest"
)

// Config is the configuration slice of one plugin, read from
// settings.plugins.<name>.
type Config map[string]any

// Options holds the flag values of one command invocation keyed by
// parameter name. Flags the user did not set are absent.
type Options map[string]string

// Action runs a plugin command.
type Action func(ctx context.Context, opts Options) (any, error)

// ParamSpec describes one command parameter.
type ParamSpec struct {
	Name        string `json:"name"`
	Required    bool   `json:"required,omitempty"`
	Description string `json:"description,omitempty"`
	// Option overrides the generated flag syntax, e.g. "-o, --output-file <path>".
	Option string `json:"option,omitempty"`
}

// CommandSpec is what a plugin declares for one command.
type CommandSpec struct {
	Description string      `json:"description"`
	Action      Action      `json:"-"`
	Params      []ParamSpec `json:"params,omitempty"`
}

// Command is a named CommandSpec.
type Command struct {
	Name string `json:"name"`
	CommandSpec
}

// Commands is the ordered command list returned by Init. Order is
// declaration order and drives help output and registration.
type Commands []Command

// Get returns the command with the given name.
func (c Commands) Get(name string) (Command, bool) {
	for _, cmd := range c {
		if cmd.Name == name {
			return cmd, true
		}
	}
	return Command{}, false
}

// Has reports whether a command with the given name exists.
func (c Commands) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Names returns the command names in declaration order.
func (c Commands) Names() []string {
	names := make([]string, len(c))
	for i, cmd := range c {
		names[i] = cmd.Name
	}
	return names
}

// Logger is the logging surface handed to plugins. *logrus.Logger and
// *logrus.Entry satisfy it.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// ServiceFactory builds a remote API service bound to client. className
// names the service, e.g. "ResourceMonitor".
type ServiceFactory func(client any, className string) (any, error)

// Deps is the capability set a plugin receives at Init.
type Deps struct {
	Logger Logger
	// Settings is the full settings document.
	Settings       map[string]any
	Auth           *ReadonlyAuth
	GetSDKInstance ServiceFactory
}

// Definition is a loaded plugin entry. Schema returns the JSON schema of the
// plugin configuration, or nil when the plugin takes no configuration.
type Definition interface {
	Schema() map[string]any
}

// Initializer is implemented by definitions that contribute commands.
// A definition without Init contributes none.
type Initializer interface {
	Init(ctx context.Context, cfg Config, deps Deps) (Commands, error)
}

// EntryLoader turns a plugin entry file into a Definition.
type EntryLoader interface {
	// Invalidate drops anything cached for entryPath.
	Invalidate(entryPath string)
	// Load reads the entry at entryPath declared by m.
	Load(ctx context.Context, m *manifest.Manifest, entryPath string) (Definition, error)
}

// Plugin is an accepted plugin. It is not modified after the loader
// returns it.
type Plugin struct {
	Name     string
	Version  string
	Schema   map[string]any
	Commands Commands
	// Path is the plugin directory.
	Path string
}

// Conflict names the plugin already owning a command.
type Conflict struct {
	Command string
	Plugin  string
}

// CommandEntry is one row of Registry.GetAllCommands.
type CommandEntry struct {
	Plugin  string
	Command string
	Spec    CommandSpec
}
