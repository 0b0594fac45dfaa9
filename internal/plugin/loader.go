package plugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fnos-labs/fnos-cli/internal/manifest"
	"github.com/fnos-labs/fnos-cli/internal/schema"
	"github.com/sirupsen/logrus"
)

// Loader turns plugin directories into Plugin records.
//
// A Loader remembers the plugins it accepted so later candidates are
// checked for command conflicts against them. Reset forgets them.
type Loader struct {
	entries    EntryLoader
	cliVersion string

	mu       sync.Mutex
	accepted []*Plugin
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithCLIVersion sets the host version checked against manifest fnos
// constraints.
func WithCLIVersion(v string) LoaderOption {
	return func(l *Loader) { l.cliVersion = v }
}

// NewLoader creates a loader that reads entry files through entries.
func NewLoader(entries EntryLoader, opts ...LoaderOption) *Loader {
	l := &Loader{entries: entries, cliVersion: manifest.DevVersion}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Reset forgets every plugin accepted so far.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accepted = nil
}

// Load runs the pipeline for the plugin directory dir. It returns (nil, nil)
// when the directory is not an acceptable plugin; the reason has already
// been logged through deps.Logger where it is worth reporting. A non-nil
// error is reserved for failures outside the plugin's control.
func (l *Loader) Load(ctx context.Context, dir string, settings map[string]any, deps Deps) (*Plugin, error) {
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	m, err := manifest.Read(dir)
	if err != nil {
		log.Debugf("Ignoring %s: %v", dir, err)
		return nil, nil
	}
	if m == nil {
		return nil, nil
	}

	res, err := manifest.Validate(m)
	if err != nil {
		return nil, fmt.Errorf("validating manifest in %s: %w", dir, err)
	}
	if !res.Valid {
		log.Errorf("Invalid manifest for plugin at %s: %s", dir, res.Error())
		return nil, nil
	}
	if err := manifest.CheckCompatibility(m, l.cliVersion); err != nil {
		log.Errorf("Plugin at %s is not compatible: %v", dir, err)
		return nil, nil
	}

	entryPath := m.Entry
	if !filepath.IsAbs(entryPath) {
		entryPath = filepath.Join(dir, entryPath)
	}
	if abs, err := filepath.Abs(entryPath); err == nil {
		entryPath = abs
	}
	if info, err := os.Stat(entryPath); err != nil || info.IsDir() {
		log.Errorf("Plugin entry file not found: %s", entryPath)
		return nil, nil
	}

	l.entries.Invalidate(entryPath)
	def, err := l.entries.Load(ctx, m, entryPath)
	if err != nil {
		log.Errorf("Failed to load plugin entry file: %v", err)
		return nil, nil
	}

	cfg := GetConfig(m.Name, settings)

	cfgSchema := def.Schema()
	if cfgSchema != nil {
		check, err := ValidateConfig(cfg, cfgSchema)
		if err != nil {
			log.Errorf("Plugin %s declares an invalid configuration schema: %v", m.Name, err)
			return nil, nil
		}
		if !check.Valid {
			log.Errorf("Plugin configuration validation failed for %s: %s", m.Name, schema.FormatErrors(check.Errors))
			return nil, nil
		}
	}

	pluginDeps := deps
	pluginDeps.Logger = scopedLogger(log, m.Name)

	commands := l.initPlugin(ctx, def, cfg, pluginDeps)
	commands = dedupeCommands(commands, pluginDeps.Logger)

	if conflict := l.checkCommandConflicts(m.Name, commands); conflict != nil {
		log.Errorf("Plugin %s failed to load: command '%s' conflicts with existing command in plugin '%s'",
			m.Name, conflict.Command, conflict.Plugin)
		return nil, nil
	}

	p := &Plugin{
		Name:     m.Name,
		Version:  m.Version,
		Schema:   cfgSchema,
		Commands: commands,
		Path:     dir,
	}
	l.remember(p)
	return p, nil
}

// LoadAll loads every path and returns the accepted plugins by name. A later
// plugin with the same name as an earlier one replaces it.
func (l *Loader) LoadAll(ctx context.Context, paths []string, settings map[string]any, deps Deps) map[string]*Plugin {
	out := make(map[string]*Plugin)
	for _, p := range l.LoadAllOrdered(ctx, paths, settings, deps) {
		out[p.Name] = p
	}
	return out
}

// LoadAllOrdered is LoadAll returning the plugins in path order. A replaced
// plugin keeps its original position.
func (l *Loader) LoadAllOrdered(ctx context.Context, paths []string, settings map[string]any, deps Deps) []*Plugin {
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	var out []*Plugin
	index := make(map[string]int)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			log.Warnf("Plugin loading interrupted: %v", err)
			break
		}

		p, err := l.safeLoad(ctx, path, settings, deps)
		if err != nil {
			log.Errorf("Failed to load plugin from %s: %v", path, err)
			continue
		}
		if p == nil {
			continue
		}
		if i, ok := index[p.Name]; ok {
			log.Debugf("Plugin %s from %s replaces the one from %s", p.Name, p.Path, out[i].Path)
			out[i] = p
			continue
		}
		index[p.Name] = len(out)
		out = append(out, p)
	}
	return out
}

func (l *Loader) safeLoad(ctx context.Context, path string, settings map[string]any, deps Deps) (p *Plugin, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return l.Load(ctx, path, settings, deps)
}

// initPlugin calls Init when the definition has one. Errors and panics are
// logged and leave the plugin with no commands.
func (l *Loader) initPlugin(ctx context.Context, def Definition, cfg Config, deps Deps) (cmds Commands) {
	initializer, ok := def.(Initializer)
	if !ok {
		return Commands{}
	}

	defer func() {
		if r := recover(); r != nil {
			deps.Logger.Errorf("Plugin initialization failed: %v", r)
			cmds = Commands{}
		}
	}()

	cmds, err := initializer.Init(ctx, cfg, deps)
	if err != nil {
		deps.Logger.Errorf("Plugin initialization failed: %v", err)
		return Commands{}
	}
	if cmds == nil {
		return Commands{}
	}
	return cmds
}

// checkCommandConflicts builds a scratch registry from the plugins accepted
// so far plus this one and returns the first foreign owner of any of its
// commands.
func (l *Loader) checkCommandConflicts(name string, commands Commands) *Conflict {
	l.mu.Lock()
	scratch := NewRegistry()
	for _, p := range l.accepted {
		// A same-named plugin is about to be replaced.
		if p.Name != name {
			scratch.Register(p.Name, p)
		}
	}
	l.mu.Unlock()

	scratch.Register(name, &Plugin{Name: name, Commands: commands})

	for _, cmd := range commands {
		if c := scratch.CheckConflict(cmd.Name); c != nil && c.Plugin != name {
			return c
		}
	}
	return nil
}

func (l *Loader) remember(p *Plugin) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, prev := range l.accepted {
		if prev.Name == p.Name {
			l.accepted[i] = p
			return
		}
	}
	l.accepted = append(l.accepted, p)
}

// dedupeCommands drops unnamed commands and repeated names, keeping the
// first declaration.
func dedupeCommands(cmds Commands, log Logger) Commands {
	seen := make(map[string]bool, len(cmds))
	out := make(Commands, 0, len(cmds))
	for _, cmd := range cmds {
		if cmd.Name == "" {
			log.Warnf("Ignoring command without a name")
			continue
		}
		if seen[cmd.Name] {
			log.Warnf("Ignoring duplicate declaration of command '%s'", cmd.Name)
			continue
		}
		seen[cmd.Name] = true
		out = append(out, cmd)
	}
	return out
}

// scopedLogger tags records with the plugin name when the logger supports
// fields.
func scopedLogger(log Logger, name string) Logger {
	if fl, ok := log.(logrus.FieldLogger); ok {
		return fl.WithField("plugin", name)
	}
	return log
}

// DiscoverPaths expands plugin roots into candidate directories. A root that
// holds a manifest itself is a candidate; otherwise each of its immediate
// subdirectories is. Missing roots are skipped.
func DiscoverPaths(roots []string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, root := range roots {
		if root == "" {
			continue
		}
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			continue
		}
		if manifest.Find(root) != "" {
			add(root)
			continue
		}
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			add(filepath.Join(root, e.Name()))
		}
	}
	return out
}
