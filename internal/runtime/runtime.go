package runtime

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fnos-labs/fnos-cli/internal/manifest"
	"github.com/fnos-labs/fnos-cli/internal/platform"
	"github.com/fnos-labs/fnos-cli/internal/plugin"
	"github.com/fnos-labs/fnos-cli/internal/sdk"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

const describeCacheSize = 64

// BuiltinFactory creates the definition of a plugin linked into the binary.
type BuiltinFactory func() plugin.Definition

// Dispatcher implements plugin.EntryLoader for every supported runtime.
type Dispatcher struct {
	log *logrus.Entry

	mu       sync.RWMutex
	builtins map[string]BuiltinFactory

	// describe replies keyed by absolute entry path
	described *lru.Cache[string, describeEntry]

	lookPath func(string) (string, error)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger receiving subprocess stderr at debug level.
func WithLogger(log *logrus.Logger) Option {
	return func(d *Dispatcher) { d.log = logrus.NewEntry(log) }
}

// NewDispatcher returns a dispatcher with no builtin plugins.
func NewDispatcher(opts ...Option) *Dispatcher {
	cache, err := lru.New[string, describeEntry](describeCacheSize)
	if err != nil {
		// Only a non-positive size fails.
		panic(err)
	}
	d := &Dispatcher{
		log:       logrus.NewEntry(logrus.StandardLogger()),
		builtins:  make(map[string]BuiltinFactory),
		described: cache,
		lookPath:  exec.LookPath,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RegisterBuiltin makes factory available to manifests named name with
// runtime "builtin".
func (d *Dispatcher) RegisterBuiltin(name string, factory BuiltinFactory) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.builtins[name] = factory
}

// Builtins returns the registered builtin plugin names, sorted.
func (d *Dispatcher) Builtins() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.builtins))
	for n := range d.builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Invalidate drops the cached describe reply of entryPath unless the entry
// file is unchanged on disk since it was described.
func (d *Dispatcher) Invalidate(entryPath string) {
	key := cacheKey(entryPath)
	e, ok := d.described.Peek(key)
	if !ok {
		return
	}
	if st, err := statEntry(key); err == nil && st == e.stamp {
		return
	}
	d.described.Remove(key)
}

// Load returns the definition behind entryPath.
func (d *Dispatcher) Load(ctx context.Context, m *manifest.Manifest, entryPath string) (plugin.Definition, error) {
	switch rt := m.RuntimeName(); rt {
	case manifest.RuntimeBuiltin:
		d.mu.RLock()
		factory, ok := d.builtins[m.Name]
		d.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("no builtin plugin named %q", m.Name)
		}
		def := factory()
		if def == nil {
			return nil, fmt.Errorf("builtin plugin %q returned no definition", m.Name)
		}
		return def, nil

	case manifest.RuntimeExec:
		info, err := os.Stat(entryPath)
		if err != nil {
			return nil, fmt.Errorf("plugin entry not found at %s: %w", entryPath, err)
		}
		if !platform.IsExecutable(entryPath, info) {
			return nil, fmt.Errorf("plugin entry %s is not executable", entryPath)
		}
		return d.loadProcess(ctx, m, []string{entryPath}, entryPath)

	case manifest.RuntimeNode:
		nodeBin, err := d.lookPath("node")
		if err != nil {
			return nil, fmt.Errorf("node runtime requires Node.js: %w", err)
		}
		return d.loadProcess(ctx, m, []string{nodeBin, entryPath}, entryPath)

	default:
		return nil, fmt.Errorf("unknown runtime %q: supported runtimes are %q, %q and %q",
			rt, manifest.RuntimeBuiltin, manifest.RuntimeExec, manifest.RuntimeNode)
	}
}

func (d *Dispatcher) loadProcess(ctx context.Context, m *manifest.Manifest, argv []string, entryPath string) (plugin.Definition, error) {
	pluginDir := filepath.Dir(entryPath)
	if m.File != "" {
		pluginDir = filepath.Dir(m.File)
	}
	env, err := buildEnv(m, pluginDir)
	if err != nil {
		return nil, err
	}
	proc := &process{
		argv: argv,
		dir:  pluginDir,
		env:  env,
		log:  d.log.WithField("plugin", m.Name),
	}

	key := cacheKey(entryPath)
	stamp, err := statEntry(key)
	if err != nil {
		return nil, fmt.Errorf("plugin entry not found at %s: %w", entryPath, err)
	}
	var desc sdk.DescribeReply
	if e, ok := d.described.Get(key); ok && e.stamp == stamp {
		desc = e.reply
	} else {
		if err := proc.call(ctx, sdk.VerbDescribe, nil, &desc); err != nil {
			return nil, err
		}
		d.described.Add(key, describeEntry{stamp: stamp, reply: desc})
	}

	base := &processDefinition{proc: proc, schema: desc.Schema}
	if !desc.Init {
		return base, nil
	}
	return &initProcessDefinition{base}, nil
}

// describeEntry is a describe reply and the state of the entry file it was
// read from.
type describeEntry struct {
	stamp entryStamp
	reply sdk.DescribeReply
}

type entryStamp struct {
	modTime int64
	size    int64
}

func statEntry(path string) (entryStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return entryStamp{}, err
	}
	return entryStamp{modTime: info.ModTime().UnixNano(), size: info.Size()}, nil
}

func cacheKey(entryPath string) string {
	if abs, err := filepath.Abs(entryPath); err == nil {
		return abs
	}
	return entryPath
}
