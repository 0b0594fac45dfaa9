package plugin

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/fnos-labs/fnos-cli/internal/manifest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// schemaOnly is a definition without Init.
type schemaOnly struct {
	schema map[string]any
}

func (d *schemaOnly) Schema() map[string]any { return d.schema }

// withInit is a definition whose Init is a closure.
type withInit struct {
	schema map[string]any
	init   func(ctx context.Context, cfg Config, deps Deps) (Commands, error)
}

func (d *withInit) Schema() map[string]any { return d.schema }

func (d *withInit) Init(ctx context.Context, cfg Config, deps Deps) (Commands, error) {
	return d.init(ctx, cfg, deps)
}

// fakeEntries serves definitions keyed by plugin name.
type fakeEntries struct {
	mu          sync.Mutex
	defs        map[string]Definition
	errs        map[string]error
	invalidated []string
	loads       int
}

func newFakeEntries() *fakeEntries {
	return &fakeEntries{defs: map[string]Definition{}, errs: map[string]error{}}
}

func (f *fakeEntries) Invalidate(entryPath string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, entryPath)
}

func (f *fakeEntries) Load(_ context.Context, m *manifest.Manifest, _ string) (Definition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if err := f.errs[m.Name]; err != nil {
		return nil, err
	}
	if def, ok := f.defs[m.Name]; ok {
		return def, nil
	}
	return &schemaOnly{}, nil
}

// commandsInit returns a definition declaring the named no-op commands.
func commandsInit(names ...string) *withInit {
	return &withInit{init: func(context.Context, Config, Deps) (Commands, error) {
		cmds := make(Commands, 0, len(names))
		for _, n := range names {
			cmds = append(cmds, Command{Name: n, CommandSpec: CommandSpec{
				Description: n + " command",
				Action:      func(context.Context, Options) (any, error) { return n, nil },
			}})
		}
		return cmds, nil
	}}
}

// writePlugin creates root/dir with a manifest for name and an entry file.
func writePlugin(t *testing.T, root, dir, name string) string {
	t.Helper()
	p := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(p, 0o755))
	doc := "name: " + name + "\nversion: 1.0.0\nentry: index.mjs\nruntime: node\n"
	require.NoError(t, os.WriteFile(filepath.Join(p, manifest.FileYAML), []byte(doc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(p, "index.mjs"), []byte("// entry\n"), 0o644))
	return p
}

func testDeps() (Deps, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return Deps{Logger: log, Settings: map[string]any{}}, hook
}

// errorMessages returns the messages logged at error level.
func errorMessages(hook *test.Hook) []string {
	var out []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			out = append(out, e.Message)
		}
	}
	return out
}
