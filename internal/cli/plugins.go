package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fnos-labs/fnos-cli/internal/api"
	"github.com/fnos-labs/fnos-cli/internal/branding"
	"github.com/fnos-labs/fnos-cli/internal/builtin/hello"
	"github.com/fnos-labs/fnos-cli/internal/output"
	"github.com/fnos-labs/fnos-cli/internal/plugin"
	"github.com/fnos-labs/fnos-cli/internal/runtime"
	"github.com/spf13/cobra"
)

// registry holds the plugins mounted by loadPlugins.
var registry = plugin.NewRegistry()

// officialPluginsDir is <exe-dir>/../plugins unless FNOS_PLUGINS_DIR is set.
func officialPluginsDir() string {
	if dir := os.Getenv(branding.EnvVar("PLUGINS_DIR")); dir != "" {
		return dir
	}
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), "..", "plugins")
}

// pluginRoots lists the official plugins directory followed by the
// user-configured pluginPaths.
func pluginRoots() []string {
	var roots []string
	if dir := officialPluginsDir(); dir != "" {
		roots = append(roots, dir)
	}
	return append(roots, settings.PluginPaths()...)
}

func pluginDeps() plugin.Deps {
	return plugin.Deps{
		Logger:         log,
		Settings:       settings.All(),
		Auth:           plugin.NewReadonlyAuth(settings.Credentials()),
		GetSDKInstance: api.NewService,
	}
}

func newEntryLoader() *runtime.Dispatcher {
	entries := runtime.NewDispatcher(runtime.WithLogger(log))
	entries.RegisterBuiltin(hello.Name, hello.New)
	return entries
}

// loadPlugins discovers, loads and registers every plugin under roots and
// mounts their commands on root. A broken plugin is logged and skipped.
func loadPlugins(ctx context.Context, root *cobra.Command, roots []string) *plugin.Registry {
	deps := pluginDeps()
	loader := plugin.NewLoader(newEntryLoader(), plugin.WithCLIVersion(buildVersion))

	paths := plugin.DiscoverPaths(roots)
	log.Debugf("Plugin candidates: %v", paths)

	reg := plugin.NewRegistry()
	for _, p := range loader.LoadAllOrdered(ctx, paths, deps.Settings, deps) {
		if !reg.Register(p.Name, p) {
			log.Warnf("Plugin %s is already registered, ignoring %s", p.Name, p.Path)
			continue
		}
		log.Infof("Loaded plugin: %s v%s", p.Name, p.Version)
	}
	if reg.Len() == 0 {
		log.Info("No plugins loaded")
	}

	plugin.NewRegistrar(log, plugin.WithPrinter(printResult)).RegisterAll(root, reg, deps)
	registry = reg
	return reg
}

// printResult writes a command result honoring --raw.
func printResult(w io.Writer, result any) error {
	return output.Printer(flagRaw)(w, result)
}

func init() {
	pluginsCmd.AddCommand(pluginsListCmd)
	rootCmd.AddCommand(pluginsCmd)
}

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "Inspect loaded plugins",
}

var pluginsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded plugins and their commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listPlugins(cmd.OutOrStdout(), registry)
	},
}

type pluginInfo struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Path     string   `json:"path"`
	Commands []string `json:"commands"`
}

func listPlugins(w io.Writer, reg *plugin.Registry) error {
	if reg.Len() == 0 {
		fmt.Fprintln(w, "No plugins loaded.")
		fmt.Fprintf(w, "Official plugins directory: %s\n", officialPluginsDir())
		return nil
	}

	infos := make([]pluginInfo, 0, reg.Len())
	for _, name := range reg.Names() {
		p := reg.Get(name)
		infos = append(infos, pluginInfo{
			Name:     p.Name,
			Version:  p.Version,
			Path:     p.Path,
			Commands: p.Commands.Names(),
		})
	}
	return printResult(w, infos)
}
