package cli

import (
	"fmt"
	"path/filepath"

	"github.com/fnos-labs/fnos-cli/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	createPath        string
	createVersion     string
	createDescription string
	createAuthor      string
	createRuntime     string
)

func init() {
	f := createPluginCmd.Flags()
	f.StringVarP(&createPath, "path", "p", ".", "Path where the plugin should be created")
	f.StringVar(&createVersion, "plugin-version", scaffold.DefaultVersion, "Plugin version")
	f.StringVarP(&createDescription, "description", "d", "", "Plugin description (default: \"<name> plugin\")")
	f.StringVarP(&createAuthor, "author", "a", "", "Plugin author")
	f.StringVar(&createRuntime, "runtime", scaffold.RuntimeNode, "Plugin runtime: node or go")
	rootCmd.AddCommand(createPluginCmd)
}

var createPluginCmd = &cobra.Command{
	Use:   "create-plugin <name>",
	Short: "Create a new plugin with boilerplate code",
	Long: `Scaffold a plugin directory containing a plugin.yaml manifest and an
entry point speaking the plugin protocol.

Examples:
  fnos create-plugin disk-report
  fnos create-plugin disk-report --runtime go -p ~/fnos-plugins -a "Jane Doe"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if createRuntime != scaffold.RuntimeNode && createRuntime != scaffold.RuntimeGo {
			return fmt.Errorf("--runtime must be '%s' or '%s', got %q", scaffold.RuntimeNode, scaffold.RuntimeGo, createRuntime)
		}

		outDir, err := filepath.Abs(filepath.Join(createPath, name))
		if err != nil {
			return fmt.Errorf("resolving plugin path: %w", err)
		}

		log.Infof("Creating plugin: %s", name)
		log.Infof("Location: %s", outDir)

		result, err := scaffold.Generate(outDir, scaffold.Options{
			Name:        name,
			Version:     createVersion,
			Description: createDescription,
			Author:      createAuthor,
			Runtime:     createRuntime,
		})
		if err != nil {
			return fmt.Errorf("failed to create plugin: %w", err)
		}

		printCreateResult(cmd, name, createRuntime, result)
		return nil
	},
}

func printCreateResult(cmd *cobra.Command, name, runtime string, result *scaffold.Result) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Created plugin %q in %s\n", name, result.OutputDir)
	for _, f := range result.Files {
		fmt.Fprintf(w, "  %s\n", f)
	}
	for _, warn := range result.Warnings {
		log.Warnf("Manifest: %s", warn)
	}

	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintf(w, "  1. cd %s\n", result.OutputDir)
	if runtime == scaffold.RuntimeGo {
		fmt.Fprintln(w, "  2. Edit main.go to implement your plugin, then run 'make build'")
	} else {
		fmt.Fprintln(w, "  2. Edit index.mjs to implement your plugin")
	}
	fmt.Fprintln(w, "  3. Add the parent directory to \"pluginPaths\" in settings.json or copy the plugin to the plugins directory")
}
