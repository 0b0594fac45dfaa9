package cli

import (
	"fmt"
	goruntime "runtime"

	"github.com/fnos-labs/fnos-cli/internal/branding"
	"github.com/spf13/cobra"
)

var versionShort bool

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print version number only")
	rootCmd.AddCommand(versionCmd)
}

// versionReport is what `version --raw` prints.
type versionReport struct {
	Version  string   `json:"version"`
	Commit   string   `json:"commit"`
	Date     string   `json:"date"`
	Go       string   `json:"go"`
	Platform string   `json:"platform"`
	Plugins  []string `json:"plugins"`
}

func currentVersion() versionReport {
	plugins := []string{}
	for _, name := range registry.Names() {
		if p := registry.Get(name); p != nil {
			plugins = append(plugins, p.Name+"@"+p.Version)
		}
	}
	return versionReport{
		Version:  buildVersion,
		Commit:   buildCommit,
		Date:     buildDate,
		Go:       goruntime.Version(),
		Platform: goruntime.GOOS + "/" + goruntime.GOARCH,
		Plugins:  plugins,
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. With --raw the build, platform and loaded plugins are printed as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		info := currentVersion()
		switch {
		case versionShort:
			fmt.Fprintln(w, info.Version)
			return nil
		case flagRaw:
			return printResult(w, info)
		}

		fmt.Fprintf(w, "%s version %s (commit: %s, built: %s)\n", branding.CLIName(), info.Version, info.Commit, info.Date)
		fmt.Fprintf(w, "%s %s, %d plugin(s) loaded\n", info.Go, info.Platform, len(info.Plugins))
		return nil
	},
}
