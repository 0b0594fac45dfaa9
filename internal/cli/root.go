package cli

import (
	"context"
	"os"

	"github.com/fnos-labs/fnos-cli/internal/branding"
	"github.com/fnos-labs/fnos-cli/internal/config"
	"github.com/fnos-labs/fnos-cli/internal/logging"
	"github.com/fnos-labs/fnos-cli/internal/plugin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

// Global flags.
var (
	flagRaw     bool
	flagVerbose int
	flagDebug   bool
	flagSilly   bool
)

// Shared state set up by Execute before the command tree runs.
var (
	log      = logrus.New()
	settings = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` talks to the fnOS management API. Commands are grouped by
service ("resmon.cpu", "store.listDisk", ...) and can be extended with plugins
loaded from the official plugins directory and the "pluginPaths" setting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.SetVerbosity(log, verbosity())
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flagRaw, "raw", false, "Output raw JSON response")
	pf.CountVarP(&flagVerbose, "verbose", "v", "Verbose output (info level, repeat for more)")
	pf.BoolVar(&flagDebug, "debug", false, "Debug output (debug level)")
	pf.BoolVar(&flagSilly, "silly", false, "Silly output (trace level)")
}

// verbosity folds the global flags into the 0-3 scale used by logging.
func verbosity() int {
	v := flagVerbose
	if flagDebug && v < 2 {
		v = 2
	}
	if flagSilly {
		v = 3
	}
	if v > 3 {
		v = 3
	}
	return v
}

// Execute loads settings and plugins, then runs the root command under ctx.
// The returned error carries the exit code, see ExitCode.
func Execute(ctx context.Context, info BuildInfo) error {
	buildVersion = info.Version
	buildCommit = info.Commit
	buildDate = info.Date

	var err error
	log, err = logging.New(logging.Options{
		Verbosity: scanVerbosity(os.Args[1:]),
		Dir:       logging.DefaultDir(),
	})
	if err != nil {
		log.Debugf("File logging disabled: %v", err)
	}

	if err := settings.Load(); err != nil {
		log.Warnf("Ignoring settings: %v", err)
	}

	loadPlugins(ctx, rootCmd, pluginRoots())

	cmd, err := rootCmd.ExecuteContextC(ctx)
	// Plugin actions log their own failures.
	if err != nil && plugin.PluginOf(cmd) == "" {
		log.Error(err.Error())
	}
	return err
}

// scanVerbosity reads the verbosity flags ahead of cobra so plugin loading,
// which happens before the command line is parsed, logs at the right level.
func scanVerbosity(args []string) int {
	v := 0
	for _, a := range args {
		switch a {
		case "--":
			return v
		case "-v", "--verbose":
			v++
		case "-vv":
			v += 2
		case "-vvv":
			v += 3
		case "--debug":
			v = max(v, 2)
		case "--silly":
			v = 3
		}
	}
	return min(v, 3)
}
