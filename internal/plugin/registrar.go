package plugin

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// annotationPlugin marks cobra commands created for a plugin group.
const annotationPlugin = "fnos/plugin"

// ResultPrinter writes the value returned by a command action.
type ResultPrinter func(w io.Writer, result any) error

// Registrar mounts plugin commands on a cobra command tree.
type Registrar struct {
	log     Logger
	printer ResultPrinter
}

// RegistrarOption configures a Registrar.
type RegistrarOption func(*Registrar)

// WithPrinter sets the printer used for action results. Without one,
// results are discarded.
func WithPrinter(p ResultPrinter) RegistrarOption {
	return func(r *Registrar) { r.printer = p }
}

// NewRegistrar creates a registrar logging through log.
func NewRegistrar(log Logger, opts ...RegistrarOption) *Registrar {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Registrar{log: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterAll adds one group command per registered plugin under root and
// mounts every plugin command beneath its group. A plugin whose name is
// already used by a non-plugin command of root is skipped.
func (r *Registrar) RegisterAll(root *cobra.Command, reg *Registry, deps Deps) {
	for _, name := range reg.Names() {
		p := reg.Get(name)
		if p == nil {
			continue
		}

		group := findCommand(root, name)
		switch {
		case group == nil:
			group = newGroup(name, fmt.Sprintf("%s - %s", p.Name, p.Version))
			root.AddCommand(group)
		case group.Annotations[annotationPlugin] == "":
			r.log.Errorf("Plugin %s skipped: name is taken by a built-in command", name)
			continue
		default:
			group.Short = fmt.Sprintf("%s - %s", p.Name, p.Version)
		}

		for _, cmd := range p.Commands {
			if _, err := r.RegisterCommand(root, name, cmd.Name, cmd.CommandSpec, deps, group); err != nil {
				r.log.Errorf("Plugin %s: cannot register command '%s': %v", name, cmd.Name, err)
			}
		}
	}
}

// RegisterCommand mounts one command of pluginName. group may be nil, in
// which case the plugin group under root is found or created.
func (r *Registrar) RegisterCommand(root *cobra.Command, pluginName, name string, spec CommandSpec, deps Deps, group *cobra.Command) (*cobra.Command, error) {
	if group == nil {
		group = findCommand(root, pluginName)
		if group == nil {
			group = newGroup(pluginName, pluginName)
			root.AddCommand(group)
		}
	}

	// flag name -> param name
	params := make(map[string]string, len(spec.Params))
	cmd := &cobra.Command{
		Use:   name,
		Short: spec.Description,
		Args:  cobra.NoArgs,
	}

	for _, param := range spec.Params {
		f, err := parseOption(param)
		if err != nil {
			return nil, err
		}
		if f.short != "" && (f.short == "h" || root.PersistentFlags().ShorthandLookup(f.short) != nil) {
			r.log.Warnf("Plugin %s: shorthand -%s of --%s is reserved, dropping it", pluginName, f.short, f.long)
			f.short = ""
		}
		desc := param.Description
		if desc == "" {
			desc = "Parameter: " + param.Name
		}
		if f.boolean {
			cmd.Flags().BoolP(f.long, f.short, false, desc)
		} else {
			cmd.Flags().StringP(f.long, f.short, "", desc)
		}
		if param.Required {
			if err := cmd.MarkFlagRequired(f.long); err != nil {
				return nil, fmt.Errorf("marking --%s required: %w", f.long, err)
			}
		}
		params[f.long] = param.Name
	}

	if existing := findCommand(group, name); existing != nil {
		group.RemoveCommand(existing)
	}

	action := r.WrapAction(spec.Action, deps)
	cmd.RunE = func(c *cobra.Command, _ []string) error {
		opts := make(Options, len(params))
		c.Flags().Visit(func(fl *pflag.Flag) {
			if name, ok := params[fl.Name]; ok {
				opts[name] = fl.Value.String()
			}
		})

		result, err := action(c.Context(), opts)
		if err != nil {
			return err
		}
		if r.printer == nil {
			return nil
		}
		return r.printer(c.OutOrStdout(), result)
	}

	group.AddCommand(cmd)
	return cmd, nil
}

// WrapAction returns an action that logs failures of action through the
// plugin logger and returns the error unchanged.
func (r *Registrar) WrapAction(action Action, deps Deps) Action {
	log := deps.Logger
	if log == nil {
		log = r.log
	}
	return func(ctx context.Context, opts Options) (any, error) {
		if action == nil {
			return nil, nil
		}
		result, err := action(ctx, opts)
		if err != nil {
			log.Errorf("Command failed: %v", err)
			return nil, err
		}
		return result, nil
	}
}

// PluginOf returns the plugin that owns cmd, or "" for commands that were
// not created by a Registrar.
func PluginOf(cmd *cobra.Command) string {
	for c := cmd; c != nil; c = c.Parent() {
		if name := c.Annotations[annotationPlugin]; name != "" {
			return name
		}
	}
	return ""
}

func newGroup(name, short string) *cobra.Command {
	return &cobra.Command{
		Use:         name,
		Short:       short,
		Annotations: map[string]string{annotationPlugin: name},
		RunE: func(c *cobra.Command, _ []string) error {
			return c.Help()
		},
	}
}

func findCommand(parent *cobra.Command, name string) *cobra.Command {
	for _, c := range parent.Commands() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

type flagDef struct {
	long    string
	short   string
	boolean bool
}

var optionPattern = regexp.MustCompile(`^(?:-([A-Za-z0-9])\s*[,|]?\s*)?--([A-Za-z0-9][A-Za-z0-9-]*)(?:\s+([<\[].*[>\]]))?$`)

// parseOption turns the commander-style syntax of a parameter into a flag
// definition. Without an explicit Option the flag is "--<name> <value>".
func parseOption(p ParamSpec) (flagDef, error) {
	opt := strings.TrimSpace(p.Option)
	if opt == "" {
		if p.Name == "" {
			return flagDef{}, fmt.Errorf("parameter without a name")
		}
		return flagDef{long: p.Name}, nil
	}

	m := optionPattern.FindStringSubmatch(opt)
	if m == nil {
		return flagDef{}, fmt.Errorf("unsupported option syntax %q for parameter %s", opt, p.Name)
	}
	return flagDef{long: m[2], short: m[1], boolean: m[3] == ""}, nil
}
