package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/fnos-labs/fnos-cli/internal/config"
	"github.com/fnos-labs/fnos-cli/internal/plugin"
	"github.com/fnos-labs/fnos-cli/internal/sdk"
	"github.com/sirupsen/logrus"
)

// process runs one protocol exchange per call against a plugin executable.
type process struct {
	argv []string
	dir  string
	env  []string
	log  *logrus.Entry
}

// call spawns the entry with verb, writes input as JSON to stdin and decodes
// stdout into out. Stderr goes to the debug log and into the error message
// when the process fails.
func (p *process) call(ctx context.Context, verb string, input, out any) error {
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("marshaling %s input: %w", verb, err)
	}

	args := append(append([]string{}, p.argv[1:]...), verb)
	cmd := exec.CommandContext(ctx, p.argv[0], args...)
	cmd.Dir = p.dir
	cmd.Env = p.env
	cmd.Stdin = bytes.NewReader(inputJSON)

	logw := p.log.WriterLevel(logrus.DebugLevel)
	defer logw.Close()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = io.MultiWriter(&stderr, logw)

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s %s: %w: %s", p.argv[len(p.argv)-1], verb, err, msg)
		}
		return fmt.Errorf("%s %s: %w", p.argv[len(p.argv)-1], verb, err)
	}

	if err := json.Unmarshal(stdout.Bytes(), out); err != nil {
		return fmt.Errorf("parsing %s reply: %w", verb, err)
	}
	return nil
}

// processDefinition is a subprocess plugin without commands.
type processDefinition struct {
	proc   *process
	schema map[string]any
}

func (d *processDefinition) Schema() map[string]any { return d.schema }

// initProcessDefinition is a subprocess plugin that contributes commands.
type initProcessDefinition struct {
	*processDefinition
}

// Init asks the plugin for its commands. Each returned action runs the
// plugin again with the same configuration and credentials.
func (d *initProcessDefinition) Init(ctx context.Context, cfg plugin.Config, deps plugin.Deps) (plugin.Commands, error) {
	var auth *config.Credentials
	if deps.Auth != nil {
		c := deps.Auth.Credentials()
		auth = &c
	}

	var reply sdk.InitReply
	req := sdk.InitRequest{Config: cfg, Settings: deps.Settings, Auth: auth}
	if err := d.proc.call(ctx, sdk.VerbInit, req, &reply); err != nil {
		return nil, err
	}
	if reply.Error != nil {
		return nil, reply.Error.Err()
	}

	cmds := make(plugin.Commands, 0, len(reply.Commands))
	for _, decl := range reply.Commands {
		name := decl.Name
		cmds = append(cmds, plugin.Command{
			Name: name,
			CommandSpec: plugin.CommandSpec{
				Description: decl.Description,
				Params:      decl.Params,
				Action: func(ctx context.Context, opts plugin.Options) (any, error) {
					var out sdk.RunReply
					run := sdk.RunRequest{
						Command:  name,
						Config:   cfg,
						Settings: deps.Settings,
						Auth:     auth,
						Options:  opts,
					}
					if err := d.proc.call(ctx, sdk.VerbRun, run, &out); err != nil {
						return nil, err
					}
					if out.Error != nil {
						return nil, out.Error.Err()
					}
					return out.Result, nil
				},
			},
		})
	}
	return cmds, nil
}
