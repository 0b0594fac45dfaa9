package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fnos-labs/fnos-cli/internal/api"
	"github.com/fnos-labs/fnos-cli/internal/config"
	"github.com/fnos-labs/fnos-cli/internal/plugin"
)

// Main serves def on the process's arguments and standard streams and exits
// with status 1 when the exchange fails.
func Main(def plugin.Definition) {
	if err := Serve(context.Background(), def, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, FormatError(err))
		os.Exit(1)
	}
}

// Serve answers one exec protocol request. args[0] is the verb; the request
// is read from stdin and the reply written to stdout.
//
// Plugin failures (Init or action errors) are sent back as error replies.
// The returned error is for protocol failures only.
func Serve(ctx context.Context, def plugin.Definition, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing verb: expected one of %s, %s, %s", VerbDescribe, VerbInit, VerbRun)
	}

	switch args[0] {
	case VerbDescribe:
		_, hasInit := def.(plugin.Initializer)
		return writeReply(stdout, DescribeReply{Schema: def.Schema(), Init: hasInit})

	case VerbInit:
		var req InitRequest
		if err := readRequest(stdin, &req); err != nil {
			return err
		}
		cmds, err := initCommands(ctx, def, req.Config, req.Settings, req.Auth)
		if err != nil {
			return writeReply(stdout, InitReply{Commands: []CommandDecl{}, Error: errorReply(err)})
		}
		decls := make([]CommandDecl, 0, len(cmds))
		for _, c := range cmds {
			decls = append(decls, CommandDecl{Name: c.Name, Description: c.Description, Params: c.Params})
		}
		return writeReply(stdout, InitReply{Commands: decls})

	case VerbRun:
		var req RunRequest
		if err := readRequest(stdin, &req); err != nil {
			return err
		}
		result, err := runCommand(ctx, def, req)
		if err != nil {
			return writeReply(stdout, RunReply{Error: errorReply(err)})
		}
		return writeReply(stdout, RunReply{Result: result})

	default:
		return fmt.Errorf("unknown verb %q", args[0])
	}
}

func initCommands(ctx context.Context, def plugin.Definition, cfg plugin.Config, settings map[string]any, auth *config.Credentials) (plugin.Commands, error) {
	initializer, ok := def.(plugin.Initializer)
	if !ok {
		return nil, nil
	}
	if cfg == nil {
		cfg = plugin.Config{}
	}
	deps := plugin.Deps{
		Logger:         NewLogger(os.Getenv("FNOS_PLUGIN_NAME")),
		Settings:       settings,
		Auth:           plugin.NewReadonlyAuth(auth),
		GetSDKInstance: api.NewService,
	}
	return initializer.Init(ctx, cfg, deps)
}

func runCommand(ctx context.Context, def plugin.Definition, req RunRequest) (any, error) {
	cmds, err := initCommands(ctx, def, req.Config, req.Settings, req.Auth)
	if err != nil {
		return nil, err
	}
	cmd, ok := cmds.Get(req.Command)
	if !ok {
		return nil, NewPluginError(fmt.Sprintf("unknown command %q", req.Command), "UNKNOWN_COMMAND")
	}
	if cmd.Action == nil {
		return nil, nil
	}
	opts := req.Options
	if opts == nil {
		opts = plugin.Options{}
	}
	return cmd.Action(ctx, opts)
}

func readRequest(r io.Reader, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading request: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}
	return nil
}

func writeReply(w io.Writer, v any) error {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encoding reply: %w", err)
	}
	return nil
}
