package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/fnos-labs/fnos-cli/internal/api"
	"github.com/fnos-labs/fnos-cli/internal/auth"
	"github.com/fnos-labs/fnos-cli/internal/config"
	"github.com/spf13/cobra"
)

// connect opens an authenticated API client. Tests replace it.
var connect = func(ctx context.Context, creds config.Credentials) (*api.Client, error) {
	return api.Connect(ctx, creds, api.WithLogger(log))
}

func init() {
	for _, g := range api.Groups {
		for _, c := range g.Commands {
			rootCmd.AddCommand(newDispatchCommand(g, c))
		}
	}
}

// newDispatchCommand builds the "<group>.<command>" command calling one
// remote method.
func newDispatchCommand(g api.Group, c api.Command) *cobra.Command {
	values := make(map[string]*string, len(c.Params))
	var creds auth.Flags

	cmd := &cobra.Command{
		Use:   g.Name + "." + c.Name,
		Short: c.Description,
		Args:  cobra.NoArgs,
	}
	for _, p := range c.Params {
		desc := p + " parameter"
		if api.IsRequired(p) {
			desc += " (required)"
		}
		values[p] = cmd.Flags().String(p, "", desc)
	}
	cmd.Flags().StringVarP(&creds.Endpoint, "endpoint", "e", "", "Server endpoint for this call only")
	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "Username for this call only")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "Password for this call only")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		opts := make(map[string]string, len(values))
		for p, v := range values {
			if cmd.Flags().Changed(p) {
				opts[p] = *v
			}
		}

		args, err := api.BuildArgs(g.ClassName, c, opts)
		var missing *api.MissingParamError
		if errors.As(err, &missing) {
			return withExitCode(ExitMissingParam, err)
		}
		if err != nil {
			return err
		}

		resolved, err := auth.ResolveCredentials(creds, settings)
		if err != nil {
			return withExitCode(ExitLoginFailed, err)
		}
		log.Debugf("Using credentials from %s", resolved.Source)

		ctx := cmd.Context()
		client, err := connect(ctx, resolved.Credentials)
		if err != nil {
			return err
		}
		defer client.Close()

		svc, err := api.NewService(client, g.ClassName)
		if err != nil {
			return err
		}

		log.Infof("Executing %s.%s...", g.ClassName, c.Method)
		result, err := svc.(*api.Service).Call(ctx, c.Method, args...)
		if err != nil {
			return fmt.Errorf("command failed: %w", err)
		}
		return printResult(cmd.OutOrStdout(), result)
	}
	return cmd
}
