// Package hello is the example plugin shipped with the CLI. It is linked into
// the binary as the "hello" builtin and also served over the exec protocol
// by cmd/fnos-hello-plugin.
package hello

import (
	"context"
	"fmt"

	"github.com/fnos-labs/fnos-cli/internal/plugin"
	"github.com/fnos-labs/fnos-cli/internal/sdk"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Name is the plugin name the builtin is registered under.
const Name = "hello"

const defaultGreeting = "Hello"

// Plugin greets people and reports the current login.
type Plugin struct{}

// New returns the hello plugin definition.
func New() plugin.Definition { return Plugin{} }

// Schema describes plugins.hello in settings.
func (Plugin) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"defaultGreeting": map[string]any{
				"type":        "string",
				"description": "Greeting used when --greeting is not given",
				"minLength":   1,
			},
		},
		"additionalProperties": false,
	}
}

// Init returns the greet and whoami commands.
func (Plugin) Init(_ context.Context, cfg plugin.Config, deps plugin.Deps) (plugin.Commands, error) {
	greeting := defaultGreeting
	if g, ok := cfg["defaultGreeting"].(string); ok && g != "" {
		greeting = g
	}
	if deps.Logger != nil {
		deps.Logger.Debugf("hello plugin initialized with greeting %q", greeting)
	}

	return plugin.Commands{
		{Name: "greet", CommandSpec: plugin.CommandSpec{
			Description: "Print a greeting",
			Params: []plugin.ParamSpec{
				{Name: "name", Required: true, Description: "Who to greet", Option: "-n, --name <name>"},
				{Name: "greeting", Description: "Greeting to use instead of defaultGreeting", Option: "--greeting <text>"},
				{Name: "shout", Description: "Print the greeting in upper case", Option: "--shout"},
			},
			Action: func(_ context.Context, opts plugin.Options) (any, error) {
				g := greeting
				if v := opts["greeting"]; v != "" {
					g = v
				}
				msg := fmt.Sprintf("%s, %s!", g, opts["name"])
				if opts["shout"] == "true" {
					msg = cases.Upper(language.Und).String(msg)
				}
				return map[string]any{"message": msg}, nil
			},
		}},
		{Name: "whoami", CommandSpec: plugin.CommandSpec{
			Description: "Show the saved login",
			Action: func(_ context.Context, _ plugin.Options) (any, error) {
				if deps.Auth == nil {
					return nil, sdk.NewPluginError("not logged in; run \"fnos login\" first", "NOT_LOGGED_IN")
				}
				return map[string]any{
					"endpoint": deps.Auth.Endpoint(),
					"username": deps.Auth.Username(),
				}, nil
			},
		}},
	}, nil
}
