package sdk

import (
	"errors"

	"github.com/fnos-labs/fnos-cli/internal/config"
	"github.com/fnos-labs/fnos-cli/internal/plugin"
)

// Exec protocol verbs. The host runs "<entry> <verb>", writes the request
// as JSON on stdin and reads one JSON reply from stdout.
const (
	VerbDescribe = "describe"
	VerbInit     = "init"
	VerbRun      = "run"
)

// DescribeReply answers VerbDescribe.
type DescribeReply struct {
	Schema map[string]any `json:"schema"`
	// Init reports whether the plugin contributes commands.
	Init bool `json:"init"`
}

// InitRequest is the payload of VerbInit.
type InitRequest struct {
	Config   plugin.Config       `json:"config"`
	Settings map[string]any      `json:"settings"`
	Auth     *config.Credentials `json:"auth"`
}

// CommandDecl describes one command in an InitReply.
type CommandDecl struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Params      []plugin.ParamSpec `json:"params,omitempty"`
}

// InitReply answers VerbInit.
type InitReply struct {
	Commands []CommandDecl `json:"commands"`
	Error    *ErrorReply   `json:"error,omitempty"`
}

// RunRequest is the payload of VerbRun.
type RunRequest struct {
	Command  string              `json:"command"`
	Config   plugin.Config       `json:"config"`
	Settings map[string]any      `json:"settings"`
	Auth     *config.Credentials `json:"auth"`
	Options  plugin.Options      `json:"options"`
}

// RunReply answers VerbRun. Exactly one of Result and Error is meaningful.
type RunReply struct {
	Result any         `json:"result"`
	Error  *ErrorReply `json:"error,omitempty"`
}

// ErrorReply carries a failure across the process boundary.
type ErrorReply struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Err converts the reply into a *PluginError.
func (e *ErrorReply) Err() error {
	if e == nil {
		return nil
	}
	return NewPluginError(e.Message, e.Code)
}

func errorReply(err error) *ErrorReply {
	if err == nil {
		return nil
	}
	var pe *PluginError
	if errors.As(err, &pe) {
		return &ErrorReply{Message: pe.Message, Code: pe.Code}
	}
	return &ErrorReply{Message: err.Error()}
}
