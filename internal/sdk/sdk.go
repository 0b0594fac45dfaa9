// Package sdk holds the helpers plugin authors use: a coded error type,
// configuration validation, a per-plugin logger and Serve, which runs a
// plugin Definition behind the exec protocol spoken by the host CLI.
package sdk

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/fnos-labs/fnos-cli/internal/schema"
	"github.com/sirupsen/logrus"
)

// DefaultErrorCode is the code of a PluginError created without one.
const DefaultErrorCode = "PLUGIN_ERROR"

// PluginError is an error carrying a machine-readable code.
type PluginError struct {
	Message string
	Code    string
}

func (e *PluginError) Error() string {
	return e.Message
}

// NewPluginError creates a PluginError. An empty code becomes
// DefaultErrorCode.
func NewPluginError(message, code string) *PluginError {
	if code == "" {
		code = DefaultErrorCode
	}
	return &PluginError{Message: message, Code: code}
}

// FormatError renders err for display: "Unknown error" for nil,
// "<code>: <message>" for a PluginError, and the plain message otherwise.
func FormatError(err error) string {
	if err == nil {
		return "Unknown error"
	}
	var pe *PluginError
	if errors.As(err, &pe) {
		msg := pe.Message
		if msg == "" {
			msg = "Unknown error"
		}
		if pe.Code != "" {
			return pe.Code + ": " + msg
		}
		return msg
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Unknown error"
}

// ValidateConfig checks cfg against a JSON schema document. The error return
// is for schemas that do not compile.
func ValidateConfig(cfg any, doc map[string]any) (schema.Result, error) {
	return schema.Validate(cfg, doc)
}

// NewSchemaValidator compiles doc once and returns a function checking
// values against it.
func NewSchemaValidator(doc map[string]any) (func(any) schema.Result, error) {
	c, err := schema.Compile(doc)
	if err != nil {
		return nil, err
	}
	return func(data any) schema.Result {
		return schema.Check(data, c)
	}, nil
}

// NewLogger returns a logger printing "<level>: [<name>] <message>" to
// stderr. Under Serve, stderr is forwarded to the host log.
func NewLogger(name string) *logrus.Entry {
	return newLogger(name, os.Stderr)
}

func newLogger(name string, w io.Writer) *logrus.Entry {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&pluginFormatter{name: name})
	if lvl, err := logrus.ParseLevel(os.Getenv("FNOS_LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}
	return logrus.NewEntry(log)
}

type pluginFormatter struct {
	name string
}

var levelColors = map[logrus.Level]*color.Color{
	logrus.TraceLevel: color.New(color.FgMagenta),
	logrus.DebugLevel: color.New(color.FgBlue),
	logrus.InfoLevel:  color.New(color.FgGreen),
	logrus.WarnLevel:  color.New(color.FgYellow),
	logrus.ErrorLevel: color.New(color.FgRed),
	logrus.FatalLevel: color.New(color.FgRed, color.Bold),
	logrus.PanicLevel: color.New(color.FgRed, color.Bold),
}

func (f *pluginFormatter) Format(e *logrus.Entry) ([]byte, error) {
	level := e.Level.String()
	if c, ok := levelColors[e.Level]; ok {
		level = c.Sprint(level)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: [%s] %s\n", level, f.name, e.Message)
	return []byte(b.String()), nil
}
