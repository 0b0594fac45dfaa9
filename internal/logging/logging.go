// Package logging builds the shared logrus logger used by the CLI and handed
// to plugins. Records go to the console and to a rotated file under
// ~/.fnos/logs.
package logging

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fnos-labs/fnos-cli/internal/branding"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	timestampFormat = "2006-01-02 15:04:05"
	maxSizeMB       = 10
	maxBackups      = 5
)

// Options configures New.
type Options struct {
	// Verbosity is 0 (default), 1 (-v), 2 (--debug) or 3 (--silly).
	Verbosity int
	// Dir is the log directory. Empty disables the file sink.
	Dir string
	// Console receives human-readable output; defaults to os.Stderr.
	Console io.Writer
}

// DefaultDir returns ~/.fnos/logs.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir(), "logs")
	}
	return filepath.Join(home, branding.HomeDir(), "logs")
}

// New creates a logger with the console and file sinks.
func New(opts Options) (*logrus.Logger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	log := logrus.New()
	log.SetFormatter(&Formatter{})
	log.SetLevel(LevelFor(opts.Verbosity))
	log.SetOutput(console)

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return log, fmt.Errorf("creating log directory %s: %w", opts.Dir, err)
		}
		file := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, FileName(time.Now())),
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
		}
		log.SetOutput(io.MultiWriter(console, file))
	}

	return log, nil
}

// LevelFor maps the CLI verbosity flags to a level. With no flag the
// FNOS_LOG_LEVEL environment variable is honored.
func LevelFor(verbosity int) logrus.Level {
	switch verbosity {
	case 1:
		return logrus.InfoLevel
	case 2:
		return logrus.DebugLevel
	case 3:
		return logrus.TraceLevel
	}
	if env := os.Getenv(branding.EnvVar("LOG_LEVEL")); env != "" {
		if lvl, err := logrus.ParseLevel(env); err == nil {
			return lvl
		}
		if strings.EqualFold(env, "silly") {
			return logrus.TraceLevel
		}
	}
	return logrus.InfoLevel
}

// SetVerbosity adjusts an existing logger after flags are parsed.
func SetVerbosity(log *logrus.Logger, verbosity int) {
	if verbosity >= 1 && verbosity <= 3 {
		log.SetLevel(LevelFor(verbosity))
	}
}

// FileName returns fnos-cli-<date>-<random>.log for the given time.
func FileName(now time.Time) string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%s-cli-%s-%s.log", branding.CLIName(), now.Format("2006-01-02"), hex.EncodeToString(buf))
}

// Formatter renders "<timestamp> - <LEVEL> - <message>" and appends fields
// as key=value pairs.
type Formatter struct{}

// Format implements logrus.Formatter.
func (f *Formatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(e.Time.Format(timestampFormat))
	b.WriteString(" - ")
	b.WriteString(strings.ToUpper(e.Level.String()))
	b.WriteString(" - ")
	if p, ok := e.Data["plugin"]; ok {
		fmt.Fprintf(&b, "[%v] ", p)
	}
	b.WriteString(e.Message)
	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		if k != "plugin" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}
