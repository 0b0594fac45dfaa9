package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/fnos-labs/fnos-cli/internal/api"
	"github.com/fnos-labs/fnos-cli/internal/config"
	"github.com/fnos-labs/fnos-cli/internal/plugin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/cobra"
)

func init() {
	color.NoColor = true
}

// useTestState points the shared logger and settings at test doubles.
func useTestState(t *testing.T, settingsJSON string) *test.Hook {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	if settingsJSON != "" {
		if err := os.WriteFile(path, []byte(settingsJSON), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	prevLog, prevSettings := log, settings
	logger, hook := test.NewNullLogger()
	log = logger
	settings = config.NewStore(path)
	if err := settings.Load(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { log, settings = prevLog, prevSettings })
	return hook
}

func execute(root *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func newTestRoot() *cobra.Command {
	root := &cobra.Command{Use: "fnos", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().CountP("verbose", "v", "verbosity")
	return root
}

func writeFile(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatal(err)
	}
}

func TestScanVerbosity(t *testing.T) {
	tests := []struct {
		args []string
		want int
	}{
		{nil, 0},
		{[]string{"resmon.cpu"}, 0},
		{[]string{"-v", "resmon.cpu"}, 1},
		{[]string{"-vv"}, 2},
		{[]string{"-v", "-v", "-v", "-v"}, 3},
		{[]string{"--debug"}, 2},
		{[]string{"--silly", "-v"}, 3},
		{[]string{"hello", "--", "--debug"}, 0},
	}
	for _, tt := range tests {
		if got := scanVerbosity(tt.args); got != tt.want {
			t.Errorf("scanVerbosity(%v) = %d, want %d", tt.args, got, tt.want)
		}
	}
}

func TestVerbosity(t *testing.T) {
	defer func() { flagVerbose, flagDebug, flagSilly = 0, false, false }()

	flagVerbose, flagDebug, flagSilly = 1, true, false
	if got := verbosity(); got != 2 {
		t.Errorf("verbosity() = %d, want 2", got)
	}
	flagSilly = true
	if got := verbosity(); got != 3 {
		t.Errorf("verbosity() = %d, want 3", got)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", errors.New("boom"), ExitFailure},
		{"login", withExitCode(ExitLoginFailed, errors.New("denied")), ExitLoginFailed},
		{"wrapped", errors.Join(errors.New("ctx"), withExitCode(ExitMissingParam, errors.New("--disk"))), ExitMissingParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
	if withExitCode(ExitFailure, nil) != nil {
		t.Error("withExitCode(nil) should be nil")
	}
}

func TestParseValue(t *testing.T) {
	if got := parseValue("plain text"); got != "plain text" {
		t.Errorf("parseValue(text) = %v", got)
	}
	if got := parseValue("42"); got != float64(42) {
		t.Errorf("parseValue(42) = %v (%T)", got, got)
	}
	list, ok := parseValue(`["/opt/plugins"]`).([]any)
	if !ok || len(list) != 1 || list[0] != "/opt/plugins" {
		t.Errorf("parseValue(list) = %v", list)
	}
}

func TestLoadPlugins(t *testing.T) {
	useTestState(t, `{"plugins": {"hello": {"defaultGreeting": "Hola"}}}`)

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "hello", "plugin.yaml"),
		"name: hello\nversion: 1.0.0\nruntime: builtin\nentry: hello.builtin\n", 0o644)
	writeFile(t, filepath.Join(root, "hello", "hello.builtin"), "", 0o644)
	// Missing entry file: rejected without affecting hello.
	writeFile(t, filepath.Join(root, "broken", "plugin.yaml"),
		"name: broken\nversion: 1.0.0\nentry: missing.mjs\n", 0o644)
	// No manifest: silently skipped.
	writeFile(t, filepath.Join(root, "notes", "README.md"), "hi", 0o644)

	cmdRoot := newTestRoot()
	reg := loadPlugins(context.Background(), cmdRoot, []string{root})

	if got := reg.Names(); len(got) != 1 || got[0] != "hello" {
		t.Fatalf("registered plugins = %v, want [hello]", got)
	}
	if reg != registry {
		t.Error("loadPlugins should publish the registry")
	}

	out, err := execute(cmdRoot, "hello", "greet", "-n", "Ana")
	if err != nil {
		t.Fatalf("hello greet error: %v", err)
	}
	if strings.TrimSpace(out) != "message: Hola, Ana!" {
		t.Errorf("output = %q", out)
	}

	_, err = execute(cmdRoot, "hello", "whoami")
	if err == nil || !strings.Contains(err.Error(), "not logged in") {
		t.Errorf("whoami error = %v", err)
	}
}

func TestLoadPlugins_InvalidConfigRejected(t *testing.T) {
	hook := useTestState(t, `{"plugins": {"hello": {"defaultGreeting": 123}}}`)

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "hello", "plugin.yaml"),
		"name: hello\nversion: 1.0.0\nruntime: builtin\nentry: hello.builtin\n", 0o644)
	writeFile(t, filepath.Join(root, "hello", "hello.builtin"), "", 0o644)

	reg := loadPlugins(context.Background(), newTestRoot(), []string{root})
	if reg.Len() != 0 {
		t.Errorf("expected no plugins, got %v", reg.Names())
	}

	found := false
	for _, e := range hook.AllEntries() {
		if strings.Contains(e.Message, "Plugin configuration validation failed for hello") {
			found = true
		}
	}
	if !found {
		t.Error("expected configuration validation failure to be logged")
	}
}

func TestListPlugins(t *testing.T) {
	useTestState(t, "")

	var buf bytes.Buffer
	if err := listPlugins(&buf, plugin.NewRegistry()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No plugins loaded.") {
		t.Errorf("output = %q", buf.String())
	}

	reg := plugin.NewRegistry()
	reg.Register("hello", &plugin.Plugin{Name: "hello", Version: "1.0.0", Path: "/p/hello", Commands: plugin.Commands{{Name: "greet"}}})
	buf.Reset()
	if err := listPlugins(&buf, reg); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"name", "hello", "1.0.0", "/p/hello", `["greet"]`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}

// fakeAPI accepts admin/secret and echoes call arguments back as the result.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": "bad credentials"}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "t", "longToken": "lt", "secret": "s"})
	})
	mux.HandleFunc("/api/v1/call", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"method": body["method"], "args": body["args"]}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func diskSmartCommand() (api.Group, api.Command) {
	for _, g := range api.Groups {
		if g.Name != "store" {
			continue
		}
		for _, c := range g.Commands {
			if c.Name == "diskSmart" {
				return g, c
			}
		}
	}
	panic("store.diskSmart not found")
}

// runDiskSmart executes store.diskSmart on a fresh command so flag values
// do not leak between runs.
func runDiskSmart(args ...string) (string, error) {
	g, c := diskSmartCommand()
	root := newTestRoot()
	root.AddCommand(newDispatchCommand(g, c))
	return execute(root, append([]string{"store.diskSmart"}, args...)...)
}

func TestDispatchCommand(t *testing.T) {
	useTestState(t, "")
	srv := fakeAPI(t)

	_, err := runDiskSmart("-e", srv.URL, "-u", "admin", "-p", "secret")
	if ExitCode(err) != ExitMissingParam {
		t.Fatalf("missing --disk: exit code %d (%v), want %d", ExitCode(err), err, ExitMissingParam)
	}

	_, err = runDiskSmart("--disk", "sda", "-e", srv.URL)
	if ExitCode(err) != ExitLoginFailed {
		t.Fatalf("partial credentials: exit code %d (%v), want %d", ExitCode(err), err, ExitLoginFailed)
	}

	out, err := runDiskSmart("--disk", "sda", "-e", srv.URL, "-u", "admin", "-p", "secret")
	if err != nil {
		t.Fatalf("store.diskSmart error: %v", err)
	}
	if !strings.Contains(out, "method: getDiskSmart") || !strings.Contains(out, `"sda"`) {
		t.Errorf("output = %q", out)
	}
}

func TestDispatchCommand_SavedCredentials(t *testing.T) {
	srv := fakeAPI(t)
	useTestState(t, `{"endpoint": "`+srv.URL+`", "username": "admin", "password": "secret"}`)

	out, err := runDiskSmart("--disk", "sdb")
	if err != nil {
		t.Fatalf("store.diskSmart error: %v", err)
	}
	if !strings.Contains(out, `"sdb"`) {
		t.Errorf("output = %q", out)
	}
}

func TestDispatchCommand_NoCredentials(t *testing.T) {
	useTestState(t, "")

	_, err := runDiskSmart("--disk", "sda")
	if ExitCode(err) != ExitLoginFailed {
		t.Errorf("exit code %d (%v), want %d", ExitCode(err), err, ExitLoginFailed)
	}
}

func TestDispatchCommandsRegistered(t *testing.T) {
	for _, name := range []string{"resmon.cpu", "store.listDisk", "file.rm", "sac.upsStatus"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %s not registered (found %v, err %v)", name, cmd, err)
		}
	}
}

func TestLoginAndLogout(t *testing.T) {
	useTestState(t, "")
	srv := fakeAPI(t)

	_, err := execute(rootCmd, "login", "-e", srv.URL, "-u", "admin", "-p", "wrong")
	if ExitCode(err) != ExitLoginFailed {
		t.Fatalf("bad login: exit code %d (%v), want %d", ExitCode(err), err, ExitLoginFailed)
	}

	if _, err := execute(rootCmd, "login", "-e", srv.URL, "-u", "admin", "-p", "secret"); err != nil {
		t.Fatalf("login error: %v", err)
	}
	creds := settings.Credentials()
	if creds == nil || creds.Token != "t" || creds.Username != "admin" {
		t.Fatalf("saved credentials = %+v", creds)
	}

	out, err := execute(rootCmd, "logout")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Credentials cleared") {
		t.Errorf("logout output = %q", out)
	}
	if settings.Credentials() != nil {
		t.Error("credentials should be cleared")
	}

	out, _ = execute(rootCmd, "logout")
	if !strings.Contains(out, "No saved credentials found.") {
		t.Errorf("second logout output = %q", out)
	}
}

func TestCreatePlugin(t *testing.T) {
	useTestState(t, "")
	dir := t.TempDir()

	out, err := execute(rootCmd, "create-plugin", "disk-report", "-p", dir, "--runtime", "go", "-a", "Jane Doe")
	if err != nil {
		t.Fatalf("create-plugin error: %v", err)
	}
	if !strings.Contains(out, "make build") {
		t.Errorf("output = %q", out)
	}
	for _, f := range []string{"plugin.yaml", "main.go", "go.mod", "Makefile"} {
		if _, err := os.Stat(filepath.Join(dir, "disk-report", f)); err != nil {
			t.Errorf("missing %s: %v", f, err)
		}
	}

	_, err = execute(rootCmd, "create-plugin", "x", "-p", dir, "--runtime", "python")
	if err == nil {
		t.Error("expected error for unsupported runtime")
	}
	createRuntime, createAuthor, createPath = "node", "", "."
}

func TestConfigSetGet(t *testing.T) {
	useTestState(t, "")

	if _, err := execute(rootCmd, "config", "set", "pluginPaths", `["/opt/fnos-plugins"]`); err != nil {
		t.Fatal(err)
	}
	if got := settings.PluginPaths(); len(got) != 1 || got[0] != "/opt/fnos-plugins" {
		t.Errorf("PluginPaths() = %v", got)
	}

	if _, err := execute(rootCmd, "config", "set", "greeting", "hi there"); err != nil {
		t.Fatal(err)
	}
	out, err := execute(rootCmd, "config", "get", "greeting")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "hi there" {
		t.Errorf("config get = %q", out)
	}
}

func TestVersion(t *testing.T) {
	buildVersion, buildCommit, buildDate = "1.2.3", "abc", "today"
	prevRegistry := registry
	registry = plugin.NewRegistry()
	registry.Register("hello", &plugin.Plugin{Name: "hello", Version: "1.0.0"})
	defer func() {
		versionShort, flagRaw = false, false
		registry = prevRegistry
	}()

	out, err := execute(rootCmd, "version")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || lines[0] != "fnos version 1.2.3 (commit: abc, built: today)" {
		t.Fatalf("version = %q", out)
	}
	if !strings.HasSuffix(lines[1], "1 plugin(s) loaded") {
		t.Errorf("second line = %q", lines[1])
	}

	out, _ = execute(rootCmd, "version", "--short")
	if out != "1.2.3\n" {
		t.Errorf("version --short = %q", out)
	}
	versionShort = false

	out, err = execute(rootCmd, "version", "--raw")
	if err != nil {
		t.Fatal(err)
	}
	var report versionReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("version --raw is not JSON: %v\n%s", err, out)
	}
	if report.Version != "1.2.3" || len(report.Plugins) != 1 || report.Plugins[0] != "hello@1.0.0" {
		t.Errorf("report = %+v", report)
	}
}
