package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", p, err)
	}
	return p
}

func TestRead_YAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileYAML, `name: hello-plugin
version: 1.2.0
entry: bin/hello
description: Says hello
author: Jane
runtime: exec
fnos: ">= 0.1.0"
`)

	m, err := Read(dir)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if m == nil {
		t.Fatal("expected manifest, got nil")
	}

	tests := []struct {
		field, got, want string
	}{
		{"Name", m.Name, "hello-plugin"},
		{"Version", m.Version, "1.2.0"},
		{"Entry", m.Entry, "bin/hello"},
		{"Description", m.Description, "Says hello"},
		{"Author", m.Author, "Jane"},
		{"Runtime", m.Runtime, RuntimeExec},
		{"Fnos", m.Fnos, ">= 0.1.0"},
		{"File", m.File, filepath.Join(dir, FileYAML)},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.field, tt.got, tt.want)
		}
	}
	if m.Raw()["name"] != "hello-plugin" {
		t.Errorf("Raw()[name] = %v", m.Raw()["name"])
	}
}

func TestRead_JSONFallback(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileJSON, `{"name": "p", "version": "0.1.0", "entry": "index.mjs", "runtime": "node"}`)

	m, err := Read(dir)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if m == nil || m.Name != "p" || m.RuntimeName() != RuntimeNode {
		t.Fatalf("unexpected manifest: %+v", m)
	}
}

func TestRead_YAMLWinsOverJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileYAML, "name: from-yaml\nversion: 1.0.0\nentry: x\n")
	writeFile(t, dir, FileJSON, `{"name": "from-json", "version": "1.0.0", "entry": "x"}`)

	m, err := Read(dir)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if m.Name != "from-yaml" {
		t.Errorf("Name = %q, want from-yaml", m.Name)
	}
}

func TestRead_PackageJSONSection(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FilePackageJSON, `{
  "name": "@acme/disk-tools",
  "version": "3.0.0",
  "fnos": {"plugin": {"name": "disk-tools", "version": "1.1.0", "entry": "index.mjs", "runtime": "node"}}
}`)

	if got := Find(dir); got != filepath.Join(dir, FilePackageJSON) {
		t.Fatalf("Find() = %q", got)
	}
	m, err := Read(dir)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if m == nil || m.Name != "disk-tools" || m.Version != "1.1.0" || m.Entry != "index.mjs" {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	if m.File != filepath.Join(dir, FilePackageJSON) {
		t.Errorf("File = %q", m.File)
	}

	result, err := Validate(m)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if !result.Valid {
		t.Errorf("section should validate: %s", result.Error())
	}
}

func TestRead_PackageJSONWithoutSection(t *testing.T) {
	for _, content := range []string{`{"name": "lib", "version": "1.0.0"}`, `{not json`} {
		dir := t.TempDir()
		writeFile(t, dir, FilePackageJSON, content)

		if got := Find(dir); got != "" {
			t.Errorf("Find() = %q for %s, want empty", got, content)
		}
		m, err := Read(dir)
		if err != nil || m != nil {
			t.Errorf("Read() = %+v, %v for %s, want nil, nil", m, err, content)
		}
	}
}

func TestRead_PluginYAMLWinsOverPackageJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileYAML, "name: from-yaml\nversion: 1.0.0\nentry: x\n")
	writeFile(t, dir, FilePackageJSON, `{"fnos": {"plugin": {"name": "from-pkg", "version": "1.0.0", "entry": "x"}}}`)

	m, err := Read(dir)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if m.Name != "from-yaml" {
		t.Errorf("Name = %q, want from-yaml", m.Name)
	}
}

func TestRead_NoManifest(t *testing.T) {
	m, err := Read(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil manifest, got %+v", m)
	}
}

func TestRead_Unparseable(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"broken yaml", "name: [unclosed\n"},
		{"scalar document", "just a string\n"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, FileYAML, tt.content)
			m, err := Read(dir)
			if err == nil {
				t.Fatalf("expected parse error, got manifest %+v", m)
			}
		})
	}
}

func TestRuntimeName_Default(t *testing.T) {
	m := &Manifest{}
	if got := m.RuntimeName(); got != RuntimeExec {
		t.Errorf("RuntimeName() = %q, want %q", got, RuntimeExec)
	}
}

func TestFind_IgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, FileYAML), 0o755); err != nil {
		t.Fatal(err)
	}
	if got := Find(dir); got != "" {
		t.Errorf("Find() = %q, want empty", got)
	}
}
