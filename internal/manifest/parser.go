package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// Find returns the manifest file inside dir, or "" when the directory has
// none.
func Find(dir string) string {
	for _, name := range []string{FileYAML, FileJSON} {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	p := filepath.Join(dir, FilePackageJSON)
	if section, err := packageSection(p); err == nil && section != nil {
		return p
	}
	return ""
}

// Read loads the manifest of the plugin directory dir. It returns (nil, nil)
// when the directory has no manifest file.
func Read(dir string) (*Manifest, error) {
	path := Find(dir)
	if path == "" {
		return nil, nil
	}
	return ParseFile(path)
}

// ParseFile reads and decodes a manifest file. For a package.json only the
// fnos.plugin section is decoded.
func ParseFile(path string) (*Manifest, error) {
	var data []byte
	if filepath.Base(path) == FilePackageJSON {
		section, err := packageSection(path)
		if err != nil {
			return nil, err
		}
		if section == nil {
			return nil, fmt.Errorf("%s has no fnos.plugin section", path)
		}
		if data, err = json.Marshal(section); err != nil {
			return nil, fmt.Errorf("encoding fnos.plugin section of %s: %w", path, err)
		}
	} else {
		var err error
		if data, err = readFile(path); err != nil {
			return nil, err
		}
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	m.File = path
	return m, nil
}

// Parse decodes manifest bytes. The document must be a mapping; field
// presence is checked later by Validate.
func Parse(data []byte) (*Manifest, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling YAML: %w", err)
	}
	doc, ok := normalizeYAML(raw).(map[string]any)
	if !ok {
		return nil, errors.New("manifest is not a mapping")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest fields: %w", err)
	}
	m.raw = doc
	return &m, nil
}

// packageSection returns the fnos.plugin object of a package.json, or nil
// when the file has none.
func packageSection(path string) (map[string]any, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var pkg struct {
		Fnos struct {
			Plugin map[string]any `json:"plugin"`
		} `json:"fnos"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return pkg.Fnos.Plugin, nil
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}

// normalizeYAML converts YAML-decoded values to JSON-compatible types.
// Non-string map keys are rendered with %v.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[k] = normalizeYAML(item)
		}
		return m
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[fmt.Sprintf("%v", k)] = normalizeYAML(item)
		}
		return m
	case []any:
		a := make([]any, len(val))
		for i, item := range val {
			a[i] = normalizeYAML(item)
		}
		return a
	default:
		return val
	}
}
