package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/fnos-labs/fnos-cli/internal/manifest"
)

//go:embed scaffolds
var scaffoldFS embed.FS

// Runtimes a plugin can be scaffolded for.
const (
	RuntimeNode = "node"
	RuntimeGo   = "go"
)

// DefaultVersion is used when Options.Version is empty.
const DefaultVersion = "1.0.0"

// Options describes the plugin to generate.
type Options struct {
	Name        string // e.g., "disk-report"
	Version     string // Semver, defaults to DefaultVersion
	Description string // Defaults to "<name> plugin"
	Author      string
	Runtime     string // "node" (default) or "go"
}

// templateData holds all template variables available to scaffold templates.
type templateData struct {
	Options
	ModuleName string // Derived: github.com/<author or fnos-plugins>/<name>
}

// Result holds the outcome of a scaffold generation.
type Result struct {
	OutputDir string
	Files     []string
	Warnings  []string
}

var funcs = template.FuncMap{"quote": strconv.Quote}

func (o Options) withDefaults() Options {
	if o.Version == "" {
		o.Version = DefaultVersion
	}
	if o.Description == "" {
		o.Description = o.Name + " plugin"
	}
	if o.Runtime == "" {
		o.Runtime = RuntimeNode
	}
	return o
}

func newTemplateData(o Options) *templateData {
	owner := "fnos-plugins"
	if a := strings.ToLower(strings.Join(strings.Fields(o.Author), "-")); a != "" && !strings.ContainsAny(a, "<>@\"") {
		owner = a
	}
	return &templateData{
		Options:    o,
		ModuleName: fmt.Sprintf("github.com/%s/%s", owner, o.Name),
	}
}

// Generate writes a new plugin into outputDir. The directory is created when
// missing and the template files are always overwritten; files that are not
// part of the template set are left alone.
func Generate(outputDir string, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.Name) == "" {
		return nil, fmt.Errorf("plugin name is required")
	}
	opts = opts.withDefaults()

	templatesDir := path.Join("scaffolds", opts.Runtime)
	entries, err := fs.ReadDir(scaffoldFS, templatesDir)
	if err != nil {
		return nil, fmt.Errorf("unsupported runtime %q: expected %q or %q", opts.Runtime, RuntimeNode, RuntimeGo)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	data := newTemplateData(opts)
	result := &Result{
		OutputDir: outputDir,
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		tmplPath := path.Join(templatesDir, entry.Name())
		tmplBytes, err := fs.ReadFile(scaffoldFS, tmplPath)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", tmplPath, err)
		}

		// Strip .tmpl extension for the output filename.
		outName := strings.TrimSuffix(entry.Name(), ".tmpl")
		outPath := filepath.Join(outputDir, outName)

		tmpl, err := template.New(entry.Name()).Funcs(funcs).Parse(string(tmplBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", entry.Name(), err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("executing template %s: %w", entry.Name(), err)
		}

		if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", outPath, err)
		}

		result.Files = append(result.Files, outName)
	}

	// Validate the generated manifest against the manifest schema.
	manifestFile := filepath.Join(outputDir, manifest.FileYAML)
	if _, err := os.Stat(manifestFile); err == nil {
		valResult, valErr := manifest.ValidateFile(manifestFile)
		if valErr != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Could not validate manifest: %v", valErr))
		} else if !valResult.Valid {
			for _, issue := range valResult.Issues {
				msg := issue.Message
				if issue.Path != "" {
					msg = issue.Path + ": " + msg
				}
				result.Warnings = append(result.Warnings, msg)
			}
		}
	}

	return result, nil
}
