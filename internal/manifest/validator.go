package manifest

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/fnos-labs/fnos-cli/internal/schema"
)

//go:embed schema/manifest.schema.json
var schemaBytes []byte

var (
	compiledSchema *schema.Checker
	compileOnce    sync.Once
	compileErr     error
)

// DevVersion is the version reported by builds without ldflags. It satisfies
// every fnos constraint.
const DevVersion = "dev"

// ValidationResult contains the outcome of manifest validation.
type ValidationResult struct {
	Valid  bool
	Issues []schema.Violation
}

// Error renders the issues in the "<path>: <message>; ..." form.
func (r *ValidationResult) Error() string {
	return schema.FormatErrors(r.Issues)
}

// getSchema compiles the embedded JSON schema once and returns it.
func getSchema() (*schema.Checker, error) {
	compileOnce.Do(func() {
		compiledSchema, compileErr = schema.CompileJSON(schemaBytes)
		if compileErr != nil {
			compileErr = fmt.Errorf("loading manifest schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// Validate checks a parsed manifest against the manifest schema and verifies
// that version and fnos parse as semver.
// The error return is for schema compilation failures only.
func Validate(m *Manifest) (*ValidationResult, error) {
	c, err := getSchema()
	if err != nil {
		return nil, err
	}

	doc := m.raw
	if doc == nil {
		doc = map[string]any{
			"name":    m.Name,
			"version": m.Version,
			"entry":   m.Entry,
		}
		if m.Runtime != "" {
			doc["runtime"] = m.Runtime
		}
		if m.Fnos != "" {
			doc["fnos"] = m.Fnos
		}
	}

	res := schema.Check(doc, c)
	issues := res.Errors

	if s, ok := doc["version"].(string); ok && s != "" {
		if _, err := semver.NewVersion(s); err != nil {
			issues = append(issues, schema.Violation{
				Path:    "/version",
				Message: fmt.Sprintf("%q is not a semantic version", s),
				Keyword: "semver",
			})
		}
	}
	if s, ok := doc["fnos"].(string); ok && s != "" {
		if _, err := semver.NewConstraint(s); err != nil {
			issues = append(issues, schema.Violation{
				Path:    "/fnos",
				Message: fmt.Sprintf("%q is not a version constraint", s),
				Keyword: "semver",
			})
		}
	}

	return &ValidationResult{Valid: len(issues) == 0, Issues: issues}, nil
}

// ValidateFile reads a manifest file and validates it.
func ValidateFile(path string) (*ValidationResult, error) {
	m, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Validate(m)
}

// CheckCompatibility reports whether the host CLI version satisfies the
// manifest's fnos constraint. Development builds and manifests without a
// constraint always pass.
func CheckCompatibility(m *Manifest, cliVersion string) error {
	if m.Fnos == "" || cliVersion == "" || cliVersion == DevVersion {
		return nil
	}
	c, err := semver.NewConstraint(m.Fnos)
	if err != nil {
		return fmt.Errorf("parsing fnos constraint %q: %w", m.Fnos, err)
	}
	v, err := semver.NewVersion(cliVersion)
	if err != nil {
		return fmt.Errorf("parsing CLI version %q: %w", cliVersion, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("plugin %s requires fnos %s, running %s", m.Name, m.Fnos, cliVersion)
	}
	return nil
}
