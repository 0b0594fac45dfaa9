package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const resourceName = "schema.json"

var printer = message.NewPrinter(language.English)

// Checker is a compiled schema that can be applied to any number of documents.
type Checker struct {
	schema *jsonschema.Schema
}

// Result contains the outcome of a check.
type Result struct {
	Valid  bool
	Errors []Violation
}

// Violation represents a single schema violation.
type Violation struct {
	Path    string // Instance location (e.g., "/setting", "/items/0")
	Message string // Human-readable error message
	Keyword string // Schema keyword that failed
}

// Compile turns a decoded schema document into a Checker. It fails when the
// document is not itself a valid schema.
func Compile(doc map[string]any) (*Checker, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding schema: %w", err)
	}
	return CompileJSON(data)
}

// CompileJSON compiles a schema from raw JSON bytes.
func CompileJSON(data []byte) (*Checker, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshaling schema JSON: %w", err)
	}

	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft7)
	if err := c.AddResource(resourceName, doc); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	compiled, err := c.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return &Checker{schema: compiled}, nil
}

// Check validates data against a compiled schema. It never fails; anything
// that cannot be checked is reported as a violation at the root.
func Check(data any, c *Checker) Result {
	if c == nil || c.schema == nil {
		return Result{Valid: true}
	}

	// Round-trip through JSON so Go ints, structs and typed maps reach the
	// validator as the json.Number based values it expects.
	encoded, err := json.Marshal(data)
	if err != nil {
		return invalid("", fmt.Sprintf("cannot encode value: %v", err))
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
	if err != nil {
		return invalid("", fmt.Sprintf("cannot decode value: %v", err))
	}

	err = c.schema.Validate(inst)
	if err == nil {
		return Result{Valid: true}
	}

	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return invalid("", err.Error())
	}
	return Result{Valid: false, Errors: extractViolations(ve)}
}

// Validate compiles doc and checks data against it in one step.
func Validate(data any, doc map[string]any) (Result, error) {
	c, err := Compile(doc)
	if err != nil {
		return Result{}, err
	}
	return Check(data, c), nil
}

// FormatErrors renders violations as "<path>: <message>" joined by "; ".
// Violations at the document root use "root" as their path.
func FormatErrors(errs []Violation) string {
	if len(errs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(errs))
	for _, v := range errs {
		path := v.Path
		if path == "" {
			path = "root"
		}
		parts = append(parts, path+": "+v.Message)
	}
	return strings.Join(parts, "; ")
}

func invalid(path, msg string) Result {
	return Result{Valid: false, Errors: []Violation{{Path: path, Message: msg}}}
}

// extractViolations walks the ValidationError tree and returns leaf-level
// violations, falling back to the top-level message when no leaf is useful.
func extractViolations(ve *jsonschema.ValidationError) []Violation {
	var out []Violation
	collectViolations(ve, &out)
	if len(out) == 0 {
		return []Violation{{Message: ve.Error()}}
	}
	return deduplicate(out)
}

func collectViolations(ve *jsonschema.ValidationError, out *[]Violation) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectViolations(cause, out)
		}
		return
	}

	path := ""
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}

	keyword := ""
	msg := ""
	if ve.ErrorKind != nil {
		if kw := ve.ErrorKind.KeywordPath(); len(kw) > 0 {
			keyword = kw[len(kw)-1]
		}
		msg = ve.ErrorKind.LocalizedString(printer)
	}

	// Container keywords only say that a branch failed.
	switch keyword {
	case "", "oneOf", "anyOf", "allOf", "$ref":
		return
	}

	*out = append(*out, Violation{Path: path, Message: msg, Keyword: keyword})
}

func deduplicate(in []Violation) []Violation {
	seen := make(map[string]bool, len(in))
	var out []Violation
	for _, v := range in {
		key := v.Path + "|" + v.Keyword + "|" + v.Message
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
