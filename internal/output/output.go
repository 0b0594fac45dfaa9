// Package output renders command results for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
)

const (
	noData     = "No data returned"
	emptyArray = "Empty array"
)

var keyColor = color.New(color.FgCyan).SprintFunc()

// Format renders data. With raw set the result is indented JSON; otherwise
// arrays of objects become a table and objects become "key: value" lines.
func Format(data any, raw bool) (string, error) {
	if raw {
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding result: %w", err)
		}
		return string(b), nil
	}

	v, err := normalize(data)
	if err != nil {
		return "", err
	}

	switch t := v.(type) {
	case nil:
		return noData, nil
	case []any:
		return formatArray(t), nil
	case map[string]any:
		return formatObject(t), nil
	default:
		return fmt.Sprint(t), nil
	}
}

// Printer returns a function that writes formatted results to w.
func Printer(raw bool) func(w io.Writer, result any) error {
	return func(w io.Writer, result any) error {
		s, err := Format(result, raw)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, s)
		return err
	}
}

// normalize turns structs and typed slices into the generic JSON shapes.
func normalize(data any) (any, error) {
	switch data.(type) {
	case nil, []any, map[string]any, string, bool, float64, int, int64:
		return data, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	return v, nil
}

func formatArray(arr []any) string {
	if len(arr) == 0 {
		return emptyArray
	}
	first, ok := arr[0].(map[string]any)
	if !ok {
		lines := make([]string, len(arr))
		for i, item := range arr {
			lines[i] = scalar(item)
		}
		return strings.Join(lines, "\n")
	}

	keys := sortedKeys(first)
	widths := make([]int, len(keys))
	for i, k := range keys {
		widths[i] = len(k)
		for _, item := range arr {
			row, _ := item.(map[string]any)
			if n := len(cell(row[k])); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var b strings.Builder
	for i, k := range keys {
		b.WriteString(keyColor(pad(k, widths[i]+2)))
	}
	b.WriteString("\n")
	for i := range keys {
		b.WriteString(pad(strings.Repeat("-", widths[i]), widths[i]+2))
	}
	b.WriteString("\n")
	for _, item := range arr {
		row, _ := item.(map[string]any)
		for i, k := range keys {
			b.WriteString(pad(cell(row[k]), widths[i]+2))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatObject(obj map[string]any) string {
	lines := make([]string, 0, len(obj))
	for _, k := range sortedKeys(obj) {
		switch v := obj[k].(type) {
		case map[string]any, []any:
			b, _ := json.MarshalIndent(v, "", "  ")
			lines = append(lines, keyColor(k)+":", string(b))
		default:
			lines = append(lines, fmt.Sprintf("%s: %s", keyColor(k), scalar(v)))
		}
	}
	return strings.Join(lines, "\n")
}

func cell(v any) string {
	if v == nil {
		return ""
	}
	return scalar(v)
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case map[string]any, []any:
		b, _ := json.Marshal(t)
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

func pad(s string, width int) string {
	if n := len(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
