package output

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func format(t *testing.T, data any, raw bool) string {
	t.Helper()
	s, err := Format(data, raw)
	require.NoError(t, err)
	return s
}

func TestFormat_Raw(t *testing.T) {
	assert.Equal(t, "{\n  \"a\": 1\n}", format(t, map[string]any{"a": 1}, true))
	assert.Equal(t, "null", format(t, nil, true))
}

func TestFormat_Empty(t *testing.T) {
	assert.Equal(t, "No data returned", format(t, nil, false))
	assert.Equal(t, "Empty array", format(t, []any{}, false))
}

func TestFormat_Scalars(t *testing.T) {
	assert.Equal(t, "hello", format(t, "hello", false))
	assert.Equal(t, "true", format(t, true, false))
	assert.Equal(t, "42", format(t, 42, false))
}

func TestFormat_Object(t *testing.T) {
	got := format(t, map[string]any{
		"name":  "nas",
		"disks": []any{"sda"},
		"up":    true,
	}, false)
	assert.Equal(t, "disks:\n[\n  \"sda\"\n]\nname: nas\nup: true", got)
}

func TestFormat_Table(t *testing.T) {
	got := format(t, []any{
		map[string]any{"name": "sda", "size": 100},
		map[string]any{"name": "nvme0n1", "size": nil},
	}, false)

	want := "name     size  \n" +
		"-------  ----  \n" +
		"sda      100   \n" +
		"nvme0n1        \n"
	assert.Equal(t, want, got)
}

func TestFormat_ScalarArray(t *testing.T) {
	assert.Equal(t, "a\nb", format(t, []string{"a", "b"}, false))
}

func TestFormat_Struct(t *testing.T) {
	type greeting struct {
		Message string `json:"message"`
	}
	assert.Equal(t, "message: hi", format(t, greeting{Message: "hi"}, false))
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Printer(false)(&buf, nil))
	assert.Equal(t, "No data returned\n", buf.String())
}
