package plugin

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/fnos-labs/fnos-cli/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfig(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
		want     Config
	}{
		{"nil settings", nil, Config{}},
		{"empty settings", map[string]any{}, Config{}},
		{"empty plugins", map[string]any{"plugins": map[string]any{}}, Config{}},
		{"other plugin only", map[string]any{"plugins": map[string]any{"q": map[string]any{"a": 1}}}, Config{}},
		{"plugins not a map", map[string]any{"plugins": "oops"}, Config{}},
		{"entry not a map", map[string]any{"plugins": map[string]any{"p": 42}}, Config{}},
		{"present", map[string]any{"plugins": map[string]any{"p": map[string]any{"setting": "v"}}}, Config{"setting": "v"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetConfig("p", tt.settings))
		})
	}
}

func TestGetConfig_DoesNotAliasSettings(t *testing.T) {
	slice := map[string]any{"k": "v"}
	settings := map[string]any{"plugins": map[string]any{"p": slice}}

	cfg := GetConfig("p", settings)
	cfg["k"] = "changed"

	assert.Equal(t, "v", slice["k"])
}

func TestValidateConfig(t *testing.T) {
	doc := map[string]any{
		"type":                 "object",
		"properties":           map[string]any{"setting": map[string]any{"type": "string"}},
		"required":             []any{"setting"},
		"additionalProperties": false,
	}

	res, err := ValidateConfig(Config{"setting": "ok"}, doc)
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = ValidateConfig(Config{"setting": 123}, doc)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, "/setting", res.Errors[0].Path)

	res, err = ValidateConfig(nil, doc)
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestValidateConfig_NoSchema(t *testing.T) {
	res, err := ValidateConfig(Config{"anything": 1}, nil)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidateConfig_BrokenSchema(t *testing.T) {
	_, err := ValidateConfig(Config{}, map[string]any{"type": 12})
	assert.Error(t, err)
}

func TestNewReadonlyAuth_Nil(t *testing.T) {
	assert.Nil(t, NewReadonlyAuth(nil))
}

func TestReadonlyAuth_Reads(t *testing.T) {
	src := &config.Credentials{
		Endpoint:  "nas.local:5666",
		Username:  "admin",
		Password:  "pw",
		Token:     "t",
		LongToken: "lt",
		Secret:    "s",
	}
	a := NewReadonlyAuth(src)
	require.NotNil(t, a)

	assert.Equal(t, src.Endpoint, a.Endpoint())
	assert.Equal(t, src.Username, a.Username())
	assert.Equal(t, src.Password, a.Password())
	assert.Equal(t, src.Token, a.Token())
	assert.Equal(t, src.LongToken, a.LongToken())
	assert.Equal(t, src.Secret, a.Secret())
	assert.Equal(t, *src, a.Credentials())

	v, ok := a.Get("longToken")
	assert.True(t, ok)
	assert.Equal(t, "lt", v)

	_, ok = a.Get("unknown")
	assert.False(t, ok)
}

func TestReadonlyAuth_WritesFail(t *testing.T) {
	a := NewReadonlyAuth(&config.Credentials{Username: "admin"})

	err := a.Set("username", "other")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReadonly))
	assert.Contains(t, err.Error(), "'username'")
	assert.Contains(t, err.Error(), "modify")

	err = a.Delete("password")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReadonly))
	assert.Contains(t, err.Error(), "'password'")
	assert.Contains(t, err.Error(), "delete")

	assert.Equal(t, "admin", a.Username())
}

func TestReadonlyAuth_IsolatedFromSource(t *testing.T) {
	src := &config.Credentials{Username: "admin"}
	a := NewReadonlyAuth(src)

	src.Username = "changed"
	assert.Equal(t, "admin", a.Username())

	c := a.Credentials()
	c.Username = "mutated copy"
	assert.Equal(t, "admin", a.Username())
}

func TestReadonlyAuth_MarshalJSON(t *testing.T) {
	a := NewReadonlyAuth(&config.Credentials{Endpoint: "e", LongToken: "lt"})

	data, err := json.Marshal(a)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]any{"endpoint": "e", "longToken": "lt"}, got)
}
