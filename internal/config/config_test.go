package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("FOCUSX_CONFIG", "")
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Focus.DwellThreshold)
	assert.Equal(t, 16667*time.Microsecond, c.Runtime.TickRate)
	assert.Equal(t, 1000, c.Runtime.MaxCommandsPerTick)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "text", c.Log.Format)
	assert.True(t, c.Demo.ShowCursor)
	assert.Equal(t, Default(), c)
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "focusx.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[focus]
dwell_threshold = 3

[runtime]
tick_rate = "10ms"

[log]
level = "debug"
format = "json"
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Focus.DwellThreshold)
	assert.Equal(t, 10*time.Millisecond, c.Runtime.TickRate)
	assert.Equal(t, 1000, c.Runtime.MaxCommandsPerTick, "unset keys keep defaults")
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "json", c.Log.Format)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "focusx.yaml")
	require.NoError(t, os.WriteFile(path, []byte("focus:\n  dwell_threshold: 0\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Focus.DwellThreshold)
}

func TestLoadConfigEnvPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "env.toml")
	require.NoError(t, os.WriteFile(path, []byte("[demo]\nscript = \"panel.lua\"\n"), 0o644))
	t.Setenv("FOCUSX_CONFIG", path)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "panel.lua", c.Demo.Script)
}

func TestLoadEnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("FOCUSX_FOCUS_DWELL_THRESHOLD", "5")
	t.Setenv("FOCUSX_LOG_LEVEL", "warn")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, c.Focus.DwellThreshold)
	assert.Equal(t, "warn", c.Log.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "nope.toml"))
	assert.Error(t, err)
}

func TestLoadInvalidValue(t *testing.T) {
	isolate(t)
	t.Setenv("FOCUSX_FOCUS_DWELL_THRESHOLD", "-2")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative threshold", func(c *Config) { c.Focus.DwellThreshold = -1 }},
		{"zero tick rate", func(c *Config) { c.Runtime.TickRate = 0 }},
		{"zero queue", func(c *Config) { c.Runtime.MaxCommandsPerTick = 0 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}
}

func TestSaveThenLoad(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.toml")

	want := Default()
	want.Focus.DwellThreshold = 4
	want.Runtime.TickRate = 20 * time.Millisecond
	want.Demo.ShowCursor = false
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEncodeWritesDurationString(t *testing.T) {
	data, err := Encode(Default())
	require.NoError(t, err)
	assert.Contains(t, string(data), `tick_rate = '16.667ms'`)
	assert.Contains(t, string(data), "dwell_threshold = 1")
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	_, err = ParseLevel("trace")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	l.Info("hidden")
	l.Warn("shown", "k", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":1`)
}
