package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/termcell/terminal"
)

const testConfig = `
input_mode: alt|mouse
output_mode: "256"
escape_timeout: 25ms
force_truecolor: true
fallback:
  width: 100
  height: 40
clear:
  fg: teal
  bg: "#101020"
tty: /dev/pts/3
debug: true
`

func TestDefaultConfigMatchesEngineDefaults(t *testing.T) {
	opts, err := DefaultConfig().Options()
	require.NoError(t, err)

	want := terminal.DefaultOptions()
	assert.Equal(t, want.InputMode, opts.InputMode)
	assert.Equal(t, want.OutputMode, opts.OutputMode)
	assert.Equal(t, want.EscapeTimeout, opts.EscapeTimeout)
	assert.Equal(t, want.FallbackWidth, opts.FallbackWidth)
	assert.Equal(t, want.FallbackHeight, opts.FallbackHeight)
}

func TestFromYAML(t *testing.T) {
	cfg, err := FromYAML([]byte(testConfig))
	require.NoError(t, err)
	assert.Equal(t, "/dev/pts/3", cfg.TTY)
	assert.True(t, cfg.Debug)

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, terminal.InputAlt|terminal.InputMouse, opts.InputMode)
	assert.Equal(t, terminal.Output256, opts.OutputMode)
	assert.Equal(t, 25*time.Millisecond, opts.EscapeTimeout)
	assert.True(t, opts.ForceTruecolor)
	assert.Equal(t, 100, opts.FallbackWidth)
	assert.Equal(t, 40, opts.FallbackHeight)

	fg, bg, err := cfg.ClearAttrs()
	require.NoError(t, err)
	assert.Equal(t, terminal.ColorCyan, fg)
	assert.Equal(t, terminal.ColorRGB(0x10, 0x10, 0x20), bg)
}

func TestFromYAMLPartialKeepsDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte("output_mode: truecolor\n"))
	require.NoError(t, err)

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, terminal.OutputTruecolor, opts.OutputMode)
	assert.Equal(t, terminal.InputEscape, opts.InputMode)
	assert.Equal(t, terminal.DefaultEscapeTimeout, opts.EscapeTimeout)
}

func TestFromYAMLRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown input mode", "input_mode: keyboard\n"},
		{"unknown output mode", "output_mode: sixel\n"},
		{"bad duration", "escape_timeout: soon\n"},
		{"zero duration", "escape_timeout: 0s\n"},
		{"negative fallback", "fallback:\n  width: -1\n"},
		{"unknown colour", "clear:\n  fg: chartreuse-ish\n"},
		{"unknown field", "colour_mode: 256\n"},
		{"malformed", "input_mode: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromYAML([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "alt|mouse", cfg.InputMode)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDefaultFilenameOptional(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	require.NoError(t, os.WriteFile(DefaultFilename, []byte("input_mode: mouse\n"), 0644))
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "mouse", cfg.InputMode)
}
