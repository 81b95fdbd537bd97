// Package config loads engine options from a YAML file.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/lixenwraith/termcell/terminal"
)

// DefaultFilename is looked up in the working directory when no path is given
const DefaultFilename = "termcell.yaml"

// Size is a fallback terminal size
type Size struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Colors holds the clear attributes by name ("default", "12", "teal", "#303040")
type Colors struct {
	Fg string `yaml:"fg"`
	Bg string `yaml:"bg"`
}

// Config mirrors terminal.Options in file form
type Config struct {
	InputMode      string `yaml:"input_mode"`
	OutputMode     string `yaml:"output_mode"`
	EscapeTimeout  string `yaml:"escape_timeout"`
	ForceTruecolor bool   `yaml:"force_truecolor"`
	Fallback       Size   `yaml:"fallback"`
	Clear          Colors `yaml:"clear"`
	TTY            string `yaml:"tty"`
	Debug          bool   `yaml:"debug"`
}

func DefaultConfig() *Config {
	opts := terminal.DefaultOptions()
	return &Config{
		InputMode:     opts.InputMode.String(),
		OutputMode:    opts.OutputMode.String(),
		EscapeTimeout: opts.EscapeTimeout.String(),
		Fallback:      Size{Width: opts.FallbackWidth, Height: opts.FallbackHeight},
		Clear:         Colors{Fg: "default", Bg: "default"},
	}
}

// FromYAML parses contents over the defaults and validates the result
func FromYAML(contents []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.UnmarshalStrict(contents, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config yaml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the file at path. A missing DefaultFilename yields the defaults;
// any other missing path is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFilename
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg, err := FromYAML(contents)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Validate checks every field resolves to an engine value
func (c *Config) Validate() error {
	_, err := c.Options()
	if err != nil {
		return err
	}
	_, _, err = c.ClearAttrs()
	return err
}

// Options converts the file form into engine options; Logger and extractors stay unset
func (c *Config) Options() (terminal.Options, error) {
	opts := terminal.DefaultOptions()

	in, err := terminal.ParseInputMode(c.InputMode)
	if err != nil {
		return opts, errors.Wrap(err, "input_mode")
	}
	out, err := terminal.ParseOutputMode(c.OutputMode)
	if err != nil {
		return opts, errors.Wrap(err, "output_mode")
	}
	opts.InputMode = in
	opts.OutputMode = out

	if c.EscapeTimeout != "" {
		d, err := time.ParseDuration(c.EscapeTimeout)
		if err != nil {
			return opts, errors.Wrap(err, "escape_timeout")
		}
		if d <= 0 {
			return opts, errors.Errorf("escape_timeout must be positive, got %s", d)
		}
		opts.EscapeTimeout = d
	}

	if c.Fallback.Width < 0 || c.Fallback.Height < 0 {
		return opts, errors.Errorf("fallback size %dx%d is negative", c.Fallback.Width, c.Fallback.Height)
	}
	if c.Fallback.Width > 0 {
		opts.FallbackWidth = c.Fallback.Width
	}
	if c.Fallback.Height > 0 {
		opts.FallbackHeight = c.Fallback.Height
	}
	opts.ForceTruecolor = c.ForceTruecolor
	return opts, nil
}

// ClearAttrs resolves the clear colours
func (c *Config) ClearAttrs() (fg, bg terminal.Attribute, err error) {
	if fg, err = terminal.ParseColor(c.Clear.Fg); err != nil {
		return 0, 0, errors.Wrap(err, "clear.fg")
	}
	if bg, err = terminal.ParseColor(c.Clear.Bg); err != nil {
		return 0, 0, errors.Wrap(err, "clear.bg")
	}
	return fg, bg, nil
}
