package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lixenwraith/termcell/config"
	"github.com/lixenwraith/termcell/terminal"
)

type flags struct {
	tty           string
	configPath    string
	inputMode     string
	outputMode    string
	escapeTimeout time.Duration
	debug         bool
}

func main() {
	// Panic Recovery: restore the terminal before printing the crash
	defer func() {
		if r := recover(); r != nil {
			terminal.EmergencyReset(os.Stdout)
			fmt.Fprintf(os.Stderr, "\n\x1b[31mTERMDEMO CRASHED: %v\x1b[0m\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "termdemo: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:     "termdemo",
		Short:   "Print a few lines, wait for two key presses, and restore the terminal",
		Version: terminal.Version,
		Args:    cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SilenceUsage = true
		},
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}
			if logFile := setupLogging(cfg.Debug); logFile != nil {
				defer logFile.Close()
			}

			opts, err := cfg.Options()
			if err != nil {
				return err
			}
			opts.Logger = log.Default()
			fg, bg, err := cfg.ClearAttrs()
			if err != nil {
				return err
			}

			e := terminal.New(opts)
			if cfg.TTY != "" {
				err = e.InitFile(cfg.TTY)
			} else {
				err = e.Init()
			}
			if err != nil {
				return err
			}
			return e.Run(func(e *terminal.Engine) error {
				if err := e.Clear(fg, bg); err != nil {
					return err
				}
				return runDemo(e)
			})
		},
	}

	f.register(cmd.Flags())
	return cmd
}

func (f *flags) register(fl *pflag.FlagSet) {
	fl.StringVar(&f.tty, "tty", "", "Terminal device to open instead of /dev/tty")
	fl.StringVarP(&f.configPath, "config", "c", "", "Options file (default "+config.DefaultFilename+" if present)")
	fl.StringVar(&f.inputMode, "input-mode", "", "Input mode: escape, alt, mouse, combined with |")
	fl.StringVar(&f.outputMode, "output-mode", "", "Output mode: normal, grayscale, 256, truecolor")
	fl.DurationVar(&f.escapeTimeout, "escape-timeout", 0, "Wait for the rest of an escape sequence")
	fl.BoolVar(&f.debug, "debug", false, "Write logs to "+logDir+"/"+logFileName)
}

// resolveConfig loads the options file and applies explicitly set flags over it
func resolveConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("tty") {
		cfg.TTY = f.tty
	}
	if changed("input-mode") {
		cfg.InputMode = f.inputMode
	}
	if changed("output-mode") {
		cfg.OutputMode = f.outputMode
	}
	if changed("escape-timeout") {
		cfg.EscapeTimeout = f.escapeTimeout.String()
	}
	if changed("debug") {
		cfg.Debug = f.debug
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// lines writes successive rows starting at a fixed column
type lines struct {
	e    *terminal.Engine
	x, y int
}

func (l *lines) printf(fg, bg terminal.Attribute, format string, args ...any) error {
	_, err := l.e.Print(l.x, l.y, fg, bg, fmt.Sprintf(format, args...))
	l.y++
	// Small terminals clip the demo text
	if errors.Is(err, terminal.ErrOutOfBounds) {
		return nil
	}
	return err
}

func describe(ev terminal.Event) string {
	name := terminal.KeyName(ev.Key)
	if ev.Key == terminal.KeyRune {
		name = "rune"
	}
	if ev.Type != terminal.EventKey {
		name = ev.String()
	}
	ch := ev.Rune
	if ch < 0x20 {
		ch = ' '
	}
	return fmt.Sprintf("event type=%s key=%s ch=%c", ev.Type, name, ch)
}

func runDemo(e *terminal.Engine) error {
	l := &lines{e: e, x: 5, y: 10}

	steps := []struct {
		fg     terminal.Attribute
		format string
		args   []any
	}{
		{terminal.ColorWhite, "attr width is %d", []any{e.AttrWidth()}},
		{terminal.ColorRed | terminal.AttrUnderline, "hello from termcell", nil},
		{terminal.ColorDefault, "width=%d height=%d", []any{e.Width(), e.Height()}},
		{terminal.ColorDefault, "press any key...", nil},
	}
	for _, s := range steps {
		if err := l.printf(s.fg, terminal.ColorDefault, s.format, s.args...); err != nil {
			return err
		}
	}
	if err := e.Present(); err != nil {
		return err
	}

	ev, err := e.PollEvent()
	if err != nil {
		return err
	}
	log.Printf("first event: %s", ev)

	l.y++
	if err := l.printf(terminal.ColorDefault, terminal.ColorDefault, "%s", describe(ev)); err != nil {
		return err
	}
	if err := l.printf(terminal.ColorDefault, terminal.ColorDefault, "press any key to quit..."); err != nil {
		return err
	}
	if err := e.Present(); err != nil {
		return err
	}

	ev, err = e.PollEvent()
	if err != nil {
		return err
	}
	log.Printf("second event: %s", ev)
	return nil
}
