package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pycc/internal/config"
	"pycc/internal/driver"
	"pycc/internal/trace"
)

// session is the state shared by every command of one invocation: the
// merged configuration and the tracer.
type session struct {
	cfg     config.Config
	color   bool
	quiet   bool
	timings bool
	tracer  trace.Tracer
	cleanup func()
}

var current = &session{tracer: trace.Nop, cleanup: func() {}}

func setupSession(cmd *cobra.Command, _ []string) error {
	current.tracer = trace.Nop
	current.cleanup = func() {}

	flags := cmd.Root().PersistentFlags()
	cfgPath, _ := flags.GetString("config")
	var (
		cfg config.Config
		err error
	)
	if cfgPath != "" {
		cfg, err = config.LoadFile(cfgPath)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return err
	}
	if flags.Changed("max-diagnostics") {
		cfg.Analysis.MaxDiagnostics, _ = flags.GetInt("max-diagnostics")
	}
	for flag, field := range map[string]*string{
		"trace":        &cfg.Trace.Output,
		"trace-level":  &cfg.Trace.Level,
		"trace-mode":   &cfg.Trace.Mode,
		"trace-format": &cfg.Trace.Format,
	} {
		if flags.Changed(flag) {
			*field, _ = flags.GetString(flag)
		}
	}
	// --trace без уровня включает фазы
	if flags.Changed("trace") && !flags.Changed("trace-level") && cfg.Trace.Level == "off" {
		cfg.Trace.Level = "phase"
	}

	colorMode, _ := flags.GetString("color")
	useColor, err := resolveColor(colorMode)
	if err != nil {
		return err
	}
	color.NoColor = !useColor

	current.cfg = cfg
	current.color = useColor
	current.quiet, _ = flags.GetBool("quiet")
	current.timings, _ = flags.GetBool("timings")
	if err := setupTracing(cmd, current); err != nil {
		return err
	}
	return setupProfiling(cmd, current)
}

func resolveColor(mode string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return os.Getenv("NO_COLOR") == "" && isTerminal(os.Stdout), nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
}

// driverOptions maps the merged configuration onto the driver.
func (s *session) driverOptions() driver.Options {
	a := s.cfg.Analysis
	return driver.Options{
		MaxDiagnostics:   a.MaxDiagnostics,
		MaxIterations:    a.MaxIterations,
		ReportShadowing:  a.ReportShadowing,
		WarningsAsErrors: a.WarningsAsErrors,
		Tracer:           s.tracer,
	}
}
