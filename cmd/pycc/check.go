package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"pycc/internal/diag"
	"pycc/internal/diagfmt"
	"pycc/internal/driver"
	"pycc/internal/sema"
	"pycc/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <tree files or dirs...>",
	Short: "Analyse parser output and report diagnostics",
	Long: `check analyses syntax tree documents (.json or .mp) written by the parser.
Directories are searched for tree documents. The exit status is 1 when any
unit has an error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	f := checkCmd.Flags()
	f.String("format", "pretty", "output format (pretty|short|json)")
	f.Int("jobs", 0, "max parallel units (0 = auto)")
	f.Bool("no-warnings", false, "hide warnings and infos")
	f.Bool("warnings-as-errors", false, "treat warnings as errors")
	f.Bool("shadowing", false, "report declarations that shadow outer names")
	f.String("stage", "all", "last pass to run (declare|resolve|classify|all)")
	f.Bool("notes", true, "show notes under diagnostics")
	f.Bool("cache", false, "reuse diagnostics of unchanged units")
	f.String("ui", "auto", "progress view for several units (auto|on|off)")
	f.String("paths", "auto", "how file paths are shown (auto|absolute|relative|basename)")
}

type checkOptions struct {
	format     string
	noWarnings bool
	notes      bool
	paths      diagfmt.PathMode
}

func runCheck(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	format, _ := f.GetString("format")
	format = strings.ToLower(format)
	switch format {
	case "pretty", "short", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, short or json)", format)
	}

	opts := current.driverOptions()
	opts.Jobs, _ = f.GetInt("jobs")
	if f.Changed("warnings-as-errors") {
		opts.WarningsAsErrors, _ = f.GetBool("warnings-as-errors")
	}
	if f.Changed("shadowing") {
		opts.ReportShadowing, _ = f.GetBool("shadowing")
	}
	stageName, _ := f.GetString("stage")
	stage, ok := sema.ParseStage(stageName)
	if !ok {
		return fmt.Errorf("invalid --stage %q (expected declare|resolve|classify|all)", stageName)
	}
	opts.Stage = stage

	useCache := current.cfg.Cache.Enabled
	if f.Changed("cache") {
		useCache, _ = f.GetBool("cache")
	}
	if useCache {
		cache, err := driver.OpenDiskCache(current.cfg.Cache.Dir)
		if err != nil {
			return err
		}
		opts.Cache = cache
	}

	paths, err := driver.ExpandPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no tree documents found in %s", strings.Join(args, ", "))
	}

	pathsFlag, _ := f.GetString("paths")
	pathMode, ok := diagfmt.ParsePathMode(strings.ToLower(pathsFlag))
	if !ok {
		return fmt.Errorf("invalid --paths %q (expected auto|absolute|relative|basename)", pathsFlag)
	}

	uiMode, _ := f.GetString("ui")
	useUI, err := shouldUseTUI(uiMode)
	if err != nil {
		return err
	}
	useUI = useUI && len(paths) > 1 && !current.quiet && format != "json"

	var results []*driver.UnitResult
	if useUI {
		results, err = analyzeWithUI(cmd.Context(), paths, opts)
	} else {
		results, err = driver.AnalyzeAll(cmd.Context(), paths, opts)
	}
	if err != nil {
		return err
	}

	noWarnings, _ := f.GetBool("no-warnings")
	notes, _ := f.GetBool("notes")
	co := checkOptions{format: format, noWarnings: noWarnings, notes: notes, paths: pathMode}
	if err := renderResults(cmd.OutOrStdout(), cmd.ErrOrStderr(), results, co); err != nil {
		return err
	}
	if current.timings {
		if err := driver.WriteTimings(cmd.ErrOrStderr(), results, format == "json"); err != nil {
			return err
		}
	}
	for _, r := range results {
		if r.HasErrors() {
			return errDiagnostics
		}
	}
	return nil
}

type unitJSON struct {
	Path  string `json:"path"`
	Error string `json:"error,omitempty"`
	diagfmt.DiagnosticsOutput
}

func renderResults(out, errOut io.Writer, results []*driver.UnitResult, opts checkOptions) error {
	var units []unitJSON
	var errs, warns int
	for _, r := range results {
		if opts.noWarnings {
			r.Bag.Filter(func(d diag.Diagnostic) bool { return d.Severity == diag.SevError })
		}
		errs += r.Bag.Count(diag.SevError)
		warns += r.Bag.Count(diag.SevWarning)
		if r.Err != nil {
			errs++
		}

		switch opts.format {
		case "json":
			u := unitJSON{Path: r.Path}
			if r.Err != nil {
				u.Error = r.Err.Error()
			} else {
				u.DiagnosticsOutput = diagfmt.BuildDiagnosticsOutput(r.Bag, r.Files, diagfmt.JSONOpts{
					IncludePositions: true,
					PathMode:         opts.paths,
					BaseDir:          workingDir(),
					IncludeNotes:     opts.notes,
					IncludeAttrs:     true,
				})
			}
			units = append(units, u)
			continue
		case "short":
			if err := diagfmt.Short(out, r.Bag, r.Files); err != nil {
				return err
			}
		default:
			if err := diagfmt.Pretty(out, r.Bag, r.Files, diagfmt.PrettyOpts{
				Color:     current.color,
				ShowNotes: opts.notes,
				PathMode:  opts.paths,
				BaseDir:   workingDir(),
			}); err != nil {
				return err
			}
		}
		if r.Err != nil {
			fmt.Fprintf(errOut, "pycc: %v\n", r.Err)
		}
	}

	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Units []unitJSON `json:"units"`
		}{units})
	}
	if !current.quiet && opts.format == "pretty" {
		fmt.Fprintf(errOut, "checked %s: %s, %s\n", plural(len(results), "unit"), plural(errs, "error"), plural(warns, "warning"))
	}
	return nil
}

// analyzeWithUI runs the units while a Bubble Tea view follows their status.
func analyzeWithUI(ctx context.Context, paths []string, opts driver.Options) ([]*driver.UnitResult, error) {
	events := make(chan ui.Event, 256)
	opts.OnStart = func(path string) { events <- ui.Event{File: path, Status: ui.StatusAnalyzing} }
	opts.OnUnit = func(r *driver.UnitResult) { events <- unitEvent(r) }

	type outcome struct {
		results []*driver.UnitResult
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		results, err := driver.AnalyzeAll(ctx, paths, opts)
		close(events)
		done <- outcome{results, err}
	}()

	program := tea.NewProgram(ui.NewProgressModel("checking", paths, events), tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	if uiErr != nil {
		// drain so the workers never block on a dead view
		for range events {
		}
	}
	res := <-done
	if uiErr != nil && res.err == nil {
		return res.results, uiErr
	}
	return res.results, res.err
}

func unitEvent(r *driver.UnitResult) ui.Event {
	ev := ui.Event{File: r.Path}
	switch {
	case r.Err != nil:
		ev.Status = ui.StatusFailed
	case r.Bag.HasErrors():
		ev.Status = ui.StatusErrors
		ev.Detail = plural(r.Bag.Count(diag.SevError), "error")
	case r.Bag.HasWarnings():
		ev.Status = ui.StatusWarnings
		ev.Detail = plural(r.Bag.Count(diag.SevWarning), "warning")
	default:
		ev.Status = ui.StatusClean
	}
	if r.Cached {
		if ev.Detail != "" {
			ev.Detail += ", "
		}
		ev.Detail += "cached"
	}
	return ev
}

func shouldUseTUI(mode string) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(mode)) {
	case "", "auto":
		return isTerminal(os.Stderr), nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", mode)
}

func workingDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
