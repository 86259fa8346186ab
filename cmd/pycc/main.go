package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pycc/internal/version"
)

// errDiagnostics is returned when analysis found errors; it only sets the
// exit status, the diagnostics themselves are already printed.
var errDiagnostics = errors.New("analysis reported errors")

var rootCmd = &cobra.Command{
	Use:   "pycc",
	Short: "Semantic analysis for a statically compiled Python subset",
	Long: `pycc checks syntax trees produced by the pycc parser: it builds the scope graph,
resolves names, classifies operation sites for specialization and validates the
program before code generation.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupSession,
}

func init() {
	rootCmd.Version = version.Current().Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	flags := rootCmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")
	flags.Int("max-diagnostics", 100, "maximum number of diagnostics per unit (0 = unlimited)")
	flags.String("config", "", "path to pycc.toml (default: search upwards from the working directory)")
	flags.String("trace", "", "trace output file (\"-\" for stderr)")
	flags.String("trace-level", "", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "", "trace storage (stream|ring|both)")
	flags.String("trace-format", "", "trace format (auto|text|ndjson)")
	flags.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval")
	flags.String("cpu-profile", "", "write a CPU profile to the file")
	flags.String("mem-profile", "", "write a heap profile to the file on exit")
	flags.String("runtime-trace", "", "write a Go runtime trace to the file")
}

func main() {
	// PostRun hooks are skipped when a command fails, so the tracer and the
	// profilers are stopped here.
	err := rootCmd.Execute()
	if err != nil {
		dumpRings(current)
	}
	current.cleanup()
	if err != nil {
		if !errors.Is(err, errDiagnostics) {
			fmt.Fprintf(os.Stderr, "pycc: %v\n", err)
		}
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
