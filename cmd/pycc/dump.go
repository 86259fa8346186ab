package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pycc/internal/diagfmt"
	"pycc/internal/driver"
)

var dumpCmd = &cobra.Command{
	Use:   "dump --out <artifact.mp> <tree file>",
	Short: "Write the backend hand-off artifact of one unit",
	Long: `dump analyses one tree document and writes the scope graph, symbols with their
inferred types, classified operation sites, constants and diagnostics as msgpack.
The artifact is written even when the unit has errors; the exit status is 1 then.`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringP("out", "o", "", "artifact path (\"-\" for stdout)")
	dumpCmd.Flags().Bool("summary", false, "print global symbol types and site classes")
	_ = dumpCmd.MarkFlagRequired("out")
}

func runDump(cmd *cobra.Command, args []string) error {
	outPath, _ := cmd.Flags().GetString("out")
	summary, _ := cmd.Flags().GetBool("summary")

	res, err := driver.AnalyzeUnit(cmd.Context(), args[0], current.driverOptions())
	if err != nil {
		return err
	}
	if res.Err != nil {
		return res.Err
	}
	if err := diagfmt.Short(cmd.ErrOrStderr(), res.Bag, res.Files); err != nil {
		return err
	}
	artifact, err := driver.BuildArtifact(res)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	if err := writeArtifactFile(outPath, cmd.OutOrStdout(), artifact); err != nil {
		return err
	}
	if summary {
		printSummary(cmd.ErrOrStderr(), artifact)
	}
	if current.timings {
		if err := driver.WriteTimings(cmd.ErrOrStderr(), []*driver.UnitResult{res}, false); err != nil {
			return err
		}
	}
	if artifact.HasErrors {
		return errDiagnostics
	}
	return nil
}

func writeArtifactFile(path string, stdout io.Writer, a *driver.Artifact) error {
	if path == "-" {
		return driver.WriteArtifact(stdout, a)
	}
	f, err := os.Create(path) // #nosec G304 -- user-chosen output path
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := driver.WriteArtifact(w, a); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printSummary(out io.Writer, a *driver.Artifact) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	types := a.Types()
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%s\n", name, types[name])
	}
	counts := map[string]int{}
	for _, s := range a.Sites {
		counts[s.Class]++
	}
	fmt.Fprintf(tw, "sites\t%d\tmono=%d poly=%d mega=%d\n", len(a.Sites),
		counts["monomorphic"], counts["polymorphic"], counts["megamorphic"])
	_ = tw.Flush()
}
