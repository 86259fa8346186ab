package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"pycc/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show pycc build information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("format")
		full, _ := cmd.Flags().GetBool("full")
		info := version.Current()
		switch strings.ToLower(format) {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Tool string `json:"tool"`
				version.Info
			}{"pycc", info})
		case "pretty":
			renderVersionPretty(cmd.OutOrStdout(), info, full)
			return nil
		}
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	},
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	versionCmd.Flags().Bool("full", false, "include commit and build date")
}

func renderVersionPretty(out io.Writer, info version.Info, full bool) {
	fmt.Fprintf(out, "pycc %s\n", version.Colored(info.Version, current.color))
	if !full {
		return
	}
	fmt.Fprintf(out, "commit: %s\n", valueOrUnknown(info.GitCommit))
	fmt.Fprintf(out, "built:  %s\n", valueOrUnknown(info.BuildDate))
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
