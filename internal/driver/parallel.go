package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"pycc/internal/observ"
	"pycc/internal/trace"
	"pycc/internal/treeio"
)

// AnalyzeAll runs AnalyzeUnit over paths on at most opts.Jobs goroutines.
// Results keep the order of paths. Only cancellation aborts the run; per-unit
// failures are reported through UnitResult.Err.
func AnalyzeAll(ctx context.Context, paths []string, opts Options) ([]*UnitResult, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	opts.builtins() // built once, before the goroutines share it

	ctx, span := trace.StartSpan(ctx, opts.tracer(ctx), trace.ScopeDriver, "analyze-all")
	span.WithExtra("units", fmt.Sprint(len(paths)))

	results := make([]*UnitResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			res, err := AnalyzeUnit(gctx, path, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.End("cancelled")
		return nil, err
	}
	span.End("")
	return results, nil
}

// Totals aggregates the timings of several units.
func Totals(results []*UnitResult) observ.Report {
	reports := make([]observ.Report, 0, len(results))
	for _, r := range results {
		if r != nil {
			reports = append(reports, r.Timing)
		}
	}
	return observ.Aggregate(reports...)
}

// ExpandPaths replaces directories by the tree documents they contain, in
// sorted order. Plain files are kept whatever their extension.
func ExpandPaths(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", arg, err)
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isTreeDocument(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
		slices.Sort(found)
		out = append(out, found...)
	}
	return out, nil
}

func isTreeDocument(path string) bool {
	return treeio.FormatForPath(path) != treeio.FormatAuto && !strings.HasPrefix(filepath.Base(path), ".")
}
