package driver

import (
	"encoding/json"
	"fmt"
	"io"

	"pycc/internal/observ"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	Cached  bool                 `json:"cached,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// WriteTimings prints per-unit timings followed by the aggregate. The JSON
// form is one object per line with kind "unit" or "total".
func WriteTimings(w io.Writer, results []*UnitResult, asJSON bool) error {
	payloads := make([]timingPayload, 0, len(results)+1)
	for _, r := range results {
		if r == nil {
			continue
		}
		payloads = append(payloads, timingPayload{
			Kind:    "unit",
			Path:    r.Path,
			Cached:  r.Cached,
			TotalMS: r.Timing.TotalMS,
			Phases:  r.Timing.Phases,
		})
	}
	total := Totals(results)
	payloads = append(payloads, timingPayload{Kind: "total", TotalMS: total.TotalMS, Phases: total.Phases})

	if asJSON {
		enc := json.NewEncoder(w)
		for i := range payloads {
			if err := enc.Encode(&payloads[i]); err != nil {
				return err
			}
		}
		return nil
	}
	for _, p := range payloads {
		label := p.Path
		if p.Kind == "total" {
			if len(payloads) == 2 {
				break // один юнит: итог совпадает
			}
			label = fmt.Sprintf("all %d units", len(payloads)-1)
		}
		report := observ.Report{TotalMS: p.TotalMS, Phases: p.Phases}
		if _, err := fmt.Fprintf(w, "%s\n%s", label, report.Summary()); err != nil {
			return err
		}
	}
	return nil
}
