package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pycc/internal/trace"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, `
[analysis]
max_iterations = 50
report_shadowing = true

[cache]
enabled = true
dir = ".pycc-cache"
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(nested)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != path || cfg.Root != root {
		t.Fatalf("found %q in %q", cfg.Path, cfg.Root)
	}
	if cfg.Analysis.MaxIterations != 50 || !cfg.Analysis.ReportShadowing {
		t.Fatalf("analysis = %+v", cfg.Analysis)
	}
	if cfg.Analysis.MaxDiagnostics != Default().Analysis.MaxDiagnostics {
		t.Fatalf("unset keys must keep defaults, got max_diagnostics=%d", cfg.Analysis.MaxDiagnostics)
	}
	if want := filepath.Join(root, ".pycc-cache"); !cfg.Cache.Enabled || cfg.Cache.Dir != want {
		t.Fatalf("cache = %+v, want dir %s", cfg.Cache, want)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name, body, want string
	}{
		{"unknown key", "[analysis]\nmax_iteration = 3\n", "unknown keys: analysis.max_iteration"},
		{"bad level", "[trace]\nlevel = \"loud\"\n", "[trace].level"},
		{"negative", "[analysis]\nmax_diagnostics = -1\n", "max_diagnostics must be >= 0"},
		{"syntax", "[analysis\n", "failed to parse TOML"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tc.body)
			_, err := LoadFile(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error = %v, want %q", err, tc.want)
			}
		})
	}
}

func TestTraceConfig(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[trace]\nlevel = \"detail\"\nmode = \"both\"\nformat = \"ndjson\"\n")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	tc, err := cfg.TraceConfig()
	if err != nil {
		t.Fatal(err)
	}
	if tc.Level != trace.LevelDetail || tc.Mode != trace.ModeBoth || tc.Format != trace.FormatNDJSON || tc.OutputPath != "-" {
		t.Fatalf("trace config = %+v", tc)
	}

	def := Default()
	if tc, err := def.TraceConfig(); err != nil || tc.Level != trace.LevelOff {
		t.Fatalf("default trace = %+v, %v", tc, err)
	}
}
