package version

import (
	"strings"
	"testing"
)

func TestCurrent(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	Version = "  "
	GitCommit = " abc123 \n"
	info := Current()
	if info.Version != "dev" || info.GitCommit != "abc123" || info.BuildDate != strings.TrimSpace(BuildDate) {
		t.Fatalf("info = %+v", info)
	}
}

func TestColored(t *testing.T) {
	if got := Colored("1.2.3-rc.1", false); got != "1.2.3-rc.1" {
		t.Fatalf("plain = %q", got)
	}
	if got := Colored("dev", true); got != "dev" {
		t.Fatalf("non-semver = %q", got)
	}
	got := Colored("1.2.3-rc.1", true)
	if !strings.Contains(got, "\x1b[") || !strings.HasSuffix(got, "-rc.1") {
		t.Fatalf("colored = %q", got)
	}
}
