package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func newBufLogger() (*Logger, *bytes.Buffer, *bytes.Buffer) {
	color.NoColor = true
	var out, errOut bytes.Buffer
	l := NewTo(&out, &errOut)
	l.SetCI(false)
	return l, &out, &errOut
}

func TestInfoWritesToOut(t *testing.T) {
	l, out, errOut := newBufLogger()
	l.Info("building %s", "kconfig")
	if got := out.String(); got != "building kconfig\n" {
		t.Errorf("out = %q", got)
	}
	if errOut.Len() != 0 {
		t.Errorf("errOut = %q, want empty", errOut.String())
	}
}

func TestWarnAndErrorWriteToErr(t *testing.T) {
	l, out, errOut := newBufLogger()
	l.Warn("cleanup failed: %s", "busy")
	l.Error("configure failed")
	if out.Len() != 0 {
		t.Errorf("out = %q, want empty", out.String())
	}
	got := errOut.String()
	if !strings.Contains(got, "Warning: cleanup failed: busy\n") {
		t.Errorf("missing warning in %q", got)
	}
	if !strings.Contains(got, "Error: configure failed\n") {
		t.Errorf("missing error in %q", got)
	}
}

func TestSuccessPrefix(t *testing.T) {
	l, out, _ := newBufLogger()
	l.Success("kconfig done")
	if got := out.String(); got != "✓ kconfig done\n" {
		t.Errorf("out = %q", got)
	}
}

func TestDebugGatedByVerbose(t *testing.T) {
	l, out, _ := newBufLogger()
	l.Debug("hidden")
	if out.Len() != 0 {
		t.Errorf("debug printed without verbose: %q", out.String())
	}
	l.SetVerbose(true)
	l.Debug("shown %d", 1)
	if got := out.String(); got != "[DEBUG] shown 1\n" {
		t.Errorf("out = %q", got)
	}
}

func TestGroupMarkersUnderCI(t *testing.T) {
	l, out, _ := newBufLogger()
	l.SetCI(true)
	l.Group("kconfig %s", "v6.10.0")
	l.EndGroup()
	want := "::group::kconfig v6.10.0\n::endgroup::\n"
	if got := out.String(); got != want {
		t.Errorf("out = %q, want %q", got, want)
	}
}

func TestGroupPlainOutsideCI(t *testing.T) {
	l, out, _ := newBufLogger()
	l.Group("kconfig")
	l.EndGroup()
	want := "=== kconfig ===\n"
	if got := out.String(); got != want {
		t.Errorf("out = %q, want %q", got, want)
	}
}

func TestEndGroupWithoutGroupIsQuiet(t *testing.T) {
	l, out, _ := newBufLogger()
	l.SetCI(true)
	l.EndGroup()
	if out.Len() != 0 {
		t.Errorf("out = %q, want empty", out.String())
	}
}
