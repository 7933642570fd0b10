package modules

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kftools/kfbuild/internal/output"
	"github.com/kftools/kfbuild/internal/project"
)

type recorder struct {
	descs []string
	calls [][]string
	fail  func(desc string) error
}

func (r *recorder) Run(ctx context.Context, desc string, cmd *exec.Cmd) error {
	r.descs = append(r.descs, desc)
	r.calls = append(r.calls, cmd.Args)
	if r.fail != nil {
		return r.fail(desc)
	}
	return nil
}

func quietBuilder(rec *recorder) *project.Builder {
	return &project.Builder{Runner: rec, Log: output.NewTo(io.Discard, io.Discard)}
}

func TestAllOrder(t *testing.T) {
	mods, err := All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(mods) < 18 {
		t.Fatalf("manifest has %d modules, want at least 18", len(mods))
	}
	if mods[0].Name != "extra-cmake-modules" {
		t.Errorf("first module = %q, want extra-cmake-modules", mods[0].Name)
	}

	index := make(map[string]int, len(mods))
	for i, m := range mods {
		index[m.Name] = i
	}
	// A few hard ordering requirements from the modules' CMake requirements.
	before := [][2]string{
		{"kcoreaddons", "kauth"},
		{"kwidgetsaddons", "kcompletion"},
		{"kauth", "kconfigwidgets"},
		{"ki18n", "kconfigwidgets"},
		{"karchive", "kiconthemes"},
		{"sonnet", "ktextwidgets"},
		{"ktextwidgets", "kxmlgui"},
		{"kwindowsystem", "kxmlgui"},
	}
	for _, pair := range before {
		a, aok := index[pair[0]]
		b, bok := index[pair[1]]
		if !aok || !bok {
			t.Errorf("manifest missing %q or %q", pair[0], pair[1])
			continue
		}
		if a >= b {
			t.Errorf("%s must be built before %s", pair[0], pair[1])
		}
	}
}

func TestURL(t *testing.T) {
	got := URL("karchive")
	want := "https://invent.kde.org/frameworks/karchive.git"
	if got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}
}

func TestFind(t *testing.T) {
	m, err := Find("sonnet")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if m.Name != "sonnet" {
		t.Errorf("Name = %q", m.Name)
	}

	if _, err := Find("not-a-framework"); err == nil {
		t.Error("Find accepted an unknown module")
	}
}

func TestBuildDerivesURLAndVersion(t *testing.T) {
	tmp := t.TempDir()
	rec := &recorder{}
	opts := Options{
		InstallPrefix: filepath.Join(tmp, "out"),
		BuildBaseDir:  filepath.Join(tmp, "build"),
		WorkDir:       tmp,
	}

	err := Build(context.Background(), quietBuilder(rec), Module{Name: "karchive"}, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []string{
		"git", "clone", "--depth", "1", "--branch", DefaultVersion,
		"https://invent.kde.org/frameworks/karchive.git",
		filepath.Join(tmp, DefaultVersion+"-karchive"),
	}
	if diff := cmp.Diff(want, rec.calls[0]); diff != "" {
		t.Errorf("clone call mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildVersionOverride(t *testing.T) {
	tmp := t.TempDir()
	rec := &recorder{}
	opts := Options{
		Version:      "v6.9.0",
		BuildBaseDir: filepath.Join(tmp, "build"),
		WorkDir:      tmp,
	}

	if err := Build(context.Background(), quietBuilder(rec), Module{Name: "kconfig"}, opts); err != nil {
		t.Fatalf("Build: %v", err)
	}
	clone := strings.Join(rec.calls[0], " ")
	if !strings.Contains(clone, "--branch v6.9.0") {
		t.Errorf("clone did not use the requested version: %s", clone)
	}
}

func TestBuildMergesCMakeArgs(t *testing.T) {
	tmp := t.TempDir()
	rec := &recorder{}
	m := Module{Name: "kconfig", CMakeArgs: []string{"-DA=1"}}
	opts := Options{
		BuildBaseDir: filepath.Join(tmp, "build"),
		WorkDir:      tmp,
		CMakeArgs:    []string{"-DB=2"},
	}

	if err := Build(context.Background(), quietBuilder(rec), m, opts); err != nil {
		t.Fatalf("Build: %v", err)
	}

	configure := rec.calls[1]
	tail := configure[len(configure)-2:]
	if diff := cmp.Diff([]string{"-DA=1", "-DB=2"}, tail); diff != "" {
		t.Errorf("module args must come before run args (-want +got):\n%s", diff)
	}
}

func TestBuildListStopsAtFirstFailure(t *testing.T) {
	tmp := t.TempDir()
	rec := &recorder{fail: func(desc string) error {
		if desc == "cmake configure" {
			return errors.New("injected failure")
		}
		return nil
	}}
	opts := Options{
		BuildBaseDir: filepath.Join(tmp, "build"),
		WorkDir:      tmp,
	}

	mods := []Module{{Name: "first"}, {Name: "second"}}
	err := BuildList(context.Background(), quietBuilder(rec), mods, opts)
	if err == nil {
		t.Fatal("BuildList succeeded despite injected failure")
	}

	// Only the first module's clone and failing configure may have run.
	if len(rec.descs) != 2 {
		t.Errorf("commands after failure: %v", rec.descs)
	}
	for _, call := range rec.calls {
		if strings.Contains(strings.Join(call, " "), "second") {
			t.Errorf("second module was attempted after failure: %v", call)
		}
	}
}

func TestLoadManifestHostOverride(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "mirror.yaml")
	manifest := `host: https://mirror.example.org/kf/
modules:
  - name: karchive
  - name: kconfig
    cmakeArgs:
      - -DX=1
`
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	mf, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := mf.URL("karchive"); got != "https://mirror.example.org/kf/karchive.git" {
		t.Errorf("URL = %q", got)
	}

	spec := Spec(mf.Modules[0], Options{Host: mf.Host})
	remote, ok := spec.Source.(project.RemoteSource)
	if !ok {
		t.Fatalf("source = %#v, want RemoteSource", spec.Source)
	}
	if remote.URL != "https://mirror.example.org/kf/karchive.git" {
		t.Errorf("spec URL = %q", remote.URL)
	}
}

func TestLoadManifestRejectsBadFiles(t *testing.T) {
	tmp := t.TempDir()

	empty := filepath.Join(tmp, "empty.yaml")
	if err := os.WriteFile(empty, []byte("modules: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(empty); err == nil {
		t.Error("Load accepted a manifest without modules")
	}

	unnamed := filepath.Join(tmp, "unnamed.yaml")
	if err := os.WriteFile(unnamed, []byte("modules:\n  - cmakeArgs: [-DX=1]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(unnamed); err == nil {
		t.Error("Load accepted a module without a name")
	}

	if _, err := Load(filepath.Join(tmp, "missing.yaml")); err == nil {
		t.Error("Load accepted a missing file")
	}
}
