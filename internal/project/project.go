// Package project builds a single CMake-based project from a remote
// repository or a local source tree: clone, patch, configure, build,
// install, then mark the build tree done.
//
// Directory layout for a remote build of repo "karchive" at v6.10.0:
//
//	<workDir>/v6.10.0-karchive/        # cloned source (kept on failure)
//	<buildBaseDir>/v6.10.0-karchive/   # build tree (deleted on failure)
//	  .ci-build-done                   # written after a full success
//	<installPrefix>/                   # shared install tree
package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kftools/kfbuild/internal/output"
	"github.com/kftools/kfbuild/internal/run"
	"github.com/kftools/kfbuild/internal/vcs"
	"github.com/kftools/kfbuild/x/cmake"
)

// BuildSpec describes one buildable unit.
type BuildSpec struct {
	RepoName     string   // unique name, used in derived directory names
	Source       Source   // remote repository or local tree
	SourceSubdir string   // optional CMake project root inside the source tree
	Patches      []string // patch files applied in order (remote mode only)
	CMakeArgs    []string // extra configure arguments, passed through verbatim

	InstallPrefix string // shared install tree, one per run
	BuildBaseDir  string // root for build trees; defaults to "build"
	WorkDir       string // where cloned sources land; defaults to the working directory
	BuildType     string // CMake configuration; defaults to "Release"
	Generator     string // optional CMake generator
	Toolchain     string // optional CMAKE_TOOLCHAIN_FILE

	ForceRebuild             bool // build even if a done marker exists
	SkipInstall              bool // stop after the build step
	SkipCloneIfExist         bool // reuse an existing source dir instead of re-cloning
	NoSourceIdentifierFolder bool // build directly in BuildBaseDir
}

// SpecError reports a BuildSpec that cannot be built as given.
type SpecError struct {
	Reason string
}

func (e *SpecError) Error() string { return "invalid build spec: " + e.Reason }

// LocalSourceError reports a local source path that does not exist or is
// not a directory.
type LocalSourceError struct {
	Path   string
	Reason string
}

func (e *LocalSourceError) Error() string {
	return fmt.Sprintf("local source %s: %s", e.Path, e.Reason)
}

// PatchError reports a patch file that could not be found. Patch paths are
// resolved before any clone or delete happens so a typo cannot waste a
// checkout.
type PatchError struct {
	Patch      string // path as given in the spec
	ResolveDir string // directory resolution was attempted against
	Suggested  string // alternate location worth trying, may be empty
}

func (e *PatchError) Error() string {
	msg := fmt.Sprintf("patch file %s not found (resolved against %s)", e.Patch, e.ResolveDir)
	if e.Suggested != "" {
		msg += ", did you mean " + e.Suggested
	}
	return msg
}

// Builder runs builds. The zero value is usable and runs external tools
// directly with output on stdout and stderr.
type Builder struct {
	Runner run.Runner     // command runner; defaults to &run.Exec{}
	Git    *vcs.Git       // git client; defaults to one on Runner
	Log    *output.Logger // progress logger; defaults to output.DefaultLogger
}

// Build runs the full clone/patch/configure/build/install sequence for
// spec. A build tree holding a done marker is skipped unless ForceRebuild
// is set. On failure the build tree is deleted so the next run starts
// clean; the source tree is kept for inspection.
func (b *Builder) Build(ctx context.Context, spec BuildSpec) error {
	if err := spec.normalize(); err != nil {
		return err
	}
	log := b.log()

	sourceDir, err := spec.resolveSource()
	if err != nil {
		return err
	}
	buildDir := spec.BuildDir()

	if !spec.ForceRebuild && HasMarker(buildDir) {
		log.Info("%s: already built, skipping (%s exists)", spec.RepoName, MarkerPath(buildDir))
		return nil
	}

	if err := b.buildAt(ctx, &spec, sourceDir, buildDir); err != nil {
		if rmErr := os.RemoveAll(buildDir); rmErr != nil {
			log.Warn("could not clean %s: %v", buildDir, rmErr)
		}
		return fmt.Errorf("build %s: %w", spec.describe(), err)
	}
	return nil
}

// buildAt performs every step that dirties the build tree. Any error
// returned from here makes Build delete buildDir.
func (b *Builder) buildAt(ctx context.Context, spec *BuildSpec, sourceDir, buildDir string) error {
	log := b.log()

	var patches []string
	if remote, ok := spec.Source.(RemoteSource); ok {
		var err error
		patches, err = resolvePatches(spec.Patches)
		if err != nil {
			return err
		}
		if err := b.fetchSource(ctx, remote, sourceDir, spec.SkipCloneIfExist, patches); err != nil {
			return err
		}
	}

	srcRoot := sourceDir
	if spec.SourceSubdir != "" {
		srcRoot = filepath.Join(sourceDir, spec.SourceSubdir)
	}

	cm := cmake.New(srcRoot, buildDir, spec.InstallPrefix)
	cm.BuildType(spec.BuildType)
	if spec.Generator != "" {
		cm.Generator(spec.Generator)
	}
	if spec.Toolchain != "" {
		cm.Toolchain(spec.Toolchain)
	}
	cm.Runner(b.runner())

	log.Info("%s: configuring", spec.RepoName)
	if err := cm.Configure(ctx, spec.CMakeArgs...); err != nil {
		return err
	}
	log.Info("%s: building", spec.RepoName)
	if err := cm.Build(ctx); err != nil {
		return err
	}
	if spec.SkipInstall {
		log.Info("%s: install skipped", spec.RepoName)
	} else {
		log.Info("%s: installing to %s", spec.RepoName, spec.InstallPrefix)
		if err := cm.Install(ctx); err != nil {
			return err
		}
	}

	if err := writeMarker(buildDir, spec, patches); err != nil {
		return err
	}
	log.Success("%s: done", spec.RepoName)
	return nil
}

// fetchSource ensures sourceDir holds the requested checkout with all
// patches applied. Unless SkipCloneIfExist reuses a previous tree, any
// stale sourceDir is deleted first; clones are never updated in place, so
// patch application always starts from a clean tree.
func (b *Builder) fetchSource(ctx context.Context, src RemoteSource, sourceDir string, skipIfExist bool, patches []string) error {
	log := b.log()

	if skipIfExist {
		if info, err := os.Stat(sourceDir); err == nil && info.IsDir() {
			log.Info("reusing source at %s", sourceDir)
			return nil
		}
	}
	if err := os.RemoveAll(sourceDir); err != nil {
		return fmt.Errorf("clean source dir: %w", err)
	}

	git := b.git()
	if vcs.IsCommitHash(src.Version) {
		log.Info("cloning %s", src.URL)
		if err := git.CloneDefault(ctx, src.URL, sourceDir); err != nil {
			return err
		}
		log.Info("checking out %s", src.Version)
		if err := git.Checkout(ctx, sourceDir, src.Version); err != nil {
			return err
		}
	} else {
		log.Info("cloning %s at %s", src.URL, src.Version)
		if err := git.CloneBranch(ctx, src.URL, src.Version, sourceDir); err != nil {
			return err
		}
	}

	for _, patch := range patches {
		log.Info("applying %s", filepath.Base(patch))
		if err := git.Apply(ctx, sourceDir, patch); err != nil {
			return err
		}
	}
	return nil
}

// BuildDir returns the build tree location the spec maps to, applying the
// same layout rules Build uses.
func (s *BuildSpec) BuildDir() string {
	base := s.BuildBaseDir
	if base == "" {
		base = "build"
	}
	if s.NoSourceIdentifierFolder {
		return base
	}
	return filepath.Join(base, s.identifier())
}

// identifier names the per-spec directory under WorkDir and BuildBaseDir.
func (s *BuildSpec) identifier() string {
	switch src := s.Source.(type) {
	case RemoteSource:
		return src.Version + "-" + s.RepoName
	case LocalSource:
		return "local-" + s.RepoName
	}
	return s.RepoName
}

func (s *BuildSpec) describe() string {
	if remote, ok := s.Source.(RemoteSource); ok {
		return s.RepoName + "@" + remote.Version
	}
	return s.RepoName
}

func (s *BuildSpec) normalize() error {
	if s.RepoName == "" {
		return &SpecError{Reason: "repo name is required"}
	}
	switch src := s.Source.(type) {
	case nil:
		return &SpecError{Reason: "source is required"}
	case RemoteSource:
		if src.URL == "" {
			return &SpecError{Reason: "remote source needs a repository URL"}
		}
		if src.Version == "" {
			return &SpecError{Reason: "remote source needs a version"}
		}
	case LocalSource:
		if src.Path == "" {
			return &SpecError{Reason: "local source needs a path"}
		}
	default:
		return &SpecError{Reason: fmt.Sprintf("unsupported source type %T", src)}
	}
	if s.BuildBaseDir == "" {
		s.BuildBaseDir = "build"
	}
	if s.BuildType == "" {
		s.BuildType = "Release"
	}
	return nil
}

// SourceDir returns where the spec's source tree lives. Local paths are
// made absolute; nothing is checked against the filesystem.
func (s *BuildSpec) SourceDir() (string, error) {
	switch src := s.Source.(type) {
	case RemoteSource:
		return filepath.Join(s.WorkDir, s.identifier()), nil
	case LocalSource:
		abs, err := filepath.Abs(src.Path)
		if err != nil {
			return "", &LocalSourceError{Path: src.Path, Reason: err.Error()}
		}
		return abs, nil
	}
	return "", &SpecError{Reason: "source is required"}
}

// resolveSource derives the source directory. Local paths are checked
// immediately so a bad path fails before any clone or delete side effect.
func (s *BuildSpec) resolveSource() (string, error) {
	dir, err := s.SourceDir()
	if err != nil {
		return "", err
	}
	if _, ok := s.Source.(LocalSource); ok {
		info, err := os.Stat(dir)
		if err != nil {
			return "", &LocalSourceError{Path: dir, Reason: "does not exist"}
		}
		if !info.IsDir() {
			return "", &LocalSourceError{Path: dir, Reason: "not a directory"}
		}
	}
	return dir, nil
}

// resolvePatches turns the listed patch files into absolute paths and
// verifies each exists. Resolution happens up front because later steps
// run with per-command working directories that would not match the
// caller's.
func resolvePatches(patches []string) ([]string, error) {
	if len(patches) == 0 {
		return nil, nil
	}
	resolveDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	abs := make([]string, 0, len(patches))
	for _, p := range patches {
		full := p
		if !filepath.IsAbs(full) {
			full = filepath.Join(resolveDir, p)
		}
		if _, err := os.Stat(full); err != nil {
			return nil, &PatchError{Patch: p, ResolveDir: resolveDir, Suggested: suggestPatch(p)}
		}
		abs = append(abs, full)
	}
	return abs, nil
}

// suggestPatch proposes the same patch name next to the executable, which
// is where shipped patch files usually live.
func suggestPatch(patch string) string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if filepath.IsAbs(patch) {
		patch = filepath.Base(patch)
	}
	return filepath.Join(filepath.Dir(exe), patch)
}

func (b *Builder) runner() run.Runner {
	if b.Runner != nil {
		return b.Runner
	}
	return &run.Exec{}
}

func (b *Builder) git() *vcs.Git {
	if b.Git != nil {
		return b.Git
	}
	return vcs.New(b.runner())
}

func (b *Builder) log() *output.Logger {
	if b.Log != nil {
		return b.Log
	}
	return output.DefaultLogger
}
