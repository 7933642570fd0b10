package internal

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kftools/kfbuild/internal/modules"
	"github.com/kftools/kfbuild/internal/output"
	"github.com/kftools/kfbuild/internal/prereq"
	"github.com/kftools/kfbuild/internal/project"
	"github.com/kftools/kfbuild/internal/run"
	"github.com/kftools/kfbuild/internal/vcs"
	"github.com/kftools/kfbuild/internal/vsenv"
	"github.com/kftools/kfbuild/x/cmake"
)

var (
	buildForce         bool
	buildSkipInstall   bool
	buildPrefix        string
	buildBaseDir       string
	buildWorkDir       string
	buildType          string
	buildGenerator     string
	buildManifest      string
	buildCMakeArgs     []string
	buildOnly          []string
	buildEnvName       string
	buildToolchainArgs string
)

var buildCmd = &cobra.Command{
	Use:   "build [version]",
	Short: "Build all framework modules in order",
	Long: `Build clones and builds every framework module in dependency order,
installing into a shared prefix. version may be a release tag, a branch,
a commit hash, or "latest" for the newest published release; the default
is ` + modules.DefaultVersion + `.

Modules whose build tree already holds a done marker are skipped, so an
aborted run resumes where it stopped. Use --force to rebuild anyway.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuildAll,
}

func init() {
	buildCmd.Flags().BoolVarP(&buildForce, "force", "f", false, "Rebuild modules even if their done marker exists")
	buildCmd.Flags().StringVar(&buildPrefix, "prefix", "", `Shared install prefix (default "install")`)
	buildCmd.Flags().StringVar(&buildBaseDir, "build-dir", "", `Root directory for build trees (default "build")`)
	buildCmd.Flags().StringVar(&buildWorkDir, "work-dir", "", "Directory cloned sources land in (default current directory)")
	buildCmd.Flags().StringVar(&buildType, "build-type", "", "CMake build configuration (default Release)")
	buildCmd.Flags().StringVarP(&buildGenerator, "generator", "G", "", "CMake generator, e.g. Ninja")
	buildCmd.Flags().StringVar(&buildManifest, "manifest", "", "Build the modules listed in this manifest instead of the embedded list")
	buildCmd.Flags().BoolVar(&buildSkipInstall, "skip-install", false, "Stop each module after its build step")
	buildCmd.Flags().StringArrayVar(&buildCMakeArgs, "cmake-arg", nil, "Extra CMake configure argument, repeatable")
	buildCmd.Flags().StringSliceVar(&buildOnly, "module", nil, "Build only the named modules, still in manifest order")
	buildCmd.Flags().StringVar(&buildEnvName, "env", "env", "Environment file name to load")
	buildCmd.Flags().StringVar(&buildToolchainArgs, "toolchain-args", "", `Extra arguments for the developer environment setup, e.g. "-arch=x64"`)
	rootCmd.AddCommand(buildCmd)
}

func runBuildAll(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := output.DefaultLogger

	settings, err := loadEnvironment(logger, buildEnvName)
	if err != nil {
		return err
	}

	runner := &run.Exec{Stdout: logger.Writer(), Stderr: logger.ErrWriter()}

	loc := &vsenv.Locator{Runner: runner, Log: logger}
	if err := loc.Enter(ctx, buildToolchainArgs, false); err != nil {
		return err
	}
	if _, err := prereq.Check(); err != nil {
		return err
	}

	git := vcs.New(runner)
	mf, err := loadManifest(buildManifest)
	if err != nil {
		return err
	}

	version := pick(firstArg(args), settings.FrameworkVersion)
	version, err = mf.ResolveVersion(ctx, git, version)
	if err != nil {
		return err
	}

	prefix, err := filepath.Abs(pick(buildPrefix, settings.InstallPrefix, "install"))
	if err != nil {
		return err
	}
	// Later modules locate artifacts installed by earlier ones through the
	// shared prefix.
	cmake.UsePrefix(prefix)

	mods := mf.Modules
	if len(buildOnly) > 0 {
		mods, err = filterModules(mods, buildOnly)
		if err != nil {
			return err
		}
	}

	extraArgs := make([]string, 0, len(settings.CMakeArgs)+len(buildCMakeArgs))
	extraArgs = append(extraArgs, settings.CMakeArgs...)
	extraArgs = append(extraArgs, buildCMakeArgs...)

	opts := modules.Options{
		Version:       version,
		Host:          mf.Host,
		InstallPrefix: prefix,
		BuildBaseDir:  pick(buildBaseDir, settings.BuildDir, "build"),
		WorkDir:       pick(buildWorkDir, settings.WorkDir),
		BuildType:     buildType,
		Generator:     buildGenerator,
		CMakeArgs:     extraArgs,
		ForceRebuild:  buildForce,
		SkipInstall:   buildSkipInstall,
	}

	builder := &project.Builder{Runner: runner, Git: git, Log: logger}
	return modules.BuildList(ctx, builder, mods, opts)
}

// loadManifest returns the manifest at path, or the embedded one when no
// path is given.
func loadManifest(path string) (*modules.Manifest, error) {
	if path == "" {
		return modules.Default()
	}
	return modules.Load(path)
}

// filterModules keeps only the named modules, preserving manifest order.
func filterModules(all []modules.Module, names []string) ([]modules.Module, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	out := make([]modules.Module, 0, len(names))
	for _, m := range all {
		if want[m.Name] {
			out = append(out, m)
			delete(want, m.Name)
		}
	}
	for n := range want {
		return nil, fmt.Errorf("unknown module %q", n)
	}
	return out, nil
}
