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
)

var (
	projURL           string
	projVersion       string
	projPath          string
	projSubdir        string
	projPatches       []string
	projCMakeArgs     []string
	projPrefix        string
	projBuildDir      string
	projWorkDir       string
	projBuildType     string
	projGenerator     string
	projToolchainFile string
	projForce         bool
	projSkipInstall   bool
	projSkipClone     bool
	projNoSourceIdDir bool
	projEnvName       string
	projToolchainArgs string
)

var projectCmd = &cobra.Command{
	Use:   "project <repo-name>",
	Short: "Build a single CMake project",
	Long: `Project runs the generic clone/patch/configure/build/install sequence
for one repository. By default the repository URL is derived from the
framework host; --url points somewhere else, and --path builds a source
tree already on disk instead of cloning.`,
	Args: cobra.ExactArgs(1),
	RunE: runProject,
}

func init() {
	projectCmd.Flags().StringVar(&projURL, "url", "", "Repository URL (default derived from the repo name)")
	projectCmd.Flags().StringVar(&projVersion, "version", "", "Tag, branch, or commit hash to build (default "+modules.DefaultVersion+")")
	projectCmd.Flags().StringVar(&projPath, "path", "", "Build this local source tree instead of cloning")
	projectCmd.Flags().StringVar(&projSubdir, "subdir", "", "CMake project root inside the source tree")
	projectCmd.Flags().StringArrayVar(&projPatches, "patch", nil, "Patch file applied after cloning, repeatable, in order")
	projectCmd.Flags().StringArrayVar(&projCMakeArgs, "cmake-arg", nil, "Extra CMake configure argument, repeatable")
	projectCmd.Flags().StringVar(&projPrefix, "prefix", "", `Install prefix (default "install")`)
	projectCmd.Flags().StringVar(&projBuildDir, "build-dir", "", `Root directory for the build tree (default "build")`)
	projectCmd.Flags().StringVar(&projWorkDir, "work-dir", "", "Directory the cloned source lands in")
	projectCmd.Flags().StringVar(&projBuildType, "build-type", "", "CMake build configuration (default Release)")
	projectCmd.Flags().StringVarP(&projGenerator, "generator", "G", "", "CMake generator, e.g. Ninja")
	projectCmd.Flags().StringVar(&projToolchainFile, "toolchain-file", "", "CMAKE_TOOLCHAIN_FILE to configure with")
	projectCmd.Flags().BoolVarP(&projForce, "force", "f", false, "Rebuild even if the done marker exists")
	projectCmd.Flags().BoolVar(&projSkipInstall, "skip-install", false, "Stop after the build step")
	projectCmd.Flags().BoolVar(&projSkipClone, "skip-clone-if-exist", false, "Reuse an existing source dir instead of re-cloning")
	projectCmd.Flags().BoolVar(&projNoSourceIdDir, "no-source-identifier-folder", false, "Build directly in the build root without a per-version subfolder")
	projectCmd.Flags().StringVar(&projEnvName, "env", "env", "Environment file name to load")
	projectCmd.Flags().StringVar(&projToolchainArgs, "toolchain-args", "", "Extra arguments for the developer environment setup")
	rootCmd.AddCommand(projectCmd)
}

func runProject(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := output.DefaultLogger
	repoName := args[0]

	settings, err := loadEnvironment(logger, projEnvName)
	if err != nil {
		return err
	}

	runner := &run.Exec{Stdout: logger.Writer(), Stderr: logger.ErrWriter()}

	loc := &vsenv.Locator{Runner: runner, Log: logger}
	if err := loc.Enter(ctx, projToolchainArgs, false); err != nil {
		return err
	}
	if _, err := prereq.Check(); err != nil {
		return err
	}

	git := vcs.New(runner)

	var source project.Source
	switch {
	case projURL != "" && projPath != "":
		return fmt.Errorf("--url and --path are mutually exclusive")
	case projPath != "":
		source = project.LocalSource{Path: projPath}
	default:
		version := pick(projVersion, settings.FrameworkVersion, modules.DefaultVersion)
		version, err = modules.ResolveVersion(ctx, git, version)
		if err != nil {
			return err
		}
		url := projURL
		if url == "" {
			url = modules.URL(repoName)
		}
		source = project.RemoteSource{URL: url, Version: version}
	}

	prefix, err := filepath.Abs(pick(projPrefix, settings.InstallPrefix, "install"))
	if err != nil {
		return err
	}

	extraArgs := make([]string, 0, len(settings.CMakeArgs)+len(projCMakeArgs))
	extraArgs = append(extraArgs, settings.CMakeArgs...)
	extraArgs = append(extraArgs, projCMakeArgs...)

	builder := &project.Builder{Runner: runner, Git: git, Log: logger}
	return builder.Build(ctx, project.BuildSpec{
		RepoName:                 repoName,
		Source:                   source,
		SourceSubdir:             projSubdir,
		Patches:                  projPatches,
		CMakeArgs:                extraArgs,
		InstallPrefix:            prefix,
		BuildBaseDir:             pick(projBuildDir, settings.BuildDir, "build"),
		WorkDir:                  pick(projWorkDir, settings.WorkDir),
		BuildType:                projBuildType,
		Generator:                projGenerator,
		Toolchain:                projToolchainFile,
		ForceRebuild:             projForce,
		SkipInstall:              projSkipInstall,
		SkipCloneIfExist:         projSkipClone,
		NoSourceIdentifierFolder: projNoSourceIdDir,
	})
}
