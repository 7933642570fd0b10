package internal

import (
	"github.com/spf13/cobra"

	"github.com/kftools/kfbuild/internal/modules"
	"github.com/kftools/kfbuild/internal/output"
	"github.com/kftools/kfbuild/internal/project"
)

var (
	statusBaseDir string
	statusWorkDir string
	statusEnvName string
)

var statusCmd = &cobra.Command{
	Use:   "status [version]",
	Short: "Show which modules are already built",
	Long: `Status checks each module's build directory for the done marker and
reports it as built or not built. Pass the version the build ran with;
"latest" is resolved at build time, so here use the concrete tag.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusBaseDir, "build-dir", "", `Root directory of the build trees (default "build")`)
	statusCmd.Flags().StringVar(&statusWorkDir, "work-dir", "", "Directory the cloned sources land in")
	statusCmd.Flags().StringVar(&statusEnvName, "env", "env", "Environment file name to load")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	logger := output.DefaultLogger

	settings, err := loadEnvironment(logger, statusEnvName)
	if err != nil {
		return err
	}

	mods, err := modules.All()
	if err != nil {
		return err
	}

	version := pick(firstArg(args), settings.FrameworkVersion, modules.DefaultVersion)
	opts := modules.Options{
		Version:      version,
		BuildBaseDir: pick(statusBaseDir, settings.BuildDir),
		WorkDir:      pick(statusWorkDir, settings.WorkDir),
	}

	built := 0
	for _, m := range mods {
		spec := modules.Spec(m, opts)
		if project.HasMarker(spec.BuildDir()) {
			logger.Success("%-28s built", m.Name)
			built++
		} else {
			logger.Info("  %-28s not built", m.Name)
		}
	}
	logger.Info("%d of %d modules built (%s)", built, len(mods), version)
	return nil
}
