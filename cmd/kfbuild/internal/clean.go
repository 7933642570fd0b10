package internal

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kftools/kfbuild/internal/modules"
	"github.com/kftools/kfbuild/internal/output"
)

var (
	cleanSources bool
	cleanYes     bool
	cleanBaseDir string
	cleanWorkDir string
	cleanEnvName string
)

var cleanCmd = &cobra.Command{
	Use:   "clean [version]",
	Short: "Delete build directories for the given version",
	Long: `Clean removes the per-module build directories, forcing the next run
to configure and build from scratch. With --sources the cloned source
trees go too. Installed files under the prefix are left alone.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanSources, "sources", false, "Also delete the cloned source trees")
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "Delete without asking")
	cleanCmd.Flags().StringVar(&cleanBaseDir, "build-dir", "", `Root directory of the build trees (default "build")`)
	cleanCmd.Flags().StringVar(&cleanWorkDir, "work-dir", "", "Directory the cloned sources land in")
	cleanCmd.Flags().StringVar(&cleanEnvName, "env", "env", "Environment file name to load")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	logger := output.DefaultLogger

	settings, err := loadEnvironment(logger, cleanEnvName)
	if err != nil {
		return err
	}

	mods, err := modules.All()
	if err != nil {
		return err
	}

	opts := modules.Options{
		Version:      pick(firstArg(args), settings.FrameworkVersion, modules.DefaultVersion),
		BuildBaseDir: pick(cleanBaseDir, settings.BuildDir),
		WorkDir:      pick(cleanWorkDir, settings.WorkDir),
	}

	var victims []string
	for _, m := range mods {
		spec := modules.Spec(m, opts)
		if dirExists(spec.BuildDir()) {
			victims = append(victims, spec.BuildDir())
		}
		if cleanSources {
			src, err := spec.SourceDir()
			if err == nil && dirExists(src) {
				victims = append(victims, src)
			}
		}
	}
	if len(victims) == 0 {
		logger.Info("nothing to clean for %s", opts.Version)
		return nil
	}

	logger.Info("will delete:")
	for _, d := range victims {
		logger.Info("  %s", d)
	}
	if !cleanYes {
		ok, err := confirmDelete(len(victims))
		if err != nil {
			return err
		}
		if !ok {
			logger.Info("aborted")
			return nil
		}
	}

	for _, d := range victims {
		if err := os.RemoveAll(d); err != nil {
			return fmt.Errorf("remove %s: %w", d, err)
		}
	}
	logger.Success("removed %d directories", len(victims))
	return nil
}

func confirmDelete(n int) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("stdin is not a terminal; pass --yes to delete")
	}
	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("Delete %d directories", n),
		IsConfirm: true,
	}
	_, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrAbort || err == promptui.ErrInterrupt || err == promptui.ErrEOF {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
