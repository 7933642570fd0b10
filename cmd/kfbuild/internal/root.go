package internal

import (
	"errors"
	"log"

	"github.com/spf13/cobra"

	"github.com/kftools/kfbuild/internal/envfile"
	"github.com/kftools/kfbuild/internal/output"
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:   "kfbuild",
	Short: "kfbuild builds KDE Frameworks from source",
	Long: `kfbuild clones, patches, configures, builds and installs an ordered set
of KDE Frameworks modules into a shared install prefix. Finished build
trees carry a done marker, so an interrupted run resumes where it stopped.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		output.DefaultLogger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal(err)
	}
}

// loadEnvironment applies the machine environment file and returns its
// settings. A missing file only means flags and defaults have to cover
// everything; a malformed file aborts.
func loadEnvironment(logger *output.Logger, name string) (envfile.Settings, error) {
	loader := &envfile.Loader{Dir: envfile.DefaultDir(name)}
	loaded, err := loader.Load(name)
	if err != nil {
		var nf *envfile.NotFoundError
		if errors.As(err, &nf) {
			logger.Debug("%v", err)
			return envfile.Settings{}, nil
		}
		return envfile.Settings{}, err
	}
	logger.Info("environment: %s", loaded.Path)
	return loaded.Settings, nil
}

// pick returns the first non-empty value.
func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
