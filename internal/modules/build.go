package modules

import (
	"context"

	"github.com/kftools/kfbuild/internal/output"
	"github.com/kftools/kfbuild/internal/project"
)

// Options carries the per-run settings shared by every module build.
type Options struct {
	Version       string // tag, branch, or commit hash; DefaultVersion if empty
	Host          string // repository host prefix; URLPrefix if empty
	InstallPrefix string
	BuildBaseDir  string
	WorkDir       string
	BuildType     string
	Generator     string
	Toolchain     string

	// CMakeArgs are appended after each module's own manifest arguments.
	CMakeArgs []string

	ForceRebuild bool
	SkipInstall  bool
}

func (o *Options) version() string {
	if o.Version != "" {
		return o.Version
	}
	return DefaultVersion
}

// Spec derives the build spec for one module: the repository URL comes
// from the module name, and the run-wide options fill in the rest.
func Spec(m Module, opts Options) project.BuildSpec {
	args := make([]string, 0, len(m.CMakeArgs)+len(opts.CMakeArgs))
	args = append(args, m.CMakeArgs...)
	args = append(args, opts.CMakeArgs...)

	return project.BuildSpec{
		RepoName:      m.Name,
		Source:        project.RemoteSource{URL: URLOn(opts.Host, m.Name), Version: opts.version()},
		Patches:       m.Patches,
		CMakeArgs:     args,
		InstallPrefix: opts.InstallPrefix,
		BuildBaseDir:  opts.BuildBaseDir,
		WorkDir:       opts.WorkDir,
		BuildType:     opts.BuildType,
		Generator:     opts.Generator,
		Toolchain:     opts.Toolchain,
		ForceRebuild:  opts.ForceRebuild,
		SkipInstall:   opts.SkipInstall,
	}
}

// Build builds one module through the project builder.
func Build(ctx context.Context, b *project.Builder, m Module, opts Options) error {
	return b.Build(ctx, Spec(m, opts))
}

// BuildList builds the given modules in order. The first failure stops the
// run; modules after it are not attempted.
func BuildList(ctx context.Context, b *project.Builder, mods []Module, opts Options) error {
	log := logger(b)
	for _, m := range mods {
		log.Group("%s %s", m.Name, opts.version())
		err := Build(ctx, b, m, opts)
		log.EndGroup()
		if err != nil {
			log.Error("%s: %v", m.Name, err)
			return err
		}
	}
	return nil
}

// BuildAll builds every module from the manifest in order.
func BuildAll(ctx context.Context, b *project.Builder, opts Options) error {
	mods, err := All()
	if err != nil {
		return err
	}
	return BuildList(ctx, b, mods, opts)
}

func logger(b *project.Builder) *output.Logger {
	if b != nil && b.Log != nil {
		return b.Log
	}
	return output.DefaultLogger
}
