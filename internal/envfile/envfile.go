// Package envfile loads the machine environment files that seed a build:
// <name>.local.toml (machine-private, never committed) takes priority over
// <name>.toml (shared defaults). Exactly one file is loaded per Loader.
package envfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// LoadedVar is exported to the process environment after a successful load
// so nested tool invocations can see that initialization already happened.
// It is informational only and never read back as state.
const LoadedVar = "KFBUILD_ENV_FILE"

// Settings are optional defaults an environment file may supply for the
// build commands. Flags always win over these.
type Settings struct {
	InstallPrefix    string   `toml:"install_prefix"`
	BuildDir         string   `toml:"build_dir"`
	WorkDir          string   `toml:"work_dir"`
	FrameworkVersion string   `toml:"framework_version"`
	CMakeArgs        []string `toml:"cmake_args"`
}

// Loaded describes one applied environment file.
type Loaded struct {
	Path     string
	Env      map[string]string
	Settings Settings
}

// NotFoundError reports that neither the local nor the shared environment
// file exists in the searched directory.
type NotFoundError struct {
	Dir  string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no environment file %s.local.toml or %s.toml in %s", e.Name, e.Name, e.Dir)
}

type fileSchema struct {
	Env      map[string]string `toml:"env"`
	Settings Settings          `toml:"settings"`
}

// Loader loads environment files from one directory. The zero value with
// Dir set is ready to use. A Loader records its first successful load and
// returns it unchanged on every later call, so per-run idempotence is a
// property of the instance rather than of hidden process state.
type Loader struct {
	Dir    string
	loaded *Loaded
}

// Load reads <name>.local.toml if present, else <name>.toml, applies its
// [env] table to the process environment and returns what was loaded. An
// empty name means "env". When neither file exists the returned error is a
// *NotFoundError; callers decide whether that aborts the run.
func (l *Loader) Load(name string) (*Loaded, error) {
	if l.loaded != nil {
		return l.loaded, nil
	}
	if name == "" {
		name = "env"
	}
	for _, file := range []string{name + ".local.toml", name + ".toml"} {
		path := filepath.Join(l.Dir, file)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		loaded, err := apply(path)
		if err != nil {
			return nil, err
		}
		l.loaded = loaded
		return loaded, nil
	}
	return nil, &NotFoundError{Dir: l.Dir, Name: name}
}

// LoadedFrom returns the applied file, or nil before a successful Load.
func (l *Loader) LoadedFrom() *Loaded {
	return l.loaded
}

func apply(path string) (*Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read environment file: %w", err)
	}
	var schema fileSchema
	if err := toml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for k, v := range schema.Env {
		os.Setenv(k, v)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	os.Setenv(LoadedVar, abs)
	return &Loaded{Path: abs, Env: schema.Env, Settings: schema.Settings}, nil
}

// DefaultDir returns where the build commands look for environment files:
// the current directory if it holds one, otherwise the directory of the
// kfbuild executable (where a shared env.toml is typically installed).
func DefaultDir(name string) string {
	if name == "" {
		name = "env"
	}
	for _, file := range []string{name + ".local.toml", name + ".toml"} {
		if _, err := os.Stat(file); err == nil {
			return "."
		}
	}
	if exe, err := os.Executable(); err == nil {
		return filepath.Dir(exe)
	}
	return "."
}
