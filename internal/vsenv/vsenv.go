// Package vsenv locates an installed C++ toolchain and merges its build
// environment into the current process. On Windows it queries vswhere for
// the newest Visual Studio with the C++ toolset and enters its developer
// environment via VsDevCmd; elsewhere it verifies a C++ compiler exists.
package vsenv

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kftools/kfbuild/internal/output"
	"github.com/kftools/kfbuild/internal/run"
)

// InitializedVar is exported after a successful Enter with the discovered
// toolchain root, so nested invocations can see the environment is set up.
const InitializedVar = "KFBUILD_VSENV"

// VswhereVar overrides the well-known vswhere.exe location.
const VswhereVar = "KFBUILD_VSWHERE"

// vcToolsComponent is the Visual Studio component the installation must
// provide: the x86/x64 C++ compiler and libraries.
const vcToolsComponent = "Microsoft.VisualStudio.Component.VC.Tools.x86.x64"

// NotFoundError reports that no usable C++ toolchain installation exists.
type NotFoundError struct {
	Hint string
}

func (e *NotFoundError) Error() string {
	return "no C++ toolchain found: " + e.Hint
}

// DevCmdMissingError reports a Visual Studio installation whose developer
// command shell integration is missing.
type DevCmdMissingError struct {
	Path string
}

func (e *DevCmdMissingError) Error() string {
	return "Visual Studio developer environment script missing: " + e.Path
}

// Locator discovers the toolchain and holds the "entered" state for one
// run. Idempotence lives on the instance: a second Enter without force is
// a no-op, and tests construct a fresh Locator per case.
type Locator struct {
	Runner run.Runner
	Log    *output.Logger

	root string
}

// Root returns the recorded toolchain installation path, or "" before a
// successful Enter.
func (l *Locator) Root() string {
	return l.root
}

// Enter locates the toolchain and merges its environment variables into
// the process. extraArgs is passed verbatim to the developer-environment
// script (e.g. "-arch=x64"). Repeated calls return immediately unless
// force is set.
func (l *Locator) Enter(ctx context.Context, extraArgs string, force bool) error {
	if l.root != "" && !force {
		return nil
	}
	log := l.Log
	if log == nil {
		log = output.DefaultLogger
	}

	var root string
	var err error
	if runtime.GOOS == "windows" {
		root, err = l.enterWindows(ctx, extraArgs, log)
	} else {
		root, err = locateUnixCompiler()
	}
	if err != nil {
		return err
	}

	l.root = root
	os.Setenv(InitializedVar, root)
	log.Debug("toolchain: %s", root)
	return nil
}

func (l *Locator) enterWindows(ctx context.Context, extraArgs string, log *output.Logger) (string, error) {
	vswhere := vswherePath()
	if _, err := os.Stat(vswhere); err != nil {
		return "", &NotFoundError{Hint: "vswhere.exe not found at " + vswhere}
	}

	install, err := l.queryInstallation(ctx, vswhere)
	if err != nil {
		return "", err
	}
	if install == "" {
		return "", &NotFoundError{Hint: "no Visual Studio installation provides " + vcToolsComponent}
	}

	devCmd := filepath.Join(install, "Common7", "Tools", "VsDevCmd.bat")
	if _, err := os.Stat(devCmd); err != nil {
		return "", &DevCmdMissingError{Path: devCmd}
	}

	vars, err := l.captureDevEnv(ctx, devCmd, extraArgs)
	if err != nil {
		return "", err
	}
	applied := MergeEnv(vars)
	log.Debug("merged %d environment variables from VsDevCmd", len(applied))
	return install, nil
}

// queryInstallation asks vswhere for the newest installation carrying the
// C++ toolset and returns its path, or "" when there is none.
func (l *Locator) queryInstallation(ctx context.Context, vswhere string) (string, error) {
	var out bytes.Buffer
	cmd := run.Command(ctx, "", vswhere,
		"-latest", "-products", "*",
		"-requires", vcToolsComponent,
		"-property", "installationPath",
		"-utf8")
	cmd.Stdout = &out
	if err := l.runner().Run(ctx, "query Visual Studio installations", cmd); err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.SplitN(out.String(), "\n", 2)[0]), nil
}

// captureDevEnv runs VsDevCmd in a throwaway batch script followed by
// "set", and parses the printed environment block. A script avoids the
// cmd.exe quoting rules around paths with spaces.
func (l *Locator) captureDevEnv(ctx context.Context, devCmd, extraArgs string) (map[string]string, error) {
	script := fmt.Sprintf("@echo off\r\ncall \"%s\" -no_logo %s\r\nif errorlevel 1 exit /b %%errorlevel%%\r\nset\r\n", devCmd, extraArgs)
	tmp, err := os.CreateTemp("", "kfbuild-vsenv-*.bat")
	if err != nil {
		return nil, fmt.Errorf("create dev environment script: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(script); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write dev environment script: %w", err)
	}
	tmp.Close()

	var out bytes.Buffer
	cmd := run.Command(ctx, "", "cmd.exe", "/q", "/c", tmp.Name())
	cmd.Stdout = &out
	if err := l.runner().Run(ctx, "enter Visual Studio developer environment", cmd); err != nil {
		return nil, err
	}
	return ParseEnvBlock(out.String()), nil
}

func (l *Locator) runner() run.Runner {
	if l.Runner != nil {
		return l.Runner
	}
	return &run.Exec{}
}

func vswherePath() string {
	if p := os.Getenv(VswhereVar); p != "" {
		return p
	}
	pf := os.Getenv("ProgramFiles(x86)")
	if pf == "" {
		pf = `C:\Program Files (x86)`
	}
	return filepath.Join(pf, "Microsoft Visual Studio", "Installer", "vswhere.exe")
}

// locateUnixCompiler finds a C++ compiler on non-Windows hosts. $CXX wins
// when set; otherwise the conventional names are probed in order.
func locateUnixCompiler() (string, error) {
	candidates := []string{"c++", "g++", "clang++"}
	if cxx := os.Getenv("CXX"); cxx != "" {
		candidates = []string{cxx}
	}
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", &NotFoundError{Hint: "no C++ compiler in PATH (tried " + strings.Join(candidates, ", ") + ")"}
}
