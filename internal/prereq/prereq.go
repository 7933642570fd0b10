// Package prereq verifies that the external tools kfbuild drives are
// installed before any build starts.
package prereq

import (
	"fmt"
	"os/exec"
	"strings"
)

// Result describes one checked tool.
type Result struct {
	Name       string
	Found      bool
	Version    string
	Path       string
	Suggestion string
}

// suggestions maps known tools to an installation hint for error messages.
var suggestions = map[string]string{
	"git":   "install git: https://git-scm.com/downloads",
	"cmake": "install CMake: https://cmake.org/download/",
	"ninja": "install Ninja: https://ninja-build.org/",
}

// Check looks up the named tools, or git and cmake when none are given.
// It returns one Result per tool and an error naming the first missing one.
func Check(names ...string) ([]Result, error) {
	if len(names) == 0 {
		names = []string{"git", "cmake"}
	}
	results := make([]Result, 0, len(names))
	for _, name := range names {
		results = append(results, checkTool(name, suggestions[name]))
	}
	for _, r := range results {
		if !r.Found {
			if r.Suggestion != "" {
				return results, fmt.Errorf("required tool %s not found in PATH (%s)", r.Name, r.Suggestion)
			}
			return results, fmt.Errorf("required tool %s not found in PATH", r.Name)
		}
	}
	return results, nil
}

func checkTool(name, suggestion string) Result {
	r := Result{Name: name, Suggestion: suggestion}
	path, err := exec.LookPath(name)
	if err != nil {
		return r
	}
	r.Found = true
	r.Path = path
	r.Version = toolVersion(name)
	return r
}

// toolVersion runs "<name> --version" and extracts the version token from
// the first line, e.g. "git version 2.43.0" or "cmake version 3.28.1".
func toolVersion(name string) string {
	out, err := exec.Command(name, "--version").Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(out), "\n")
	fields := strings.Fields(line)
	if len(fields) >= 3 && fields[1] == "version" {
		return fields[2]
	}
	return strings.TrimSpace(line)
}
