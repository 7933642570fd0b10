package vsenv

import (
	"os"
	"sort"
	"strings"
)

// ParseEnvBlock parses the KEY=VALUE lines printed by cmd.exe's "set"
// builtin. Lines without '=' and cmd's hidden "=C:"-style drive variables
// are ignored. Later duplicates win.
func ParseEnvBlock(block string) map[string]string {
	vars := make(map[string]string)
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "=") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok || key == "" {
			continue
		}
		vars[key] = value
	}
	return vars
}

// MergeEnv applies every variable that is new or differs from the current
// process environment, and returns the applied keys in sorted order.
// Unchanged variables are left alone so an inherited PATH entry is not
// re-ordered needlessly.
func MergeEnv(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	applied := keys[:0]
	for _, k := range keys {
		v := vars[k]
		if cur, ok := os.LookupEnv(k); ok && cur == v {
			continue
		}
		os.Setenv(k, v)
		applied = append(applied, k)
	}
	return applied
}
