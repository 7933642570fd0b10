package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MarkerName is the sentinel file written into a build tree after a fully
// successful build. Its presence alone means "done"; the content is
// informational and never parsed back.
const MarkerName = ".ci-build-done"

// MarkerPath returns the marker location for a build tree.
func MarkerPath(buildDir string) string {
	return filepath.Join(buildDir, MarkerName)
}

// HasMarker reports whether buildDir holds a completion marker.
func HasMarker(buildDir string) bool {
	_, err := os.Stat(MarkerPath(buildDir))
	return err == nil
}

// writeMarker records a completed build. patches holds the resolved patch
// paths that were applied, if any.
func writeMarker(buildDir string, spec *BuildSpec, patches []string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "built at %s\n", time.Now().Format(time.RFC1123))
	switch src := spec.Source.(type) {
	case RemoteSource:
		fmt.Fprintf(&sb, "mode: remote\norigin: %s\n", src.String())
	case LocalSource:
		fmt.Fprintf(&sb, "mode: local\norigin: %s\n", src.Path)
	}
	if len(patches) > 0 {
		fmt.Fprintf(&sb, "patches: %s\n", strings.Join(patches, ", "))
	}
	fmt.Fprintf(&sb, "build type: %s\n", spec.BuildType)
	return os.WriteFile(MarkerPath(buildDir), []byte(sb.String()), 0o644)
}
