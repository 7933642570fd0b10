package modules

import (
	"context"
	"fmt"

	"golang.org/x/mod/semver"

	"github.com/kftools/kfbuild/internal/vcs"
)

// Latest is the version value that selects the newest published release.
const Latest = "latest"

// ResolveVersion maps the special version "latest" to the newest release
// tag of the manifest's first module. One lookup decides the tag used for
// every module in a run; the frameworks are always released together under
// a single tag. Any other value passes through unchanged.
func (m *Manifest) ResolveVersion(ctx context.Context, git *vcs.Git, version string) (string, error) {
	if version != Latest {
		return version, nil
	}
	probe := m.Modules[0].Name
	tags, err := git.RemoteTags(ctx, m.URL(probe))
	if err != nil {
		return "", err
	}
	var releases []string
	for _, t := range tags {
		if semver.IsValid(t) {
			releases = append(releases, t)
		}
	}
	if len(releases) == 0 {
		return "", fmt.Errorf("no release tags found for %s", probe)
	}
	semver.Sort(releases)
	return releases[len(releases)-1], nil
}

// ResolveVersion resolves "latest" against the embedded manifest.
func ResolveVersion(ctx context.Context, git *vcs.Git, version string) (string, error) {
	if version != Latest {
		return version, nil
	}
	mf, err := Default()
	if err != nil {
		return "", err
	}
	return mf.ResolveVersion(ctx, git, version)
}
