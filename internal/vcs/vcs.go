// Package vcs wraps the git command line for the clone, checkout, patch
// and tag-listing operations a build needs. git itself is an opaque
// collaborator; every call goes through a run.Runner so failures surface
// as ordinary errors.
package vcs

import (
	"bytes"
	"context"
	"strings"

	"github.com/kftools/kfbuild/internal/run"
)

// Git invokes the git executable. The zero value is not usable; construct
// with New.
type Git struct {
	runner run.Runner
	exe    string
}

// Option configures a Git.
type Option func(*Git)

// WithExe sets a custom git executable path.
func WithExe(path string) Option {
	return func(g *Git) { g.exe = path }
}

// New returns a Git that executes through r.
func New(r run.Runner, opts ...Option) *Git {
	g := &Git{runner: r, exe: "git"}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CloneBranch clones url at depth 1 with ref treated as a branch or tag
// name, into dir.
func (g *Git) CloneBranch(ctx context.Context, url, ref, dir string) error {
	cmd := run.Command(ctx, "", g.exe, "clone", "--depth", "1", "--branch", ref, url, dir)
	return g.runner.Run(ctx, "clone "+url+" at "+ref, cmd)
}

// CloneDefault clones the default branch of url at depth 1 into dir. Used
// when the requested version is a commit hash, which cannot be passed to
// --branch; the commit is checked out afterwards.
func (g *Git) CloneDefault(ctx context.Context, url, dir string) error {
	cmd := run.Command(ctx, "", g.exe, "clone", "--depth", "1", url, dir)
	return g.runner.Run(ctx, "clone "+url, cmd)
}

// Checkout fetches ref into the repository at dir and checks it out
// detached. Shallow clones do not carry arbitrary commits, so the fetch
// step is required before a hash checkout can succeed.
func (g *Git) Checkout(ctx context.Context, dir, ref string) error {
	fetch := run.Command(ctx, dir, g.exe, "fetch", "--depth", "1", "origin", ref)
	if err := g.runner.Run(ctx, "fetch "+ref, fetch); err != nil {
		return err
	}
	checkout := run.Command(ctx, dir, g.exe, "checkout", ref)
	return g.runner.Run(ctx, "checkout "+ref, checkout)
}

// Apply applies one patch file inside dir, tolerating whitespace drift
// between the patch and the tree.
func (g *Git) Apply(ctx context.Context, dir, patch string) error {
	cmd := run.Command(ctx, dir, g.exe, "apply", "--ignore-whitespace", patch)
	return g.runner.Run(ctx, "apply patch "+patch, cmd)
}

// RemoteTags lists the tag names of a remote repository.
func (g *Git) RemoteTags(ctx context.Context, url string) ([]string, error) {
	var out bytes.Buffer
	cmd := run.Command(ctx, "", g.exe, "ls-remote", "--tags", "--refs", url)
	cmd.Stdout = &out
	if err := g.runner.Run(ctx, "list tags of "+url, cmd); err != nil {
		return nil, err
	}

	var tags []string
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		// format: <hash>\trefs/tags/<tag>
		_, ref, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		if tag := strings.TrimPrefix(ref, "refs/tags/"); tag != ref {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

// IsCommitHash reports whether version has the shape of an abbreviated or
// full git commit hash: 7 to 40 lowercase hex characters. Anything else
// is treated as a branch or tag name.
func IsCommitHash(version string) bool {
	if len(version) < 7 || len(version) > 40 {
		return false
	}
	for i := 0; i < len(version); i++ {
		c := version[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
