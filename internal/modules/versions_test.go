package modules

import (
	"context"
	"os/exec"
	"testing"

	"github.com/kftools/kfbuild/internal/vcs"
)

func TestResolveVersionPassthrough(t *testing.T) {
	rec := &recorder{}
	git := vcs.New(rec)

	got, err := ResolveVersion(context.Background(), git, "v6.9.0")
	if err != nil {
		t.Fatalf("ResolveVersion: %v", err)
	}
	if got != "v6.9.0" {
		t.Errorf("got %q", got)
	}
	if len(rec.descs) != 0 {
		t.Errorf("passthrough hit the network: %v", rec.descs)
	}
}

func TestResolveVersionLatest(t *testing.T) {
	tags := "1111111111111111111111111111111111111111\trefs/tags/v6.9.0\n" +
		"2222222222222222222222222222222222222222\trefs/tags/v6.10.0\n" +
		"3333333333333333333333333333333333333333\trefs/tags/v6.10.0-rc1\n" +
		"4444444444444444444444444444444444444444\trefs/tags/snapshot-2024\n"
	rec := &recorder{}
	git := vcs.New(&outputRunner{rec: rec, out: tags})

	got, err := ResolveVersion(context.Background(), git, Latest)
	if err != nil {
		t.Fatalf("ResolveVersion: %v", err)
	}
	// v6.10.0 beats both v6.9.0 and the rc prerelease; the snapshot tag is
	// not a release and must be ignored.
	if got != "v6.10.0" {
		t.Errorf("got %q, want v6.10.0", got)
	}
}

// outputRunner wraps a recorder so each command also writes canned stdout.
type outputRunner struct {
	rec *recorder
	out string
}

func (r *outputRunner) Run(ctx context.Context, desc string, cmd *exec.Cmd) error {
	if cmd.Stdout != nil {
		if _, err := cmd.Stdout.Write([]byte(r.out)); err != nil {
			return err
		}
	}
	return r.rec.Run(ctx, desc, cmd)
}
