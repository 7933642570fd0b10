package project

// Source identifies where a project's code comes from. It is a closed
// union: a build is either remote (clone a repository) or local (use a
// tree already on disk), never both.
type Source interface {
	String() string
	isSource()
}

// RemoteSource fetches a repository at a tag, branch, or commit hash.
type RemoteSource struct {
	URL     string
	Version string
}

func (RemoteSource) isSource() {}

func (s RemoteSource) String() string { return s.URL + "@" + s.Version }

// LocalSource builds a source tree already present on disk.
type LocalSource struct {
	Path string
}

func (LocalSource) isSource() {}

func (s LocalSource) String() string { return s.Path }
