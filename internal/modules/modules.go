// Package modules holds the ordered list of KDE Frameworks modules and
// builds them by delegating to the project builder with derived
// repository URLs.
package modules

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// URLPrefix is the repository host all framework modules are cloned
	// from unless a manifest overrides it.
	URLPrefix = "https://invent.kde.org/frameworks/"

	// DefaultVersion is the framework release built when no version is given.
	DefaultVersion = "v6.10.0"
)

//go:embed modules.yaml
var embedded []byte

// Module is one entry of the build list.
type Module struct {
	Name      string   `yaml:"name"`
	Patches   []string `yaml:"patches,omitempty"`
	CMakeArgs []string `yaml:"cmakeArgs,omitempty"`
}

// Manifest is an ordered module list. Host, when set, replaces URLPrefix
// for every module in the list; it must end with the separator the module
// name is appended after.
type Manifest struct {
	Host    string   `yaml:"host,omitempty"`
	Modules []Module `yaml:"modules"`
}

// URL returns the clone URL for a module name under the manifest host.
func (m *Manifest) URL(name string) string {
	return URLOn(m.Host, name)
}

// URLOn returns the clone URL for a module name on the given host prefix.
// An empty host means URLPrefix.
func URLOn(host, name string) string {
	if host == "" {
		host = URLPrefix
	}
	return host + name + ".git"
}

// URL returns the canonical clone URL for a module name.
func URL(name string) string {
	return URLOn("", name)
}

// Default returns the embedded manifest.
func Default() (*Manifest, error) {
	return parseManifest(embedded, "embedded module manifest")
}

// Load reads a manifest file, for building against a custom module list.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read module manifest: %w", err)
	}
	return parseManifest(data, path)
}

func parseManifest(data []byte, src string) (*Manifest, error) {
	var mf Manifest
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", src, err)
	}
	if len(mf.Modules) == 0 {
		return nil, fmt.Errorf("%s lists no modules", src)
	}
	for i, m := range mf.Modules {
		if m.Name == "" {
			return nil, fmt.Errorf("%s: module %d has no name", src, i)
		}
	}
	return &mf, nil
}

// All returns every module of the embedded manifest in build order.
func All() ([]Module, error) {
	mf, err := Default()
	if err != nil {
		return nil, err
	}
	return mf.Modules, nil
}

// Find returns the named module from the embedded manifest.
func Find(name string) (Module, error) {
	mods, err := All()
	if err != nil {
		return Module{}, err
	}
	for _, m := range mods {
		if m.Name == name {
			return m, nil
		}
	}
	return Module{}, fmt.Errorf("unknown module %q", name)
}
