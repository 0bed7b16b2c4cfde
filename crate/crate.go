package crate

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/forgewasm/wasm-forge/errors"
)

// ManifestName is the cargo manifest file name.
const ManifestName = "Cargo.toml"

// Crate identifies the buildable unit targeted by a build.
type Crate struct {
	// Name is the cargo package name.
	Name string
	// LibName is the [lib] name override from the manifest, if any.
	LibName string
	// Version is the package version from the manifest, if known.
	Version string
	// Dir is the absolute project root containing the crate.
	Dir string
}

// manifest mirrors the subset of Cargo.toml the build cares about.
type manifest struct {
	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"package"`
	Lib struct {
		Name string `toml:"name"`
	} `toml:"lib"`
}

// Load resolves the crate rooted at dir. The manifest's package name is the
// primary identity source; a missing manifest falls back to the directory
// basename. A manifest that exists but cannot be parsed is an error rather
// than a silent fallback.
func Load(dir string) (*Crate, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.InvalidConfig("resolve project root", err)
	}

	data, err := os.ReadFile(filepath.Join(abs, ManifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return FromName(filepath.Base(abs), abs), nil
		}
		return nil, errors.IO(errors.PhasePreflight, "read "+ManifestName, err)
	}

	var m manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, errors.InvalidConfig("parse "+ManifestName, err)
	}

	name := m.Package.Name
	if name == "" {
		name = filepath.Base(abs)
	}

	return &Crate{
		Name:    name,
		LibName: m.Lib.Name,
		Version: m.Package.Version,
		Dir:     abs,
	}, nil
}

// FromName builds a Crate from an explicit identifier, bypassing manifest
// lookup. Used when the caller passes the crate name on the command line.
func FromName(name, dir string) *Crate {
	return &Crate{Name: name, Dir: dir}
}

// ArtifactName returns the file stem cargo uses for the compiled library.
// Cargo normalizes hyphens to underscores; a [lib] name override is used
// verbatim when present.
func (c *Crate) ArtifactName() string {
	if c.LibName != "" {
		return c.LibName
	}
	return strings.ReplaceAll(c.Name, "-", "_")
}

// OutputPath returns the deterministic location of the compiled binary for
// the given target triple and profile, relative to the crate's target dir.
func (c *Crate) OutputPath(target, profile string) string {
	return filepath.Join(c.Dir, "target", target, profile, c.ArtifactName()+".wasm")
}

// SourceDir returns the crate's source directory.
func (c *Crate) SourceDir() string {
	return filepath.Join(c.Dir, "src")
}

// ManifestPath returns the location of the crate's manifest, whether or not
// one exists on disk.
func (c *Crate) ManifestPath() string {
	return filepath.Join(c.Dir, ManifestName)
}
