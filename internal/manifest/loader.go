package manifest

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/zerr"
	"minicargo/internal/core/domain"
	"minicargo/internal/core/ports"
)

// Load parses the manifest at manifestPath and recursively resolves every
// path-based dependency it declares, returning the root manifest. Packages
// are memoized by their canonical (absolute, cleaned) directory so that a
// package reached through two different dependency edges resolves to the
// same *Manifest instance — required so the graph builder dedups the
// package to a single GraphEntry and so a build script's recorded output
// is visible to every dependent that reaches the package by a different
// path.
func Load(manifestPath string, dylibEnabled bool) (*Manifest, error) {
	cache := make(map[string]*Manifest)
	return load(manifestPath, dylibEnabled, cache)
}

func load(manifestPath string, dylibEnabled bool, cache map[string]*Manifest) (*Manifest, error) {
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve manifest path"), "path", manifestPath)
	}
	dir := filepath.Dir(abs)

	if m, ok := cache[dir]; ok {
		return m, nil
	}

	//nolint:gosec // manifest path is provided by the caller (CLI front-end)
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read manifest"), "path", abs)
	}

	var raw fileSchema
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse manifest"), "path", abs)
	}

	m := &Manifest{
		id:           idFor(dir),
		name:         raw.Package.Name,
		directory:    dir,
		manifestPath: abs,
		edition:      domain.Edition(raw.Package.Edition),
		featureImplies: raw.Features,
	}
	for name := range raw.Features {
		m.rawFeatures = append(m.rawFeatures, name)
	}
	sort.Strings(m.rawFeatures)

	if v, err := parseVersion(raw.Package.Version); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse package version"), "path", abs)
	} else {
		m.version = v
	}

	if raw.Package.Build != "" {
		m.buildScript = raw.Package.Build
	}

	// Register before recursing into dependencies so a dependency cycle
	// resolves to this same partially-built instance instead of looping.
	cache[dir] = m

	if raw.Lib != nil {
		target := targetFromSchema(*raw.Lib, m.name, domain.TargetLib, dylibEnabled)
		m.lib = &target
	}
	for _, b := range raw.Bin {
		m.bins = append(m.bins, targetFromSchema(b, b.Name, domain.TargetBin, dylibEnabled))
	}
	for _, t := range raw.Test {
		m.tests = append(m.tests, targetFromSchema(t, t.Name, domain.TargetTest, dylibEnabled))
	}
	for _, e := range raw.Example {
		m.exmples = append(m.exmples, targetFromSchema(e, e.Name, domain.TargetExample, dylibEnabled))
	}

	var err2 error
	m.mainDeps, err2 = loadDeps(dir, raw.Dependencies, dylibEnabled, cache)
	if err2 != nil {
		return nil, err2
	}
	m.buildDeps, err2 = loadDeps(dir, raw.BuildDependencies, dylibEnabled, cache)
	if err2 != nil {
		return nil, err2
	}
	m.devDeps, err2 = loadDeps(dir, raw.DevDependencies, dylibEnabled, cache)
	if err2 != nil {
		return nil, err2
	}

	return m, nil
}

func loadDeps(fromDir string, deps map[string]depSchema, dylibEnabled bool, cache map[string]*Manifest) ([]ports.PackageRef, error) {
	// map iteration order is non-deterministic; callers that need a
	// deterministic dependency order should sort by Key.
	refs := make([]ports.PackageRef, 0, len(deps))
	for key, dep := range deps {
		depManifestPath := filepath.Join(fromDir, dep.Path, "minicargo.toml")
		depManifest, err := load(depManifestPath, dylibEnabled, cache)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ports.PackageRef{
			Key:        key,
			IsDisabled: dep.Optional,
			Package:    depManifest,
		})
	}
	return refs, nil
}

// targetFromSchema maps a manifest target declaration onto a
// ports.PackageTarget. A declared "dylib" crate-type is dropped unless
// dylibEnabled (MINICARGO_DYLIB); the
// output-path naming policy (domain.CrateOutputPath) then falls back to
// rlib/proc-macro for the remaining crate-type list.
func targetFromSchema(t targetSchema, name string, kind domain.TargetKind, dylibEnabled bool) ports.PackageTarget {
	crateTypes := make([]domain.CrateType, 0, len(t.CrateType))
	for _, ct := range t.CrateType {
		if ct == string(domain.CrateTypeDylib) && !dylibEnabled {
			continue
		}
		crateTypes = append(crateTypes, domain.CrateType(ct))
	}
	path := t.Path
	if path == "" {
		path = defaultPathFor(kind, name)
	}
	return ports.PackageTarget{
		Name:        name,
		Path:        path,
		Kind:        kind,
		CrateTypes:  crateTypes,
		IsProcMacro: t.ProcMacro,
		Edition:     domain.Edition(t.Edition),
	}
}

func defaultPathFor(kind domain.TargetKind, name string) string {
	switch kind {
	case domain.TargetLib:
		return "src/lib.rs"
	case domain.TargetBin:
		return "src/bin/" + name + ".rs"
	default:
		return "src/" + name + ".rs"
	}
}
