package manifest

import (
	"iter"
	"path/filepath"

	"minicargo/internal/core/domain"
	"minicargo/internal/core/ports"
)

var _ ports.PackageManifest = (*Manifest)(nil)

// Manifest is the concrete, file-backed ports.PackageManifest implementation.
type Manifest struct {
	id           domain.InternedString
	name         string
	version      domain.Version
	directory    string
	manifestPath string
	edition      domain.Edition
	buildScript  string

	lib     *ports.PackageTarget
	bins    []ports.PackageTarget
	tests   []ports.PackageTarget
	exmples []ports.PackageTarget

	mainDeps  []ports.PackageRef
	buildDeps []ports.PackageRef
	devDeps   []ports.PackageRef

	// rawFeatures lists every declared feature name, sorted by name: the
	// TOML [features] table is decoded into a map, so the order in which the
	// file declares features is not preserved. AllFeatures (and with it the
	// crate-suffix bitmask) uses this sorted order. featureImplies maps a
	// feature name to the features/optional-dep names it implies.
	rawFeatures     []string
	featureImplies  map[string][]string
	activeFeatures  []string

	scriptOutput    domain.ScriptOutput
	hasScriptOutput bool
}

// ID returns the package's identity, derived from its manifest directory so
// that two path-distinct manifests are always distinct packages — there is
// no registry or version unification to merge them otherwise.
func (m *Manifest) ID() domain.InternedString { return m.id }

func (m *Manifest) Name() string            { return m.name }
func (m *Manifest) Version() domain.Version { return m.version }
func (m *Manifest) Directory() string       { return m.directory }
func (m *Manifest) ManifestPath() string    { return m.manifestPath }
func (m *Manifest) Edition() domain.Edition { return m.edition }
func (m *Manifest) BuildScript() string     { return m.buildScript }

func (m *Manifest) ActiveFeatures() []string { return m.activeFeatures }
func (m *Manifest) AllFeatures() []string    { return m.rawFeatures }

func (m *Manifest) HasLibrary() bool { return m.lib != nil }

func (m *Manifest) Library() (ports.PackageTarget, bool) {
	if m.lib == nil {
		return ports.PackageTarget{}, false
	}
	return *m.lib, true
}

func (m *Manifest) IterMainDependencies() iter.Seq[ports.PackageRef] {
	return slicesSeq(m.mainDeps)
}

func (m *Manifest) IterBuildDependencies() iter.Seq[ports.PackageRef] {
	return slicesSeq(m.buildDeps)
}

func (m *Manifest) IterDevDependencies() iter.Seq[ports.PackageRef] {
	return slicesSeq(m.devDeps)
}

func (m *Manifest) ForeachBinaries() iter.Seq[ports.PackageTarget] {
	return slicesSeq(m.bins)
}

func (m *Manifest) ForeachTy(kind domain.TargetKind) iter.Seq[ports.PackageTarget] {
	switch kind {
	case domain.TargetBin:
		return slicesSeq(m.bins)
	case domain.TargetTest:
		return slicesSeq(m.tests)
	case domain.TargetExample:
		return slicesSeq(m.exmples)
	default:
		return slicesSeq[ports.PackageTarget](nil)
	}
}

func (m *Manifest) SetBuildScriptOutput(out domain.ScriptOutput) {
	m.scriptOutput = out
	m.hasScriptOutput = true
}

func (m *Manifest) BuildScriptOutput() (domain.ScriptOutput, bool) {
	return m.scriptOutput, m.hasScriptOutput
}

// SetActiveFeatures is called once by the feature resolver before planning
// starts; it is not part of ports.PackageManifest because
// the core only ever reads the already-frozen set.
func (m *Manifest) SetActiveFeatures(features []string) {
	m.activeFeatures = features
}

// FeatureImplies returns the features/optional-deps a declared feature
// implies, used by the feature resolver's expansion walk.
func (m *Manifest) FeatureImplies(feature string) []string {
	return m.featureImplies[feature]
}

func slicesSeq[T any](s []T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range s {
			if !yield(v) {
				return
			}
		}
	}
}

func idFor(dir string) domain.InternedString {
	return domain.NewInternedString(filepath.Clean(dir))
}
