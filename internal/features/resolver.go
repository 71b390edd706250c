// Package features implements the feature resolver external collaborator:
// expanding a requested feature list into
// a frozen, deterministically-ordered active-feature set per package in the
// manifest graph.
package features

import (
	"sort"

	"minicargo/internal/core/ports"
	"minicargo/internal/manifest"
)

// activatable is the subset of *manifest.Manifest the resolver mutates;
// kept as an interface so tests can resolve against a hand-built fake
// instead of a real TOML-backed manifest.
type activatable interface {
	AllFeatures() []string
	FeatureImplies(feature string) []string
	SetActiveFeatures(features []string)
}

// Resolve walks root's dependency graph and assigns each package its
// resolved active-feature set. root is resolved against requested plus its
// own "default" feature (when declared); every other package in the graph
// is resolved with only its own default feature — diamond-dependency
// feature unification is out of scope; the loader
// memoizes one manifest instance per package directory, so "resolved with
// defaults" is this package's one and only activation for the whole build.
//
// An active feature naming an optional dependency's key makes the resolver
// also resolve that dependency's own features; optional deps no active
// feature names are not resolved. The dependency reference itself is not
// changed: an optional dep keeps IsDisabled set, so the graph builder, which
// skips disabled refs, does not walk it even when a feature names it.
func Resolve(root *manifest.Manifest, requested []string) {
	visited := make(map[*manifest.Manifest]bool)
	resolveOne(root, requested, visited)
}

func resolveOne(m *manifest.Manifest, requested []string, visited map[*manifest.Manifest]bool) {
	if visited[m] {
		return
	}
	visited[m] = true

	active := expand(m, requested)
	m.SetActiveFeatures(active)

	enabled := make(map[string]bool, len(active))
	for _, f := range active {
		enabled[f] = true
	}

	recurseAll(m.IterMainDependencies(), enabled, visited)
	recurseAll(m.IterBuildDependencies(), enabled, visited)
	recurseAll(m.IterDevDependencies(), enabled, visited)
}

func recurseAll(refs func(func(ports.PackageRef) bool), enabled map[string]bool, visited map[*manifest.Manifest]bool) {
	for ref := range refs {
		if ref.IsDisabled && !enabled[ref.Key] {
			continue
		}
		if dep, ok := ref.Package.(*manifest.Manifest); ok {
			resolveOne(dep, nil, visited)
		}
	}
}

// expand computes the closure of requested (plus "default" when declared)
// over m's feature-implication graph, deduplicated and sorted into
// m.AllFeatures() order. Requested features m never declares are kept verbatim
// rather than rejected — the resolver has no registry to validate against.
func expand(m activatable, requested []string) []string {
	all := m.AllFeatures()
	declOrder := make(map[string]int, len(all))
	for i, f := range all {
		declOrder[f] = i
	}

	hasDefault := false
	for _, f := range all {
		if f == "default" {
			hasDefault = true
			break
		}
	}

	queue := make([]string, 0, len(requested)+1)
	if hasDefault {
		queue = append(queue, "default")
	}
	queue = append(queue, requested...)

	seen := make(map[string]bool)
	var ordered []string
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if seen[f] {
			continue
		}
		seen[f] = true
		ordered = append(ordered, f)
		queue = append(queue, m.FeatureImplies(f)...)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		oi, iok := declOrder[ordered[i]]
		oj, jok := declOrder[ordered[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok:
			return true
		case jok:
			return false
		default:
			return ordered[i] < ordered[j]
		}
	})

	return ordered
}
