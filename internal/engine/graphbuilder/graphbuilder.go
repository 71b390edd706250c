// Package graphbuilder expands a root manifest into the deduplicated,
// dependency-ordered package list the job planner walks.
package graphbuilder

import (
	"sort"

	"minicargo/internal/core/domain"
	"minicargo/internal/core/ports"
)

// Result is the graph builder's output: the ordered entry list plus a
// lookup from package id back to its manifest, since domain.GraphEntry
// deliberately carries only the id.
type Result struct {
	Entries  []domain.GraphEntry
	Packages map[domain.InternedString]ports.PackageManifest
}

type discovery struct {
	pkg    ports.PackageManifest
	isHost bool
	level  int
}

// Build walks root's main dependencies, its build dependencies (as host
// units, unless build-script overrides are set), the root library itself,
// and (in test/examples mode) its dev dependencies into a single
// deduplicated entry list, deepest
// dependencies first so the planner can schedule leaves before the
// packages that depend on them.
func Build(root ports.PackageManifest, options ports.BuildOptions) Result {
	b := &builder{
		best:     make(map[domain.GraphEntryKey]int),
		packages: make(map[domain.InternedString]ports.PackageManifest),
	}

	for dep := range root.IterMainDependencies() {
		if dep.IsDisabled {
			continue
		}
		b.walk(dep.Package, false, 0, options)
	}

	if options.BuildScriptOverrides == "" {
		for dep := range root.IterBuildDependencies() {
			if dep.IsDisabled {
				continue
			}
			b.walk(dep.Package, true, 0, options)
		}
	}

	if root.HasLibrary() {
		b.add(discovery{pkg: root, isHost: false, level: 0})
	}

	if options.Mode == domain.ModeTest || options.Mode == domain.ModeExamples {
		for dep := range root.IterDevDependencies() {
			if dep.IsDisabled {
				continue
			}
			b.walk(dep.Package, false, 1, options)
		}
	}

	sort.SliceStable(b.discoveries, func(i, j int) bool {
		return b.discoveries[i].level > b.discoveries[j].level
	})

	seen := make(map[domain.GraphEntryKey]bool, len(b.discoveries))
	entries := make([]domain.GraphEntry, 0, len(b.discoveries))
	for _, d := range b.discoveries {
		key := domain.GraphEntryKey{PackageID: d.pkg.ID(), IsHost: d.isHost}
		if seen[key] {
			continue
		}
		seen[key] = true
		entries = append(entries, domain.GraphEntry{PackageID: d.pkg.ID(), IsHost: d.isHost, Level: d.level})
		b.packages[d.pkg.ID()] = d.pkg
	}

	return Result{Entries: entries, Packages: b.packages}
}

type builder struct {
	discoveries []discovery
	// best tracks, per (package, is_host), the deepest level at which a
	// call to walk has already appended an entry — recursion re-walks a
	// package only when reached again at a strictly deeper level, so the
	// final sort-and-dedup pass below keeps each package's deepest
	// occurrence and its dependencies still end up ordered before it.
	best     map[domain.GraphEntryKey]int
	packages map[domain.InternedString]ports.PackageManifest
}

func (b *builder) walk(pkg ports.PackageManifest, isHost bool, level int, options ports.BuildOptions) {
	if lib, ok := pkg.Library(); ok && lib.IsProcMacro {
		isHost = true
	}

	key := domain.GraphEntryKey{PackageID: pkg.ID(), IsHost: isHost}
	if prevLevel, ok := b.best[key]; ok && prevLevel >= level {
		return
	}
	b.best[key] = level

	b.add(discovery{pkg: pkg, isHost: isHost, level: level})

	for dep := range pkg.IterMainDependencies() {
		if dep.IsDisabled {
			continue
		}
		b.walk(dep.Package, isHost, level+1, options)
	}

	if options.BuildScriptOverrides == "" {
		for dep := range pkg.IterBuildDependencies() {
			if dep.IsDisabled {
				continue
			}
			b.walk(dep.Package, true, level+1, options)
		}
	}
}

func (b *builder) add(d discovery) {
	b.discoveries = append(b.discoveries, d)
}
