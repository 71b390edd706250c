// Package planner turns a graph-builder result into a domain.Graph of jobs:
// per-unit staleness, build-script build/run phases,
// and root-binary targets.
package planner

import (
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
	"minicargo/internal/core/domain"
	"minicargo/internal/core/ports"
	"minicargo/internal/engine/graphbuilder"
	"minicargo/internal/engine/staleness"
)

// ScriptOutputParser interprets a build script's captured stdout; injected
// so the planner never imports the manifest package directly — parsing
// that payload isn't the core's concern.
type ScriptOutputParser func(pkgName string, raw []byte) domain.ScriptOutput

// Planner builds a domain.Graph from a graphbuilder.Result.
type Planner struct {
	oracle     *staleness.Oracle
	clock      ports.Clock
	verifier   ports.Verifier
	files      ports.FileReader
	buildState *domain.BuildState
	parse      ScriptOutputParser
	goos       string
}

// New creates a Planner.
func New(oracle *staleness.Oracle, clock ports.Clock, verifier ports.Verifier, files ports.FileReader, buildState *domain.BuildState, parse ScriptOutputParser, goos string) *Planner {
	return &Planner{
		oracle:     oracle,
		clock:      clock,
		verifier:   verifier,
		files:      files,
		buildState: buildState,
		parse:      parse,
		goos:       goos,
	}
}

// unit is the planner's bookkeeping for one graph entry's library job.
type unit struct {
	hasJob      bool
	jobName     domain.InternedString
	outputMtime domain.Timestamp
	outputPath  string
}

// Plan turns a resolved root manifest and its graph-builder result into a
// scheduler-ready domain.Graph, deciding staleness unit by unit.
func (p *Planner) Plan(root ports.PackageManifest, graph graphbuilder.Result, options ports.BuildOptions) (*domain.Graph, error) {
	g := domain.NewGraph()
	crossCompiling := options.HasTarget()
	units := make(map[domain.GraphEntryKey]unit, len(graph.Entries))

	for _, entry := range graph.Entries {
		pkg := graph.Packages[entry.PackageID]
		u, err := p.planUnit(g, pkg, entry.IsHost, options, crossCompiling, units)
		if err != nil {
			return nil, err
		}
		units[entry.Key()] = u
	}

	if err := p.planRootBinaries(g, root, options, crossCompiling, units); err != nil {
		return nil, err
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (p *Planner) planUnit(g *domain.Graph, pkg ports.PackageManifest, isHost bool, options ports.BuildOptions, crossCompiling bool, units map[domain.GraphEntryKey]unit) (unit, error) {
	buildScriptJobName, hasBuildScriptJob, err := p.planBuildScript(g, pkg, options, crossCompiling, units)
	if err != nil {
		return unit{}, err
	}

	lib, hasLib := pkg.Library()
	if !hasLib {
		return unit{}, nil
	}

	suffix := domain.CrateSuffix(pkg.Version(), pkg.ActiveFeatures(), pkg.AllFeatures())
	outDir := domain.OutputDir(options.OutputDir, options.HasTarget(), options.EmitMMIR, isHost)
	outputPath, err := domain.CrateOutputPath(outDir, lib.Name, lib.Kind, lib.CrateTypes, lib.IsProcMacro, suffix, p.goos)
	if err != nil {
		return unit{}, err
	}

	dirty, _, err := p.oracle.Check(outputPath, options.CompilerPath, options.IgnoreToolStaleness)
	if err != nil {
		return unit{}, err
	}

	var deps []domain.InternedString
	if hasBuildScriptJob {
		dirty = true
		deps = append(deps, buildScriptJobName)
	}

	for ref := range pkg.IterMainDependencies() {
		if ref.IsDisabled {
			continue
		}
		depDirty, depName, depMtime := p.consultDependency(ref.Package, isHost, units)
		if depDirty {
			dirty = true
			deps = append(deps, depName)
		} else if depMtime.After(p.clock.ModTime(outputPath)) {
			dirty = true
		}
	}

	jobName := domain.JobName(pkg.Name(), pkg.Version(), false, isHost, crossCompiling)

	if dirty {
		if err := g.AddJob(domain.Job{Name: jobName, Kind: domain.JobBuildTarget, Dependencies: deps, PackageID: pkg.ID(), IsHost: isHost, TargetName: lib.Name, TargetKind: domain.TargetLib}); err != nil {
			return unit{}, err
		}
		return unit{hasJob: true, jobName: jobName, outputPath: outputPath}, nil
	}

	mtime := p.clock.ModTime(outputPath)
	p.buildState.RecordCleanMtime(jobName, mtime)
	return unit{outputMtime: mtime, outputPath: outputPath}, nil
}

// consultDependency implements the "canonical job name as a dependency (if
// scheduled) or its recorded output mtime" pattern shared by build-script
// and target-compilation staleness.
func (p *Planner) consultDependency(dep ports.PackageManifest, isHost bool, units map[domain.GraphEntryKey]unit) (dirty bool, jobName domain.InternedString, mtime domain.Timestamp) {
	key := domain.GraphEntryKey{PackageID: dep.ID(), IsHost: isHost}
	u, ok := units[key]
	if !ok {
		return false, domain.InternedString{}, domain.InfinitePast
	}
	if u.hasJob {
		return true, u.jobName, domain.InfinitePast
	}
	return false, domain.InternedString{}, u.outputMtime
}

func (p *Planner) planBuildScript(g *domain.Graph, pkg ports.PackageManifest, options ports.BuildOptions, crossCompiling bool, units map[domain.GraphEntryKey]unit) (domain.InternedString, bool, error) {
	if pkg.BuildScript() == "" {
		return domain.InternedString{}, false, nil
	}

	if options.BuildScriptOverrides != "" {
		overridePath := filepath.Join(options.BuildScriptOverrides, "build_"+pkg.Name()+".txt")
		exists, err := p.verifier.Exists(overridePath)
		if err != nil {
			return domain.InternedString{}, false, err
		}
		if !exists {
			return domain.InternedString{}, false, zerr.With(domain.ErrOverrideMissing, "path", overridePath)
		}
		raw, err := p.files.Read(overridePath)
		if err != nil {
			return domain.InternedString{}, false, err
		}
		pkg.SetBuildScriptOutput(p.parse(pkg.Name(), raw))
		return domain.InternedString{}, false, nil
	}

	buildStem := domain.BuildScriptStem(pkg.Name(), pkg.Version(), pkg.ActiveFeatures(), pkg.AllFeatures())
	hostOutDir := domain.OutputDir(options.OutputDir, options.HasTarget(), options.EmitMMIR, true)
	scriptExecPath := domain.BuildScriptExecutablePath(hostOutDir, buildStem, p.goos)
	scriptOutPath := domain.BuildScriptOutputPath(hostOutDir, buildStem)

	buildJobName := domain.JobName(pkg.Name(), pkg.Version(), true, true, crossCompiling)
	scriptDirty, _, err := p.oracle.Check(scriptExecPath, options.CompilerPath, options.IgnoreToolStaleness)
	if err != nil {
		return domain.InternedString{}, false, err
	}

	var buildDeps []domain.InternedString
	for ref := range pkg.IterBuildDependencies() {
		if ref.IsDisabled {
			continue
		}
		depDirty, depName, depMtime := p.consultDependency(ref.Package, true, units)
		if depDirty {
			scriptDirty = true
			buildDeps = append(buildDeps, depName)
		} else if depMtime.After(p.clock.ModTime(scriptExecPath)) {
			scriptDirty = true
		}
	}

	if scriptDirty {
		if err := g.AddJob(domain.Job{Name: buildJobName, Kind: domain.JobBuildScript, Dependencies: buildDeps, PackageID: pkg.ID(), IsHost: true}); err != nil {
			return domain.InternedString{}, false, err
		}
	} else {
		p.buildState.RecordCleanMtime(buildJobName, p.clock.ModTime(scriptExecPath))
	}

	runJobName := domain.RunScriptJobName(pkg.Name(), pkg.Version(), true, crossCompiling)
	runDirty := scriptDirty
	var runDeps []domain.InternedString
	if scriptDirty {
		runDeps = append(runDeps, buildJobName)
	} else {
		runOutTime := p.clock.ModTime(scriptOutPath)
		if runOutTime.IsMissing() || p.clock.ModTime(scriptExecPath).After(runOutTime) {
			runDirty = true
		}
	}

	for ref := range pkg.IterMainDependencies() {
		if ref.IsDisabled {
			continue
		}
		depDirty, depName, depMtime := p.consultDependency(ref.Package, true, units)
		if depDirty {
			runDirty = true
			runDeps = append(runDeps, depName)
		} else if depMtime.After(p.clock.ModTime(scriptExecPath)) {
			runDirty = true
		}
	}

	// When emitting MMIR, a run output path under "-mmir/" can often be
	// satisfied by copying its non-mmir sibling, skipping the run entirely.
	if options.EmitMMIR && strings.Contains(scriptOutPath, "-mmir/") {
		siblingPath := strings.Replace(scriptOutPath, "-mmir/", "/", 1)
		if exists, _ := p.verifier.Exists(siblingPath); exists {
			runDirty = false
			if raw, err := p.files.Read(siblingPath); err == nil {
				pkg.SetBuildScriptOutput(p.parse(pkg.Name(), raw))
			}
		}
	}

	if runDirty {
		if err := g.AddJob(domain.Job{Name: runJobName, Kind: domain.JobRunScript, Dependencies: runDeps, PackageID: pkg.ID(), IsHost: true}); err != nil {
			return domain.InternedString{}, false, err
		}
		return runJobName, true, nil
	}

	if raw, err := p.files.Read(scriptOutPath); err == nil {
		pkg.SetBuildScriptOutput(p.parse(pkg.Name(), raw))
	}
	p.buildState.RecordCleanMtime(runJobName, p.clock.ModTime(scriptOutPath))
	return domain.InternedString{}, false, nil
}

// planRootBinaries schedules the root's own build script (handled
// identically, if it has one) followed by its binary or test targets, each
// depending on the root library (if any) or else the root's main
// dependencies.
func (p *Planner) planRootBinaries(g *domain.Graph, root ports.PackageManifest, options ports.BuildOptions, crossCompiling bool, units map[domain.GraphEntryKey]unit) error {
	rootKey := domain.GraphEntryKey{PackageID: root.ID(), IsHost: false}
	rootUnit, rootHasLib := units[rootKey]

	// When root has a library, its build script was already planned by
	// planUnit as part of the graph-entries loop, and the library job
	// already depends on it; re-running planBuildScript here would compute
	// the same job name and collide with the one already in g. Root
	// binaries then only need to depend on the library job, which carries
	// that dependency transitively.
	var rootBuildScriptJob domain.InternedString
	var hasRootBuildScriptJob bool
	if !rootHasLib {
		var err error
		rootBuildScriptJob, hasRootBuildScriptJob, err = p.planBuildScript(g, root, options, crossCompiling, units)
		if err != nil {
			return err
		}
	}

	kind := domain.TargetBin
	if options.Mode == domain.ModeTest {
		kind = domain.TargetTest
	}

	outDir := domain.OutputDir(options.OutputDir, options.HasTarget(), options.EmitMMIR, false)
	suffix := domain.CrateSuffix(root.Version(), root.ActiveFeatures(), root.AllFeatures())

	for target := range root.ForeachTy(kind) {
		outputPath, err := domain.CrateOutputPath(outDir, target.Name, target.Kind, target.CrateTypes, target.IsProcMacro, suffix, p.goos)
		if err != nil {
			return err
		}

		dirty, _, err := p.oracle.Check(outputPath, options.CompilerPath, options.IgnoreToolStaleness)
		if err != nil {
			return err
		}

		var deps []domain.InternedString
		if hasRootBuildScriptJob {
			dirty = true
			deps = append(deps, rootBuildScriptJob)
		}

		if rootHasLib {
			if rootUnit.hasJob {
				dirty = true
				deps = append(deps, rootUnit.jobName)
			} else if rootUnit.outputMtime.After(p.clock.ModTime(outputPath)) {
				dirty = true
			}
		} else {
			for ref := range root.IterMainDependencies() {
				if ref.IsDisabled {
					continue
				}
				depDirty, depName, depMtime := p.consultDependency(ref.Package, false, units)
				if depDirty {
					dirty = true
					deps = append(deps, depName)
				} else if depMtime.After(p.clock.ModTime(outputPath)) {
					dirty = true
				}
			}
		}

		if !dirty {
			continue
		}

		jobName := domain.JobName(target.Name, root.Version(), false, false, crossCompiling)
		if err := g.AddJob(domain.Job{Name: jobName, Kind: domain.JobBuildTarget, Dependencies: deps, PackageID: root.ID(), IsHost: false, TargetName: target.Name, TargetKind: target.Kind}); err != nil {
			return err
		}
	}

	return nil
}
