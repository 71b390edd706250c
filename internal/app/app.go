// Package app wires the engine packages into the single build operation
// the CLI front-end drives. It owns nothing the engine
// doesn't already own: App is a thin orchestrator that loads the
// manifest, resolves features, builds the graph, plans jobs, and hands
// them to the scheduler.
package app

import (
	"context"
	"runtime"

	"go.trai.ch/zerr"
	"minicargo/internal/core/domain"
	"minicargo/internal/core/ports"
	"minicargo/internal/engine/command"
	"minicargo/internal/engine/graphbuilder"
	"minicargo/internal/engine/planner"
	"minicargo/internal/engine/scheduler"
	"minicargo/internal/engine/staleness"
	"minicargo/internal/features"
	"minicargo/internal/manifest"
)

// Request is everything one build invocation needs beyond the process's
// stable adapters, gathered by the CLI front-end from flags and env vars:
// MRUSTC_PATH and MINICARGO_DYLIB are resolved there, never
// read by this package directly.
type Request struct {
	ManifestPath     string
	Features         []string
	DylibEnabled     bool
	CompilerOverride string
	Options          ports.BuildOptions
	Parallelism      int
	DryRun           bool
}

// OracleDeps are the staleness oracle's collaborators, injected so App
// doesn't need to know staleness.New's internals.
type OracleDeps struct {
	Clock      ports.Clock
	Depfile    ports.DepfileReader
	Verifier   ports.Verifier
	FileReader ports.FileReader
}

// ToolchainResolver resolves the compiler path and host/target triples;
// satisfied by *toolchain.Resolver.
type ToolchainResolver interface {
	Resolve(envOverride, targetTriple string) (command.Environment, error)
}

// App drives a build from a resolved Request through to job completion.
type App struct {
	oracleDeps OracleDeps
	toolchain  ToolchainResolver
	spawner    ports.Spawner
	telemetry  ports.Telemetry
}

// New creates an App from its adapter-level collaborators.
func New(oracleDeps OracleDeps, toolchain ToolchainResolver, spawner ports.Spawner, telemetry ports.Telemetry) *App {
	return &App{oracleDeps: oracleDeps, toolchain: toolchain, spawner: spawner, telemetry: telemetry}
}

// Build runs one end-to-end build: load, resolve features, build the
// dependency graph, plan jobs, and run them to completion.
func (a *App) Build(ctx context.Context, req Request) error {
	if req.ManifestPath == "" {
		return domain.ErrNoTargetsSpecified
	}

	root, err := manifest.Load(req.ManifestPath, req.DylibEnabled)
	if err != nil {
		return zerr.Wrap(err, "failed to load manifest")
	}

	features.Resolve(root, req.Features)

	graph := graphbuilder.Build(root, req.Options)

	env, err := a.toolchain.Resolve(req.CompilerOverride, req.Options.TargetName)
	if err != nil {
		return zerr.Wrap(err, "failed to resolve toolchain")
	}
	req.Options.CompilerPath = env.CompilerPath

	buildState := domain.NewBuildState()
	oracle := staleness.New(a.oracleDeps.Clock, a.oracleDeps.Depfile)
	plan := planner.New(oracle, a.oracleDeps.Clock, a.oracleDeps.Verifier, a.oracleDeps.FileReader, buildState, manifest.ParseScriptOutput, runtime.GOOS)

	g, err := plan.Plan(root, graph, req.Options)
	if err != nil {
		return zerr.Wrap(err, "failed to plan build")
	}

	if g.JobCount() == 0 {
		return nil
	}

	assembler := command.New(graph.Packages, buildState, req.Options, env, runtime.GOOS)
	sched := scheduler.New(assembler, a.spawner, a.telemetry, buildState, manifest.ParseScriptOutput, graph.Packages)

	parallelism := req.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	if err := sched.Run(ctx, g, parallelism, req.DryRun); err != nil {
		return zerr.Wrap(err, "build execution failed")
	}

	return nil
}
