// Package scheduler runs a domain.Graph's jobs to completion:
// a single coordinator goroutine hands ready jobs to an errgroup bounded to
// parallelism concurrent workers, each of which assembles a job's command,
// spawns it, and applies the job kind's completion hook.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"minicargo/internal/core/domain"
	"minicargo/internal/core/ports"
	"minicargo/internal/engine/command"
)

// Scheduler drains a domain.Graph, assembling and spawning each ready job.
type Scheduler struct {
	assembler  *command.Assembler
	spawner    ports.Spawner
	telemetry  ports.Telemetry
	buildState *domain.BuildState
	parse      func(pkgName string, raw []byte) domain.ScriptOutput
	packages   map[domain.InternedString]ports.PackageManifest
}

// New creates a Scheduler. packages must contain every package referenced by
// jobs in any graph this Scheduler later runs, so run-script completion can
// parse its output back onto the owning package.
func New(
	assembler *command.Assembler,
	spawner ports.Spawner,
	telemetry ports.Telemetry,
	buildState *domain.BuildState,
	parse func(pkgName string, raw []byte) domain.ScriptOutput,
	packages map[domain.InternedString]ports.PackageManifest,
) *Scheduler {
	return &Scheduler{
		assembler:  assembler,
		spawner:    spawner,
		telemetry:  telemetry,
		buildState: buildState,
		parse:      parse,
		packages:   packages,
	}
}

// Run executes every job in g using up to parallelism concurrent workers. It
// returns an error (joining every job failure) if any job ended failed; jobs
// unreachable because an ancestor failed are simply never scheduled. In
// dryRun mode the plan is printed and nothing is spawned.
func (s *Scheduler) Run(ctx context.Context, g *domain.Graph, parallelism int, dryRun bool) error {
	if err := g.Validate(); err != nil {
		return err
	}

	if dryRun {
		for job := range g.Walk() {
			fmt.Println(job.Name.String())
		}
		return nil
	}

	names := make([]string, 0, g.JobCount())
	for job := range g.Walk() {
		names = append(names, job.Name.String())
	}
	s.telemetry.EmitPlan(ctx, names)

	state := s.newRunState(ctx, g, parallelism)
	return state.drain()
}

type jobResult struct {
	name domain.InternedString
	err  error
}

// runState is the coordinator's private state. Every field except resultsCh
// is touched only from the single goroutine running drain/dispatchReady/
// handleResult, so no mutex is needed: worker goroutines communicate back
// solely through the buffered results channel.
type runState struct {
	s   *Scheduler
	ctx context.Context
	g   *domain.Graph
	eg  *errgroup.Group

	inDegree  map[domain.InternedString]int
	reachable map[domain.InternedString]bool
	ready     []domain.InternedString
	active    int

	resultsCh chan jobResult
	errs      error
}

func (s *Scheduler) newRunState(ctx context.Context, g *domain.Graph, parallelism int) *runState {
	if parallelism < 1 {
		parallelism = 1
	}

	jobCount := g.JobCount()
	inDegree := make(map[domain.InternedString]int, jobCount)
	reachable := make(map[domain.InternedString]bool, jobCount)

	var ready []domain.InternedString
	for job := range g.Walk() {
		inDegree[job.Name] = len(job.Dependencies)
		reachable[job.Name] = true
		if len(job.Dependencies) == 0 {
			ready = append(ready, job.Name)
		}
	}

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(parallelism)

	return &runState{
		s:         s,
		ctx:       egctx,
		g:         g,
		eg:        eg,
		inDegree:  inDegree,
		reachable: reachable,
		ready:     ready,
		resultsCh: make(chan jobResult, parallelism),
	}
}

// drain is the coordinator loop: it hands every currently ready job to the
// errgroup (blocking there once parallelism concurrent jobs are in flight)
// and applies results until nothing is active or pending. errgroup's
// derived context is never used to cancel sibling branches on failure —
// only markUnreachable does that, scoped to the failed job's descendants.
func (state *runState) drain() error {
	for {
		state.dispatchReady()
		if state.active == 0 && len(state.ready) == 0 {
			break
		}
		state.handleResult(<-state.resultsCh)
	}
	_ = state.eg.Wait()
	return state.errs
}

func (state *runState) dispatchReady() {
	for len(state.ready) > 0 {
		name := state.ready[0]
		state.ready = state.ready[1:]
		state.active++

		job, _ := state.g.Job(name)
		state.eg.Go(func() error {
			state.resultsCh <- jobResult{name: job.Name, err: state.s.runJob(state.ctx, job)}
			return nil
		})
	}
}

func (state *runState) handleResult(res jobResult) {
	state.active--

	if res.err != nil {
		state.errs = errors.Join(state.errs, zerr.With(res.err, "job", res.name.String()))
		state.markUnreachable(res.name)
		return
	}

	for _, dep := range state.g.Dependents(res.name) {
		if !state.reachable[dep] {
			continue
		}
		state.inDegree[dep]--
		if state.inDegree[dep] == 0 {
			state.ready = append(state.ready, dep)
		}
	}
}

// markUnreachable marks every transitive successor of a failed job
// unreachable so it is never scheduled.
func (state *runState) markUnreachable(failed domain.InternedString) {
	queue := []domain.InternedString{failed}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range state.g.Dependents(cur) {
			if !state.reachable[dep] {
				continue
			}
			state.reachable[dep] = false
			queue = append(queue, dep)
		}
	}
}

// runJob assembles, spawns and applies the completion hook for a single job.
func (s *Scheduler) runJob(ctx context.Context, job domain.Job) error {
	spec, err := s.assembler.Assemble(job)
	if err != nil {
		return err
	}
	job.Spawn = spec

	vertexCtx, vertex := s.telemetry.Record(ctx, job.Name.String())

	ok, err := s.spawner.Spawn(vertexCtx, spec)
	if err != nil {
		vertex.Complete(err)
		return zerr.With(zerr.Wrap(domain.ErrSpawnFailure, "spawn error"), "argv0", firstArg(spec.Argv))
	}

	if ok {
		vertex.Complete(nil)
		return s.completeSuccess(job, spec)
	}

	failErr := s.completeFailure(job, spec)
	vertex.Complete(failErr)
	return failErr
}

// completeSuccess runs the success half of the completion hook: run-scripts
// get their captured stdout parsed back onto the owning package; compiles
// are a no-op.
func (s *Scheduler) completeSuccess(job domain.Job, spec domain.SpawnSpec) error {
	if job.Kind != domain.JobRunScript {
		return nil
	}
	pkg, ok := s.packages[job.PackageID]
	if !ok {
		return nil
	}
	raw, err := os.ReadFile(spec.OutputPath)
	if err != nil {
		return nil
	}
	out := s.parse(pkg.Name(), raw)
	pkg.SetBuildScriptOutput(out)
	s.buildState.SetScriptOutput(job.PackageID, out)
	return nil
}

// completeFailure implements the failure half: compiles delete the stale
// artifact so the next invocation rebuilds it; run-scripts preserve the
// partial stdout under a "<output>_failed.txt" sibling.
func (s *Scheduler) completeFailure(job domain.Job, spec domain.SpawnSpec) error {
	switch job.Kind {
	case domain.JobBuildTarget, domain.JobBuildScript:
		if spec.OutputPath != "" {
			_ = os.Remove(spec.OutputPath)
		}
		return zerr.With(domain.ErrCompileFailure, "argv0", firstArg(spec.Argv))
	case domain.JobRunScript:
		if spec.OutputPath != "" {
			failedPath := spec.OutputPath + "_failed.txt"
			_ = os.Rename(spec.OutputPath, failedPath)
			return zerr.With(domain.ErrScriptRunFailure, "output", failedPath)
		}
		return domain.ErrScriptRunFailure
	default:
		return domain.ErrCompileFailure
	}
}

func firstArg(argv []string) string {
	if len(argv) == 0 {
		return ""
	}
	return argv[0]
}
