package ports

import (
	"context"
	"io"
)

//go:generate go run go.uber.org/mock/mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Telemetry is the entry point for recording per-job progress. The scheduler
// creates one Vertex per job it runs; clean units the planner did not
// schedule are not reported at all.
type Telemetry interface {
	// Record starts tracking a job, named by its canonical job name.
	Record(ctx context.Context, jobName string) (context.Context, Vertex)
	// EmitPlan signals the full set of job names the scheduler is about to run.
	EmitPlan(ctx context.Context, jobNames []string)
}

// Vertex represents a single job's progress.
type Vertex interface {
	// Stdout returns a writer for the job's standard output. The scheduler
	// does not use it: the spawner writes child stdout to SpawnSpec.LogPath.
	Stdout() io.Writer
	// Stderr returns a writer for the job's standard error. The scheduler
	// does not use it: the spawned child inherits the caller's stderr.
	Stderr() io.Writer
	// Complete marks the vertex done-success (err == nil) or done-fail.
	Complete(err error)
	// Cached marks the vertex as skipped because the unit was already clean.
	// The scheduler never calls it.
	Cached()
}
