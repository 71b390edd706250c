// Package domain contains the core domain models for the build planner:
// the job graph, naming policy, timestamps and depfiles.
package domain

// JobKind distinguishes the three shapes of work the planner can emit.
type JobKind string

const (
	// JobBuildTarget compiles a package target (lib/bin/test/example) into an artifact.
	JobBuildTarget JobKind = "build-target"
	// JobBuildScript compiles a package's build script into an executable.
	JobBuildScript JobKind = "build-script"
	// JobRunScript executes a compiled build script and captures its stdout.
	JobRunScript JobKind = "run-script"
)

// JobStatus is the lifecycle state of a Job as tracked by the scheduler.
type JobStatus string

const (
	// JobPending has not yet had all its dependencies satisfied.
	JobPending JobStatus = "pending"
	// JobReady has every dependency in JobDoneSuccess and is waiting for a worker slot.
	JobReady JobStatus = "ready"
	// JobRunning is currently executing in a worker slot.
	JobRunning JobStatus = "running"
	// JobDoneSuccess finished with a zero exit status.
	JobDoneSuccess JobStatus = "done-success"
	// JobDoneFail finished with a non-zero exit status, or was never reachable because
	// an ancestor failed.
	JobDoneFail JobStatus = "done-fail"
)

// Job is the uniform value the scheduler operates on. Every job in a plan has
// a globally unique Name derived deterministically from
// (package-name, package-version, phase, host-flag); see job_naming.go.
type Job struct {
	Name         InternedString
	Kind         JobKind
	Dependencies []InternedString

	// PackageID identifies the owning package for BuildState lookups during
	// command assembly (see build_state.go).
	PackageID InternedString

	// IsHost is true when this job builds/runs for the host rather than the
	// cross-compilation target.
	IsHost bool

	// TargetName and TargetKind identify which of the package's targets a
	// JobBuildTarget job compiles (e.g. its library, or one root binary);
	// unused by JobBuildScript/JobRunScript, which always operate on the
	// package's build script.
	TargetName string
	TargetKind TargetKind

	// Spawn is the command-line/environment this job executes. It is filled in
	// by command assembly (internal/engine/command) at job-start time, not at
	// planning time, so that it can observe BuildState populated by
	// dependencies that have already run.
	Spawn SpawnSpec
}

// SpawnSpec is the argv/env/cwd/log tuple a Job hands to the process spawner.
type SpawnSpec struct {
	Argv       []string
	Env        []string
	WorkingDir string
	LogPath    string
	// OutputPath is the artifact (or script-output file) this invocation
	// produces; used by failure cleanup.
	OutputPath string
}
