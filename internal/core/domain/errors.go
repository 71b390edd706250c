package domain

import "go.trai.ch/zerr"

var (
	// ErrJobAlreadyExists is returned when two jobs compute the same canonical name.
	ErrJobAlreadyExists = zerr.New("job already exists")

	// ErrMissingDependency is returned when a job references a dependency that doesn't exist in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the job dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrJobNotFound is returned when a requested job is not found in the graph.
	ErrJobNotFound = zerr.New("job not found")

	// ErrMalformedDepfile is returned when a depfile cannot be parsed according to its grammar.
	ErrMalformedDepfile = zerr.New("malformed depfile")

	// ErrUnknownTarget is returned when a crate-type cannot be mapped to an output path.
	ErrUnknownTarget = zerr.New("unknown target type")

	// ErrSpawnFailure is returned when a child process could not be started.
	ErrSpawnFailure = zerr.New("failed to spawn process")

	// ErrCompileFailure is returned when a compiler invocation exits non-zero.
	ErrCompileFailure = zerr.New("compile failed")

	// ErrScriptRunFailure is returned when a build-script invocation exits non-zero.
	ErrScriptRunFailure = zerr.New("build script run failed")

	// ErrOverrideMissing is returned when build-script-overrides is set but the
	// expected override file is not present.
	ErrOverrideMissing = zerr.New("build script override missing")

	// ErrNoTargetsSpecified is returned when a build is requested without a root manifest path.
	ErrNoTargetsSpecified = zerr.New("no targets specified")
)
