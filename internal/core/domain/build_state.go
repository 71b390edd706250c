package domain

import "sync"

// ScriptOutput is the parsed form of a build script's stdout payload.
// Parsing the payload's own grammar is
// the manifest layer's concern; BuildState only stores the
// already-parsed result so that command assembly can read it.
type ScriptOutput struct {
	RustcLinkSearch []string
	RustcLinkLib    []string
	RustcCfg        []string
	RustcFlags      []string
	RustcEnv        map[string]string
	DownstreamEnv   map[string]string
}

// BuildState decouples package-script output and clean-unit bookkeeping
// from the manifest values themselves. It maps package id to its
// (eventually populated) script output, and records the output mtime of
// clean (not-rescheduled) units so downstream staleness decisions can
// consult them without re-running the staleness oracle.
type BuildState struct {
	mu            sync.RWMutex
	scriptOutputs map[InternedString]ScriptOutput
	cleanMtimes   map[InternedString]Timestamp
}

// NewBuildState creates an empty BuildState.
func NewBuildState() *BuildState {
	return &BuildState{
		scriptOutputs: make(map[InternedString]ScriptOutput),
		cleanMtimes:   make(map[InternedString]Timestamp),
	}
}

// SetScriptOutput records pkg's build-script output. The scheduler calls it
// when a run-script job succeeds. Clean and overridden scripts are not
// recorded here: the planner stores their output on the manifest
// (PackageManifest.SetBuildScriptOutput), and command assembly reads script
// output from the manifest, not from BuildState.
func (s *BuildState) SetScriptOutput(pkg InternedString, out ScriptOutput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scriptOutputs[pkg] = out
}

// ScriptOutput returns pkg's recorded build-script output, if any.
func (s *BuildState) ScriptOutput(pkg InternedString) (ScriptOutput, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out, ok := s.scriptOutputs[pkg]
	return out, ok
}

// RecordCleanMtime records the output mtime of a unit the planner decided
// not to schedule, for consultation by transitive staleness checks on its
// dependents.
func (s *BuildState) RecordCleanMtime(jobName InternedString, mtime Timestamp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanMtimes[jobName] = mtime
}

// CleanMtime returns the recorded mtime for a clean unit's job name.
func (s *BuildState) CleanMtime(jobName InternedString) (Timestamp, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.cleanMtimes[jobName]
	return t, ok
}
