// Package staleness implements the per-unit staleness oracle:
// deciding whether a build output is up to date by comparing its mtime
// against the compiler binary and the depfile's recorded inputs.
package staleness

import (
	"minicargo/internal/core/domain"
	"minicargo/internal/core/ports"
)

// Reason records why Check found an output dirty, for diagnostic logging.
type Reason string

const (
	ReasonClean         Reason = ""
	ReasonMissing       Reason = "missing"
	ReasonToolNewer     Reason = "tool_newer"
	ReasonInputNewer    Reason = "input_newer"
	ReasonDependencyDirty Reason = "dependency_dirty"
)

// Oracle decides per-unit staleness against the real filesystem, through
// the Clock and DepfileReader ports.
type Oracle struct {
	clock   ports.Clock
	depfile ports.DepfileReader
}

// New creates an Oracle.
func New(clock ports.Clock, depfile ports.DepfileReader) *Oracle {
	return &Oracle{clock: clock, depfile: depfile}
}

// Check decides whether outputPath is stale, consulting
// <outputPath>.d for its recorded inputs. compilerPath is the compiler
// binary whose mtime gates step 2; ignoreTools skips that comparison
// (env MINICARGO_IGNTOOLS).
func (o *Oracle) Check(outputPath, compilerPath string, ignoreTools bool) (bool, Reason, error) {
	outputTime := o.clock.ModTime(outputPath)
	if outputTime.IsMissing() {
		return true, ReasonMissing, nil
	}

	if !ignoreTools {
		toolTime := o.clock.ModTime(compilerPath)
		if toolTime.After(outputTime) {
			return true, ReasonToolNewer, nil
		}
	}

	depfile, err := o.depfile.Read(domain.DepfilePath(outputPath))
	if err != nil {
		return false, ReasonClean, err
	}

	for _, input := range depfile.Inputs(outputPath) {
		if o.clock.ModTime(input).After(outputTime) {
			return true, ReasonInputNewer, nil
		}
	}

	return false, ReasonClean, nil
}
