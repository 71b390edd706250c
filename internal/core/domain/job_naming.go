package domain

import "strconv"

// JobName computes a non-script compile job's canonical key:
// "<name> v<version>" with an optional suffix — " (build)" for a
// build-script compile, " (host)" when isHost is true and cross-compilation
// is in effect. Proc-macro libraries are expected to pass isHost=true
// (forced upstream by the graph builder) so they compute as host-targeted.
func JobName(name string, v Version, isBuildScript, isHost, crossCompiling bool) InternedString {
	s := name + " v" + versionString(v)
	switch {
	case isBuildScript:
		s += " (build)"
	case isHost && crossCompiling:
		s += " (host)"
	}
	return NewInternedString(s)
}

// RunScriptJobName computes a run-script job's canonical key: the build-script
// job's name with " (script run)" appended.
func RunScriptJobName(name string, v Version, isHost, crossCompiling bool) InternedString {
	buildName := JobName(name, v, true, isHost, crossCompiling)
	return NewInternedString(buildName.String() + " (script run)")
}

func versionString(v Version) string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
}
