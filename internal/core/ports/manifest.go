package ports

import (
	"iter"

	"minicargo/internal/core/domain"
)

// PackageManifest is the query surface the build planner and graph builder
// consume. Its implementation — parsing an on-disk manifest
// file into one of these — is an external collaborator; the
// core only depends on this interface.
//
//go:generate go run go.uber.org/mock/mockgen -source=manifest.go -destination=mocks/mock_manifest.go -package=mocks
type PackageManifest interface {
	ID() domain.InternedString
	Name() string
	Version() domain.Version
	Directory() string
	ManifestPath() string
	Edition() domain.Edition

	// BuildScript returns the path to the package's build script, or "" if
	// the package has none.
	BuildScript() string

	// ActiveFeatures is the ordered, unique set of features this package was
	// resolved with (frozen by the feature resolver before planning starts).
	ActiveFeatures() []string
	// AllFeatures is every feature this package declares, in declaration
	// order; only its first 64 entries participate in crate-suffix bitmasks.
	AllFeatures() []string

	HasLibrary() bool
	Library() (PackageTarget, bool)

	IterMainDependencies() iter.Seq[PackageRef]
	IterBuildDependencies() iter.Seq[PackageRef]
	IterDevDependencies() iter.Seq[PackageRef]

	ForeachBinaries() iter.Seq[PackageTarget]
	ForeachTy(kind domain.TargetKind) iter.Seq[PackageTarget]

	// SetBuildScriptOutput and BuildScriptOutput hold a package's own mutable
	// build-script output. The planner (for clean and overridden scripts)
	// and the scheduler (after a successful run) write it here, and command
	// assembly reads it from here.
	SetBuildScriptOutput(out domain.ScriptOutput)
	BuildScriptOutput() (domain.ScriptOutput, bool)
}

// PackageTarget is a single buildable unit within a package.
type PackageTarget struct {
	Name       string
	Path       string
	Kind       domain.TargetKind
	CrateTypes []domain.CrateType
	IsProcMacro bool
	Edition    domain.Edition
}

// PackageRef is a dependency edge with the alias the dependent uses to refer
// to it.
type PackageRef struct {
	Key        string
	IsDisabled bool
	Package    PackageManifest
}

// BuildOptions is the frozen set of options the CLI front-end (an external
// collaborator) resolved for this invocation.
type BuildOptions struct {
	OutputDir             string
	TargetName            string // "" means host-only build
	EmitMMIR              bool
	EnableDebug           bool
	LibSearchDirs         []string
	BuildScriptOverrides  string // "" means no overrides
	Mode                  domain.BuildMode
	CompilerPath          string
	// IgnoreToolStaleness mirrors env MINICARGO_IGNTOOLS: when set, the
	// staleness oracle skips comparing an output's mtime against the
	// compiler binary's.
	IgnoreToolStaleness bool
}

// HasTarget reports whether this is a cross-compiling build.
func (o BuildOptions) HasTarget() bool {
	return o.TargetName != ""
}
