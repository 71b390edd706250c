package domain

// TargetKind is the unit-of-output kind of a PackageTarget.
type TargetKind string

const (
	TargetLib     TargetKind = "lib"
	TargetBin     TargetKind = "bin"
	TargetTest    TargetKind = "test"
	TargetExample TargetKind = "example"
)

// CrateType is a rustc-style crate-type string, as recorded on a PackageTarget.
type CrateType string

const (
	CrateTypeRlib      CrateType = "rlib"
	CrateTypeDylib     CrateType = "dylib"
	CrateTypeProcMacro CrateType = "proc-macro"
	CrateTypeBin       CrateType = "bin"
)

// Edition is the Rust-edition declared by a manifest.
type Edition string

const (
	EditionUnspecified Edition = ""
	Edition2015        Edition = "2015"
	Edition2018        Edition = "2018"
)

// BuildMode selects which family of targets the planner walks.
type BuildMode string

const (
	ModeNormal   BuildMode = "normal"
	ModeTest     BuildMode = "test"
	ModeExamples BuildMode = "examples"
)

// Version is a semver triple, dots-separated in manifests, underscore-joined
// in crate suffixes.
type Version struct {
	Major, Minor, Patch int
}

// IsZero reports whether v is the zero version (0.0.0), which disables crate
// suffixing entirely.
func (v Version) IsZero() bool {
	return v.Major == 0 && v.Minor == 0 && v.Patch == 0
}
