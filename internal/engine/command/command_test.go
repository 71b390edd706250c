package command

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"minicargo/internal/core/domain"
	"minicargo/internal/core/ports"
)

type fakePkg struct {
	name        string
	dir         string
	libName     string
	activeFeats []string
}

func (f *fakePkg) ID() domain.InternedString { return domain.NewInternedString(f.dir) }
func (f *fakePkg) Name() string              { return f.name }
func (f *fakePkg) Version() domain.Version   { return domain.Version{Major: 1, Minor: 2, Patch: 3} }
func (f *fakePkg) Directory() string         { return f.dir }
func (f *fakePkg) ManifestPath() string      { return f.dir + "/minicargo.toml" }
func (f *fakePkg) Edition() domain.Edition   { return domain.Edition2018 }
func (f *fakePkg) BuildScript() string       { return "" }
func (f *fakePkg) ActiveFeatures() []string  { return f.activeFeats }
func (f *fakePkg) AllFeatures() []string     { return f.activeFeats }
func (f *fakePkg) HasLibrary() bool          { return f.libName != "" }
func (f *fakePkg) Library() (ports.PackageTarget, bool) {
	if f.libName == "" {
		return ports.PackageTarget{}, false
	}
	return ports.PackageTarget{Name: f.libName, Path: "src/lib.rs", Kind: domain.TargetLib, CrateTypes: []domain.CrateType{domain.CrateTypeRlib}}, true
}
func (f *fakePkg) IterMainDependencies() iter.Seq[ports.PackageRef]  { return seqOf[ports.PackageRef](nil) }
func (f *fakePkg) IterBuildDependencies() iter.Seq[ports.PackageRef] { return seqOf[ports.PackageRef](nil) }
func (f *fakePkg) IterDevDependencies() iter.Seq[ports.PackageRef]   { return seqOf[ports.PackageRef](nil) }
func (f *fakePkg) ForeachBinaries() iter.Seq[ports.PackageTarget]    { return seqOf[ports.PackageTarget](nil) }
func (f *fakePkg) ForeachTy(domain.TargetKind) iter.Seq[ports.PackageTarget] { return seqOf[ports.PackageTarget](nil) }
func (f *fakePkg) SetBuildScriptOutput(domain.ScriptOutput)          {}
func (f *fakePkg) BuildScriptOutput() (domain.ScriptOutput, bool)    { return domain.ScriptOutput{}, false }

func seqOf[T any](s []T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range s {
			if !yield(v) {
				return
			}
		}
	}
}

func TestAssemble_BuildTargetProducesExpectedArgs(t *testing.T) {
	pkg := &fakePkg{name: "mycrate", dir: "/pkgs/mycrate", libName: "mycrate", activeFeats: []string{"alpha"}}
	packages := map[domain.InternedString]ports.PackageManifest{pkg.ID(): pkg}
	options := ports.BuildOptions{OutputDir: "/out", Mode: domain.ModeNormal, CompilerPath: "/bin/mrustc"}
	asm := New(packages, domain.NewBuildState(), options, Environment{CompilerPath: "/bin/mrustc", HostTriple: "x86_64-host"}, "linux")

	job := domain.Job{
		Name:       domain.NewInternedString("mycrate v1.2.3"),
		Kind:       domain.JobBuildTarget,
		PackageID:  pkg.ID(),
		TargetName: "mycrate",
		TargetKind: domain.TargetLib,
	}

	spec, err := asm.Assemble(job)
	require.NoError(t, err)
	assert.Contains(t, spec.Argv, "-o")
	assert.Contains(t, spec.Argv, "--crate-name")
	assert.Contains(t, spec.Argv, "mycrate")
	assert.Contains(t, spec.Argv, `feature="alpha"`)
	assert.Equal(t, "/pkgs/mycrate", spec.WorkingDir)
}

func TestAssemble_DebugAssertionsAndOptAlwaysPresentRegardlessOfEnableDebug(t *testing.T) {
	pkg := &fakePkg{name: "mycrate", dir: "/pkgs/mycrate", libName: "mycrate"}
	packages := map[domain.InternedString]ports.PackageManifest{pkg.ID(): pkg}
	job := domain.Job{
		Name:       domain.NewInternedString("mycrate v1.2.3"),
		Kind:       domain.JobBuildTarget,
		PackageID:  pkg.ID(),
		TargetName: "mycrate",
		TargetKind: domain.TargetLib,
	}

	options := ports.BuildOptions{OutputDir: "/out", Mode: domain.ModeNormal, CompilerPath: "/bin/mrustc", EnableDebug: false}
	asm := New(packages, domain.NewBuildState(), options, Environment{CompilerPath: "/bin/mrustc", HostTriple: "x86_64-host"}, "linux")

	spec, err := asm.Assemble(job)
	require.NoError(t, err)
	assert.Contains(t, spec.Argv, "--cfg")
	assert.Contains(t, spec.Argv, "debug_assertions")
	assert.Contains(t, spec.Argv, "-O")
	assert.NotContains(t, spec.Argv, "-g", "EnableDebug=false must not emit -g")

	debugOptions := options
	debugOptions.EnableDebug = true
	debugAsm := New(packages, domain.NewBuildState(), debugOptions, Environment{CompilerPath: "/bin/mrustc", HostTriple: "x86_64-host"}, "linux")
	debugSpec, err := debugAsm.Assemble(job)
	require.NoError(t, err)
	assert.Contains(t, debugSpec.Argv, "-g")
	assert.Contains(t, debugSpec.Argv, "debug_assertions")
}

func TestAssemble_UnknownJobKindErrors(t *testing.T) {
	pkg := &fakePkg{name: "mycrate", dir: "/pkgs/mycrate", libName: "mycrate"}
	packages := map[domain.InternedString]ports.PackageManifest{pkg.ID(): pkg}
	asm := New(packages, domain.NewBuildState(), ports.BuildOptions{}, Environment{}, "linux")

	_, err := asm.Assemble(domain.Job{Kind: "bogus", PackageID: pkg.ID()})
	assert.Error(t, err)
}
