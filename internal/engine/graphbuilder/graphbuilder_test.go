package graphbuilder

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"minicargo/internal/core/domain"
	"minicargo/internal/core/ports"
)

type fakePkg struct {
	id          string
	hasLib      bool
	isProcMacro bool
	mainDeps    []ports.PackageRef
	buildDeps   []ports.PackageRef
	devDeps     []ports.PackageRef
}

func (f *fakePkg) ID() domain.InternedString { return domain.NewInternedString(f.id) }
func (f *fakePkg) Name() string              { return f.id }
func (f *fakePkg) Version() domain.Version   { return domain.Version{Major: 1} }
func (f *fakePkg) Directory() string         { return f.id }
func (f *fakePkg) ManifestPath() string      { return f.id + "/minicargo.toml" }
func (f *fakePkg) Edition() domain.Edition   { return domain.EditionUnspecified }
func (f *fakePkg) BuildScript() string       { return "" }
func (f *fakePkg) ActiveFeatures() []string  { return nil }
func (f *fakePkg) AllFeatures() []string     { return nil }
func (f *fakePkg) HasLibrary() bool          { return f.hasLib }
func (f *fakePkg) Library() (ports.PackageTarget, bool) {
	if !f.hasLib {
		return ports.PackageTarget{}, false
	}
	return ports.PackageTarget{Name: f.id, Kind: domain.TargetLib, IsProcMacro: f.isProcMacro}, true
}
func (f *fakePkg) IterMainDependencies() iter.Seq[ports.PackageRef]  { return seqOf(f.mainDeps) }
func (f *fakePkg) IterBuildDependencies() iter.Seq[ports.PackageRef] { return seqOf(f.buildDeps) }
func (f *fakePkg) IterDevDependencies() iter.Seq[ports.PackageRef]   { return seqOf(f.devDeps) }
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

func TestBuild_LinearChainOrdersDeepestFirst(t *testing.T) {
	c := &fakePkg{id: "c", hasLib: true}
	b := &fakePkg{id: "b", hasLib: true, mainDeps: []ports.PackageRef{{Key: "c", Package: c}}}
	root := &fakePkg{id: "root", hasLib: true, mainDeps: []ports.PackageRef{{Key: "b", Package: b}}}

	result := Build(root, ports.BuildOptions{Mode: domain.ModeNormal})

	require.Len(t, result.Entries, 3)
	assert.Equal(t, c.ID(), result.Entries[0].PackageID)
	assert.Equal(t, b.ID(), result.Entries[1].PackageID)
	assert.Equal(t, root.ID(), result.Entries[2].PackageID)
}

func TestBuild_DisabledDependencySkipped(t *testing.T) {
	dep := &fakePkg{id: "dep", hasLib: true}
	root := &fakePkg{id: "root", hasLib: true, mainDeps: []ports.PackageRef{{Key: "dep", Package: dep, IsDisabled: true}}}

	result := Build(root, ports.BuildOptions{Mode: domain.ModeNormal})

	require.Len(t, result.Entries, 1)
	assert.Equal(t, root.ID(), result.Entries[0].PackageID)
}

func TestBuild_ProcMacroForcesHost(t *testing.T) {
	pm := &fakePkg{id: "pm", hasLib: true, isProcMacro: true}
	root := &fakePkg{id: "root", hasLib: true, mainDeps: []ports.PackageRef{{Key: "pm", Package: pm}}}

	result := Build(root, ports.BuildOptions{Mode: domain.ModeNormal})

	require.Len(t, result.Entries, 2)
	assert.True(t, result.Entries[0].IsHost)
}

func TestBuild_DiamondDependencyDeduped(t *testing.T) {
	shared := &fakePkg{id: "shared", hasLib: true}
	b := &fakePkg{id: "b", hasLib: true, mainDeps: []ports.PackageRef{{Key: "shared", Package: shared}}}
	c := &fakePkg{id: "c", hasLib: true, mainDeps: []ports.PackageRef{{Key: "shared", Package: shared}}}
	root := &fakePkg{id: "root", hasLib: true, mainDeps: []ports.PackageRef{
		{Key: "b", Package: b},
		{Key: "c", Package: c},
	}}

	result := Build(root, ports.BuildOptions{Mode: domain.ModeNormal})

	count := 0
	for _, e := range result.Entries {
		if e.PackageID == shared.ID() {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestBuild_BuildDependenciesForceHostAndAreSkippedUnderOverrides(t *testing.T) {
	buildDep := &fakePkg{id: "builddep", hasLib: true}
	root := &fakePkg{id: "root", hasLib: true, buildDeps: []ports.PackageRef{{Key: "builddep", Package: buildDep}}}

	result := Build(root, ports.BuildOptions{Mode: domain.ModeNormal})
	require.Len(t, result.Entries, 2)
	for _, e := range result.Entries {
		if e.PackageID == buildDep.ID() {
			assert.True(t, e.IsHost)
		}
	}

	overridden := Build(root, ports.BuildOptions{Mode: domain.ModeNormal, BuildScriptOverrides: "/overrides"})
	require.Len(t, overridden.Entries, 1)
}

func TestBuild_DeeperReencounterReordersAheadOfDependent(t *testing.T) {
	// root main-deps order [x, y]; x has no deps; y depends on z; z depends
	// on x. x is first discovered at level 0 through the root edge, then
	// re-discovered at level 2 through z. The deeper occurrence must win so
	// that x (a dependency of z) still sorts before z.
	x := &fakePkg{id: "x", hasLib: true}
	z := &fakePkg{id: "z", hasLib: true, mainDeps: []ports.PackageRef{{Key: "x", Package: x}}}
	y := &fakePkg{id: "y", hasLib: true, mainDeps: []ports.PackageRef{{Key: "z", Package: z}}}
	root := &fakePkg{id: "root", hasLib: true, mainDeps: []ports.PackageRef{
		{Key: "x", Package: x},
		{Key: "y", Package: y},
	}}

	result := Build(root, ports.BuildOptions{Mode: domain.ModeNormal})

	index := make(map[domain.InternedString]int, len(result.Entries))
	for i, e := range result.Entries {
		index[e.PackageID] = i
	}

	require.Len(t, result.Entries, 4)
	assert.Less(t, index[x.ID()], index[z.ID()], "x must appear before z, which depends on it")
	assert.Less(t, index[z.ID()], index[y.ID()], "z must appear before y, which depends on it")
}

func TestBuild_DevDependenciesWalkedOnlyInTestMode(t *testing.T) {
	devDep := &fakePkg{id: "devdep", hasLib: true}
	root := &fakePkg{id: "root", hasLib: true, devDeps: []ports.PackageRef{{Key: "devdep", Package: devDep}}}

	normal := Build(root, ports.BuildOptions{Mode: domain.ModeNormal})
	require.Len(t, normal.Entries, 1)

	test := Build(root, ports.BuildOptions{Mode: domain.ModeTest})
	require.Len(t, test.Entries, 2)
}
