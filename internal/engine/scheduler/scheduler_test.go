package scheduler

import (
	"context"
	"io"
	"iter"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"minicargo/internal/core/domain"
	"minicargo/internal/core/ports"
	"minicargo/internal/engine/command"
)

type fakePkg struct {
	name string
	dir  string
}

func (f *fakePkg) ID() domain.InternedString { return domain.NewInternedString(f.dir) }
func (f *fakePkg) Name() string              { return f.name }
func (f *fakePkg) Version() domain.Version   { return domain.Version{Major: 1} }
func (f *fakePkg) Directory() string         { return f.dir }
func (f *fakePkg) ManifestPath() string      { return f.dir + "/minicargo.toml" }
func (f *fakePkg) Edition() domain.Edition   { return domain.Edition2018 }
func (f *fakePkg) BuildScript() string       { return "" }
func (f *fakePkg) ActiveFeatures() []string  { return nil }
func (f *fakePkg) AllFeatures() []string     { return nil }
func (f *fakePkg) HasLibrary() bool          { return true }
func (f *fakePkg) Library() (ports.PackageTarget, bool) {
	return ports.PackageTarget{Name: f.name, Path: "src/lib.rs", Kind: domain.TargetLib, CrateTypes: []domain.CrateType{domain.CrateTypeRlib}}, true
}
func (f *fakePkg) IterMainDependencies() iter.Seq[ports.PackageRef]         { return seqOf[ports.PackageRef](nil) }
func (f *fakePkg) IterBuildDependencies() iter.Seq[ports.PackageRef]        { return seqOf[ports.PackageRef](nil) }
func (f *fakePkg) IterDevDependencies() iter.Seq[ports.PackageRef]         { return seqOf[ports.PackageRef](nil) }
func (f *fakePkg) ForeachBinaries() iter.Seq[ports.PackageTarget]          { return seqOf[ports.PackageTarget](nil) }
func (f *fakePkg) ForeachTy(domain.TargetKind) iter.Seq[ports.PackageTarget] { return seqOf[ports.PackageTarget](nil) }
func (f *fakePkg) SetBuildScriptOutput(domain.ScriptOutput)                {}
func (f *fakePkg) BuildScriptOutput() (domain.ScriptOutput, bool)          { return domain.ScriptOutput{}, false }

func seqOf[T any](s []T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range s {
			if !yield(v) {
				return
			}
		}
	}
}

type fakeSpawner struct {
	mu     sync.Mutex
	calls  []string
	failOn string
}

func (f *fakeSpawner) Spawn(_ context.Context, spec domain.SpawnSpec) (bool, error) {
	f.mu.Lock()
	f.calls = append(f.calls, spec.OutputPath)
	f.mu.Unlock()
	if f.failOn != "" && spec.OutputPath == f.failOn {
		return false, nil
	}
	return true, nil
}

func (f *fakeSpawner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeTelemetry struct{ recorded atomic.Int64 }

func (f *fakeTelemetry) Record(ctx context.Context, _ string) (context.Context, ports.Vertex) {
	f.recorded.Add(1)
	return ctx, fakeVertex{}
}
func (f *fakeTelemetry) EmitPlan(context.Context, []string) {}

type fakeVertex struct{}

func (fakeVertex) Stdout() io.Writer  { return io.Discard }
func (fakeVertex) Stderr() io.Writer  { return io.Discard }
func (fakeVertex) Complete(error)     {}
func (fakeVertex) Cached()            {}

func newTestAssembler(pkgA, pkgB *fakePkg) *command.Assembler {
	packages := map[domain.InternedString]ports.PackageManifest{
		pkgA.ID(): pkgA,
		pkgB.ID(): pkgB,
	}
	options := ports.BuildOptions{OutputDir: "/out", Mode: domain.ModeNormal, CompilerPath: "/bin/mrustc"}
	return command.New(packages, domain.NewBuildState(), options, command.Environment{CompilerPath: "/bin/mrustc", HostTriple: "x86_64-host"}, "linux")
}

func TestRun_RunsDependencyBeforeDependent(t *testing.T) {
	pkgA := &fakePkg{name: "a", dir: "/pkgs/a"}
	pkgB := &fakePkg{name: "b", dir: "/pkgs/b"}
	asm := newTestAssembler(pkgA, pkgB)

	g := domain.NewGraph()
	depJob := domain.Job{Name: domain.NewInternedString("b"), Kind: domain.JobBuildTarget, PackageID: pkgB.ID(), TargetName: "b", TargetKind: domain.TargetLib}
	mainJob := domain.Job{Name: domain.NewInternedString("a"), Kind: domain.JobBuildTarget, PackageID: pkgA.ID(), TargetName: "a", TargetKind: domain.TargetLib, Dependencies: []domain.InternedString{depJob.Name}}
	require.NoError(t, g.AddJob(depJob))
	require.NoError(t, g.AddJob(mainJob))

	spawner := &fakeSpawner{}
	telemetry := &fakeTelemetry{}
	packages := map[domain.InternedString]ports.PackageManifest{pkgA.ID(): pkgA, pkgB.ID(): pkgB}
	s := New(asm, spawner, telemetry, domain.NewBuildState(), nil, packages)

	err := s.Run(context.Background(), g, 2, false)
	require.NoError(t, err)
	assert.Equal(t, 2, spawner.callCount())
	assert.EqualValues(t, 2, telemetry.recorded.Load())
}

func TestRun_FailurePreventsDependentFromRunning(t *testing.T) {
	pkgA := &fakePkg{name: "a", dir: "/pkgs/a"}
	pkgB := &fakePkg{name: "b", dir: "/pkgs/b"}
	asm := newTestAssembler(pkgA, pkgB)

	g := domain.NewGraph()
	depJob := domain.Job{Name: domain.NewInternedString("b"), Kind: domain.JobBuildTarget, PackageID: pkgB.ID(), TargetName: "b", TargetKind: domain.TargetLib}
	mainJob := domain.Job{Name: domain.NewInternedString("a"), Kind: domain.JobBuildTarget, PackageID: pkgA.ID(), TargetName: "a", TargetKind: domain.TargetLib, Dependencies: []domain.InternedString{depJob.Name}}
	require.NoError(t, g.AddJob(depJob))
	require.NoError(t, g.AddJob(mainJob))

	spec, err := asm.Assemble(depJob)
	require.NoError(t, err)

	spawner := &fakeSpawner{failOn: spec.OutputPath}
	telemetry := &fakeTelemetry{}
	packages := map[domain.InternedString]ports.PackageManifest{pkgA.ID(): pkgA, pkgB.ID(): pkgB}
	s := New(asm, spawner, telemetry, domain.NewBuildState(), nil, packages)

	err = s.Run(context.Background(), g, 2, false)
	require.Error(t, err)
	assert.Equal(t, 1, spawner.callCount(), "dependent must never be spawned once its dependency failed")
}

func TestRun_DryRunSpawnsNothing(t *testing.T) {
	pkgA := &fakePkg{name: "a", dir: "/pkgs/a"}
	asm := newTestAssembler(pkgA, pkgA)

	g := domain.NewGraph()
	require.NoError(t, g.AddJob(domain.Job{Name: domain.NewInternedString("a"), Kind: domain.JobBuildTarget, PackageID: pkgA.ID(), TargetName: "a", TargetKind: domain.TargetLib}))

	spawner := &fakeSpawner{}
	telemetry := &fakeTelemetry{}
	packages := map[domain.InternedString]ports.PackageManifest{pkgA.ID(): pkgA}
	s := New(asm, spawner, telemetry, domain.NewBuildState(), nil, packages)

	err := s.Run(context.Background(), g, 2, true)
	require.NoError(t, err)
	assert.Equal(t, 0, spawner.callCount())
}
