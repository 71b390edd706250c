// Package command assembles the argv/env/cwd for each job kind:
// compiles (build-target and build-script) and build-script runs.
package command

import (
	"fmt"
	"iter"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
	"minicargo/internal/core/domain"
	"minicargo/internal/core/ports"
)

// Environment carries the host/target facts command assembly needs beyond
// ports.BuildOptions: the resolved compiler path and the
// host/target triples reported in CARGO-style environment variables.
type Environment struct {
	CompilerPath string
	HostTriple   string
	TargetTriple string // equals HostTriple when not cross-compiling
}

// Assembler builds domain.SpawnSpec values for jobs the planner emitted.
type Assembler struct {
	packages   map[domain.InternedString]ports.PackageManifest
	buildState *domain.BuildState
	options    ports.BuildOptions
	env        Environment
	goos       string
}

// New creates an Assembler. packages must contain every package the plan's
// jobs reference (the planner's graph-entry registry plus the root).
func New(packages map[domain.InternedString]ports.PackageManifest, buildState *domain.BuildState, options ports.BuildOptions, env Environment, goos string) *Assembler {
	return &Assembler{packages: packages, buildState: buildState, options: options, env: env, goos: goos}
}

// Assemble dispatches on job.Kind to produce its SpawnSpec.
func (a *Assembler) Assemble(job domain.Job) (domain.SpawnSpec, error) {
	pkg, ok := a.packages[job.PackageID]
	if !ok {
		return domain.SpawnSpec{}, zerr.With(domain.ErrJobNotFound, "package_id", job.PackageID.String())
	}

	switch job.Kind {
	case domain.JobBuildScript:
		return a.assembleBuildScriptCompile(pkg)
	case domain.JobBuildTarget:
		return a.assembleTargetCompile(job, pkg)
	case domain.JobRunScript:
		return a.assembleRunScript(pkg)
	default:
		return domain.SpawnSpec{}, zerr.With(domain.ErrUnknownTarget, "job_kind", string(job.Kind))
	}
}

func (a *Assembler) assembleBuildScriptCompile(pkg ports.PackageManifest) (domain.SpawnSpec, error) {
	buildStem := domain.BuildScriptStem(pkg.Name(), pkg.Version(), pkg.ActiveFeatures(), pkg.AllFeatures())
	hostOutDir := domain.OutputDir(a.options.OutputDir, a.options.HasTarget(), a.options.EmitMMIR, true)
	outputPath := domain.BuildScriptExecutablePath(hostOutDir, buildStem, a.goos)
	sourcePath := filepath.Join(pkg.Directory(), pkg.BuildScript())

	argv := a.commonCompileArgs(outputPath, true, pkg.ActiveFeatures())
	argv = append(argv, sourcePath, "--crate-name", "build", "--crate-type", "bin")
	argv = append(argv, a.externArgs(pkg.IterBuildDependencies(), true)...)

	env := a.commonEnv(pkg)
	env = append(env, "OUT_DIR="+filepath.Join(hostOutDir, buildStem))
	env = append(env, rustcEnvVars(a.outputOf(pkg))...)

	return domain.SpawnSpec{
		Argv:       argv,
		Env:        env,
		WorkingDir: pkg.Directory(),
		LogPath:    domain.DebugLogPath(outputPath),
		OutputPath: outputPath,
	}, nil
}

func (a *Assembler) assembleTargetCompile(job domain.Job, pkg ports.PackageManifest) (domain.SpawnSpec, error) {
	target, err := findTarget(pkg, job.TargetName, job.TargetKind)
	if err != nil {
		return domain.SpawnSpec{}, err
	}

	suffix := domain.CrateSuffix(pkg.Version(), pkg.ActiveFeatures(), pkg.AllFeatures())
	outDir := domain.OutputDir(a.options.OutputDir, a.options.HasTarget(), a.options.EmitMMIR, job.IsHost)
	outputPath, err := domain.CrateOutputPath(outDir, target.Name, target.Kind, target.CrateTypes, target.IsProcMacro, suffix, a.goos)
	if err != nil {
		return domain.SpawnSpec{}, err
	}

	argv := a.commonCompileArgs(outputPath, job.IsHost, pkg.ActiveFeatures())
	sourcePath := filepath.Join(pkg.Directory(), target.Path)
	argv = append(argv, sourcePath, "--crate-name", target.Name, "--crate-type", string(firstCrateType(target)))

	if suffix != "" {
		argv = append(argv, "--crate-tag", suffix)
	}

	if a.options.HasTarget() && !job.IsHost {
		argv = append(argv, "--target", a.options.TargetName, "-C", "emit-build-command="+outputPath+".sh")
	}

	out := a.outputOf(pkg)
	for _, dir := range out.RustcLinkSearch {
		argv = append(argv, "-L", dir)
	}
	for _, lib := range out.RustcLinkLib {
		if strings.HasPrefix(lib, "framework=") {
			argv = append(argv, "-l", "framework="+strings.TrimPrefix(lib, "framework="))
			continue
		}
		argv = append(argv, "-l", lib)
	}
	for _, cfg := range out.RustcCfg {
		argv = append(argv, "--cfg", cfg)
	}
	argv = append(argv, out.RustcFlags...)

	if ed := pkg.Edition(); ed != domain.EditionUnspecified {
		argv = append(argv, "--edition", string(ed))
	}

	if target.Kind == domain.TargetTest {
		argv = append(argv, "--test")
		argv = append(argv, a.externArgs(pkg.IterDevDependencies(), job.IsHost)...)
	}

	argv = append(argv, a.externArgs(pkg.IterMainDependencies(), job.IsHost)...)

	if target.Kind != domain.TargetLib && pkg.HasLibrary() {
		if lib, ok := pkg.Library(); ok {
			selfPath, err := domain.CrateOutputPath(outDir, lib.Name, lib.Kind, lib.CrateTypes, lib.IsProcMacro, suffix, a.goos)
			if err == nil {
				argv = append(argv, "--extern", lib.Name+"="+selfPath)
			}
		}
	}

	env := a.commonEnv(pkg)
	buildStem := domain.BuildScriptStem(pkg.Name(), pkg.Version(), pkg.ActiveFeatures(), pkg.AllFeatures())
	hostOutDir := domain.OutputDir(a.options.OutputDir, a.options.HasTarget(), a.options.EmitMMIR, true)
	env = append(env, "OUT_DIR="+filepath.Join(hostOutDir, buildStem))
	env = append(env, rustcEnvVars(out)...)

	return domain.SpawnSpec{
		Argv:       argv,
		Env:        env,
		WorkingDir: pkg.Directory(),
		LogPath:    domain.DebugLogPath(outputPath),
		OutputPath: outputPath,
	}, nil
}

func (a *Assembler) assembleRunScript(pkg ports.PackageManifest) (domain.SpawnSpec, error) {
	buildStem := domain.BuildScriptStem(pkg.Name(), pkg.Version(), pkg.ActiveFeatures(), pkg.AllFeatures())
	hostOutDir := domain.OutputDir(a.options.OutputDir, a.options.HasTarget(), a.options.EmitMMIR, true)
	scriptExecPath := domain.BuildScriptExecutablePath(hostOutDir, buildStem, a.goos)
	scriptOutPath := domain.BuildScriptOutputPath(hostOutDir, buildStem)

	outDirAbs, err := filepath.Abs(filepath.Join(hostOutDir, buildStem))
	if err != nil {
		return domain.SpawnSpec{}, zerr.Wrap(err, "failed to resolve OUT_DIR")
	}

	env := a.commonEnv(pkg)
	for _, f := range pkg.ActiveFeatures() {
		env = append(env, "CARGO_FEATURE_"+upperSnake(f)+"=1")
	}
	env = append(env,
		"OUT_DIR="+outDirAbs,
		"TARGET="+a.env.TargetTriple,
		"HOST="+a.env.HostTriple,
		"NUM_JOBS=1",
		"OPT_LEVEL=2",
		"DEBUG=0",
		"PROFILE=release",
		"RUSTC="+a.env.CompilerPath,
	)
	if len(a.options.LibSearchDirs) > 0 {
		if abs, err := filepath.Abs(a.options.LibSearchDirs[0]); err == nil {
			env = append(env, "MRUSTC_LIBDIR="+abs)
		}
	}
	for _, cfg := range a.outputOf(pkg).RustcCfg {
		key, _, ok := strings.Cut(cfg, "=")
		if !ok {
			key = cfg
		}
		env = append(env, "CARGO_CFG_"+upperSnake(key)+"=1")
	}

	return domain.SpawnSpec{
		Argv:       []string{scriptExecPath},
		Env:        env,
		WorkingDir: pkg.Directory(),
		LogPath:    scriptOutPath,
		OutputPath: scriptOutPath,
	}, nil
}

// commonCompileArgs builds the arguments shared by any compile. isHostBuild
// selects which output directory this invocation's own -L entry names.
// -O and --cfg debug_assertions are unconditional on every compile; only
// -g is gated on EnableDebug.
func (a *Assembler) commonCompileArgs(outputPath string, isHostBuild bool, activeFeatures []string) []string {
	argv := []string{a.env.CompilerPath, "-o", outputPath, "--dep-info", domain.DepfilePath(outputPath)}

	if a.options.EnableDebug {
		argv = append(argv, "-g")
	}
	argv = append(argv, "--cfg", "debug_assertions", "-O")

	if a.options.EmitMMIR {
		argv = append(argv, "--emit-mmir")
	}

	for _, dir := range a.options.LibSearchDirs {
		argv = append(argv, "-L", a.hostForTargetHack(dir, isHostBuild))
	}

	hostOrTargetOutDir := domain.OutputDir(a.options.OutputDir, a.options.HasTarget(), a.options.EmitMMIR, isHostBuild)
	argv = append(argv, "-L", hostOrTargetOutDir)

	if a.options.HasTarget() && !isHostBuild {
		hostOutDir := domain.OutputDir(a.options.OutputDir, a.options.HasTarget(), a.options.EmitMMIR, true)
		argv = append(argv, "-L", hostOutDir)
	}

	for _, f := range activeFeatures {
		argv = append(argv, "--cfg", fmt.Sprintf("feature=%q", f))
	}

	return argv
}

// hostForTargetHack strips a "-<target-name>" marker from a lib search dir
// when building host-for-target, so the host variant of the sibling
// directory is picked.
func (a *Assembler) hostForTargetHack(dir string, isHostBuild bool) string {
	if !(a.options.HasTarget() && isHostBuild) {
		return dir
	}
	marker := "-" + a.options.TargetName
	return strings.Replace(dir, marker, "", 1)
}

func (a *Assembler) commonEnv(pkg ports.PackageManifest) []string {
	v := pkg.Version()
	env := []string{
		"CARGO_MANIFEST_DIR=" + pkg.Directory(),
		"CARGO_PKG_NAME=" + pkg.Name(),
		fmt.Sprintf("CARGO_PKG_VERSION=%d.%d.%d", v.Major, v.Minor, v.Patch),
		fmt.Sprintf("CARGO_PKG_VERSION_MAJOR=%d", v.Major),
		fmt.Sprintf("CARGO_PKG_VERSION_MINOR=%d", v.Minor),
		fmt.Sprintf("CARGO_PKG_VERSION_PATCH=%d", v.Patch),
	}
	for ref := range pkg.IterMainDependencies() {
		if ref.IsDisabled {
			continue
		}
		for k, v := range a.outputOf(ref.Package).DownstreamEnv {
			env = append(env, k+"="+v)
		}
	}
	return env
}

func rustcEnvVars(out domain.ScriptOutput) []string {
	env := make([]string, 0, len(out.RustcEnv))
	for k, v := range out.RustcEnv {
		env = append(env, k+"="+v)
	}
	return env
}

func (a *Assembler) outputOf(pkg ports.PackageManifest) domain.ScriptOutput {
	out, ok := pkg.BuildScriptOutput()
	if !ok {
		return domain.ScriptOutput{}
	}
	return out
}

// externArgs emits one "--extern alias=path" per non-disabled dependency,
// pointing at the library artifact path the dependency's own unit compiles
// to. depIsHost mirrors the consuming job's own host-ness: build scripts and
// host-side compiles always link against host-built dependencies.
func (a *Assembler) externArgs(refs iter.Seq[ports.PackageRef], depIsHost bool) []string {
	var argv []string
	for ref := range refs {
		if ref.IsDisabled {
			continue
		}
		lib, ok := ref.Package.Library()
		if !ok {
			continue
		}
		suffix := domain.CrateSuffix(ref.Package.Version(), ref.Package.ActiveFeatures(), ref.Package.AllFeatures())
		outDir := domain.OutputDir(a.options.OutputDir, a.options.HasTarget(), a.options.EmitMMIR, depIsHost)
		depPath, err := domain.CrateOutputPath(outDir, lib.Name, lib.Kind, lib.CrateTypes, lib.IsProcMacro, suffix, a.goos)
		if err != nil {
			continue
		}
		argv = append(argv, "--extern", ref.Key+"="+depPath)
	}
	return argv
}

func findTarget(pkg ports.PackageManifest, name string, kind domain.TargetKind) (ports.PackageTarget, error) {
	if kind == domain.TargetLib {
		if lib, ok := pkg.Library(); ok && lib.Name == name {
			return lib, nil
		}
		return ports.PackageTarget{}, zerr.With(domain.ErrUnknownTarget, "target_name", name)
	}
	for t := range pkg.ForeachTy(kind) {
		if t.Name == name {
			return t, nil
		}
	}
	return ports.PackageTarget{}, zerr.With(domain.ErrUnknownTarget, "target_name", name)
}

func firstCrateType(target ports.PackageTarget) domain.CrateType {
	if target.Kind != domain.TargetLib {
		return domain.CrateTypeBin
	}
	if len(target.CrateTypes) > 0 {
		return target.CrateTypes[0]
	}
	if target.IsProcMacro {
		return domain.CrateTypeProcMacro
	}
	return domain.CrateTypeRlib
}

func upperSnake(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, "-", "_"))
}
