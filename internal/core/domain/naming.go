package domain

import (
	"fmt"
	"path/filepath"
	"strconv"

	"go.trai.ch/zerr"
)

// execSuffix/dllSuffix mirror the platform file-extension conventions a real
// naming policy must branch on.
const (
	execSuffixUnix    = ""
	execSuffixWindows = ".exe"
	dllSuffixUnix     = ".so"
	dllSuffixWindows  = ".dll"
)

// ExecSuffix returns the platform executable suffix for goos ("windows" vs
// everything else).
func ExecSuffix(goos string) string {
	if goos == "windows" {
		return execSuffixWindows
	}
	return execSuffixUnix
}

// DLLSuffix returns the platform dynamic-library suffix for goos.
func DLLSuffix(goos string) string {
	if goos == "windows" {
		return dllSuffixWindows
	}
	return dllSuffixUnix
}

// CrateSuffix computes the deterministic "-MAJOR_MINOR_PATCH[_H<hex>]" tag
// appended to output filenames. activeFeatures and
// allFeatures are both already in their respective declaration orders;
// only the first 64 entries of allFeatures participate in the bitmask.
func CrateSuffix(v Version, activeFeatures, allFeatures []string) string {
	if v.IsZero() {
		return ""
	}

	suffix := fmt.Sprintf("-%d_%d_%d", v.Major, v.Minor, v.Patch)

	if len(activeFeatures) == 0 {
		return suffix
	}

	active := make(map[string]bool, len(activeFeatures))
	for _, f := range activeFeatures {
		active[f] = true
	}

	var mask uint64
	limit := len(allFeatures)
	if limit > 64 {
		limit = 64
	}
	for i := 0; i < limit; i++ {
		if active[allFeatures[i]] {
			mask |= 1 << uint(i)
		}
	}

	return suffix + "_H" + strconv.FormatUint(mask, 16)
}

// BuildScriptStem computes "build_<name><suffix>".
func BuildScriptStem(name string, v Version, activeFeatures, allFeatures []string) string {
	return "build_" + name + CrateSuffix(v, activeFeatures, allFeatures)
}

// OutputDir computes the per-unit output directory: the plain
// output dir normally, or "<output-dir>/host" when a cross target is set,
// emit-mmir is off, and the unit is built for the host.
func OutputDir(outputDir string, hasTarget, emitMMIR, isHost bool) string {
	if hasTarget && !emitMMIR && isHost {
		return filepath.Join(outputDir, "host")
	}
	return outputDir
}

// CrateOutputPath computes the artifact path for a (target-name, crate-type)
// pair in the given output directory. isProcMacro breaks the
// "unspecified crate-type" tie toward proc-macro vs rlib.
func CrateOutputPath(outputDir, targetName string, kind TargetKind, crateTypes []CrateType, isProcMacro bool, suffix, goos string) (string, error) {
	switch kind {
	case TargetBin, TargetTest, TargetExample:
		return filepath.Join(outputDir, targetName+suffix+ExecSuffix(goos)), nil
	case TargetLib:
		ct := firstCrateType(crateTypes, isProcMacro)
		return libOutputPath(outputDir, targetName, ct, suffix, goos)
	default:
		return "", zerr.With(ErrUnknownTarget, "target_kind", string(kind))
	}
}

func firstCrateType(crateTypes []CrateType, isProcMacro bool) CrateType {
	if len(crateTypes) > 0 {
		return crateTypes[0]
	}
	if isProcMacro {
		return CrateTypeProcMacro
	}
	return CrateTypeRlib
}

func libOutputPath(outputDir, targetName string, ct CrateType, suffix, goos string) (string, error) {
	base := "lib" + targetName + suffix
	switch ct {
	case CrateTypeProcMacro:
		return filepath.Join(outputDir, base+"-plugin"+ExecSuffix(goos)), nil
	case CrateTypeDylib:
		// Only honored when MINICARGO_DYLIB is set; callers
		// that haven't checked that env var should not reach this case and
		// should fall through to rlib instead.
		return filepath.Join(outputDir, base+DLLSuffix(goos)), nil
	case CrateTypeRlib:
		return filepath.Join(outputDir, base+".rlib"), nil
	default:
		return "", zerr.With(ErrUnknownTarget, "crate_type", string(ct))
	}
}

// BuildScriptExecutablePath computes "<host-output-dir>/<build-stem>_run<EXE>".
func BuildScriptExecutablePath(hostOutputDir, buildStem, goos string) string {
	return filepath.Join(hostOutputDir, buildStem+"_run"+ExecSuffix(goos))
}

// BuildScriptOutputPath computes "<host-output-dir>/<build-stem>.txt".
func BuildScriptOutputPath(hostOutputDir, buildStem string) string {
	return filepath.Join(hostOutputDir, buildStem+".txt")
}

// DebugLogPath computes the "<output>_dbg.txt" sibling of an artifact path,
// the per-unit debug log layout.
func DebugLogPath(outputPath string) string {
	return outputPath + "_dbg.txt"
}

// DepfilePath computes the "<output>.d" sibling of an artifact path.
func DepfilePath(outputPath string) string {
	return outputPath + ".d"
}
