package manifest

import (
	"strings"

	"minicargo/internal/core/domain"
)

// ParseScriptOutput interprets a build script's captured stdout. The engine
// itself treats that stdout as an opaque textual payload; parsing it into
// structured directives is the manifest package's concern. Each line of
// interest has the form
// "cargo:KEY=VALUE"; recognized keys populate the well-known ScriptOutput
// fields, everything else becomes downstream env as DEP_<pkg>_<KEY>.
func ParseScriptOutput(pkgName string, raw []byte) domain.ScriptOutput {
	out := domain.ScriptOutput{
		RustcEnv:      map[string]string{},
		DownstreamEnv: map[string]string{},
	}

	upperPkg := strings.ToUpper(strings.ReplaceAll(pkgName, "-", "_"))

	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, "cargo:")
		if !ok {
			continue
		}
		key, value, ok := strings.Cut(rest, "=")
		if !ok {
			continue
		}

		switch key {
		case "rustc-link-search":
			out.RustcLinkSearch = append(out.RustcLinkSearch, value)
		case "rustc-link-lib":
			out.RustcLinkLib = append(out.RustcLinkLib, value)
		case "rustc-cfg":
			out.RustcCfg = append(out.RustcCfg, value)
		case "rustc-flags":
			out.RustcFlags = append(out.RustcFlags, value)
		case "rustc-env":
			envKey, envVal, ok := strings.Cut(value, "=")
			if ok {
				out.RustcEnv[envKey] = envVal
			}
		default:
			out.DownstreamEnv["DEP_"+upperPkg+"_"+strings.ToUpper(strings.ReplaceAll(key, "-", "_"))] = value
		}
	}

	return out
}
