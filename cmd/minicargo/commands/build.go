package commands

import (
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
	"minicargo/internal/app"
	"minicargo/internal/core/domain"
	"minicargo/internal/core/ports"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	var (
		outputDir            string
		targetName           string
		features             []string
		buildScriptOverrides string
		mode                 string
		parallelism          int
		dryRun               bool
		emitMMIR             bool
		enableDebug          bool
	)

	cmd := &cobra.Command{
		Use:   "build [manifest]",
		Short: "Build the package graph rooted at manifest (default: minicargo.toml)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifestPath := "minicargo.toml"
			if len(args) == 1 {
				manifestPath = args[0]
			}

			buildMode, err := parseMode(mode)
			if err != nil {
				return err
			}

			req := app.Request{
				ManifestPath:     manifestPath,
				Features:         features,
				DylibEnabled:     os.Getenv("MINICARGO_DYLIB") != "",
				CompilerOverride: os.Getenv("MRUSTC_PATH"),
				Parallelism:      parallelism,
				DryRun:           dryRun,
				Options: ports.BuildOptions{
					OutputDir:            outputDir,
					TargetName:           targetName,
					EmitMMIR:             emitMMIR,
					EnableDebug:          enableDebug,
					BuildScriptOverrides: buildScriptOverrides,
					Mode:                 buildMode,
					IgnoreToolStaleness:  os.Getenv("MINICARGO_IGNTOOLS") != "",
				},
			}

			return c.app.Build(cmd.Context(), req)
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", "target", "directory for build outputs")
	cmd.Flags().StringVar(&targetName, "target", "", "cross-compilation target triple (default: host)")
	cmd.Flags().StringSliceVar(&features, "features", nil, "comma-separated feature list to activate on the root package")
	cmd.Flags().StringVar(&buildScriptOverrides, "build-script-overrides", "", "directory of pre-recorded build-script output files")
	cmd.Flags().StringVar(&mode, "mode", "normal", "build mode: normal, test, or examples")
	cmd.Flags().IntVarP(&parallelism, "jobs", "j", 0, "maximum number of jobs to run in parallel (default: NumCPU)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the planned job list without running anything")
	cmd.Flags().BoolVar(&emitMMIR, "emit-mmir", false, "emit MMIR instead of native code")
	cmd.Flags().BoolVarP(&enableDebug, "debug", "g", false, "enable debug info")

	return cmd
}

func parseMode(mode string) (domain.BuildMode, error) {
	switch domain.BuildMode(mode) {
	case domain.ModeNormal, domain.ModeTest, domain.ModeExamples:
		return domain.BuildMode(mode), nil
	default:
		return "", zerr.With(zerr.New("unknown build mode"), "mode", mode)
	}
}
