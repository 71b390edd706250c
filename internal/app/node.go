package app

import (
	"context"

	"github.com/grindlemire/graft"
	"minicargo/internal/adapters/fs"
	"minicargo/internal/adapters/spawn"
	"minicargo/internal/adapters/telemetry/progrock"
	"minicargo/internal/adapters/toolchain"
	"minicargo/internal/core/ports"
)

// NodeID is the unique identifier for the main App Graft node.
const NodeID graft.ID = "app.main"

func init() {
	graft.Register(graft.Node[*App]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fs.ClockNodeID,
			fs.DepfileReaderNodeID,
			fs.VerifierNodeID,
			fs.FileReaderNodeID,
			toolchain.NodeID,
			spawn.NodeID,
			progrock.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			clock, err := graft.Dep[ports.Clock](ctx)
			if err != nil {
				return nil, err
			}
			depfile, err := graft.Dep[ports.DepfileReader](ctx)
			if err != nil {
				return nil, err
			}
			verifier, err := graft.Dep[ports.Verifier](ctx)
			if err != nil {
				return nil, err
			}
			files, err := graft.Dep[ports.FileReader](ctx)
			if err != nil {
				return nil, err
			}
			tc, err := graft.Dep[*toolchain.Resolver](ctx)
			if err != nil {
				return nil, err
			}
			spawner, err := graft.Dep[ports.Spawner](ctx)
			if err != nil {
				return nil, err
			}
			telemetry, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}

			oracleDeps := OracleDeps{Clock: clock, Depfile: depfile, Verifier: verifier, FileReader: files}
			return New(oracleDeps, tc, spawner, telemetry), nil
		},
	})
}
