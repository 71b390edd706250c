package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"minicargo/internal/core/ports"
)

const (
	ClockNodeID         graft.ID = "adapter.fs.clock"
	DepfileReaderNodeID graft.ID = "adapter.fs.depfile_reader"
	VerifierNodeID      graft.ID = "adapter.fs.verifier"
	FileReaderNodeID    graft.ID = "adapter.fs.file_reader"
)

func init() {
	graft.Register(graft.Node[ports.Clock]{
		ID:        ClockNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.Clock, error) {
			return NewClock(), nil
		},
	})

	graft.Register(graft.Node[ports.DepfileReader]{
		ID:        DepfileReaderNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.DepfileReader, error) {
			return NewDepfileReader(), nil
		},
	})

	graft.Register(graft.Node[ports.Verifier]{
		ID:        VerifierNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.Verifier, error) {
			return NewVerifier(), nil
		},
	})

	graft.Register(graft.Node[ports.FileReader]{
		ID:        FileReaderNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.FileReader, error) {
			return NewFileReader(), nil
		},
	})
}
