package spawn

import (
	"context"

	"github.com/grindlemire/graft"
	"minicargo/internal/adapters/logger"
	"minicargo/internal/core/ports"
)

// NodeID is the unique identifier for the Spawner adapter Graft node.
const NodeID graft.ID = "adapter.spawn"

func init() {
	graft.Register(graft.Node[ports.Spawner]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.Spawner, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(log), nil
		},
	})
}
