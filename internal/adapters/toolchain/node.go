package toolchain

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the toolchain Resolver Graft node.
const NodeID graft.ID = "adapter.toolchain"

func init() {
	graft.Register(graft.Node[*Resolver]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (*Resolver, error) {
			return New(), nil
		},
	})
}
