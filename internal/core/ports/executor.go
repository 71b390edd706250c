// Package ports defines the core interfaces the build planner and scheduler
// consume; concrete implementations live under internal/adapters.
package ports

import (
	"context"

	"minicargo/internal/core/domain"
)

// Spawner defines the interface for running a single job's command. It
// returns true iff the child exited with
// status zero; it never returns an error for a non-zero exit — the caller
// (the scheduler) is responsible for turning that into a failed job.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_spawner.go -package=mocks
type Spawner interface {
	Spawn(ctx context.Context, spawn domain.SpawnSpec) (bool, error)
}
