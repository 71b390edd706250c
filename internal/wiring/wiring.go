// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "minicargo/internal/adapters/fs"
	_ "minicargo/internal/adapters/logger"
	_ "minicargo/internal/adapters/spawn"
	_ "minicargo/internal/adapters/telemetry/progrock"
	_ "minicargo/internal/adapters/toolchain"
	// Register app nodes.
	_ "minicargo/internal/app"
)
