package ports

import "minicargo/internal/core/domain"

// Clock defines the interface for reading modification times, the
// staleness oracle's timestamp source. Absence of a path is a value
// (domain.InfinitePast), not an error.
//
//go:generate go run go.uber.org/mock/mockgen -source=clock.go -destination=mocks/mock_clock.go -package=mocks
type Clock interface {
	// ModTime returns the modification time of path, or domain.InfinitePast
	// if the path does not exist or cannot be stat-ed.
	ModTime(path string) domain.Timestamp
}
