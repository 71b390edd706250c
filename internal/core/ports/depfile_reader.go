package ports

import "minicargo/internal/core/domain"

// DepfileReader defines the interface for parsing make-style dependency
// files. A missing file yields an empty Depfile, not an
// error; only malformed content (ErrMalformedDepfile) is an error.
//
//go:generate go run go.uber.org/mock/mockgen -source=depfile_reader.go -destination=mocks/mock_depfile_reader.go -package=mocks
type DepfileReader interface {
	Read(path string) (domain.Depfile, error)
}
