package fs

import (
	"os"

	"go.trai.ch/zerr"
)

// FileReader reads raw file bytes from the real filesystem.
type FileReader struct{}

// NewFileReader creates a new FileReader.
func NewFileReader() *FileReader {
	return &FileReader{}
}

// Read returns path's raw contents.
func (r *FileReader) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the planner's own naming policy
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read file"), "path", path)
	}
	return data, nil
}
