package fs

import (
	"os"

	"minicargo/internal/core/domain"
)

// Clock reads modification times from the real filesystem.
type Clock struct{}

// NewClock creates a new Clock.
func NewClock() *Clock {
	return &Clock{}
}

// ModTime returns the modification time of path, or domain.InfinitePast if
// the path does not exist or cannot be stat-ed.
func (c *Clock) ModTime(path string) domain.Timestamp {
	info, err := os.Stat(path)
	if err != nil {
		return domain.InfinitePast
	}
	return domain.NewTimestamp(info.ModTime())
}
