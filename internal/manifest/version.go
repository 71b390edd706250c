package manifest

import (
	"strconv"
	"strings"

	"go.trai.ch/zerr"
	"minicargo/internal/core/domain"
)

// parseVersion parses a manifest's dot-separated "MAJOR.MINOR.PATCH" version
// string. A missing version is treated as 0.0.0, which disables crate
// suffixing.
func parseVersion(s string) (domain.Version, error) {
	if s == "" {
		return domain.Version{}, nil
	}

	parts := strings.SplitN(s, ".", 3)
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return domain.Version{}, zerr.With(zerr.Wrap(err, "invalid version component"), "version", s)
		}
		nums[i] = n
	}

	return domain.Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}
