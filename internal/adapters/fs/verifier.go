package fs

import (
	"os"

	"go.trai.ch/zerr"
)

// Verifier checks for file existence on the real filesystem, surfacing real
// stat errors (unlike Clock, which treats them as "infinite past").
type Verifier struct{}

// NewVerifier creates a new Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// Exists reports whether path exists, used by the job planner's
// build-script-overrides check.
func (v *Verifier) Exists(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, zerr.With(zerr.Wrap(err, "failed to stat path"), "path", path)
	}
	return true, nil
}
