package ports

// Verifier defines the interface for checking whether a path exists on disk,
// surfacing real stat errors (unlike Clock, which swallows them as "infinite
// past"). Used by the job planner's override-mode check:
// build_script_overrides must point at a real file or ErrOverrideMissing is
// raised.
//
//go:generate go run go.uber.org/mock/mockgen -source=verifier.go -destination=mocks/mock_verifier.go -package=mocks
type Verifier interface {
	Exists(path string) (bool, error)
}
