//go:build !darwin

package pointer

// newQuartz returns an error on non-macOS platforms.
func newQuartz() (Device, error) {
	return nil, ErrUnsupportedBackend
}
