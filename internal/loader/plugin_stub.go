//go:build !((linux || darwin || freebsd) && cgo)

package loader

import "errors"

var ErrUnsupported = errors.New("native extensions are not supported on this platform")

type stubOpener struct{}

// DefaultOpener on this platform rejects every library.
func DefaultOpener() Opener {
	return stubOpener{}
}

func (stubOpener) Open(path string) (Library, error) {
	return nil, ErrUnsupported
}
