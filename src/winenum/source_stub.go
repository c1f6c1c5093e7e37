//go:build !windows && !linux

package winenum

func newPlatformSource() (Source, error) {
	return nil, ErrUnsupported
}
