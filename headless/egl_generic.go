//go:build !linux

package headless

import (
	"errors"

	"github.com/richinsley/gpufilter/graphics"
)

// ErrUnsupported is returned by New on platforms without EGL.
var ErrUnsupported = errors.New("headless rendering needs EGL, which is only supported on linux")

// Context is unavailable on this platform.
type Context struct {
	graphics.Context
}

func New(width, height int) (*Context, error) {
	return nil, ErrUnsupported
}
