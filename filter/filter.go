// Package filter holds the shader programs that map an input texture onto the
// current render target, and the concrete effects built on them.
package filter

import (
	"errors"
	"sync"

	"github.com/richinsley/gpufilter/framebuffer"
	"github.com/richinsley/gpufilter/gles"
)

// ErrUnknownLocation is returned by Setup when the linked program lacks a
// required attribute or uniform. Like a compile error it is a configuration
// error and retrying cannot help.
var ErrUnknownLocation = errors.New("unknown attribute or uniform")

// Filter draws an input texture into the bound render target. Setup, Draw,
// SetFrameSize and Release are called on the render thread only.
type Filter interface {
	// Setup builds the GPU resources, releasing any previous ones.
	Setup(gl gles.Functions) error
	// SetFrameSize tells the filter the size of the target it draws into.
	SetFrameSize(width, height int)
	// Draw renders texture into the target the caller has enabled. target
	// may be nil for the default framebuffer.
	Draw(texture gles.Texture, target *framebuffer.Target)
	// Release deletes the GPU resources. It is idempotent.
	Release()
}

// ImageReleaser is implemented by filters that hold a decoded image for
// upload. ReleaseImage drops it once the filter is swapped out.
type ImageReleaser interface {
	ReleaseImage()
}

// drawHook sets the effect uniforms. It runs with the filter's parameter lock
// held.
type drawHook func(gl gles.Functions, u []gles.Uniform)

// Basic is a filter without effect parameters, and the building block of all
// other filters: effects embed it, give it their source and a draw hook, and
// guard their parameters with its lock.
type Basic struct {
	mu     sync.Mutex
	src    Source
	prog   Program
	onDraw drawHook
	width  int
	height int
}

// NewBasic returns a pass-through filter.
func NewBasic() *Basic {
	b := &Basic{}
	b.init(Source{Fragment: DefaultFragment}, nil)
	return b
}

func (b *Basic) init(src Source, onDraw drawHook) {
	b.src = src
	b.onDraw = onDraw
}

func (b *Basic) Setup(gl gles.Functions) error {
	return b.prog.Setup(gl, b.src)
}

func (b *Basic) SetFrameSize(width, height int) {
	b.mu.Lock()
	b.width, b.height = width, height
	b.mu.Unlock()
}

func (b *Basic) Draw(texture gles.Texture, target *framebuffer.Target) {
	b.prog.Draw(texture, func(gl gles.Functions) {
		if b.onDraw == nil {
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		b.onDraw(gl, b.prog.uniforms)
	})
}

func (b *Basic) Release() {
	b.prog.Release()
}

// frameSize returns the last size given to SetFrameSize. Callers hold mu.
func (b *Basic) frameSize() (int, int) {
	return b.width, b.height
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
