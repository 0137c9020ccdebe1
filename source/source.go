// Package source provides the video textures the renderer samples: a decoder
// writes frames from its own goroutine, and the render thread picks up the
// newest one on UpdateTexImage.
package source

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/gpufilter/gles"
)

// ErrNotAttached is returned by UpdateTexImage before Attach.
var ErrNotAttached = errors.New("source not attached to a context")

// Source is a texture fed by a decoder running off the render thread.
type Source interface {
	// Attach creates the texture on the render thread. Decoding may start
	// only after Attach returns.
	Attach(gl gles.Functions) error
	Texture() gles.Texture
	// Frames signals that a new frame is ready. Signals coalesce.
	Frames() <-chan struct{}
	// UpdateTexImage uploads the newest frame, if any, on the render thread.
	UpdateTexImage() error
	// TransformMatrix maps quad texture coordinates to texture coordinates
	// of the last uploaded frame.
	TransformMatrix() mgl32.Mat4
	Release()
}

// flipVertical maps top-row-first frames onto the bottom-up quad.
var flipVertical = mgl32.Translate3D(0, 1, 0).Mul4(mgl32.Scale3D(1, -1, 1))

// texture is the GPU side shared by all sources.
type texture struct {
	gl     gles.Functions
	name   gles.Texture
	width  int
	height int
}

func (t *texture) attach(gl gles.Functions) {
	t.release()
	t.gl = gl
	saved := gles.Texture(gl.GetInteger(gles.TEXTURE_BINDING_2D))
	t.name = gl.CreateTexture()
	gl.BindTexture(gles.TEXTURE_2D, t.name)
	gles.SetupSampler(gl, gles.TEXTURE_2D, gles.LINEAR, gles.NEAREST)
	gl.BindTexture(gles.TEXTURE_2D, saved)
}

// upload replaces the texture contents, reallocating storage only when the
// frame size changes.
func (t *texture) upload(f *Frame) error {
	if t.name == 0 {
		return ErrNotAttached
	}
	gl := t.gl
	saved := gles.Texture(gl.GetInteger(gles.TEXTURE_BINDING_2D))
	gl.BindTexture(gles.TEXTURE_2D, t.name)
	if f.Width != t.width || f.Height != t.height {
		gl.TexImage2D(gles.TEXTURE_2D, 0, gles.RGBA, f.Width, f.Height, gles.RGBA, gles.UNSIGNED_BYTE, f.Pix)
		t.width, t.height = f.Width, f.Height
	} else {
		gl.TexSubImage2D(gles.TEXTURE_2D, 0, 0, 0, f.Width, f.Height, gles.RGBA, gles.UNSIGNED_BYTE, f.Pix)
	}
	gl.BindTexture(gles.TEXTURE_2D, saved)
	return gles.CheckError(gl)
}

func (t *texture) release() {
	if t.gl != nil && t.name != 0 {
		t.gl.DeleteTexture(t.name)
	}
	t.name = 0
	t.width, t.height = 0, 0
}
