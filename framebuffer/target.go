// Package framebuffer manages off-screen render targets: a colour texture and
// a depth renderbuffer attached to one framebuffer object.
package framebuffer

import (
	"errors"
	"fmt"
	"image"

	"github.com/richinsley/gpufilter/gles"
	"github.com/sirupsen/logrus"
)

var (
	// ErrSizeLimit is returned when a requested size exceeds the device's
	// texture or renderbuffer limit. Nothing is allocated in that case.
	ErrSizeLimit = errors.New("framebuffer size exceeds device limit")
	// ErrIncomplete is returned when the driver rejects the attachments.
	ErrIncomplete = errors.New("framebuffer incomplete")
	// ErrNotAllocated is returned by ReadPixels before a successful Setup.
	ErrNotAllocated = errors.New("framebuffer not allocated")
)

// Target is an off-screen render destination. Its handles are either all
// allocated or all zero. The zero value is an empty target.
type Target struct {
	gl           gles.Functions
	width        int
	height       int
	framebuffer  gles.Framebuffer
	renderbuffer gles.Renderbuffer
	texture      gles.Texture
}

// Setup allocates the target at the given size, replacing any previous
// allocation. The caller's framebuffer, renderbuffer and texture bindings are
// the same after Setup returns, whether it succeeds or not.
func (t *Target) Setup(gl gles.Functions, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: invalid size %dx%d", ErrSizeLimit, width, height)
	}
	if limit := gl.GetInteger(gles.MAX_TEXTURE_SIZE); width > limit || height > limit {
		return fmt.Errorf("%w: %dx%d, max texture size %d", ErrSizeLimit, width, height, limit)
	}
	if limit := gl.GetInteger(gles.MAX_RENDERBUFFER_SIZE); width > limit || height > limit {
		return fmt.Errorf("%w: %dx%d, max renderbuffer size %d", ErrSizeLimit, width, height, limit)
	}

	saved := gles.SaveBindings(gl)
	defer saved.Restore(gl)

	t.Release()
	t.gl = gl

	t.framebuffer = gl.CreateFramebuffer()
	gl.BindFramebuffer(gles.FRAMEBUFFER, t.framebuffer)

	t.renderbuffer = gl.CreateRenderbuffer()
	gl.BindRenderbuffer(gles.RENDERBUFFER, t.renderbuffer)
	gl.RenderbufferStorage(gles.RENDERBUFFER, gles.DEPTH_COMPONENT16, width, height)
	gl.FramebufferRenderbuffer(gles.FRAMEBUFFER, gles.DEPTH_ATTACHMENT, gles.RENDERBUFFER, t.renderbuffer)

	t.texture = gl.CreateTexture()
	gl.BindTexture(gles.TEXTURE_2D, t.texture)
	gles.SetupSampler(gl, gles.TEXTURE_2D, gles.LINEAR, gles.NEAREST)
	gl.TexImage2D(gles.TEXTURE_2D, 0, gles.RGBA, width, height, gles.RGBA, gles.UNSIGNED_BYTE, nil)
	gl.FramebufferTexture2D(gles.FRAMEBUFFER, gles.COLOR_ATTACHMENT0, gles.TEXTURE_2D, t.texture, 0)

	if status := gl.CheckFramebufferStatus(gles.FRAMEBUFFER); status != gles.FRAMEBUFFER_COMPLETE {
		t.Release()
		return fmt.Errorf("%w: status 0x%x", ErrIncomplete, uint32(status))
	}
	t.width, t.height = width, height

	logrus.WithFields(logrus.Fields{
		"function":    "Target.Setup",
		"width":       width,
		"height":      height,
		"framebuffer": t.framebuffer,
	}).Debug("framebuffer allocated")
	return nil
}

// Enable makes the target the current draw destination.
func (t *Target) Enable() {
	if t.gl == nil {
		return
	}
	t.gl.BindFramebuffer(gles.FRAMEBUFFER, t.framebuffer)
}

// Release deletes all handles. It is a no-op on an empty target.
func (t *Target) Release() {
	if t.gl == nil {
		return
	}
	if t.texture != 0 {
		t.gl.DeleteTexture(t.texture)
		t.texture = 0
	}
	if t.renderbuffer != 0 {
		t.gl.DeleteRenderbuffer(t.renderbuffer)
		t.renderbuffer = 0
	}
	if t.framebuffer != 0 {
		t.gl.DeleteFramebuffer(t.framebuffer)
		t.framebuffer = 0
	}
	t.width, t.height = 0, 0
}

// Allocated reports whether the target holds GPU objects.
func (t *Target) Allocated() bool { return t.framebuffer != 0 }

func (t *Target) Texture() gles.Texture { return t.texture }

func (t *Target) Framebuffer() gles.Framebuffer { return t.framebuffer }

func (t *Target) Width() int { return t.width }

func (t *Target) Height() int { return t.height }

// ReadPixels copies the colour attachment into an image, top row first.
func (t *Target) ReadPixels() (*image.RGBA, error) {
	if !t.Allocated() {
		return nil, ErrNotAllocated
	}
	saved := gles.Framebuffer(t.gl.GetInteger(gles.FRAMEBUFFER_BINDING))
	defer t.gl.BindFramebuffer(gles.FRAMEBUFFER, saved)

	t.gl.BindFramebuffer(gles.FRAMEBUFFER, t.framebuffer)
	buf := make([]byte, t.width*t.height*4)
	t.gl.ReadPixels(buf, 0, 0, t.width, t.height, gles.RGBA, gles.UNSIGNED_BYTE)
	if err := gles.CheckError(t.gl); err != nil {
		return nil, fmt.Errorf("failed to read framebuffer: %w", err)
	}

	// GL rows start at the bottom.
	img := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	stride := t.width * 4
	for y := 0; y < t.height; y++ {
		src := buf[(t.height-1-y)*stride : (t.height-y)*stride]
		copy(img.Pix[y*img.Stride:], src)
	}
	return img, nil
}
