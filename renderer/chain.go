package renderer

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/gpufilter/filter"
	"github.com/richinsley/gpufilter/framebuffer"
	"github.com/richinsley/gpufilter/gles"
	"github.com/richinsley/gpufilter/source"
	"github.com/sirupsen/logrus"
)

// Camera and frustum of the identity pass. The quad sits on the near plane.
var (
	eye    = mgl32.Vec3{0, 0, 5}
	center = mgl32.Vec3{0, 0, 0}
	up     = mgl32.Vec3{0, 1, 0}
)

const (
	frustumNear = 5
	frustumFar  = 7
)

// Chain draws one frame: the source goes through the identity pass into an
// offscreen target, then the active filter, if any, draws that target into
// the output. Everything except NotifyFrameAvailable runs on the render
// thread.
type Chain struct {
	gl     gles.Functions
	source source.Source

	frameMu    sync.Mutex
	frameReady bool

	st     mgl32.Mat4
	model  mgl32.Mat4
	view   mgl32.Mat4
	proj   mgl32.Mat4
	aspect float32

	preview   identity
	offscreen framebuffer.Target

	active filter.Filter
	fresh  bool
}

func NewChain(src source.Source) *Chain {
	return &Chain{
		source: src,
		st:     mgl32.Ident4(),
		model:  mgl32.Ident4(),
		view:   mgl32.LookAtV(eye, center, up),
		proj:   mgl32.Ident4(),
		aspect: 1,
	}
}

// Create attaches the source and builds the identity pass. A filter set
// before Create is set up on the next draw.
func (c *Chain) Create(gl gles.Functions) error {
	c.gl = gl
	gl.ClearColor(0, 0, 0, 1)
	if err := c.source.Attach(gl); err != nil {
		return fmt.Errorf("failed to attach source: %w", err)
	}
	if err := c.preview.Setup(gl); err != nil {
		return fmt.Errorf("failed to set up identity pass: %w", err)
	}
	c.frameMu.Lock()
	c.frameReady = false
	c.frameMu.Unlock()
	if c.active != nil {
		c.fresh = true
	}
	return nil
}

// Resize reallocates the offscreen target and recomputes the projection.
func (c *Chain) Resize(width, height int) error {
	if err := c.offscreen.Setup(c.gl, width, height); err != nil {
		return err
	}
	if c.active != nil {
		c.active.SetFrameSize(width, height)
	}
	c.aspect = float32(width) / float32(height)
	c.proj = mgl32.Frustum(-c.aspect, c.aspect, -1, 1, frustumNear, frustumFar)
	c.model = mgl32.Ident4()
	return nil
}

// SetFilter releases the current filter, dropping any image it holds, and
// makes f active from the next draw. f may be nil.
func (c *Chain) SetFilter(f filter.Filter) {
	if c.active != nil {
		c.active.Release()
		if r, ok := c.active.(filter.ImageReleaser); ok {
			r.ReleaseImage()
		}
	}
	c.active = f
	c.fresh = true
}

// Active returns the current filter.
func (c *Chain) Active() filter.Filter { return c.active }

// NotifyFrameAvailable marks the source as updated. It may be called from any
// goroutine; the texture is updated on the next draw.
func (c *Chain) NotifyFrameAvailable() {
	c.frameMu.Lock()
	c.frameReady = true
	c.frameMu.Unlock()
}

// MVP returns projection * view * model.
func (c *Chain) MVP() mgl32.Mat4 {
	return c.proj.Mul4(c.view.Mul4(c.model))
}

// Draw renders one frame into out, which the caller has enabled. The error
// reports a filter that failed to set up; the frame is still drawn without
// it.
func (c *Chain) Draw(out *framebuffer.Target) error {
	c.frameMu.Lock()
	if c.frameReady {
		if err := c.source.UpdateTexImage(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Chain.Draw",
				"error":    err,
			}).Warn("source update failed")
		}
		c.st = c.source.TransformMatrix()
		c.frameReady = false
	}
	c.frameMu.Unlock()

	var setupErr error
	if c.fresh {
		c.fresh = false
		if c.active != nil {
			if err := c.active.Setup(c.gl); err != nil {
				logrus.WithFields(logrus.Fields{
					"function": "Chain.Draw",
					"error":    err,
				}).Error("filter setup failed, drawing without it")
				c.active.Release()
				c.active = nil
				setupErr = fmt.Errorf("failed to set up filter: %w", err)
			} else {
				c.active.SetFrameSize(out.Width(), out.Height())
			}
		}
	}

	if c.active != nil {
		c.offscreen.Enable()
		c.gl.Viewport(0, 0, c.offscreen.Width(), c.offscreen.Height())
	}
	c.gl.Clear(gles.COLOR_BUFFER_BIT)
	c.preview.Draw(c.source.Texture(), c.MVP(), c.st, c.aspect)

	if c.active != nil {
		out.Enable()
		c.gl.Viewport(0, 0, out.Width(), out.Height())
		c.gl.Clear(gles.COLOR_BUFFER_BIT)
		c.active.Draw(c.offscreen.Texture(), out)
	}
	return setupErr
}

// Release frees the GPU side of the chain and the source. The active filter
// stays selected and is set up again after the next Create.
func (c *Chain) Release() {
	if c.active != nil {
		c.active.Release()
	}
	c.preview.Release()
	c.offscreen.Release()
	c.source.Release()
}
