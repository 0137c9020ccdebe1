// Package renderer runs the filter chain on a dedicated render thread. Other
// goroutines talk to it only through queued commands and the frame flag.
package renderer

import (
	"context"
	"errors"
	"image"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/richinsley/gpufilter/filter"
	"github.com/richinsley/gpufilter/framebuffer"
	"github.com/richinsley/gpufilter/gles"
	"github.com/richinsley/gpufilter/graphics"
	"github.com/richinsley/gpufilter/source"
	"github.com/sirupsen/logrus"
)

// ErrDestroyed is returned by Create after Destroy.
var ErrDestroyed = errors.New("render loop destroyed")

// pollInterval bounds how long window events wait while no frame is drawn.
const pollInterval = 10 * time.Millisecond

// Loop owns the GPU lifecycle of a Chain. The chain draws into the frame
// target, which is then blitted to the default framebuffer.
type Loop struct {
	gl     gles.Functions
	source source.Source
	chain  atomic.Pointer[Chain]

	frame framebuffer.Target
	blit  *filter.Basic

	events commandQueue
	redraw chan struct{}

	attached   chan struct{}
	attachOnce sync.Once
	done       chan struct{}
	destroyed  bool

	width  int
	height int
	// last size handed to SurfaceSizeChanged by followSurface
	pendingWidth  int
	pendingHeight int
}

func NewLoop(src source.Source) *Loop {
	l := &Loop{
		source:   src,
		blit:     filter.NewBasic(),
		redraw:   make(chan struct{}, 1),
		attached: make(chan struct{}),
		done:     make(chan struct{}),
	}
	l.chain.Store(NewChain(src))
	return l
}

// Create sets up the chain and the blit pass, then starts forwarding source
// frame signals. Attached is closed once the source texture exists.
func (l *Loop) Create(gl gles.Functions) error {
	if l.destroyed {
		return ErrDestroyed
	}
	l.gl = gl
	c := l.chain.Load()
	if err := c.Create(gl); err != nil {
		return err
	}
	if err := l.blit.Setup(gl); err != nil {
		return err
	}
	l.attachOnce.Do(func() {
		close(l.attached)
		go l.watch(l.source.Frames())
	})
	logrus.WithFields(logrus.Fields{
		"function": "Loop.Create",
		"texture":  l.source.Texture(),
	}).Debug("render loop created")
	return nil
}

// watch forwards frame signals to the chain until Destroy. Signals after
// Destroy find no chain and are dropped.
func (l *Loop) watch(frames <-chan struct{}) {
	for {
		select {
		case <-frames:
			if c := l.chain.Load(); c != nil {
				c.NotifyFrameAvailable()
				l.RequestRender()
			}
		case <-l.done:
			return
		}
	}
}

// Attached is closed when the source texture has been created, so a decoder
// may start producing frames.
func (l *Loop) Attached() <-chan struct{} { return l.attached }

// Resize propagates a new surface size to the frame target, the chain and
// the active filter.
func (l *Loop) Resize(width, height int) error {
	c := l.chain.Load()
	if c == nil {
		return ErrDestroyed
	}
	if err := l.frame.Setup(l.gl, width, height); err != nil {
		return err
	}
	l.blit.SetFrameSize(width, height)
	if err := c.Resize(width, height); err != nil {
		return err
	}
	l.width, l.height = width, height
	logrus.WithFields(logrus.Fields{
		"function": "Loop.Resize",
		"width":    width,
		"height":   height,
	}).Debug("surface resized")
	return nil
}

// DrawFrame runs queued commands in order, draws the chain into the frame
// target and blits it to the default framebuffer.
func (l *Loop) DrawFrame() error {
	for _, cmd := range l.events.drain() {
		cmd()
	}
	c := l.chain.Load()
	if c == nil || !l.frame.Allocated() {
		return nil
	}

	l.frame.Enable()
	l.gl.Viewport(0, 0, l.frame.Width(), l.frame.Height())
	err := c.Draw(&l.frame)

	l.gl.BindFramebuffer(gles.FRAMEBUFFER, 0)
	l.gl.Viewport(0, 0, l.width, l.height)
	l.gl.Clear(gles.COLOR_BUFFER_BIT)
	l.blit.Draw(l.frame.Texture(), nil)
	return err
}

// Destroy releases the active filter, the source and every GPU object the
// loop owns. Later frame signals are ignored.
func (l *Loop) Destroy() {
	c := l.chain.Swap(nil)
	if c == nil {
		return
	}
	l.destroyed = true
	close(l.done)
	c.Release()
	l.blit.Release()
	l.frame.Release()
	if l.gl != nil {
		if err := gles.CheckError(l.gl); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Loop.Destroy",
				"error":    err,
			}).Warn("gl error during teardown")
		}
	}
}

// SetActiveFilter swaps the filter on the render thread before the next
// frame. f may be nil to draw the source unfiltered.
func (l *Loop) SetActiveFilter(f filter.Filter) {
	l.QueueEvent(func() {
		if c := l.chain.Load(); c != nil {
			c.SetFilter(f)
		}
	})
	l.RequestRender()
}

// QueueEvent runs fn on the render thread at the start of the next frame.
func (l *Loop) QueueEvent(fn func()) {
	l.events.push(fn)
}

// SurfaceSizeChanged schedules a resize for the next frame.
func (l *Loop) SurfaceSizeChanged(width, height int) {
	l.QueueEvent(func() {
		if err := l.Resize(width, height); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Loop.SurfaceSizeChanged",
				"width":    width,
				"height":   height,
				"error":    err,
			}).Warn("resize failed")
		}
	})
	l.RequestRender()
}

// RequestRender asks for a frame. Requests made before the frame is drawn
// coalesce.
func (l *Loop) RequestRender() {
	select {
	case l.redraw <- struct{}{}:
	default:
	}
}

// Snapshot returns the last composited frame. It must not be called from the
// render thread.
func (l *Loop) Snapshot(ctx context.Context) (*image.RGBA, error) {
	type result struct {
		img *image.RGBA
		err error
	}
	ch := make(chan result, 1)
	l.QueueEvent(func() {
		img, err := l.frame.ReadPixels()
		ch <- result{img, err}
	})
	l.RequestRender()
	select {
	case r := <-ch:
		return r.img, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// followSurface schedules a resize when the surface size differs from the
// current one. A minimized surface reports a zero size and keeps the last
// frame.
func (l *Loop) followSurface(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if width == l.width && height == l.height {
		l.pendingWidth, l.pendingHeight = 0, 0
		return
	}
	if width == l.pendingWidth && height == l.pendingHeight {
		return
	}
	l.pendingWidth, l.pendingHeight = width, height
	l.SurfaceSizeChanged(width, height)
}

// Run drives the loop on the calling goroutine, which it locks to its OS
// thread, until ctx is cancelled or the surface is closed.
func (l *Loop) Run(ctx context.Context, surface graphics.Context, gl gles.Functions) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	surface.MakeCurrent()
	defer surface.DetachCurrent()
	if err := l.Create(gl); err != nil {
		return err
	}
	defer l.Destroy()

	if width, height := surface.GetFramebufferSize(); width > 0 && height > 0 {
		if err := l.Resize(width, height); err != nil {
			return err
		}
	}
	l.RequestRender()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for !surface.ShouldClose() {
		select {
		case <-ctx.Done():
			return nil
		case <-l.redraw:
			l.followSurface(surface.GetFramebufferSize())
			if err := l.DrawFrame(); err != nil {
				logrus.WithFields(logrus.Fields{
					"function": "Loop.Run",
					"error":    err,
				}).Warn("frame drawn without filter")
			}
			surface.EndFrame()
		case <-ticker.C:
			surface.PollEvents()
			l.followSurface(surface.GetFramebufferSize())
		}
	}
	return nil
}
