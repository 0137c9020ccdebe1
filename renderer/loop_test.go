package renderer

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/gpufilter/filter"
	"github.com/richinsley/gpufilter/framebuffer"
	"github.com/richinsley/gpufilter/gles"
	"github.com/richinsley/gpufilter/gles/glestest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource owns one texture and counts uploads.
type fakeSource struct {
	gl      gles.Functions
	tex     gles.Texture
	frames  chan struct{}
	updates int
	st      mgl32.Mat4
}

func newFakeSource() *fakeSource {
	return &fakeSource{st: mgl32.Scale3D(1, -1, 1)}
}

func (s *fakeSource) Attach(gl gles.Functions) error {
	s.gl = gl
	s.tex = gl.CreateTexture()
	return nil
}

func (s *fakeSource) Texture() gles.Texture { return s.tex }

func (s *fakeSource) Frames() <-chan struct{} { return s.frames }

func (s *fakeSource) TransformMatrix() mgl32.Mat4 { return s.st }

func (s *fakeSource) UpdateTexImage() error {
	s.updates++
	return nil
}

func (s *fakeSource) Release() {
	if s.tex != 0 {
		s.gl.DeleteTexture(s.tex)
		s.tex = 0
	}
}

func testLUT() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, 512, 32))
}

func newTestLoop(t *testing.T, width, height int) (*Loop, *glestest.GL, *fakeSource) {
	t.Helper()
	gl := glestest.New()
	src := newFakeSource()
	l := NewLoop(src)
	require.NoError(t, l.Create(gl))
	require.NoError(t, l.Resize(width, height))
	return l, gl, src
}

// targets returns "fb=N unit0=M" for every draw call in the log.
func targets(gl *glestest.GL) []string {
	var out []string
	for _, c := range gl.CallsMatching("DrawArrays") {
		out = append(out, c[strings.Index(c, "fb="):])
	}
	return out
}

func route(fb gles.Framebuffer, tex gles.Texture) string {
	return fmt.Sprintf("fb=%d unit0=%d", fb, tex)
}

func TestQueueRunsInOrder(t *testing.T) {
	var q commandQueue
	var got []int
	for i := 0; i < 3; i++ {
		q.push(func() { got = append(got, i) })
	}
	assert.Equal(t, 3, q.len())
	for _, cmd := range q.drain() {
		cmd()
	}
	assert.Equal(t, []int{0, 1, 2}, got)
	assert.Zero(t, q.len())
	assert.Empty(t, q.drain())
}

func TestQueuedEventsRunBeforeDraw(t *testing.T) {
	l, gl, _ := newTestLoop(t, 64, 32)
	defer l.Destroy()

	var order []string
	l.QueueEvent(func() {
		order = append(order, "first")
		assert.Empty(t, gl.CallsMatching("DrawArrays"))
	})
	l.QueueEvent(func() { order = append(order, "second") })
	gl.ResetCalls()
	require.NoError(t, l.DrawFrame())
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestDrawWithoutFilter(t *testing.T) {
	l, gl, src := newTestLoop(t, 64, 32)
	defer l.Destroy()

	gl.ResetCalls()
	require.NoError(t, l.DrawFrame())

	assert.Equal(t, []string{
		route(l.frame.Framebuffer(), src.Texture()),
		route(0, l.frame.Texture()),
	}, targets(gl))
	assert.Equal(t, gles.Framebuffer(0), gl.Bindings().Framebuffer)
}

func TestDrawWithFilter(t *testing.T) {
	l, gl, src := newTestLoop(t, 64, 32)
	defer l.Destroy()

	f, err := filter.New("sepia")
	require.NoError(t, err)
	l.SetActiveFilter(f)
	require.NoError(t, l.DrawFrame())

	c := l.chain.Load()
	assert.Same(t, f, c.Active())
	gl.ResetCalls()
	require.NoError(t, l.DrawFrame())
	assert.Equal(t, []string{
		route(c.offscreen.Framebuffer(), src.Texture()),
		route(l.frame.Framebuffer(), c.offscreen.Texture()),
		route(0, l.frame.Texture()),
	}, targets(gl))
}

func TestFilterSwapRestoresPlainPath(t *testing.T) {
	plain, plainGL, _ := newTestLoop(t, 64, 32)
	defer plain.Destroy()
	require.NoError(t, plain.DrawFrame())
	require.NoError(t, plain.DrawFrame())
	require.NoError(t, plain.DrawFrame())

	swapped, swappedGL, _ := newTestLoop(t, 64, 32)
	defer swapped.Destroy()
	require.NoError(t, swapped.DrawFrame())
	f, err := filter.New("invert")
	require.NoError(t, err)
	swapped.SetActiveFilter(f)
	require.NoError(t, swapped.DrawFrame())
	swapped.SetActiveFilter(nil)
	require.NoError(t, swapped.DrawFrame())

	// The swapped-out filter's objects are gone.
	assert.Equal(t, plainGL.LiveObjects(), swappedGL.LiveObjects())

	plainGL.ResetCalls()
	swappedGL.ResetCalls()
	require.NoError(t, plain.DrawFrame())
	require.NoError(t, swapped.DrawFrame())
	assert.Equal(t, plainGL.Calls, swappedGL.Calls)
}

func TestSwapReleasesFilterImage(t *testing.T) {
	l, _, _ := newTestLoop(t, 16, 16)
	defer l.Destroy()

	lut := filter.NewLookupTable(testLUT())
	l.SetActiveFilter(lut)
	require.NoError(t, l.DrawFrame())
	l.SetActiveFilter(nil)
	require.NoError(t, l.DrawFrame())

	require.ErrorIs(t, lut.Setup(glestest.New()), filter.ErrNoImage)
}

func TestFilterSetupFailureDropsFilter(t *testing.T) {
	l, gl, src := newTestLoop(t, 64, 32)
	defer l.Destroy()

	f, err := filter.New("grayscale")
	require.NoError(t, err)
	gl.FailLink = true
	l.SetActiveFilter(f)
	gl.ResetCalls()
	err = l.DrawFrame()
	require.ErrorIs(t, err, gles.ErrLink)

	assert.Nil(t, l.chain.Load().Active())
	assert.Equal(t, []string{
		route(l.frame.Framebuffer(), src.Texture()),
		route(0, l.frame.Texture()),
	}, targets(gl))

	gl.FailLink = false
	require.NoError(t, l.DrawFrame())
}

func TestFrameAvailableUpdatesOnce(t *testing.T) {
	l, gl, src := newTestLoop(t, 8, 8)
	defer l.Destroy()

	c := l.chain.Load()
	c.NotifyFrameAvailable()
	c.NotifyFrameAvailable()
	gl.ResetCalls()
	require.NoError(t, l.DrawFrame())
	require.NoError(t, l.DrawFrame())
	assert.Equal(t, 1, src.updates)
	assert.Equal(t, src.st, c.st)

	st := src.st
	assert.NotEmpty(t, gl.CallsMatching(fmt.Sprintf("UniformMatrix4fv(%d, %v)", 1, st[:])))
}

func TestFrameSignalsAreForwarded(t *testing.T) {
	gl := glestest.New()
	src := newFakeSource()
	src.frames = make(chan struct{}, 1)
	l := NewLoop(src)
	require.NoError(t, l.Create(gl))
	require.NoError(t, l.Resize(8, 8))
	defer l.Destroy()

	select {
	case <-l.Attached():
	default:
		t.Fatal("attached not closed after Create")
	}

	src.frames <- struct{}{}
	select {
	case <-l.redraw:
	case <-time.After(time.Second):
		t.Fatal("no render requested for frame")
	}
	require.NoError(t, l.DrawFrame())
	assert.Equal(t, 1, src.updates)
}

func TestResizeLimits(t *testing.T) {
	gl := glestest.New()
	gl.MaxTextureSize = 2
	gl.MaxRenderbufferSize = 2
	l := NewLoop(newFakeSource())
	require.NoError(t, l.Create(gl))
	defer l.Destroy()

	require.NoError(t, l.Resize(2, 2))
	require.NoError(t, l.DrawFrame())

	require.ErrorIs(t, l.Resize(3, 3), framebuffer.ErrSizeLimit)
}

func TestResizeProjection(t *testing.T) {
	l, gl, _ := newTestLoop(t, 200, 100)
	defer l.Destroy()

	c := l.chain.Load()
	assert.InDelta(t, 2, c.aspect, 1e-6)

	// A quad corner scaled by the aspect ratio lands on the viewport corner
	// at the near plane.
	v := c.MVP().Mul4x1(mgl32.Vec4{2, 1, 0, 1})
	assert.InDelta(t, 1, v[0]/v[3], 1e-5)
	assert.InDelta(t, 1, v[1]/v[3], 1e-5)
	assert.InDelta(t, -1, v[2]/v[3], 1e-5)

	l.SurfaceSizeChanged(100, 100)
	gl.ResetCalls()
	require.NoError(t, l.DrawFrame())
	assert.InDelta(t, 1, c.aspect, 1e-6)
	assert.Equal(t, 100, l.frame.Width())
	assert.Contains(t, gl.Calls, "Viewport(0, 0, 100, 100)")
	assert.Contains(t, gl.Calls, "Uniform1f(2, 1)")
}

func TestFollowSurface(t *testing.T) {
	l, _, _ := newTestLoop(t, 64, 32)
	defer l.Destroy()

	// Minimized windows report 0x0 and keep the last frame size.
	l.followSurface(0, 0)
	l.followSurface(0, 0)
	assert.Zero(t, l.events.len())

	l.followSurface(64, 32)
	assert.Zero(t, l.events.len())

	l.followSurface(80, 40)
	l.followSurface(80, 40)
	assert.Equal(t, 1, l.events.len())

	require.NoError(t, l.DrawFrame())
	assert.Equal(t, 80, l.frame.Width())
	assert.Equal(t, 40, l.frame.Height())

	l.followSurface(80, 40)
	assert.Zero(t, l.events.len())
	l.followSurface(64, 32)
	assert.Equal(t, 1, l.events.len())
}

func TestDestroy(t *testing.T) {
	l, gl, _ := newTestLoop(t, 32, 32)
	f, err := filter.New("toon")
	require.NoError(t, err)
	l.SetActiveFilter(f)
	require.NoError(t, l.DrawFrame())

	l.Destroy()
	assert.Equal(t, 0, gl.Live(""), "leaked: %v", gl.LiveObjects())
	l.Destroy()

	require.ErrorIs(t, l.Create(gl), ErrDestroyed)
	require.ErrorIs(t, l.Resize(8, 8), ErrDestroyed)
	gl.ResetCalls()
	require.NoError(t, l.DrawFrame())
	assert.Empty(t, gl.Calls)

	// Signals from other goroutines after Destroy are harmless.
	l.SetActiveFilter(nil)
	l.RequestRender()
}

func TestSnapshot(t *testing.T) {
	l, gl, _ := newTestLoop(t, 4, 2)
	defer l.Destroy()

	var (
		wg  sync.WaitGroup
		err error
		w   int
		h   int
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		img, serr := l.Snapshot(context.Background())
		err = serr
		if img != nil {
			w, h = img.Bounds().Dx(), img.Bounds().Dy()
		}
	}()
	require.Eventually(t, func() bool { return l.events.len() > 0 }, time.Second, time.Millisecond)
	require.NoError(t, l.DrawFrame())
	wg.Wait()

	require.NoError(t, err)
	assert.Equal(t, 4, w)
	assert.Equal(t, 2, h)
	assert.NotEmpty(t, gl.CallsMatching("ReadPixels"))
}

func TestSnapshotCancelled(t *testing.T) {
	l, _, _ := newTestLoop(t, 4, 2)
	defer l.Destroy()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Snapshot(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
