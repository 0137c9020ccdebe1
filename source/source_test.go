package source

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/gpufilter/gles"
	"github.com/richinsley/gpufilter/gles/glestest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailboxKeepsNewestAndCoalesces(t *testing.T) {
	m := newMailbox()
	assert.Nil(t, m.take())

	first := m.buffer(2, 2)
	second := m.buffer(2, 2)
	m.post(first)
	m.post(second)

	assert.Len(t, m.ready, 1)
	assert.Same(t, second, m.take())
	assert.Nil(t, m.take())
}

func TestMailboxRecyclesMatchingBuffer(t *testing.T) {
	m := newMailbox()
	f := m.buffer(4, 2)
	require.Len(t, f.Pix, 32)
	m.recycle(f)
	assert.Same(t, f, m.buffer(4, 2))

	m.recycle(f)
	other := m.buffer(8, 8)
	assert.NotSame(t, f, other)
	assert.Len(t, other.Pix, 256)
}

func TestStillUploadsOnce(t *testing.T) {
	gl := glestest.New()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{G: 255, A: 255})

	s := NewStill(img)
	require.ErrorIs(t, s.tex.upload(s.frame), ErrNotAttached)
	require.NoError(t, s.Attach(gl))
	assert.NotZero(t, s.Texture())
	select {
	case <-s.Frames():
	default:
		t.Fatal("attach did not signal the first frame")
	}

	require.NoError(t, s.UpdateTexImage())
	tex := gl.Texture(s.Texture())
	require.NotNil(t, tex)
	assert.Equal(t, 2, tex.Width)
	assert.Equal(t, []byte{255, 0, 0, 255, 0, 255, 0, 255}, tex.Data)
	assert.Zero(t, gl.UnitTexture(0))

	gl.ResetCalls()
	require.NoError(t, s.UpdateTexImage())
	assert.Empty(t, gl.CallsMatching("TexImage2D"))

	s.Release()
	s.Release()
	assert.Zero(t, gl.Live(""))
}

func TestTextureReusesStorage(t *testing.T) {
	gl := glestest.New()
	var tex texture
	tex.attach(gl)
	f := &Frame{Pix: make([]byte, 16), Width: 2, Height: 2}
	require.NoError(t, tex.upload(f))
	require.NoError(t, tex.upload(f))
	assert.Len(t, gl.CallsMatching("TexImage2D"), 1)
	assert.Len(t, gl.CallsMatching("TexSubImage2D"), 1)

	gl.PendingErrors = []gles.Enum{gles.INVALID_OPERATION}
	assert.Error(t, tex.upload(f))
	tex.release()
	assert.Zero(t, gl.Live(""))
}

func TestTransformFlipsVertically(t *testing.T) {
	top := flipVertical.Mul4x1(mgl32.Vec4{0.25, 1, 0, 1})
	assert.InDelta(t, 0.25, top.X(), 1e-6)
	assert.InDelta(t, 0, top.Y(), 1e-6)
	bottom := flipVertical.Mul4x1(mgl32.Vec4{0.25, 0, 0, 1})
	assert.InDelta(t, 1, bottom.Y(), 1e-6)
}

func TestNewFFmpegValidates(t *testing.T) {
	_, err := NewFFmpeg(FFmpegConfig{Width: 2, Height: 2})
	assert.Error(t, err)
	_, err = NewFFmpeg(FFmpegConfig{Input: "in.mp4"})
	assert.Error(t, err)

	s, err := NewFFmpeg(FFmpegConfig{Input: "in.mp4", Width: 640, Height: 360, Realtime: true, Loop: true})
	require.NoError(t, err)
	in, out := s.args()
	assert.Contains(t, in, "re")
	assert.Equal(t, "-1", in["stream_loop"])
	assert.Equal(t, "640x360", out["s"])
	assert.Equal(t, "rgba", out["pix_fmt"])
}

func TestFFmpegRunWaitsForAttach(t *testing.T) {
	s, err := NewFFmpeg(FFmpegConfig{Input: "in.mp4", Width: 2, Height: 2})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// never attached: Run must give up without starting ffmpeg
	require.ErrorIs(t, s.Run(ctx, make(chan struct{})), context.Canceled)
}
