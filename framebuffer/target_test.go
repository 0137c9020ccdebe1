package framebuffer

import (
	"testing"

	"github.com/richinsley/gpufilter/gles"
	"github.com/richinsley/gpufilter/gles/glestest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupAllocatesAndRestoresBindings(t *testing.T) {
	gl := glestest.New()
	outerFB := gl.CreateFramebuffer()
	outerTex := gl.CreateTexture()
	gl.BindFramebuffer(gles.FRAMEBUFFER, outerFB)
	gl.BindTexture(gles.TEXTURE_2D, outerTex)
	before := gl.Bindings()

	var target Target
	require.NoError(t, target.Setup(gl, 320, 240))

	assert.Equal(t, before, gl.Bindings())
	assert.True(t, target.Allocated())
	assert.Equal(t, 320, target.Width())
	assert.Equal(t, 240, target.Height())
	assert.NotZero(t, target.Texture())
	assert.Equal(t, 2, gl.Live("framebuffer"))
	assert.Equal(t, 1, gl.Live("renderbuffer"))
	assert.Equal(t, 2, gl.Live("texture"))

	tex := gl.Texture(target.Texture())
	require.NotNil(t, tex)
	assert.Equal(t, 320, tex.Width)
	assert.Equal(t, 240, tex.Height)
}

func TestSetupSizeLimit(t *testing.T) {
	gl := glestest.New()
	gl.MaxTextureSize = 256
	gl.MaxRenderbufferSize = 512

	var target Target
	require.NoError(t, target.Setup(gl, 256, 256))
	target.Release()

	err := target.Setup(gl, 257, 16)
	require.ErrorIs(t, err, ErrSizeLimit)
	assert.Equal(t, 0, gl.Live(""))
	assert.Equal(t, 0, target.Width())

	gl.MaxTextureSize = 1024
	err = target.Setup(gl, 16, 513)
	require.ErrorIs(t, err, ErrSizeLimit)
	assert.Equal(t, 0, gl.Live(""))

	require.ErrorIs(t, target.Setup(gl, 0, 10), ErrSizeLimit)
}

func TestSetupIncompleteReleasesEverything(t *testing.T) {
	gl := glestest.New()
	gl.BindFramebuffer(gles.FRAMEBUFFER, 0)
	before := gl.Bindings()
	gl.Incomplete = true

	var target Target
	err := target.Setup(gl, 64, 64)
	require.ErrorIs(t, err, ErrIncomplete)

	assert.Equal(t, 0, gl.Live(""), "leaked: %v", gl.LiveObjects())
	assert.False(t, target.Allocated())
	assert.Zero(t, target.Texture())
	assert.Zero(t, target.Width())
	assert.Equal(t, before, gl.Bindings())

	gl.Incomplete = false
	require.NoError(t, target.Setup(gl, 64, 64))
	assert.Equal(t, 3, gl.Live(""))
}

func TestResizeReplacesAllocation(t *testing.T) {
	gl := glestest.New()
	var target Target
	require.NoError(t, target.Setup(gl, 100, 100))
	first := target.Texture()

	require.NoError(t, target.Setup(gl, 200, 50))
	assert.NotEqual(t, first, target.Texture())
	assert.Nil(t, gl.Texture(first))
	assert.Equal(t, 3, gl.Live(""))
	assert.Equal(t, 200, target.Width())
	assert.Equal(t, 50, target.Height())
}

func TestReleaseIsIdempotent(t *testing.T) {
	gl := glestest.New()
	var target Target
	target.Release()

	require.NoError(t, target.Setup(gl, 8, 8))
	target.Release()
	calls := len(gl.Calls)
	target.Release()

	assert.Equal(t, calls, len(gl.Calls))
	assert.Equal(t, 0, gl.Live(""))
	assert.Zero(t, target.Framebuffer())
}

func TestEnableBindsFramebuffer(t *testing.T) {
	gl := glestest.New()
	var target Target
	target.Enable()
	require.NoError(t, target.Setup(gl, 8, 8))

	target.Enable()
	assert.Equal(t, target.Framebuffer(), gl.Bindings().Framebuffer)
}

func TestReadPixelsFlipsRows(t *testing.T) {
	gl := glestest.New()
	var target Target
	_, err := target.ReadPixels()
	require.ErrorIs(t, err, ErrNotAllocated)

	require.NoError(t, target.Setup(gl, 1, 2))
	// bottom row red, top row blue in GL order
	gl.Texture(target.Texture()).Data = []byte{255, 0, 0, 255, 0, 0, 255, 255}

	img, err := target.ReadPixels()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 255, 255}, img.Pix[0:4])
	assert.Equal(t, []byte{255, 0, 0, 255}, img.Pix[4:8])
	assert.Zero(t, gl.Bindings().Framebuffer)
}
