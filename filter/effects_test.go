package filter

import (
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/richinsley/gpufilter/gles"
	"github.com/richinsley/gpufilter/gles/glestest"
	"github.com/richinsley/gpufilter/tonecurve"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToneCurveUploadsOnlyWhenDirty(t *testing.T) {
	gl := glestest.New()
	input := gl.CreateTexture()
	f, err := NewToneCurve(tonecurve.Identity())
	require.NoError(t, err)
	require.NoError(t, f.Setup(gl))

	gl.ResetCalls()
	f.Draw(input, nil)
	uploads := gl.CallsMatching("TexImage2D")
	require.Len(t, uploads, 1)
	assert.Contains(t, uploads[0], "unit=3")
	assert.Contains(t, uploads[0], "256x1, 1024 bytes")
	assert.Contains(t, gl.CallsMatching("Uniform1i"), "Uniform1i(1, 3)")
	assert.Zero(t, gl.UnitTexture(auxUnit))
	assert.Zero(t, gl.UnitTexture(0))

	gl.ResetCalls()
	f.Draw(input, nil)
	assert.Empty(t, gl.CallsMatching("TexImage2D"))

	require.NoError(t, f.SetCurves(tonecurve.Curves{
		Composite: []tonecurve.Point{{X: 0, Y: 0}, {X: 1, Y: 1}},
		Red:       []tonecurve.Point{{X: 0, Y: 1}, {X: 1, Y: 1}},
		Green:     []tonecurve.Point{{X: 0, Y: 0}, {X: 1, Y: 1}},
		Blue:      []tonecurve.Point{{X: 0, Y: 0}, {X: 1, Y: 1}},
	}))
	gl.ResetCalls()
	f.Draw(input, nil)
	require.Len(t, gl.CallsMatching("TexImage2D"), 1)

	uploaded := gl.Texture(f.texture)
	require.NotNil(t, uploaded)
	assert.Equal(t, f.Table().Pix[:], uploaded.Data)
	assert.Equal(t, byte(255), uploaded.Data[0])

	f.Release()
	assert.Equal(t, 1, gl.Live(""))
}

func TestToneCurveRejectsBadCurves(t *testing.T) {
	_, err := NewToneCurve(tonecurve.Curves{Composite: []tonecurve.Point{{X: 0.5, Y: 0.5}}})
	require.ErrorIs(t, err, tonecurve.ErrInsufficientPoints)

	f, err := NewToneCurve(tonecurve.Identity())
	require.NoError(t, err)
	before := f.Table()
	require.Error(t, f.SetCurves(tonecurve.Curves{}))
	assert.Same(t, before, f.Table())
}

func TestToneCurveSetupReuploads(t *testing.T) {
	gl := glestest.New()
	f, err := NewToneCurve(tonecurve.Identity())
	require.NoError(t, err)
	require.NoError(t, f.Setup(gl))
	f.Draw(0, nil)
	require.NoError(t, f.Setup(gl))

	gl.ResetCalls()
	f.Draw(0, nil)
	assert.Len(t, gl.CallsMatching("TexImage2D"), 1)
	f.Release()
	assert.Equal(t, 0, gl.Live(""))
}

func lutImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 512, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 512; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 32 * 8), G: uint8(y * 8), B: uint8(x / 32 * 16), A: 255})
		}
	}
	return img
}

func TestLookupTableUploadsImage(t *testing.T) {
	gl := glestest.New()
	bound := gl.CreateTexture()
	gl.BindTexture(gles.TEXTURE_2D, bound)

	img := lutImage()
	f := NewLookupTable(img)
	require.NoError(t, f.Setup(gl))
	assert.Equal(t, bound, gl.UnitTexture(0))

	uploads := gl.CallsMatching("TexImage2D")
	require.Len(t, uploads, 1)
	assert.Contains(t, uploads[0], "512x32, 65536 bytes")
	assert.Equal(t, img.Pix, gl.Texture(f.texture).Data)

	gl.ResetCalls()
	f.Draw(bound, nil)
	assert.Contains(t, gl.CallsMatching("Uniform1i"), "Uniform1i(1, 3)")
	assert.Empty(t, gl.CallsMatching("TexImage2D"))
	assert.Zero(t, gl.UnitTexture(auxUnit))
}

func TestLookupTableReleaseImage(t *testing.T) {
	gl := glestest.New()
	f := NewLookupTable(lutImage())
	require.NoError(t, f.Setup(gl))
	f.ReleaseImage()

	// the uploaded texture survives until the next setup
	assert.NotZero(t, f.texture)
	require.ErrorIs(t, f.Setup(gl), ErrNoImage)
	assert.Equal(t, 0, gl.Live(""), "leaked %v", gl.LiveObjects())
}

func TestToRGBANormalizesBounds(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 10, 12, 11))
	src.Set(10, 10, color.NRGBA{R: 255, A: 255})
	src.Set(11, 10, color.NRGBA{B: 255, A: 255})

	out := toRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 2, 1), out.Rect)
	assert.Equal(t, []byte{255, 0, 0, 255, 0, 0, 255, 255}, out.Pix)

	same := image.NewRGBA(image.Rect(0, 0, 4, 4))
	assert.Same(t, same, toRGBA(same))
}

// twoRows is opaque red on top of opaque blue.
func twoRows() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(0, 1, color.RGBA{B: 255, A: 255})
	return img
}

func TestOverlayUploadsFlippedCanvas(t *testing.T) {
	gl := glestest.New()
	f := NewOverlay(twoRows())
	f.SetFrameSize(4, 2)
	require.NoError(t, f.Setup(gl))

	gl.ResetCalls()
	f.Draw(0, nil)
	uploads := gl.CallsMatching("TexImage2D")
	require.Len(t, uploads, 1)
	assert.Contains(t, uploads[0], "4x2, 32 bytes")
	assert.Contains(t, gl.CallsMatching("Uniform1i"), "Uniform1i(1, 3)")

	data := gl.Texture(f.texture).Data
	require.Len(t, data, 32)
	// row 0 is the bottom of the frame
	assert.InDelta(t, 0, data[0], 1)
	assert.InDelta(t, 255, data[2], 1)
	assert.InDelta(t, 255, data[16], 1)
	assert.InDelta(t, 0, data[18], 1)

	gl.ResetCalls()
	f.SetFrameSize(4, 2)
	f.Draw(0, nil)
	assert.Empty(t, gl.CallsMatching("TexImage2D"))

	f.SetFrameSize(8, 4)
	f.Draw(0, nil)
	uploads = gl.CallsMatching("TexImage2D")
	require.Len(t, uploads, 1)
	assert.Contains(t, uploads[0], "8x4")

	f.Release()
	assert.Equal(t, 0, gl.Live(""))
}

func TestOverlayDefaultsTo720p(t *testing.T) {
	gl := glestest.New()
	f := NewOverlay(twoRows())
	require.NoError(t, f.Setup(gl))
	gl.ResetCalls()
	f.Draw(0, nil)
	uploads := gl.CallsMatching("TexImage2D")
	require.Len(t, uploads, 1)
	assert.Contains(t, uploads[0], "1280x720")
}

func TestOverlayReleaseImageKeepsTexture(t *testing.T) {
	gl := glestest.New()
	f := NewOverlay(twoRows())
	f.SetFrameSize(2, 2)
	require.NoError(t, f.Setup(gl))
	f.Draw(0, nil)
	f.ReleaseImage()

	gl.ResetCalls()
	f.SetFrameSize(4, 4)
	f.Draw(0, nil)
	assert.Empty(t, gl.CallsMatching("TexImage2D"))
	assert.Len(t, gl.CallsMatching("DrawArrays"), 1)
}

func TestGroupPingPong(t *testing.T) {
	gl := glestest.New()
	input := gl.CreateTexture()
	g := NewGroup(NewGrayscale(), NewInvert(), NewSepia())
	require.NoError(t, g.Setup(gl))
	g.SetFrameSize(64, 32)
	require.True(t, g.targets[0].Allocated())
	require.True(t, g.targets[1].Allocated())

	gl.ResetCalls()
	g.Draw(input, nil)
	draws := gl.CallsMatching("DrawArrays")
	require.Len(t, draws, 3)
	assert.Contains(t, draws[0], fmt.Sprintf("fb=%d unit0=%d", g.targets[0].Framebuffer(), input))
	assert.Contains(t, draws[1], fmt.Sprintf("fb=%d unit0=%d", g.targets[1].Framebuffer(), g.targets[0].Texture()))
	assert.Contains(t, draws[2], fmt.Sprintf("fb=0 unit0=%d", g.targets[1].Texture()))

	g.Release()
	assert.Equal(t, 1, gl.Live(""), "leaked %v", gl.LiveObjects())
}

func TestGroupSkipsMembersWithoutTargets(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	gl := glestest.New()
	input := gl.CreateTexture()
	g := NewGroup(NewGrayscale(), NewInvert(), NewSepia())
	require.NoError(t, g.Setup(gl))
	gl.Incomplete = true
	g.SetFrameSize(64, 32)
	require.False(t, g.targets[0].Allocated())
	require.False(t, g.targets[1].Allocated())

	hook.Reset()
	gl.ResetCalls()
	g.Draw(input, nil)
	g.Draw(input, nil)
	draws := gl.CallsMatching("DrawArrays")
	require.Len(t, draws, 2)
	assert.Contains(t, draws[0], fmt.Sprintf("fb=0 unit0=%d", input))

	skipped := 0
	for _, e := range hook.AllEntries() {
		if e.Message == "filter group member skipped without an intermediate target" {
			skipped++
			assert.Equal(t, logrus.WarnLevel, e.Level)
			assert.Equal(t, 0, e.Data["member"])
		}
	}
	assert.Equal(t, 1, skipped)

	// New targets reset the report.
	gl.Incomplete = false
	g.SetFrameSize(32, 32)
	require.True(t, g.targets[0].Allocated())
	hook.Reset()
	g.Draw(input, nil)
	assert.Empty(t, hook.AllEntries())
	g.Release()
}

func TestGroupSingleFilterNeedsNoTargets(t *testing.T) {
	gl := glestest.New()
	g := NewGroup(NewInvert())
	require.NoError(t, g.Setup(gl))
	g.SetFrameSize(64, 32)
	assert.Zero(t, gl.Live("framebuffer"))

	gl.ResetCalls()
	g.Draw(0, nil)
	assert.Len(t, gl.CallsMatching("DrawArrays"), 1)
}

func TestGroupSetupFailureReleasesMembers(t *testing.T) {
	gl := glestest.New()
	bad := &Basic{}
	bad.init(Source{Fragment: "#version 300 es\n#error broken\n"}, nil)
	g := NewGroup(NewInvert(), NewGrayscale(), bad)

	require.ErrorIs(t, g.Setup(gl), gles.ErrCompile)
	assert.Equal(t, 0, gl.Live(""), "leaked %v", gl.LiveObjects())
}

func TestGroupForwardsReleaseImage(t *testing.T) {
	lut := NewLookupTable(lutImage())
	g := NewGroup(NewInvert(), lut)
	g.ReleaseImage()
	assert.Nil(t, lut.img)
}
