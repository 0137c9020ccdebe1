package filter

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/gpufilter/gles"
)

const (
	pixelationWidthFactor = iota
	pixelationHeightFactor
	pixelationPixel
)

// Pixelation snaps samples to blocks of a given size in pixels.
type Pixelation struct {
	Basic
	pixel float32
}

func NewPixelation() *Pixelation {
	f := &Pixelation{pixel: 1}
	f.init(Source{Fragment: fragment(`uniform highp float imageWidthFactor;
uniform highp float imageHeightFactor;
uniform highp float pixel;
void main() {
	highp vec2 uv = vTextureCoord.xy;
	highp float dx = pixel * imageWidthFactor;
	highp float dy = pixel * imageHeightFactor;
	highp vec2 coord = vec2(dx * floor(uv.x / dx), dy * floor(uv.y / dy));
	fragColor = vec4(texture(sTexture, coord).rgb, 1.0);
}
`), Uniforms: []string{"imageWidthFactor", "imageHeightFactor", "pixel"}}, func(gl gles.Functions, u []gles.Uniform) {
		w, h := f.frameSize()
		wf, hf := float32(1), float32(1)
		if w > 0 && h > 0 {
			wf, hf = 1/float32(w), 1/float32(h)
		}
		gl.Uniform1f(u[pixelationWidthFactor], wf)
		gl.Uniform1f(u[pixelationHeightFactor], hf)
		gl.Uniform1f(u[pixelationPixel], f.pixel)
	})
	return f
}

// SetPixel sets the block size in pixels, at least 1.
func (f *Pixelation) SetPixel(v float32) {
	f.mu.Lock()
	f.pixel = clamp(v, 1, posInf)
	f.mu.Unlock()
}

const (
	vignetteCenter = iota
	vignetteColor
	vignetteStart
	vignetteEnd
)

// Vignette darkens towards the edges.
type Vignette struct {
	Basic
	center mgl32.Vec2
	color  mgl32.Vec3
	start  float32
	end    float32
}

func NewVignette() *Vignette {
	f := &Vignette{center: mgl32.Vec2{0.5, 0.5}, start: 0.2, end: 0.85}
	f.init(Source{Fragment: fragment(`uniform lowp vec2 vignetteCenter;
uniform lowp vec3 vignetteColor;
uniform highp float vignetteStart;
uniform highp float vignetteEnd;
void main() {
	lowp vec4 c = texture(sTexture, vTextureCoord);
	lowp float d = distance(vTextureCoord, vignetteCenter);
	lowp float percent = smoothstep(vignetteStart, vignetteEnd, d);
	fragColor = vec4(mix(c.rgb, vignetteColor, percent), c.a);
}
`), Uniforms: []string{"vignetteCenter", "vignetteColor", "vignetteStart", "vignetteEnd"}}, func(gl gles.Functions, u []gles.Uniform) {
		gl.Uniform2f(u[vignetteCenter], f.center.X(), f.center.Y())
		gl.Uniform3f(u[vignetteColor], f.color.X(), f.color.Y(), f.color.Z())
		gl.Uniform1f(u[vignetteStart], f.start)
		gl.Uniform1f(u[vignetteEnd], f.end)
	})
	return f
}

func (f *Vignette) SetCenter(c mgl32.Vec2) {
	f.mu.Lock()
	f.center = c
	f.mu.Unlock()
}

func (f *Vignette) SetColor(c mgl32.Vec3) {
	f.mu.Lock()
	f.color = c
	f.mu.Unlock()
}

// SetRange sets the distances from the centre where darkening starts and
// where it is complete.
func (f *Vignette) SetRange(start, end float32) {
	f.mu.Lock()
	f.start, f.end = start, end
	f.mu.Unlock()
}

const (
	halftoneWidth = iota
	halftoneAspectRatio
)

// Halftone renders luminance as a dot screen.
type Halftone struct {
	Basic
	fractionalWidth float32
}

func NewHalftone() *Halftone {
	f := &Halftone{fractionalWidth: 0.01}
	f.init(Source{Fragment: fragment(`uniform highp float fractionalWidthOfPixel;
uniform highp float aspectRatio;
const highp vec3 W = vec3(0.2125, 0.7154, 0.0721);
void main() {
	highp vec2 sampleDivisor = vec2(fractionalWidthOfPixel, fractionalWidthOfPixel / aspectRatio);
	highp vec2 samplePos = vTextureCoord - mod(vTextureCoord, sampleDivisor) + 0.5 * sampleDivisor;
	highp vec2 corrected = vec2(vTextureCoord.x, vTextureCoord.y * aspectRatio + 0.5 - 0.5 * aspectRatio);
	highp vec2 adjustedSamplePos = vec2(samplePos.x, samplePos.y * aspectRatio + 0.5 - 0.5 * aspectRatio);
	highp float distanceFromSamplePoint = distance(adjustedSamplePos, corrected);
	lowp vec3 sampledColor = texture(sTexture, samplePos).rgb;
	highp float dotScaling = 1.0 - dot(sampledColor, W);
	lowp float outsideDot = 1.0 - step(distanceFromSamplePoint, (fractionalWidthOfPixel * 0.5) * dotScaling);
	fragColor = vec4(vec3(outsideDot), 1.0);
}
`), Uniforms: []string{"fractionalWidthOfPixel", "aspectRatio"}}, func(gl gles.Functions, u []gles.Uniform) {
		aspect := float32(1)
		if w, h := f.frameSize(); w > 0 && h > 0 {
			aspect = float32(h) / float32(w)
		}
		gl.Uniform1f(u[halftoneWidth], f.fractionalWidth)
		gl.Uniform1f(u[halftoneAspectRatio], aspect)
	})
	return f
}

// SetFractionalWidth sets the dot pitch as a fraction of the frame width.
func (f *Halftone) SetFractionalWidth(v float32) {
	f.mu.Lock()
	f.fractionalWidth = clamp(v, 0.001, 1)
	f.mu.Unlock()
}

const (
	crosshatchSpacing = iota
	crosshatchLineWidth
)

// Crosshatch draws hatching whose density follows luminance.
type Crosshatch struct {
	Basic
	spacing   float32
	lineWidth float32
}

func NewCrosshatch() *Crosshatch {
	f := &Crosshatch{spacing: 0.03, lineWidth: 0.003}
	f.init(Source{Fragment: fragment(`uniform highp float crossHatchSpacing;
uniform highp float lineWidth;
const highp vec3 W = vec3(0.2125, 0.7154, 0.0721);
void main() {
	highp float luminance = dot(texture(sTexture, vTextureCoord).rgb, W);
	lowp vec4 color = vec4(1.0);
	highp float x = vTextureCoord.x;
	highp float y = vTextureCoord.y;
	if (luminance < 1.00 && mod(x + y, crossHatchSpacing) <= lineWidth) {
		color = vec4(0.0, 0.0, 0.0, 1.0);
	}
	if (luminance < 0.75 && mod(x - y, crossHatchSpacing) <= lineWidth) {
		color = vec4(0.0, 0.0, 0.0, 1.0);
	}
	if (luminance < 0.50 && mod(x + y - (crossHatchSpacing / 2.0), crossHatchSpacing) <= lineWidth) {
		color = vec4(0.0, 0.0, 0.0, 1.0);
	}
	if (luminance < 0.30 && mod(x - y - (crossHatchSpacing / 2.0), crossHatchSpacing) <= lineWidth) {
		color = vec4(0.0, 0.0, 0.0, 1.0);
	}
	fragColor = color;
}
`), Uniforms: []string{"crossHatchSpacing", "lineWidth"}}, func(gl gles.Functions, u []gles.Uniform) {
		spacing := f.spacing
		// never finer than one pixel
		if w, _ := f.frameSize(); w > 0 && spacing < 1/float32(w) {
			spacing = 1 / float32(w)
		}
		gl.Uniform1f(u[crosshatchSpacing], spacing)
		gl.Uniform1f(u[crosshatchLineWidth], f.lineWidth)
	})
	return f
}

func (f *Crosshatch) SetSpacing(v float32) {
	f.mu.Lock()
	f.spacing = v
	f.mu.Unlock()
}

func (f *Crosshatch) SetLineWidth(v float32) {
	f.mu.Lock()
	f.lineWidth = v
	f.mu.Unlock()
}
