package filter

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/gpufilter/gles"
)

const (
	blurTexelWidth = iota
	blurTexelHeight
	blurSize
)

var blurUniforms = []string{"texelWidthOffset", "texelHeightOffset", "blurSize"}

// gaussianVertex spreads nine sample coordinates along the blur step.
const gaussianVertex = `#version 300 es
in vec4 aPosition;
in vec4 aTextureCoord;
const lowp int GAUSSIAN_SAMPLES = 9;
uniform highp float texelWidthOffset;
uniform highp float texelHeightOffset;
uniform highp float blurSize;
out highp vec2 vTextureCoord;
out highp vec2 blurCoordinates[GAUSSIAN_SAMPLES];
void main() {
	gl_Position = aPosition;
	vTextureCoord = aTextureCoord.xy;
	highp vec2 singleStepOffset = vec2(texelHeightOffset, texelWidthOffset) * blurSize;
	for (lowp int i = 0; i < GAUSSIAN_SAMPLES; i++) {
		int multiplier = i - ((GAUSSIAN_SAMPLES - 1) / 2);
		blurCoordinates[i] = vTextureCoord.xy + float(multiplier) * singleStepOffset;
	}
}
`

// blur holds the texel step shared by the separable blurs.
type blur struct {
	Basic
	texelWidth  float32
	texelHeight float32
	size        float32
}

func (b *blur) initBlur(src Source, texel, size float32) {
	b.texelWidth, b.texelHeight, b.size = texel, texel, size
	src.Uniforms = blurUniforms
	b.init(src, func(gl gles.Functions, u []gles.Uniform) {
		gl.Uniform1f(u[blurTexelWidth], b.texelWidth)
		gl.Uniform1f(u[blurTexelHeight], b.texelHeight)
		gl.Uniform1f(u[blurSize], b.size)
	})
}

func (b *blur) SetTexelWidthOffset(v float32) {
	b.mu.Lock()
	b.texelWidth = v
	b.mu.Unlock()
}

func (b *blur) SetTexelHeightOffset(v float32) {
	b.mu.Lock()
	b.texelHeight = v
	b.mu.Unlock()
}

func (b *blur) SetBlurSize(v float32) {
	b.mu.Lock()
	b.size = v
	b.mu.Unlock()
}

// GaussianBlur is a nine-tap gaussian.
type GaussianBlur struct{ blur }

func NewGaussianBlur() *GaussianBlur {
	f := &GaussianBlur{}
	f.initBlur(Source{Vertex: gaussianVertex, Fragment: `#version 300 es
precision mediump float;
const lowp int GAUSSIAN_SAMPLES = 9;
in highp vec2 vTextureCoord;
in highp vec2 blurCoordinates[GAUSSIAN_SAMPLES];
uniform lowp sampler2D sTexture;
out vec4 fragColor;
void main() {
	lowp vec4 sum = vec4(0.0);
	sum += texture(sTexture, blurCoordinates[0]) * 0.05;
	sum += texture(sTexture, blurCoordinates[1]) * 0.09;
	sum += texture(sTexture, blurCoordinates[2]) * 0.12;
	sum += texture(sTexture, blurCoordinates[3]) * 0.15;
	sum += texture(sTexture, blurCoordinates[4]) * 0.18;
	sum += texture(sTexture, blurCoordinates[5]) * 0.15;
	sum += texture(sTexture, blurCoordinates[6]) * 0.12;
	sum += texture(sTexture, blurCoordinates[7]) * 0.09;
	sum += texture(sTexture, blurCoordinates[8]) * 0.05;
	fragColor = sum;
}
`}, 0.01, 0.2)
	return f
}

// Bilateral is a gaussian that down-weights samples far from the centre
// colour, keeping edges.
type Bilateral struct{ blur }

func NewBilateral() *Bilateral {
	f := &Bilateral{}
	f.initBlur(Source{Vertex: gaussianVertex, Fragment: `#version 300 es
precision mediump float;
const lowp int GAUSSIAN_SAMPLES = 9;
const mediump float distanceNormalizationFactor = 1.5;
const lowp float weights[GAUSSIAN_SAMPLES] = float[](0.05, 0.09, 0.12, 0.15, 0.18, 0.15, 0.12, 0.09, 0.05);
in highp vec2 vTextureCoord;
in highp vec2 blurCoordinates[GAUSSIAN_SAMPLES];
uniform lowp sampler2D sTexture;
out vec4 fragColor;
void main() {
	lowp vec4 centralColor = texture(sTexture, blurCoordinates[4]);
	lowp float gaussianWeightTotal = 0.18;
	lowp vec4 sum = centralColor * 0.18;
	for (lowp int i = 0; i < GAUSSIAN_SAMPLES; i++) {
		if (i == 4) {
			continue;
		}
		lowp vec4 sampleColor = texture(sTexture, blurCoordinates[i]);
		lowp float distanceFromCentralColor = min(distance(centralColor, sampleColor) * distanceNormalizationFactor, 1.0);
		lowp float gaussianWeight = weights[i] * (1.0 - distanceFromCentralColor);
		gaussianWeightTotal += gaussianWeight;
		sum += sampleColor * gaussianWeight;
	}
	fragColor = sum / gaussianWeightTotal;
}
`}, 0.004, 1)
	return f
}

// BoxBlur averages five taps along the texel step.
type BoxBlur struct{ blur }

func NewBoxBlur() *BoxBlur {
	f := &BoxBlur{}
	f.initBlur(Source{Vertex: `#version 300 es
in vec4 aPosition;
in vec4 aTextureCoord;
uniform highp float texelWidthOffset;
uniform highp float texelHeightOffset;
uniform highp float blurSize;
out highp vec2 vTextureCoord;
out highp vec2 oneStepLeft;
out highp vec2 twoStepsLeft;
out highp vec2 oneStepRight;
out highp vec2 twoStepsRight;
void main() {
	gl_Position = aPosition;
	vec2 firstOffset = vec2(1.5 * texelWidthOffset, 1.5 * texelHeightOffset) * blurSize;
	vec2 secondOffset = vec2(3.5 * texelWidthOffset, 3.5 * texelHeightOffset) * blurSize;
	vTextureCoord = aTextureCoord.xy;
	oneStepLeft = vTextureCoord - firstOffset;
	twoStepsLeft = vTextureCoord - secondOffset;
	oneStepRight = vTextureCoord + firstOffset;
	twoStepsRight = vTextureCoord + secondOffset;
}
`, Fragment: fragment(`in highp vec2 oneStepLeft;
in highp vec2 twoStepsLeft;
in highp vec2 oneStepRight;
in highp vec2 twoStepsRight;
void main() {
	lowp vec4 color = texture(sTexture, vTextureCoord) * 0.2;
	color += texture(sTexture, oneStepLeft) * 0.2;
	color += texture(sTexture, oneStepRight) * 0.2;
	color += texture(sTexture, twoStepsLeft) * 0.2;
	color += texture(sTexture, twoStepsRight) * 0.2;
	fragColor = color;
}
`)}, 0.003, 1)
	return f
}

const (
	zoomCenter = iota
	zoomSize
)

// ZoomBlur blurs radially towards a centre point.
type ZoomBlur struct {
	Basic
	center mgl32.Vec2
	size   float32
}

func NewZoomBlur() *ZoomBlur {
	f := &ZoomBlur{center: mgl32.Vec2{0.5, 0.5}, size: 1}
	f.init(Source{Fragment: fragment(`uniform highp vec2 blurCenter;
uniform highp float blurSize;
void main() {
	highp vec2 samplingOffset = 1.0 / 100.0 * (blurCenter - vTextureCoord) * blurSize;
	lowp vec4 c = texture(sTexture, vTextureCoord) * 0.18;
	c += texture(sTexture, vTextureCoord + samplingOffset) * 0.15;
	c += texture(sTexture, vTextureCoord + (2.0 * samplingOffset)) * 0.12;
	c += texture(sTexture, vTextureCoord + (3.0 * samplingOffset)) * 0.09;
	c += texture(sTexture, vTextureCoord + (4.0 * samplingOffset)) * 0.05;
	c += texture(sTexture, vTextureCoord - samplingOffset) * 0.15;
	c += texture(sTexture, vTextureCoord - (2.0 * samplingOffset)) * 0.12;
	c += texture(sTexture, vTextureCoord - (3.0 * samplingOffset)) * 0.09;
	c += texture(sTexture, vTextureCoord - (4.0 * samplingOffset)) * 0.05;
	fragColor = c;
}
`), Uniforms: []string{"blurCenter", "blurSize"}}, func(gl gles.Functions, u []gles.Uniform) {
		gl.Uniform2f(u[zoomCenter], f.center.X(), f.center.Y())
		gl.Uniform1f(u[zoomSize], f.size)
	})
	return f
}

func (f *ZoomBlur) SetCenter(c mgl32.Vec2) {
	f.mu.Lock()
	f.center = c
	f.mu.Unlock()
}

func (f *ZoomBlur) SetBlurSize(v float32) {
	f.mu.Lock()
	f.size = v
	f.mu.Unlock()
}

const (
	sharpenWidthFactor = iota
	sharpenHeightFactor
	sharpenSharpness
)

// Sharpen is a five-tap unsharp kernel sized in texels of the frame.
type Sharpen struct {
	Basic
	widthFactor  float32
	heightFactor float32
	sharpness    float32
}

func NewSharpen() *Sharpen {
	f := &Sharpen{widthFactor: 0.004, heightFactor: 0.004, sharpness: 1}
	f.init(Source{Vertex: `#version 300 es
in vec4 aPosition;
in vec4 aTextureCoord;
uniform float imageWidthFactor;
uniform float imageHeightFactor;
uniform float sharpness;
out highp vec2 vTextureCoord;
out highp vec2 leftCoord;
out highp vec2 rightCoord;
out highp vec2 topCoord;
out highp vec2 bottomCoord;
out float centerMultiplier;
out float edgeMultiplier;
void main() {
	gl_Position = aPosition;
	mediump vec2 widthStep = vec2(imageWidthFactor, 0.0);
	mediump vec2 heightStep = vec2(0.0, imageHeightFactor);
	vTextureCoord = aTextureCoord.xy;
	leftCoord = vTextureCoord - widthStep;
	rightCoord = vTextureCoord + widthStep;
	topCoord = vTextureCoord + heightStep;
	bottomCoord = vTextureCoord - heightStep;
	centerMultiplier = 1.0 + 4.0 * sharpness;
	edgeMultiplier = sharpness;
}
`, Fragment: `#version 300 es
precision highp float;
uniform lowp sampler2D sTexture;
in highp vec2 vTextureCoord;
in highp vec2 leftCoord;
in highp vec2 rightCoord;
in highp vec2 topCoord;
in highp vec2 bottomCoord;
in float centerMultiplier;
in float edgeMultiplier;
out vec4 fragColor;
void main() {
	mediump vec3 c = texture(sTexture, vTextureCoord).rgb;
	mediump vec3 left = texture(sTexture, leftCoord).rgb;
	mediump vec3 right = texture(sTexture, rightCoord).rgb;
	mediump vec3 top = texture(sTexture, topCoord).rgb;
	mediump vec3 bottom = texture(sTexture, bottomCoord).rgb;
	fragColor = vec4(c * centerMultiplier - (left + right + top + bottom) * edgeMultiplier, texture(sTexture, bottomCoord).w);
}
`, Uniforms: []string{"imageWidthFactor", "imageHeightFactor", "sharpness"}}, func(gl gles.Functions, u []gles.Uniform) {
		gl.Uniform1f(u[sharpenWidthFactor], f.widthFactor)
		gl.Uniform1f(u[sharpenHeightFactor], f.heightFactor)
		gl.Uniform1f(u[sharpenSharpness], f.sharpness)
	})
	return f
}

// SetFrameSize makes the kernel one texel wide.
func (f *Sharpen) SetFrameSize(width, height int) {
	f.Basic.SetFrameSize(width, height)
	if width <= 0 || height <= 0 {
		return
	}
	f.mu.Lock()
	f.widthFactor = 1 / float32(width)
	f.heightFactor = 1 / float32(height)
	f.mu.Unlock()
}

// SetSharpness sets the kernel strength, clamped to [-4, 4].
func (f *Sharpen) SetSharpness(v float32) {
	f.mu.Lock()
	f.sharpness = clamp(v, -4, 4)
	f.mu.Unlock()
}
