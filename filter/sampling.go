package filter

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/gpufilter/gles"
)

// Neighbour order of the offsets passed to 3x3 sampling shaders.
const (
	neighbourLeft = iota
	neighbourRight
	neighbourTop
	neighbourBottom
	neighbourTopLeft
	neighbourTopRight
	neighbourBottomLeft
	neighbourBottomRight
	neighbourCount
)

// threeByHeader declares the neighbour offsets and helpers to sample them.
const threeByHeader = `uniform highp vec2 uOffsets[8];
const highp vec3 W = vec3(0.2125, 0.7154, 0.0721);
lowp vec3 neighbour(int i) {
	return texture(sTexture, vTextureCoord + uOffsets[i]).rgb;
}
lowp float intensity(int i) {
	return dot(neighbour(i), W);
}
lowp float red(int i) {
	return texture(sTexture, vTextureCoord + uOffsets[i]).r;
}
`

// threeBySampling is the base of effects reading the 3x3 neighbourhood of
// each texel. The neighbour offsets are in texture coordinates and are
// recomputed whenever the frame size or line size changes.
type threeBySampling struct {
	Basic
	lineSize float32
	offsets  [neighbourCount]mgl32.Vec2
	flat     []float32
}

// initThreeBy registers body with the offsets uniform first, then the
// effect's own uniforms, which hook receives.
func (t *threeBySampling) initThreeBy(body string, uniforms []string, hook drawHook) {
	t.lineSize = 1
	t.flat = make([]float32, 0, neighbourCount*2)
	t.computeOffsets()
	t.init(Source{
		Fragment: fragment(threeByHeader + body),
		Uniforms: append([]string{"uOffsets"}, uniforms...),
	}, func(gl gles.Functions, u []gles.Uniform) {
		gl.Uniform2fv(u[0], t.flat)
		if hook != nil {
			hook(gl, u[1:])
		}
	})
}

// computeOffsets refreshes the neighbour table. Callers hold mu.
func (t *threeBySampling) computeOffsets() {
	w, h := t.frameSize()
	var texel mgl32.Vec2
	if w > 0 && h > 0 {
		texel = mgl32.Vec2{t.lineSize / float32(w), t.lineSize / float32(h)}
	}
	tw, th := texel.X(), texel.Y()
	t.offsets = [neighbourCount]mgl32.Vec2{
		neighbourLeft:        {-tw, 0},
		neighbourRight:       {tw, 0},
		neighbourTop:         {0, -th},
		neighbourBottom:      {0, th},
		neighbourTopLeft:     {-tw, -th},
		neighbourTopRight:    {tw, -th},
		neighbourBottomLeft:  {-tw, th},
		neighbourBottomRight: {tw, th},
	}
	t.flat = t.flat[:0]
	for _, o := range t.offsets {
		t.flat = append(t.flat, o.X(), o.Y())
	}
}

func (t *threeBySampling) SetFrameSize(width, height int) {
	t.mu.Lock()
	t.width, t.height = width, height
	t.computeOffsets()
	t.mu.Unlock()
}

// SetLineSize sets the neighbour distance in texels.
func (t *threeBySampling) SetLineSize(v float32) {
	t.mu.Lock()
	t.lineSize = v
	t.computeOffsets()
	t.mu.Unlock()
}

// Offsets returns the current neighbour offsets.
func (t *threeBySampling) Offsets() [8]mgl32.Vec2 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.offsets
}

// sobelBody computes the gradient magnitude mag of the header helper named
// by sample, either intensity or red.
func sobelBody(sample string) string {
	return strings.ReplaceAll(sobelTemplate, "sample(", sample+"(")
}

const sobelTemplate = `	lowp float topLeft = sample(4);
	lowp float topRight = sample(5);
	lowp float bottomLeft = sample(6);
	lowp float bottomRight = sample(7);
	lowp float left = sample(0);
	lowp float right = sample(1);
	lowp float top = sample(2);
	lowp float bottom = sample(3);
	lowp float h = -topLeft - 2.0 * top - topRight + bottomLeft + 2.0 * bottom + bottomRight;
	lowp float v = -bottomLeft - 2.0 * left - topLeft + bottomRight + 2.0 * right + topRight;
	lowp float mag = length(vec2(h, v));
`

const (
	toonThreshold = iota
	toonQuantizationLevels
)

// Toon posterizes colours and draws dark Sobel edges found in the red
// channel.
type Toon struct {
	threeBySampling
	threshold          float32
	quantizationLevels float32
}

func NewToon() *Toon {
	f := &Toon{threshold: 0.2, quantizationLevels: 10}
	f.initThreeBy(`uniform highp float threshold;
uniform highp float quantizationLevels;
void main() {
	lowp vec4 textureColor = texture(sTexture, vTextureCoord);
`+sobelBody("red")+`	lowp vec3 posterized = floor((textureColor.rgb * quantizationLevels) + 0.5) / quantizationLevels;
	lowp float thresholdTest = 1.0 - step(threshold, mag);
	fragColor = vec4(posterized * thresholdTest, textureColor.a);
}
`, []string{"threshold", "quantizationLevels"}, func(gl gles.Functions, u []gles.Uniform) {
		gl.Uniform1f(u[toonThreshold], f.threshold)
		gl.Uniform1f(u[toonQuantizationLevels], f.quantizationLevels)
	})
	return f
}

func (f *Toon) SetThreshold(v float32) {
	f.mu.Lock()
	f.threshold = v
	f.mu.Unlock()
}

func (f *Toon) SetQuantizationLevels(v float32) {
	f.mu.Lock()
	f.quantizationLevels = clamp(v, 1, 256)
	f.mu.Unlock()
}

// SobelEdge outputs the gradient magnitude of the luminance.
type SobelEdge struct {
	threeBySampling
	strength float32
}

func NewSobelEdge() *SobelEdge {
	f := &SobelEdge{strength: 1}
	f.initThreeBy(`uniform mediump float edgeStrength;
void main() {
`+sobelBody("intensity")+`	fragColor = vec4(vec3(mag * edgeStrength), 1.0);
}
`, []string{"edgeStrength"}, func(gl gles.Functions, u []gles.Uniform) {
		gl.Uniform1f(u[0], f.strength)
	})
	return f
}

func (f *SobelEdge) SetEdgeStrength(v float32) {
	f.mu.Lock()
	f.strength = v
	f.mu.Unlock()
}

// Laplacian is a fixed second-derivative edge kernel.
type Laplacian struct {
	threeBySampling
}

func NewLaplacian() *Laplacian {
	f := &Laplacian{}
	f.initThreeBy(`void main() {
	mediump vec4 center = texture(sTexture, vTextureCoord);
	mediump vec3 edges = neighbour(0) + neighbour(1) + neighbour(2) + neighbour(3);
	mediump vec3 corners = neighbour(4) + neighbour(5) + neighbour(6) + neighbour(7);
	fragColor = vec4(edges + 0.5 * corners - 6.0 * center.rgb, center.a);
}
`, nil, nil)
	return f
}

// Convolution applies an arbitrary 3x3 kernel.
type Convolution struct {
	threeBySampling
	kernel mgl32.Mat3
}

// NewConvolution returns a convolution with the identity kernel.
func NewConvolution() *Convolution {
	f := &Convolution{kernel: mgl32.Mat3{0, 0, 0, 0, 1, 0, 0, 0, 0}}
	f.initThreeBy(`uniform mediump mat3 convolutionMatrix;
void main() {
	mediump vec4 center = texture(sTexture, vTextureCoord);
	mediump vec3 result = neighbour(4) * convolutionMatrix[0][0] + neighbour(2) * convolutionMatrix[0][1] + neighbour(5) * convolutionMatrix[0][2];
	result += neighbour(0) * convolutionMatrix[1][0] + center.rgb * convolutionMatrix[1][1] + neighbour(1) * convolutionMatrix[1][2];
	result += neighbour(6) * convolutionMatrix[2][0] + neighbour(3) * convolutionMatrix[2][1] + neighbour(7) * convolutionMatrix[2][2];
	fragColor = vec4(result, center.a);
}
`, []string{"convolutionMatrix"}, func(gl gles.Functions, u []gles.Uniform) {
		gl.UniformMatrix3fv(u[0], f.kernel[:])
	})
	return f
}

// SetKernel sets the kernel, rows top to bottom.
func (f *Convolution) SetKernel(rows [9]float32) {
	f.mu.Lock()
	f.kernel = mgl32.Mat3(rows)
	f.mu.Unlock()
}

// EmbossKernel returns the emboss kernel of the given strength.
func EmbossKernel(intensity float32) [9]float32 {
	i := intensity
	return [9]float32{
		-2 * i, -i, 0,
		-i, 1, i,
		0, i, 2 * i,
	}
}

// NewEmboss returns a convolution set up as an emboss of strength 1.
func NewEmboss() *Convolution {
	f := NewConvolution()
	f.SetKernel(EmbossKernel(1))
	return f
}
