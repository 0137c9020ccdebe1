package filter

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/gpufilter/gles"
)

var posInf = float32(math.Inf(1))

// scalar is an effect driven by one float uniform.
type scalar struct {
	Basic
	value  float32
	lo, hi float32
}

func (s *scalar) initScalar(uniform, body string, value, lo, hi float32) {
	s.value, s.lo, s.hi = value, lo, hi
	s.init(Source{Fragment: fragment(body), Uniforms: []string{uniform}}, func(gl gles.Functions, u []gles.Uniform) {
		gl.Uniform1f(u[0], s.value)
	})
}

func (s *scalar) set(v float32) {
	s.mu.Lock()
	s.value = clamp(v, s.lo, s.hi)
	s.mu.Unlock()
}

func (s *scalar) get() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Brightness adds a constant to every channel.
type Brightness struct{ scalar }

func NewBrightness() *Brightness {
	f := &Brightness{}
	f.initScalar("brightness", `uniform lowp float brightness;
void main() {
	lowp vec4 c = texture(sTexture, vTextureCoord);
	fragColor = vec4(c.rgb + vec3(brightness), c.a);
}
`, 0, -1, 1)
	return f
}

// SetBrightness sets the offset, clamped to [-1, 1].
func (f *Brightness) SetBrightness(v float32) { f.set(v) }

func (f *Brightness) Brightness() float32 { return f.get() }

// Contrast scales channels around mid grey.
type Contrast struct{ scalar }

func NewContrast() *Contrast {
	f := &Contrast{}
	f.initScalar("contrast", `uniform lowp float contrast;
void main() {
	lowp vec4 c = texture(sTexture, vTextureCoord);
	fragColor = vec4((c.rgb - vec3(0.5)) * contrast + vec3(0.5), c.a);
}
`, 1.2, 0, 4)
	return f
}

// SetContrast sets the factor, clamped to [0, 4].
func (f *Contrast) SetContrast(v float32) { f.set(v) }

func (f *Contrast) Contrast() float32 { return f.get() }

const luminanceWeights = `const mediump vec3 luminanceWeighting = vec3(0.2125, 0.7154, 0.0721);
`

// Saturation blends between the greyscale image and the input.
type Saturation struct{ scalar }

func NewSaturation() *Saturation {
	f := &Saturation{}
	f.initScalar("saturation", `uniform lowp float saturation;
`+luminanceWeights+`void main() {
	lowp vec4 c = texture(sTexture, vTextureCoord);
	lowp float luminance = dot(c.rgb, luminanceWeighting);
	fragColor = vec4(mix(vec3(luminance), c.rgb, saturation), c.a);
}
`, 1, 0, posInf)
	return f
}

// SetSaturation sets the factor; values below 0 are clamped.
func (f *Saturation) SetSaturation(v float32) { f.set(v) }

func (f *Saturation) Saturation() float32 { return f.get() }

// Exposure multiplies channels by 2^exposure.
type Exposure struct{ scalar }

func NewExposure() *Exposure {
	f := &Exposure{}
	f.initScalar("exposure", `uniform highp float exposure;
void main() {
	highp vec4 c = texture(sTexture, vTextureCoord);
	fragColor = vec4(c.rgb * pow(2.0, exposure), c.a);
}
`, 1, -10, 10)
	return f
}

func (f *Exposure) SetExposure(v float32) { f.set(v) }

// Gamma raises channels to a power.
type Gamma struct{ scalar }

func NewGamma() *Gamma {
	f := &Gamma{}
	f.initScalar("gamma", `uniform lowp float gamma;
void main() {
	lowp vec4 c = texture(sTexture, vTextureCoord);
	fragColor = vec4(pow(c.rgb, vec3(gamma)), c.a);
}
`, 1.2, 0, 3)
	return f
}

func (f *Gamma) SetGamma(v float32) { f.set(v) }

// Opacity scales alpha.
type Opacity struct{ scalar }

func NewOpacity() *Opacity {
	f := &Opacity{}
	f.initScalar("opacity", `uniform lowp float opacity;
void main() {
	lowp vec4 c = texture(sTexture, vTextureCoord);
	fragColor = vec4(c.rgb, c.a * opacity);
}
`, 1, 0, 1)
	return f
}

func (f *Opacity) SetOpacity(v float32) { f.set(v) }

// Solarize inverts channels above a luminance threshold.
type Solarize struct{ scalar }

func NewSolarize() *Solarize {
	f := &Solarize{}
	f.initScalar("threshold", `uniform highp float threshold;
`+luminanceWeights+`void main() {
	highp vec4 c = texture(sTexture, vTextureCoord);
	highp float luminance = dot(c.rgb, luminanceWeighting);
	highp float thresholdResult = step(luminance, threshold);
	fragColor = vec4(abs(thresholdResult - c.rgb), c.a);
}
`, 0.5, 0, 1)
	return f
}

func (f *Solarize) SetThreshold(v float32) { f.set(v) }

// Posterize reduces each channel to a number of levels.
type Posterize struct{ scalar }

func NewPosterize() *Posterize {
	f := &Posterize{}
	f.initScalar("colorLevels", `uniform highp float colorLevels;
void main() {
	highp vec4 c = texture(sTexture, vTextureCoord);
	fragColor = floor((c * colorLevels) + vec4(0.5)) / colorLevels;
}
`, 10, 1, 256)
	return f
}

// SetColorLevels sets the level count, clamped to [1, 256].
func (f *Posterize) SetColorLevels(levels int) { f.set(float32(levels)) }

// Sepia blends the input with a sepia tone matrix.
type Sepia struct{ scalar }

func NewSepia() *Sepia {
	f := &Sepia{}
	f.initScalar("intensity", `uniform lowp float intensity;
const mediump mat3 sepiaMatrix = mat3(0.3588, 0.2990, 0.2392, 0.7044, 0.5870, 0.4696, 0.1368, 0.1140, 0.0912);
void main() {
	lowp vec4 c = texture(sTexture, vTextureCoord);
	fragColor = vec4(mix(c.rgb, sepiaMatrix * c.rgb, intensity), c.a);
}
`, 1, 0, 1)
	return f
}

func (f *Sepia) SetIntensity(v float32) { f.set(v) }

// NewGrayscale returns a filter that outputs luminance.
func NewGrayscale() *Basic {
	b := &Basic{}
	b.init(Source{Fragment: fragment(luminanceWeights + `void main() {
	lowp vec4 c = texture(sTexture, vTextureCoord);
	fragColor = vec4(vec3(dot(c.rgb, luminanceWeighting)), c.a);
}
`)}, nil)
	return b
}

// NewInvert returns a filter that inverts the colour channels.
func NewInvert() *Basic {
	b := &Basic{}
	b.init(Source{Fragment: fragment(`void main() {
	lowp vec4 c = texture(sTexture, vTextureCoord);
	fragColor = vec4(1.0 - c.rgb, c.a);
}
`)}, nil)
	return b
}

// Hue rotates colours in YIQ space.
type Hue struct {
	Basic
	degrees float32
}

func NewHue() *Hue {
	f := &Hue{degrees: 90}
	f.init(Source{Fragment: fragment(`uniform mediump float hueAdjust;
const highp vec4 kRGBToYPrime = vec4(0.299, 0.587, 0.114, 0.0);
const highp vec4 kRGBToI = vec4(0.595716, -0.274453, -0.321263, 0.0);
const highp vec4 kRGBToQ = vec4(0.211456, -0.522591, 0.31135, 0.0);
const highp vec4 kYIQToR = vec4(1.0, 0.9563, 0.6210, 0.0);
const highp vec4 kYIQToG = vec4(1.0, -0.2721, -0.6474, 0.0);
const highp vec4 kYIQToB = vec4(1.0, -1.1070, 1.7046, 0.0);
void main() {
	highp vec4 color = texture(sTexture, vTextureCoord);
	highp float yPrime = dot(color, kRGBToYPrime);
	highp float i = dot(color, kRGBToI);
	highp float q = dot(color, kRGBToQ);
	highp float hue = atan(q, i);
	highp float chroma = sqrt(i * i + q * q);
	hue += -hueAdjust;
	q = chroma * sin(hue);
	i = chroma * cos(hue);
	highp vec4 yIQ = vec4(yPrime, i, q, 0.0);
	color.r = dot(yIQ, kYIQToR);
	color.g = dot(yIQ, kYIQToG);
	color.b = dot(yIQ, kYIQToB);
	fragColor = color;
}
`), Uniforms: []string{"hueAdjust"}}, func(gl gles.Functions, u []gles.Uniform) {
		gl.Uniform1f(u[0], mgl32.DegToRad(float32(math.Mod(float64(f.degrees), 360))))
	})
	return f
}

// SetHue sets the rotation in degrees.
func (f *Hue) SetHue(degrees float32) {
	f.mu.Lock()
	f.degrees = degrees
	f.mu.Unlock()
}

const (
	monochromeIntensity = iota
	monochromeColor
)

// Monochrome tints the luminance with a colour.
type Monochrome struct {
	Basic
	intensity float32
	color     mgl32.Vec3
}

func NewMonochrome() *Monochrome {
	f := &Monochrome{intensity: 1, color: mgl32.Vec3{0.6, 0.45, 0.3}}
	f.init(Source{Fragment: fragment(`uniform lowp float intensity;
uniform mediump vec3 filterColor;
` + luminanceWeights + `lowp float overlayChannel(lowp float base, lowp float blend) {
	return base < 0.5 ? (2.0 * base * blend) : (1.0 - 2.0 * (1.0 - base) * (1.0 - blend));
}
void main() {
	lowp vec4 c = texture(sTexture, vTextureCoord);
	lowp float luminance = dot(c.rgb, luminanceWeighting);
	lowp vec3 tinted = vec3(
		overlayChannel(luminance, filterColor.r),
		overlayChannel(luminance, filterColor.g),
		overlayChannel(luminance, filterColor.b));
	fragColor = vec4(mix(c.rgb, tinted, intensity), c.a);
}
`), Uniforms: []string{"intensity", "filterColor"}}, func(gl gles.Functions, u []gles.Uniform) {
		gl.Uniform1f(u[monochromeIntensity], f.intensity)
		gl.Uniform3f(u[monochromeColor], f.color[0], f.color[1], f.color[2])
	})
	return f
}

func (f *Monochrome) SetIntensity(v float32) {
	f.mu.Lock()
	f.intensity = clamp(v, 0, 1)
	f.mu.Unlock()
}

func (f *Monochrome) SetColor(c mgl32.Vec3) {
	f.mu.Lock()
	f.color = c
	f.mu.Unlock()
}

const (
	whiteBalanceTemperature = iota
	whiteBalanceTint
)

// WhiteBalance shifts colour temperature (Kelvin) and tint.
type WhiteBalance struct {
	Basic
	temperature float32
	tint        float32
}

func NewWhiteBalance() *WhiteBalance {
	f := &WhiteBalance{temperature: 5000}
	f.init(Source{Fragment: fragment(`uniform lowp float temperature;
uniform lowp float tint;
const lowp vec3 warmFilter = vec3(0.93, 0.54, 0.0);
const mediump mat3 RGBtoYIQ = mat3(0.299, 0.587, 0.114, 0.596, -0.274, -0.322, 0.212, -0.523, 0.311);
const mediump mat3 YIQtoRGB = mat3(1.0, 0.956, 0.621, 1.0, -0.272, -0.647, 1.0, -1.105, 1.702);
lowp float overlayChannel(lowp float base, lowp float blend) {
	return base < 0.5 ? (2.0 * base * blend) : (1.0 - 2.0 * (1.0 - base) * (1.0 - blend));
}
void main() {
	lowp vec4 source = texture(sTexture, vTextureCoord);
	mediump vec3 yiq = RGBtoYIQ * source.rgb;
	yiq.b = clamp(yiq.b + tint * 0.5226 * 0.1, -0.5226, 0.5226);
	lowp vec3 rgb = YIQtoRGB * yiq;
	lowp vec3 processed = vec3(
		overlayChannel(rgb.r, warmFilter.r),
		overlayChannel(rgb.g, warmFilter.g),
		overlayChannel(rgb.b, warmFilter.b));
	fragColor = vec4(mix(rgb, processed, temperature), source.a);
}
`), Uniforms: []string{"temperature", "tint"}}, func(gl gles.Functions, u []gles.Uniform) {
		gl.Uniform1f(u[whiteBalanceTemperature], temperatureFactor(f.temperature))
		gl.Uniform1f(u[whiteBalanceTint], f.tint/100)
	})
	return f
}

// temperatureFactor maps Kelvin onto the shader's warm-filter mix.
func temperatureFactor(kelvin float32) float32 {
	if kelvin < 5000 {
		return 0.0004 * (kelvin - 5000)
	}
	return 0.00006 * (kelvin - 5000)
}

func (f *WhiteBalance) SetTemperature(kelvin float32) {
	f.mu.Lock()
	f.temperature = kelvin
	f.mu.Unlock()
}

// SetTint sets the green-magenta shift in [-200, 200].
func (f *WhiteBalance) SetTint(v float32) {
	f.mu.Lock()
	f.tint = clamp(v, -200, 200)
	f.mu.Unlock()
}

const (
	hazeDistance = iota
	hazeSlope
)

// Haze removes or adds a vertical haze gradient.
type Haze struct {
	Basic
	distance float32
	slope    float32
}

func NewHaze() *Haze {
	f := &Haze{distance: 0.2}
	f.init(Source{Fragment: fragment(`uniform lowp float hazeDistance;
uniform highp float slope;
void main() {
	highp float d = vTextureCoord.y * slope + hazeDistance;
	highp vec4 c = texture(sTexture, vTextureCoord);
	fragColor = (c - d * vec4(1.0)) / (1.0 - d);
}
`), Uniforms: []string{"hazeDistance", "slope"}}, func(gl gles.Functions, u []gles.Uniform) {
		gl.Uniform1f(u[hazeDistance], f.distance)
		gl.Uniform1f(u[hazeSlope], f.slope)
	})
	return f
}

func (f *Haze) SetDistance(v float32) {
	f.mu.Lock()
	f.distance = clamp(v, -0.3, 0.3)
	f.mu.Unlock()
}

func (f *Haze) SetSlope(v float32) {
	f.mu.Lock()
	f.slope = clamp(v, -0.3, 0.3)
	f.mu.Unlock()
}
