package filter

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/gpufilter/gles"
)

// distortion is a circular effect around a centre point.
type distortion struct {
	Basic
	center mgl32.Vec2
	radius float32
}

func (d *distortion) SetCenter(c mgl32.Vec2) {
	d.mu.Lock()
	d.center = c
	d.mu.Unlock()
}

func (d *distortion) SetRadius(r float32) {
	d.mu.Lock()
	d.radius = clamp(r, 0, posInf)
	d.mu.Unlock()
}

// aspectRatio is height over width of the frame, 1 before the first resize.
// Callers hold mu.
func (d *distortion) aspectRatio() float32 {
	w, h := d.frameSize()
	if w <= 0 || h <= 0 {
		return 1
	}
	return float32(h) / float32(w)
}

const (
	swirlCenter = iota
	swirlRadius
	swirlAngle
)

// Swirl twists the image around the centre.
type Swirl struct {
	distortion
	angle float32
}

func NewSwirl() *Swirl {
	f := &Swirl{angle: 1}
	f.center, f.radius = mgl32.Vec2{0.5, 0.5}, 0.5
	f.init(Source{Fragment: fragment(`uniform highp vec2 center;
uniform highp float radius;
uniform highp float angle;
void main() {
	highp vec2 tc = vTextureCoord - center;
	highp float dist = length(tc);
	if (dist < radius) {
		highp float percent = (radius - dist) / radius;
		highp float theta = percent * percent * angle * 8.0;
		highp float s = sin(theta);
		highp float c = cos(theta);
		tc = vec2(dot(tc, vec2(c, -s)), dot(tc, vec2(s, c)));
	}
	fragColor = texture(sTexture, tc + center);
}
`), Uniforms: []string{"center", "radius", "angle"}}, func(gl gles.Functions, u []gles.Uniform) {
		gl.Uniform2f(u[swirlCenter], f.center.X(), f.center.Y())
		gl.Uniform1f(u[swirlRadius], f.radius)
		gl.Uniform1f(u[swirlAngle], f.angle)
	})
	return f
}

func (f *Swirl) SetAngle(v float32) {
	f.mu.Lock()
	f.angle = v
	f.mu.Unlock()
}

const (
	bulgeAspectRatio = iota
	bulgeCenter
	bulgeRadius
	bulgeScale
)

// BulgeDistortion magnifies (positive scale) or pinches (negative scale)
// the area around the centre.
type BulgeDistortion struct {
	distortion
	scale float32
}

func NewBulgeDistortion() *BulgeDistortion {
	f := &BulgeDistortion{scale: 0.5}
	f.center, f.radius = mgl32.Vec2{0.5, 0.5}, 0.25
	f.init(Source{Fragment: fragment(`uniform highp float aspectRatio;
uniform highp vec2 center;
uniform highp float radius;
uniform highp float scale;
void main() {
	highp vec2 corrected = vec2(vTextureCoord.x, vTextureCoord.y * aspectRatio + 0.5 - 0.5 * aspectRatio);
	highp float dist = distance(center, corrected);
	highp vec2 tc = vTextureCoord;
	if (dist < radius) {
		tc -= center;
		highp float percent = 1.0 - ((radius - dist) / radius) * scale;
		tc = tc * percent * percent + center;
	}
	fragColor = texture(sTexture, tc);
}
`), Uniforms: []string{"aspectRatio", "center", "radius", "scale"}}, func(gl gles.Functions, u []gles.Uniform) {
		gl.Uniform1f(u[bulgeAspectRatio], f.aspectRatio())
		gl.Uniform2f(u[bulgeCenter], f.center.X(), f.center.Y())
		gl.Uniform1f(u[bulgeRadius], f.radius)
		gl.Uniform1f(u[bulgeScale], f.scale)
	})
	return f
}

// SetScale sets the strength, clamped to [-1, 1].
func (f *BulgeDistortion) SetScale(v float32) {
	f.mu.Lock()
	f.scale = clamp(v, -1, 1)
	f.mu.Unlock()
}

const (
	sphereAspectRatio = iota
	sphereCenter
	sphereRadius
	sphereRefractiveIndex
)

// SphereRefraction renders the image as seen through a glass sphere.
type SphereRefraction struct {
	distortion
	refractiveIndex float32
}

func NewSphereRefraction() *SphereRefraction {
	f := &SphereRefraction{refractiveIndex: 0.71}
	f.center, f.radius = mgl32.Vec2{0.5, 0.5}, 0.25
	f.init(Source{Fragment: fragment(`uniform highp float aspectRatio;
uniform highp vec2 center;
uniform highp float radius;
uniform highp float refractiveIndex;
void main() {
	highp vec2 corrected = vec2(vTextureCoord.x, vTextureCoord.y * aspectRatio + 0.5 - 0.5 * aspectRatio);
	highp float distanceFromCenter = distance(center, corrected);
	lowp float withinSphere = step(distanceFromCenter, radius);
	distanceFromCenter = distanceFromCenter / radius;
	highp float normalizedDepth = radius * sqrt(1.0 - distanceFromCenter * distanceFromCenter);
	highp vec3 sphereNormal = normalize(vec3(corrected - center, normalizedDepth));
	highp vec3 refracted = refract(vec3(0.0, 0.0, -1.0), sphereNormal, refractiveIndex);
	fragColor = texture(sTexture, (refracted.xy + 1.0) * 0.5) * withinSphere;
}
`), Uniforms: []string{"aspectRatio", "center", "radius", "refractiveIndex"}}, func(gl gles.Functions, u []gles.Uniform) {
		gl.Uniform1f(u[sphereAspectRatio], f.aspectRatio())
		gl.Uniform2f(u[sphereCenter], f.center.X(), f.center.Y())
		gl.Uniform1f(u[sphereRadius], f.radius)
		gl.Uniform1f(u[sphereRefractiveIndex], f.refractiveIndex)
	})
	return f
}

func (f *SphereRefraction) SetRefractiveIndex(v float32) {
	f.mu.Lock()
	f.refractiveIndex = v
	f.mu.Unlock()
}
