package filter

import (
	"errors"
	"image"

	"github.com/richinsley/gpufilter/gles"
	xdraw "golang.org/x/image/draw"
)

// ErrNoImage is returned by Setup of an image-backed filter whose image has
// already been released.
var ErrNoImage = errors.New("filter image released")

// LookupTable grades colours through a 512x32 strip of sixteen 32x32 slices,
// the usual layout of colour-grading LUT images.
type LookupTable struct {
	Basic
	img     image.Image
	texture gles.Texture
}

func NewLookupTable(img image.Image) *LookupTable {
	f := &LookupTable{img: img}
	f.init(Source{Fragment: fragment(`uniform mediump sampler2D lutTexture;
vec4 sampleAs3DTexture(vec3 uv) {
	float width = 16.0;
	float sliceSize = 1.0 / width;
	float slicePixelSize = sliceSize / width;
	float sliceInnerSize = slicePixelSize * (width - 1.0);
	float zSlice0 = min(floor(uv.z * width), width - 1.0);
	float zSlice1 = min(zSlice0 + 1.0, width - 1.0);
	float xOffset = slicePixelSize * 0.5 + uv.x * sliceInnerSize;
	float s0 = xOffset + (zSlice0 * sliceSize);
	float s1 = xOffset + (zSlice1 * sliceSize);
	vec4 slice0Color = texture(lutTexture, vec2(s0, uv.y));
	vec4 slice1Color = texture(lutTexture, vec2(s1, uv.y));
	float zOffset = mod(uv.z * width, 1.0);
	return mix(slice0Color, slice1Color, zOffset);
}
void main() {
	vec4 pixel = texture(sTexture, vTextureCoord);
	vec4 graded = sampleAs3DTexture(pixel.rgb);
	fragColor = vec4(graded.rgb, pixel.a);
}
`), Uniforms: []string{"lutTexture"}}, func(gl gles.Functions, u []gles.Uniform) {
		f.prog.BindAux(auxUnit, f.texture)
		gl.Uniform1i(u[0], auxUnit)
	})
	return f
}

// Setup compiles the program and uploads the LUT image.
func (f *LookupTable) Setup(gl gles.Functions) error {
	f.releaseTexture()
	f.mu.Lock()
	img := f.img
	f.mu.Unlock()
	if img == nil {
		f.Basic.Release()
		return ErrNoImage
	}
	if err := f.Basic.Setup(gl); err != nil {
		return err
	}
	f.texture = newTexture(gl, gles.LINEAR, gles.LINEAR)
	rgba := toRGBA(img)
	uploadTexture(gl, f.texture, rgba.Rect.Dx(), rgba.Rect.Dy(), rgba.Pix)
	return nil
}

func (f *LookupTable) Release() {
	f.releaseTexture()
	f.Basic.Release()
}

// ReleaseImage drops the decoded LUT. The uploaded texture stays valid until
// Release.
func (f *LookupTable) ReleaseImage() {
	f.mu.Lock()
	f.img = nil
	f.mu.Unlock()
}

func (f *LookupTable) releaseTexture() {
	if f.texture != 0 && f.prog.gl != nil {
		f.prog.gl.DeleteTexture(f.texture)
	}
	f.texture = 0
}

// newTexture creates a clamped 2D texture, leaving the current binding
// untouched.
func newTexture(gl gles.Functions, mag, min int) gles.Texture {
	saved := gles.Texture(gl.GetInteger(gles.TEXTURE_BINDING_2D))
	t := gl.CreateTexture()
	gl.BindTexture(gles.TEXTURE_2D, t)
	gles.SetupSampler(gl, gles.TEXTURE_2D, mag, min)
	gl.BindTexture(gles.TEXTURE_2D, saved)
	return t
}

// uploadTexture replaces the storage of t with RGBA pixels.
func uploadTexture(gl gles.Functions, t gles.Texture, width, height int, pix []byte) {
	saved := gles.Texture(gl.GetInteger(gles.TEXTURE_BINDING_2D))
	gl.BindTexture(gles.TEXTURE_2D, t)
	gl.TexImage2D(gles.TEXTURE_2D, 0, gles.RGBA, width, height, gles.RGBA, gles.UNSIGNED_BYTE, pix)
	gl.BindTexture(gles.TEXTURE_2D, saved)
}

// toRGBA returns img as a tightly packed RGBA image with origin (0,0).
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst
}
