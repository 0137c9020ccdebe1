package filter

import (
	"image"

	"github.com/richinsley/gpufilter/gles"
	xdraw "golang.org/x/image/draw"
)

// Overlay blends an image over the frame using the image alpha. The image is
// stretched to the frame size and re-uploaded on the first draw after the
// image or the frame size changes.
type Overlay struct {
	Basic
	img     image.Image
	canvas  *image.RGBA
	dirty   bool
	texture gles.Texture
}

// Overlay canvas size used until the first SetFrameSize.
const (
	defaultOverlayWidth  = 1280
	defaultOverlayHeight = 720
)

func NewOverlay(img image.Image) *Overlay {
	f := &Overlay{img: img, dirty: true}
	f.width, f.height = defaultOverlayWidth, defaultOverlayHeight
	f.init(Source{Fragment: fragment(`uniform lowp sampler2D oTexture;
void main() {
	lowp vec4 textureColor = texture(sTexture, vTextureCoord);
	lowp vec4 overlay = texture(oTexture, vTextureCoord);
	fragColor = mix(textureColor, overlay, overlay.a);
}
`), Uniforms: []string{"oTexture"}}, func(gl gles.Functions, u []gles.Uniform) {
		f.prog.BindAux(auxUnit, f.texture)
		if f.dirty {
			f.canvas = f.render()
			if f.canvas != nil {
				gl.TexImage2D(gles.TEXTURE_2D, 0, gles.RGBA, f.canvas.Rect.Dx(), f.canvas.Rect.Dy(), gles.RGBA, gles.UNSIGNED_BYTE, f.canvas.Pix)
			}
			f.dirty = false
		}
		gl.Uniform1i(u[0], auxUnit)
	})
	return f
}

// render scales the image onto a frame-sized canvas, flipped so that row 0
// is the bottom of the frame. Callers hold mu.
func (f *Overlay) render() *image.RGBA {
	if f.img == nil || f.width <= 0 || f.height <= 0 {
		return nil
	}
	scaled := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	xdraw.BiLinear.Scale(scaled, scaled.Bounds(), f.img, f.img.Bounds(), xdraw.Src, nil)
	stride := scaled.Stride
	row := make([]byte, stride)
	for top, bottom := 0, f.height-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := scaled.Pix[top*stride : (top+1)*stride]
		b := scaled.Pix[bottom*stride : (bottom+1)*stride]
		copy(row, a)
		copy(a, b)
		copy(b, row)
	}
	return scaled
}

// SetImage replaces the overlay image.
func (f *Overlay) SetImage(img image.Image) {
	f.mu.Lock()
	f.img = img
	f.dirty = true
	f.mu.Unlock()
}

func (f *Overlay) SetFrameSize(width, height int) {
	f.mu.Lock()
	if width != f.width || height != f.height {
		f.width, f.height = width, height
		f.dirty = true
	}
	f.mu.Unlock()
}

// ReleaseImage drops the source image and the scaled canvas. The uploaded
// texture keeps the last canvas until Release.
func (f *Overlay) ReleaseImage() {
	f.mu.Lock()
	f.img = nil
	f.canvas = nil
	f.mu.Unlock()
}

func (f *Overlay) Setup(gl gles.Functions) error {
	f.releaseTexture()
	if err := f.Basic.Setup(gl); err != nil {
		return err
	}
	f.texture = newTexture(gl, gles.LINEAR, gles.LINEAR)
	f.mu.Lock()
	f.dirty = true
	f.mu.Unlock()
	return nil
}

func (f *Overlay) Release() {
	f.releaseTexture()
	f.Basic.Release()
}

func (f *Overlay) releaseTexture() {
	if f.texture != 0 && f.prog.gl != nil {
		f.prog.gl.DeleteTexture(f.texture)
	}
	f.texture = 0
}
