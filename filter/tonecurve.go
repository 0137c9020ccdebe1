package filter

import (
	"fmt"

	"github.com/richinsley/gpufilter/gles"
	"github.com/richinsley/gpufilter/tonecurve"
)

// auxUnit is the texture unit effects use for their lookup or overlay
// texture.
const auxUnit = 3

// ToneCurve maps each channel through a 256-entry lookup texture built from
// tone curves. The texture is uploaded on the first draw after the curves
// change.
type ToneCurve struct {
	Basic
	table   *tonecurve.Table
	dirty   bool
	texture gles.Texture
}

// NewToneCurve builds the lookup table for c. Invalid curves are a
// configuration error.
func NewToneCurve(c tonecurve.Curves) (*ToneCurve, error) {
	table, err := tonecurve.Build(c)
	if err != nil {
		return nil, fmt.Errorf("failed to build tone curve: %w", err)
	}
	f := &ToneCurve{table: table, dirty: true}
	f.init(Source{Fragment: fragment(`uniform mediump sampler2D toneCurveTexture;
void main() {
	lowp vec4 textureColor = texture(sTexture, vTextureCoord);
	lowp float redCurveValue = texture(toneCurveTexture, vec2(textureColor.r, 0.0)).r;
	lowp float greenCurveValue = texture(toneCurveTexture, vec2(textureColor.g, 0.0)).g;
	lowp float blueCurveValue = texture(toneCurveTexture, vec2(textureColor.b, 0.0)).b;
	fragColor = vec4(redCurveValue, greenCurveValue, blueCurveValue, textureColor.a);
}
`), Uniforms: []string{"toneCurveTexture"}}, func(gl gles.Functions, u []gles.Uniform) {
		f.prog.BindAux(auxUnit, f.texture)
		if f.dirty {
			gl.TexImage2D(gles.TEXTURE_2D, 0, gles.RGBA, tonecurve.Size, 1, gles.RGBA, gles.UNSIGNED_BYTE, f.table.Pix[:])
			f.dirty = false
		}
		gl.Uniform1i(u[0], auxUnit)
	})
	return f, nil
}

// SetCurves rebuilds the lookup table. On error the previous table stays in
// use.
func (f *ToneCurve) SetCurves(c tonecurve.Curves) error {
	table, err := tonecurve.Build(c)
	if err != nil {
		return fmt.Errorf("failed to build tone curve: %w", err)
	}
	f.mu.Lock()
	f.table = table
	f.dirty = true
	f.mu.Unlock()
	return nil
}

// Table returns the current lookup table.
func (f *ToneCurve) Table() *tonecurve.Table {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.table
}

func (f *ToneCurve) Setup(gl gles.Functions) error {
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

func (f *ToneCurve) Release() {
	f.releaseTexture()
	f.Basic.Release()
}

func (f *ToneCurve) releaseTexture() {
	if f.texture != 0 && f.prog.gl != nil {
		f.prog.gl.DeleteTexture(f.texture)
	}
	f.texture = 0
}
