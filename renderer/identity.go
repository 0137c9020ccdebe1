package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/gpufilter/filter"
	"github.com/richinsley/gpufilter/gles"
)

const previewVertex = `#version 300 es
uniform mat4 uMVPMatrix;
uniform mat4 uSTMatrix;
uniform float uCRatio;
in highp vec4 aPosition;
in highp vec4 aTextureCoord;
out highp vec2 vTextureCoord;
void main() {
	vec4 scaledPos = aPosition;
	scaledPos.x = scaledPos.x * uCRatio;
	gl_Position = uMVPMatrix * scaledPos;
	vTextureCoord = (uSTMatrix * aTextureCoord).xy;
}
`

const (
	identityMVP = iota
	identityST
	identityRatio
)

// identity copies the source texture into the current target through the
// model-view-projection and source transforms.
type identity struct {
	prog filter.Program
}

func (p *identity) Setup(gl gles.Functions) error {
	return p.prog.Setup(gl, filter.Source{
		Vertex:   previewVertex,
		Fragment: filter.DefaultFragment,
		Uniforms: []string{"uMVPMatrix", "uSTMatrix", "uCRatio"},
	})
}

func (p *identity) Draw(texture gles.Texture, mvp, st mgl32.Mat4, ratio float32) {
	p.prog.Draw(texture, func(gl gles.Functions) {
		gl.UniformMatrix4fv(p.prog.Uniform(identityMVP), mvp[:])
		gl.UniformMatrix4fv(p.prog.Uniform(identityST), st[:])
		gl.Uniform1f(p.prog.Uniform(identityRatio), ratio)
	})
}

func (p *identity) Release() {
	p.prog.Release()
}
