package filter

import (
	"fmt"

	"github.com/richinsley/gpufilter/gles"
)

// Program is one compiled generation of a filter: the shader pair, the linked
// program, the quad buffer and its vertex array, and the resolved locations.
// Setup releases the previous generation before building a new one.
type Program struct {
	gl       gles.Functions
	vertex   gles.Shader
	fragment gles.Shader
	program  gles.Program
	buffer   gles.Buffer
	array    gles.VertexArray

	position gles.Attrib
	texCoord gles.Attrib
	sampler  gles.Uniform
	uniforms []gles.Uniform

	aux []int
}

// Setup compiles and links src and resolves its locations. On failure
// nothing stays allocated.
func (p *Program) Setup(gl gles.Functions, src Source) error {
	p.Release()
	p.gl = gl

	vertex := src.Vertex
	if vertex == "" {
		vertex = DefaultVertex
	}
	var err error
	if p.vertex, err = gles.CompileShader(gl, gles.VERTEX_SHADER, vertex); err != nil {
		return err
	}
	if p.fragment, err = gles.CompileShader(gl, gles.FRAGMENT_SHADER, src.Fragment); err != nil {
		p.Release()
		return err
	}
	if p.program, err = gles.LinkProgram(gl, p.vertex, p.fragment); err != nil {
		p.Release()
		return err
	}

	p.buffer = gl.CreateBuffer()
	gl.BindBuffer(gles.ARRAY_BUFFER, p.buffer)
	gl.BufferData(gles.ARRAY_BUFFER, quad, gles.STATIC_DRAW)
	gl.BindBuffer(gles.ARRAY_BUFFER, 0)
	p.array = gl.CreateVertexArray()

	if err := p.resolve(src.Uniforms); err != nil {
		p.Release()
		return err
	}
	return nil
}

func (p *Program) resolve(names []string) error {
	if p.position = p.gl.GetAttribLocation(p.program, PositionAttrib); p.position < 0 {
		return fmt.Errorf("%w: attribute %q", ErrUnknownLocation, PositionAttrib)
	}
	if p.texCoord = p.gl.GetAttribLocation(p.program, TexCoordAttrib); p.texCoord < 0 {
		return fmt.Errorf("%w: attribute %q", ErrUnknownLocation, TexCoordAttrib)
	}
	if p.sampler = p.gl.GetUniformLocation(p.program, SamplerUniform); p.sampler < 0 {
		return fmt.Errorf("%w: uniform %q", ErrUnknownLocation, SamplerUniform)
	}
	p.uniforms = make([]gles.Uniform, len(names))
	for i, name := range names {
		if p.uniforms[i] = p.gl.GetUniformLocation(p.program, name); p.uniforms[i] < 0 {
			return fmt.Errorf("%w: uniform %q", ErrUnknownLocation, name)
		}
	}
	return nil
}

// Ready reports whether a generation is alive.
func (p *Program) Ready() bool { return p.program != 0 }

// Uniform returns the location of the i-th effect uniform.
func (p *Program) Uniform(i int) gles.Uniform { return p.uniforms[i] }

// BindAux binds an auxiliary texture to a unit for the current draw. The unit
// is unbound again when the draw finishes.
func (p *Program) BindAux(unit int, t gles.Texture) {
	p.gl.ActiveTexture(gles.TEXTURE0 + gles.Enum(unit))
	p.gl.BindTexture(gles.TEXTURE_2D, t)
	p.aux = append(p.aux, unit)
}

// Draw renders the quad sampling texture on unit 0. hook runs after the
// common state is bound and before the draw call.
func (p *Program) Draw(texture gles.Texture, hook func(gl gles.Functions)) {
	if !p.Ready() {
		return
	}
	gl := p.gl
	gl.UseProgram(p.program)
	gl.BindVertexArray(p.array)
	gl.BindBuffer(gles.ARRAY_BUFFER, p.buffer)
	gl.EnableVertexAttribArray(p.position)
	gl.VertexAttribPointer(p.position, positionSize, gles.FLOAT, false, vertexStride, positionStart)
	gl.EnableVertexAttribArray(p.texCoord)
	gl.VertexAttribPointer(p.texCoord, texCoordSize, gles.FLOAT, false, vertexStride, texCoordStart)

	gl.ActiveTexture(gles.TEXTURE0)
	gl.BindTexture(gles.TEXTURE_2D, texture)
	gl.Uniform1i(p.sampler, 0)

	if hook != nil {
		hook(gl)
	}

	gl.DrawArrays(gles.TRIANGLE_STRIP, 0, quadVertices)

	gl.DisableVertexAttribArray(p.position)
	gl.DisableVertexAttribArray(p.texCoord)
	for _, unit := range p.aux {
		gl.ActiveTexture(gles.TEXTURE0 + gles.Enum(unit))
		gl.BindTexture(gles.TEXTURE_2D, 0)
	}
	p.aux = p.aux[:0]
	gl.ActiveTexture(gles.TEXTURE0)
	gl.BindTexture(gles.TEXTURE_2D, 0)
	gl.BindBuffer(gles.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

// Release deletes every handle of the current generation. It is a no-op when
// nothing is allocated.
func (p *Program) Release() {
	if p.gl == nil {
		return
	}
	if p.program != 0 {
		p.gl.DeleteProgram(p.program)
		p.program = 0
	}
	if p.vertex != 0 {
		p.gl.DeleteShader(p.vertex)
		p.vertex = 0
	}
	if p.fragment != 0 {
		p.gl.DeleteShader(p.fragment)
		p.fragment = 0
	}
	if p.buffer != 0 {
		p.gl.DeleteBuffer(p.buffer)
		p.buffer = 0
	}
	if p.array != 0 {
		p.gl.DeleteVertexArray(p.array)
		p.array = 0
	}
	p.uniforms = nil
	p.aux = nil
}
