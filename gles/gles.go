// Package gles describes the subset of OpenGL (ES 3.0 / desktop 4.1 core)
// used by the filter pipeline. All calls must be made from the goroutine
// that owns the current context.
package gles

import "fmt"

type (
	Enum         uint32
	Buffer       uint32
	Framebuffer  uint32
	Program      uint32
	Renderbuffer uint32
	Shader       uint32
	Texture      uint32
	VertexArray  uint32

	// Attrib and Uniform are locations; -1 means the name is not active in
	// the linked program.
	Attrib  int32
	Uniform int32
)

// Functions is the GL function table. glimpl provides the desktop binding and
// glestest a recording fake.
type Functions interface {
	ActiveTexture(texture Enum)
	AttachShader(p Program, s Shader)
	BindBuffer(target Enum, b Buffer)
	BindFramebuffer(target Enum, fb Framebuffer)
	BindRenderbuffer(target Enum, rb Renderbuffer)
	BindTexture(target Enum, t Texture)
	BindVertexArray(a VertexArray)
	BufferData(target Enum, data []float32, usage Enum)
	CheckFramebufferStatus(target Enum) Enum
	Clear(mask Enum)
	ClearColor(r, g, b, a float32)
	CompileShader(s Shader)
	CreateBuffer() Buffer
	CreateFramebuffer() Framebuffer
	CreateProgram() Program
	CreateRenderbuffer() Renderbuffer
	CreateShader(ty Enum) Shader
	CreateTexture() Texture
	CreateVertexArray() VertexArray
	DeleteBuffer(b Buffer)
	DeleteFramebuffer(fb Framebuffer)
	DeleteProgram(p Program)
	DeleteRenderbuffer(rb Renderbuffer)
	DeleteShader(s Shader)
	DeleteTexture(t Texture)
	DeleteVertexArray(a VertexArray)
	DisableVertexAttribArray(a Attrib)
	DrawArrays(mode Enum, first, count int)
	EnableVertexAttribArray(a Attrib)
	FramebufferRenderbuffer(target, attachment, rbTarget Enum, rb Renderbuffer)
	FramebufferTexture2D(target, attachment, texTarget Enum, t Texture, level int)
	GetAttribLocation(p Program, name string) Attrib
	GetError() Enum
	GetInteger(pname Enum) int
	GetProgrami(p Program, pname Enum) int
	GetProgramInfoLog(p Program) string
	GetShaderi(s Shader, pname Enum) int
	GetShaderInfoLog(s Shader) string
	GetUniformLocation(p Program, name string) Uniform
	LinkProgram(p Program)
	ReadPixels(dst []byte, x, y, width, height int, format, ty Enum)
	RenderbufferStorage(target, internalFormat Enum, width, height int)
	ShaderSource(s Shader, src string)
	TexImage2D(target Enum, level int, internalFormat Enum, width, height int, format, ty Enum, data []byte)
	TexParameteri(target, pname Enum, param int)
	TexSubImage2D(target Enum, level int, x, y, width, height int, format, ty Enum, data []byte)
	Uniform1f(dst Uniform, v float32)
	Uniform1i(dst Uniform, v int)
	Uniform2f(dst Uniform, v0, v1 float32)
	Uniform2fv(dst Uniform, v []float32)
	Uniform3f(dst Uniform, v0, v1, v2 float32)
	Uniform4f(dst Uniform, v0, v1, v2, v3 float32)
	UniformMatrix3fv(dst Uniform, m []float32)
	UniformMatrix4fv(dst Uniform, m []float32)
	UseProgram(p Program)
	VertexAttribPointer(dst Attrib, size int, ty Enum, normalized bool, stride, offset int)
	Viewport(x, y, width, height int)
}

// CheckError returns the pending GL error, if any.
func CheckError(f Functions) error {
	if e := f.GetError(); e != NO_ERROR {
		return fmt.Errorf("gl error 0x%x", uint32(e))
	}
	return nil
}

// SetupSampler sets filtering and clamp-to-edge wrapping on the texture
// currently bound to target.
func SetupSampler(f Functions, target Enum, mag, min int) {
	f.TexParameteri(target, TEXTURE_MAG_FILTER, mag)
	f.TexParameteri(target, TEXTURE_MIN_FILTER, min)
	f.TexParameteri(target, TEXTURE_WRAP_S, CLAMP_TO_EDGE)
	f.TexParameteri(target, TEXTURE_WRAP_T, CLAMP_TO_EDGE)
}
