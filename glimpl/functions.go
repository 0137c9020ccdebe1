// Package glimpl binds gles.Functions to desktop OpenGL 4.1 core through
// go-gl. Shader sources are ESSL 3.00 and are translated to GLSL 4.10, or
// normalized ESSL on an OpenGL ES context, before they reach the driver.
package glimpl

import (
	"fmt"
	"strings"
	"sync"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/gpufilter/gles"
	"github.com/richinsley/gpufilter/translator"
	"github.com/sirupsen/logrus"
)

var (
	glInitOnce sync.Once
	glInitErr  error
)

// Init loads the GL entry points for the current context. It is safe to call
// more than once.
func Init() error {
	glInitOnce.Do(func() {
		glInitErr = gl.Init()
		if glInitErr == nil {
			logrus.WithFields(logrus.Fields{
				"function": "Init",
				"version":  gl.GoStr(gl.GetString(gl.VERSION)),
				"renderer": gl.GoStr(gl.GetString(gl.RENDERER)),
			}).Info("OpenGL initialized")
		}
	})
	if glInitErr != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", glInitErr)
	}
	return nil
}

type shaderState struct {
	ty       gles.Enum
	names    map[string]string
	errorLog string
}

// Functions implements gles.Functions. It must only be used on the thread that
// owns the context.
type Functions struct {
	es       bool
	shaders  map[gles.Shader]*shaderState
	attached map[gles.Program][]gles.Shader
	names    map[gles.Program]map[string]string
}

// New returns a function table for the current context. Init must have
// succeeded first. es selects ESSL output for an OpenGL ES context.
func New(es bool) *Functions {
	return &Functions{
		es:       es,
		shaders:  make(map[gles.Shader]*shaderState),
		attached: make(map[gles.Program][]gles.Shader),
		names:    make(map[gles.Program]map[string]string),
	}
}

func ptr(data interface{}) unsafe.Pointer {
	switch d := data.(type) {
	case []byte:
		if len(d) == 0 {
			return nil
		}
	case []float32:
		if len(d) == 0 {
			return nil
		}
	}
	return gl.Ptr(data)
}

func (f *Functions) ActiveTexture(texture gles.Enum) { gl.ActiveTexture(uint32(texture)) }

func (f *Functions) AttachShader(p gles.Program, s gles.Shader) {
	gl.AttachShader(uint32(p), uint32(s))
	f.attached[p] = append(f.attached[p], s)
}

func (f *Functions) BindBuffer(target gles.Enum, b gles.Buffer) {
	gl.BindBuffer(uint32(target), uint32(b))
}

func (f *Functions) BindFramebuffer(target gles.Enum, fb gles.Framebuffer) {
	gl.BindFramebuffer(uint32(target), uint32(fb))
}

func (f *Functions) BindRenderbuffer(target gles.Enum, rb gles.Renderbuffer) {
	gl.BindRenderbuffer(uint32(target), uint32(rb))
}

func (f *Functions) BindTexture(target gles.Enum, t gles.Texture) {
	gl.BindTexture(uint32(target), uint32(t))
}

func (f *Functions) BindVertexArray(a gles.VertexArray) { gl.BindVertexArray(uint32(a)) }

func (f *Functions) BufferData(target gles.Enum, data []float32, usage gles.Enum) {
	gl.BufferData(uint32(target), len(data)*4, ptr(data), uint32(usage))
}

func (f *Functions) CheckFramebufferStatus(target gles.Enum) gles.Enum {
	return gles.Enum(gl.CheckFramebufferStatus(uint32(target)))
}

func (f *Functions) Clear(mask gles.Enum) { gl.Clear(uint32(mask)) }

func (f *Functions) ClearColor(r, g, b, a float32) { gl.ClearColor(r, g, b, a) }

func (f *Functions) CompileShader(s gles.Shader) {
	if st, ok := f.shaders[s]; ok && st.errorLog != "" {
		return
	}
	gl.CompileShader(uint32(s))
}

func (f *Functions) CreateBuffer() gles.Buffer {
	var b uint32
	gl.GenBuffers(1, &b)
	return gles.Buffer(b)
}

func (f *Functions) CreateFramebuffer() gles.Framebuffer {
	var fb uint32
	gl.GenFramebuffers(1, &fb)
	return gles.Framebuffer(fb)
}

func (f *Functions) CreateProgram() gles.Program { return gles.Program(gl.CreateProgram()) }

func (f *Functions) CreateRenderbuffer() gles.Renderbuffer {
	var rb uint32
	gl.GenRenderbuffers(1, &rb)
	return gles.Renderbuffer(rb)
}

func (f *Functions) CreateShader(ty gles.Enum) gles.Shader {
	s := gles.Shader(gl.CreateShader(uint32(ty)))
	if s != 0 {
		f.shaders[s] = &shaderState{ty: ty}
	}
	return s
}

func (f *Functions) CreateTexture() gles.Texture {
	var t uint32
	gl.GenTextures(1, &t)
	return gles.Texture(t)
}

func (f *Functions) CreateVertexArray() gles.VertexArray {
	var a uint32
	gl.GenVertexArrays(1, &a)
	return gles.VertexArray(a)
}

func (f *Functions) DeleteBuffer(b gles.Buffer) {
	v := uint32(b)
	gl.DeleteBuffers(1, &v)
}

func (f *Functions) DeleteFramebuffer(fb gles.Framebuffer) {
	v := uint32(fb)
	gl.DeleteFramebuffers(1, &v)
}

func (f *Functions) DeleteProgram(p gles.Program) {
	gl.DeleteProgram(uint32(p))
	delete(f.attached, p)
	delete(f.names, p)
}

func (f *Functions) DeleteRenderbuffer(rb gles.Renderbuffer) {
	v := uint32(rb)
	gl.DeleteRenderbuffers(1, &v)
}

func (f *Functions) DeleteShader(s gles.Shader) {
	gl.DeleteShader(uint32(s))
	delete(f.shaders, s)
}

func (f *Functions) DeleteTexture(t gles.Texture) {
	v := uint32(t)
	gl.DeleteTextures(1, &v)
}

func (f *Functions) DeleteVertexArray(a gles.VertexArray) {
	v := uint32(a)
	gl.DeleteVertexArrays(1, &v)
}

func (f *Functions) DisableVertexAttribArray(a gles.Attrib) {
	gl.DisableVertexAttribArray(uint32(a))
}

func (f *Functions) DrawArrays(mode gles.Enum, first, count int) {
	gl.DrawArrays(uint32(mode), int32(first), int32(count))
}

func (f *Functions) EnableVertexAttribArray(a gles.Attrib) {
	gl.EnableVertexAttribArray(uint32(a))
}

func (f *Functions) FramebufferRenderbuffer(target, attachment, rbTarget gles.Enum, rb gles.Renderbuffer) {
	gl.FramebufferRenderbuffer(uint32(target), uint32(attachment), uint32(rbTarget), uint32(rb))
}

func (f *Functions) FramebufferTexture2D(target, attachment, texTarget gles.Enum, t gles.Texture, level int) {
	gl.FramebufferTexture2D(uint32(target), uint32(attachment), uint32(texTarget), uint32(t), int32(level))
}

// mapped returns the driver name of a source-level variable.
func (f *Functions) mapped(p gles.Program, name string) string {
	if m, ok := f.names[p][name]; ok && m != "" {
		return m
	}
	return name
}

func (f *Functions) GetAttribLocation(p gles.Program, name string) gles.Attrib {
	return gles.Attrib(gl.GetAttribLocation(uint32(p), gl.Str(f.mapped(p, name)+"\x00")))
}

func (f *Functions) GetError() gles.Enum { return gles.Enum(gl.GetError()) }

func (f *Functions) GetInteger(pname gles.Enum) int {
	var v int32
	gl.GetIntegerv(uint32(pname), &v)
	return int(v)
}

func (f *Functions) GetProgrami(p gles.Program, pname gles.Enum) int {
	var v int32
	gl.GetProgramiv(uint32(p), uint32(pname), &v)
	return int(v)
}

func (f *Functions) GetProgramInfoLog(p gles.Program) string {
	var logLength int32
	gl.GetProgramiv(uint32(p), gl.INFO_LOG_LENGTH, &logLength)
	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(uint32(p), logLength, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (f *Functions) GetShaderi(s gles.Shader, pname gles.Enum) int {
	if st, ok := f.shaders[s]; ok && st.errorLog != "" && pname == gles.COMPILE_STATUS {
		return gles.FALSE
	}
	var v int32
	gl.GetShaderiv(uint32(s), uint32(pname), &v)
	return int(v)
}

func (f *Functions) GetShaderInfoLog(s gles.Shader) string {
	if st, ok := f.shaders[s]; ok && st.errorLog != "" {
		return st.errorLog
	}
	var logLength int32
	gl.GetShaderiv(uint32(s), gl.INFO_LOG_LENGTH, &logLength)
	logText := strings.Repeat("\x00", int(logLength+1))
	gl.GetShaderInfoLog(uint32(s), logLength, nil, gl.Str(logText))
	return strings.TrimRight(logText, "\x00")
}

func (f *Functions) GetUniformLocation(p gles.Program, name string) gles.Uniform {
	return gles.Uniform(gl.GetUniformLocation(uint32(p), gl.Str(f.mapped(p, name)+"\x00")))
}

func (f *Functions) LinkProgram(p gles.Program) {
	names := make(map[string]string)
	for _, s := range f.attached[p] {
		if st, ok := f.shaders[s]; ok {
			for k, v := range st.names {
				names[k] = v
			}
		}
	}
	f.names[p] = names
	gl.LinkProgram(uint32(p))
}

func (f *Functions) ReadPixels(dst []byte, x, y, width, height int, format, ty gles.Enum) {
	gl.ReadPixels(int32(x), int32(y), int32(width), int32(height), uint32(format), uint32(ty), ptr(dst))
}

func (f *Functions) RenderbufferStorage(target, internalFormat gles.Enum, width, height int) {
	gl.RenderbufferStorage(uint32(target), uint32(internalFormat), int32(width), int32(height))
}

// ShaderSource translates src before handing it to the driver. A translation
// failure is reported through COMPILE_STATUS and the info log, the same way a
// driver compile error is.
func (f *Functions) ShaderSource(s gles.Shader, src string) {
	st, ok := f.shaders[s]
	if !ok {
		st = &shaderState{ty: gles.FRAGMENT_SHADER}
		f.shaders[s] = st
	}
	stage := translator.Fragment
	if st.ty == gles.VERTEX_SHADER {
		stage = translator.Vertex
	}
	out, err := translator.Translate(src, stage, f.es)
	if err != nil {
		st.errorLog = err.Error()
		return
	}
	st.errorLog = ""
	st.names = out.Names
	csources, free := gl.Strs(out.Code + "\x00")
	gl.ShaderSource(uint32(s), 1, csources, nil)
	free()
}

func (f *Functions) TexImage2D(target gles.Enum, level int, internalFormat gles.Enum, width, height int, format, ty gles.Enum, data []byte) {
	gl.TexImage2D(uint32(target), int32(level), int32(internalFormat), int32(width), int32(height), 0, uint32(format), uint32(ty), ptr(data))
}

func (f *Functions) TexParameteri(target, pname gles.Enum, param int) {
	gl.TexParameteri(uint32(target), uint32(pname), int32(param))
}

func (f *Functions) TexSubImage2D(target gles.Enum, level int, x, y, width, height int, format, ty gles.Enum, data []byte) {
	gl.TexSubImage2D(uint32(target), int32(level), int32(x), int32(y), int32(width), int32(height), uint32(format), uint32(ty), ptr(data))
}

func (f *Functions) Uniform1f(dst gles.Uniform, v float32) { gl.Uniform1f(int32(dst), v) }

func (f *Functions) Uniform1i(dst gles.Uniform, v int) { gl.Uniform1i(int32(dst), int32(v)) }

func (f *Functions) Uniform2f(dst gles.Uniform, v0, v1 float32) { gl.Uniform2f(int32(dst), v0, v1) }

func (f *Functions) Uniform2fv(dst gles.Uniform, v []float32) {
	if len(v) < 2 {
		return
	}
	gl.Uniform2fv(int32(dst), int32(len(v)/2), &v[0])
}

func (f *Functions) Uniform3f(dst gles.Uniform, v0, v1, v2 float32) {
	gl.Uniform3f(int32(dst), v0, v1, v2)
}

func (f *Functions) Uniform4f(dst gles.Uniform, v0, v1, v2, v3 float32) {
	gl.Uniform4f(int32(dst), v0, v1, v2, v3)
}

func (f *Functions) UniformMatrix3fv(dst gles.Uniform, m []float32) {
	if len(m) < 9 {
		return
	}
	gl.UniformMatrix3fv(int32(dst), int32(len(m)/9), false, &m[0])
}

func (f *Functions) UniformMatrix4fv(dst gles.Uniform, m []float32) {
	if len(m) < 16 {
		return
	}
	gl.UniformMatrix4fv(int32(dst), int32(len(m)/16), false, &m[0])
}

func (f *Functions) UseProgram(p gles.Program) { gl.UseProgram(uint32(p)) }

func (f *Functions) VertexAttribPointer(dst gles.Attrib, size int, ty gles.Enum, normalized bool, stride, offset int) {
	gl.VertexAttribPointer(uint32(dst), int32(size), uint32(ty), normalized, int32(stride), gl.PtrOffset(offset))
}

func (f *Functions) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

var _ gles.Functions = (*Functions)(nil)
