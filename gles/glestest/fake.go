// Package glestest provides an in-memory gles.Functions that records every
// call and tracks object lifetimes and bindings, so GPU resource rules can be
// tested without a context.
package glestest

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/richinsley/gpufilter/gles"
)

var (
	attribRE  = regexp.MustCompile(`(?m)^\s*(?:layout\s*\([^)]*\)\s*)?(?:attribute|in)\s+(?:(?:lowp|mediump|highp)\s+)?\w+\s+(\w+)\s*;`)
	uniformRE = regexp.MustCompile(`(?m)^\s*uniform\s+(?:(?:lowp|mediump|highp)\s+)?\w+\s+(\w+)\s*(?:\[\s*\w+\s*\])?\s*;`)
)

type shader struct {
	ty       gles.Enum
	src      string
	compiled bool
}

type program struct {
	shaders  []gles.Shader
	linked   bool
	attribs  map[string]gles.Attrib
	uniforms map[string]gles.Uniform
}

// Texture is the fake storage behind a texture name.
type Texture struct {
	Width, Height int
	Data          []byte
}

type renderbuffer struct {
	width, height int
}

type framebuffer struct {
	color gles.Texture
	depth gles.Renderbuffer
}

// GL is a recording fake. The zero value is not usable; call New.
type GL struct {
	MaxTextureSize      int
	MaxRenderbufferSize int
	// Incomplete makes CheckFramebufferStatus report an incomplete
	// framebuffer.
	Incomplete bool
	// FailLink makes every LinkProgram fail.
	FailLink bool
	// PendingErrors is drained by GetError, one per call.
	PendingErrors []gles.Enum

	Calls []string

	next          uint32
	kinds         map[uint32]string
	shaders       map[gles.Shader]*shader
	programs      map[gles.Program]*program
	textures      map[gles.Texture]*Texture
	renderbuffers map[gles.Renderbuffer]*renderbuffer
	framebuffers  map[gles.Framebuffer]*framebuffer

	fb         gles.Framebuffer
	rb         gles.Renderbuffer
	arrayBuf   gles.Buffer
	vao        gles.VertexArray
	current    gles.Program
	activeUnit int
	units      map[int]gles.Texture
	enabled    map[gles.Attrib]bool
}

// New returns a fake with a 4096 texel size limit.
func New() *GL {
	return &GL{
		MaxTextureSize:      4096,
		MaxRenderbufferSize: 4096,
		kinds:               make(map[uint32]string),
		shaders:             make(map[gles.Shader]*shader),
		programs:            make(map[gles.Program]*program),
		textures:            make(map[gles.Texture]*Texture),
		renderbuffers:       make(map[gles.Renderbuffer]*renderbuffer),
		framebuffers:        make(map[gles.Framebuffer]*framebuffer),
		units:               make(map[int]gles.Texture),
		enabled:             make(map[gles.Attrib]bool),
	}
}

func (g *GL) record(format string, args ...interface{}) {
	g.Calls = append(g.Calls, fmt.Sprintf(format, args...))
}

func (g *GL) alloc(kind string) uint32 {
	g.next++
	g.kinds[g.next] = kind
	return g.next
}

func (g *GL) free(kind string, name uint32) {
	if name == 0 {
		return
	}
	if g.kinds[name] == kind {
		delete(g.kinds, name)
	}
}

// Live returns the number of live objects of the given kind ("texture",
// "framebuffer", "renderbuffer", "buffer", "vertexarray", "shader",
// "program"), or of all kinds when kind is empty.
func (g *GL) Live(kind string) int {
	n := 0
	for _, k := range g.kinds {
		if kind == "" || k == kind {
			n++
		}
	}
	return n
}

// LiveObjects lists live objects as "kind:name", sorted.
func (g *GL) LiveObjects() []string {
	var out []string
	for name, k := range g.kinds {
		out = append(out, fmt.Sprintf("%s:%d", k, name))
	}
	sort.Strings(out)
	return out
}

// Bindings reports the current framebuffer, renderbuffer and 2D texture
// binding.
func (g *GL) Bindings() gles.Bindings {
	return gles.Bindings{Framebuffer: g.fb, Renderbuffer: g.rb, Texture: g.units[g.activeUnit]}
}

// CurrentProgram reports the program in use.
func (g *GL) CurrentProgram() gles.Program { return g.current }

// BoundArrayBuffer reports the ARRAY_BUFFER binding.
func (g *GL) BoundArrayBuffer() gles.Buffer { return g.arrayBuf }

// BoundVertexArray reports the vertex array binding.
func (g *GL) BoundVertexArray() gles.VertexArray { return g.vao }

// EnabledAttribs reports how many vertex attribute arrays are enabled.
func (g *GL) EnabledAttribs() int {
	n := 0
	for _, on := range g.enabled {
		if on {
			n++
		}
	}
	return n
}

// Texture returns the storage of a texture name, or nil.
func (g *GL) Texture(t gles.Texture) *Texture { return g.textures[t] }

// UnitTexture returns the texture bound to TEXTURE0+unit.
func (g *GL) UnitTexture(unit int) gles.Texture { return g.units[unit] }

// ResetCalls clears the call log.
func (g *GL) ResetCalls() { g.Calls = nil }

// CallsMatching returns the recorded calls that start with prefix.
func (g *GL) CallsMatching(prefix string) []string {
	var out []string
	for _, c := range g.Calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (g *GL) ActiveTexture(texture gles.Enum) {
	g.activeUnit = int(texture - gles.TEXTURE0)
	g.record("ActiveTexture(%d)", g.activeUnit)
}

func (g *GL) AttachShader(p gles.Program, s gles.Shader) {
	g.record("AttachShader(%d, %d)", p, s)
	if prog, ok := g.programs[p]; ok {
		prog.shaders = append(prog.shaders, s)
	}
}

func (g *GL) BindBuffer(target gles.Enum, b gles.Buffer) {
	g.record("BindBuffer(0x%x, %d)", uint32(target), b)
	if target == gles.ARRAY_BUFFER {
		g.arrayBuf = b
	}
}

func (g *GL) BindFramebuffer(target gles.Enum, fb gles.Framebuffer) {
	g.record("BindFramebuffer(%d)", fb)
	g.fb = fb
}

func (g *GL) BindRenderbuffer(target gles.Enum, rb gles.Renderbuffer) {
	g.record("BindRenderbuffer(%d)", rb)
	g.rb = rb
}

func (g *GL) BindTexture(target gles.Enum, t gles.Texture) {
	g.record("BindTexture(unit=%d, %d)", g.activeUnit, t)
	g.units[g.activeUnit] = t
}

func (g *GL) BindVertexArray(a gles.VertexArray) {
	g.record("BindVertexArray(%d)", a)
	g.vao = a
}

func (g *GL) BufferData(target gles.Enum, data []float32, usage gles.Enum) {
	g.record("BufferData(%d floats)", len(data))
}

func (g *GL) CheckFramebufferStatus(target gles.Enum) gles.Enum {
	fb, ok := g.framebuffers[g.fb]
	if g.Incomplete || !ok || fb.color == 0 {
		return 0
	}
	tex := g.textures[fb.color]
	if tex == nil || tex.Width == 0 || tex.Height == 0 {
		return 0
	}
	return gles.FRAMEBUFFER_COMPLETE
}

func (g *GL) Clear(mask gles.Enum) {
	g.record("Clear(0x%x) fb=%d", uint32(mask), g.fb)
}

func (g *GL) ClearColor(r, gg, b, a float32) {
	g.record("ClearColor(%g, %g, %g, %g)", r, gg, b, a)
}

func (g *GL) CompileShader(s gles.Shader) {
	g.record("CompileShader(%d)", s)
	sh, ok := g.shaders[s]
	if !ok {
		return
	}
	sh.compiled = !strings.Contains(sh.src, "#error")
}

func (g *GL) CreateBuffer() gles.Buffer {
	return gles.Buffer(g.alloc("buffer"))
}

func (g *GL) CreateFramebuffer() gles.Framebuffer {
	fb := gles.Framebuffer(g.alloc("framebuffer"))
	g.framebuffers[fb] = &framebuffer{}
	return fb
}

func (g *GL) CreateProgram() gles.Program {
	p := gles.Program(g.alloc("program"))
	g.programs[p] = &program{}
	return p
}

func (g *GL) CreateRenderbuffer() gles.Renderbuffer {
	rb := gles.Renderbuffer(g.alloc("renderbuffer"))
	g.renderbuffers[rb] = &renderbuffer{}
	return rb
}

func (g *GL) CreateShader(ty gles.Enum) gles.Shader {
	s := gles.Shader(g.alloc("shader"))
	g.shaders[s] = &shader{ty: ty}
	return s
}

func (g *GL) CreateTexture() gles.Texture {
	t := gles.Texture(g.alloc("texture"))
	g.textures[t] = &Texture{}
	return t
}

func (g *GL) CreateVertexArray() gles.VertexArray {
	return gles.VertexArray(g.alloc("vertexarray"))
}

func (g *GL) DeleteBuffer(b gles.Buffer) {
	g.record("DeleteBuffer(%d)", b)
	g.free("buffer", uint32(b))
	if g.arrayBuf == b {
		g.arrayBuf = 0
	}
}

func (g *GL) DeleteFramebuffer(fb gles.Framebuffer) {
	g.record("DeleteFramebuffer(%d)", fb)
	g.free("framebuffer", uint32(fb))
	delete(g.framebuffers, fb)
	if g.fb == fb {
		g.fb = 0
	}
}

func (g *GL) DeleteProgram(p gles.Program) {
	g.record("DeleteProgram(%d)", p)
	g.free("program", uint32(p))
	delete(g.programs, p)
	if g.current == p {
		g.current = 0
	}
}

func (g *GL) DeleteRenderbuffer(rb gles.Renderbuffer) {
	g.record("DeleteRenderbuffer(%d)", rb)
	g.free("renderbuffer", uint32(rb))
	delete(g.renderbuffers, rb)
	if g.rb == rb {
		g.rb = 0
	}
}

func (g *GL) DeleteShader(s gles.Shader) {
	g.record("DeleteShader(%d)", s)
	g.free("shader", uint32(s))
	delete(g.shaders, s)
}

func (g *GL) DeleteTexture(t gles.Texture) {
	g.record("DeleteTexture(%d)", t)
	g.free("texture", uint32(t))
	delete(g.textures, t)
	for unit, bound := range g.units {
		if bound == t {
			g.units[unit] = 0
		}
	}
}

func (g *GL) DeleteVertexArray(a gles.VertexArray) {
	g.record("DeleteVertexArray(%d)", a)
	g.free("vertexarray", uint32(a))
	if g.vao == a {
		g.vao = 0
	}
}

func (g *GL) DisableVertexAttribArray(a gles.Attrib) {
	g.record("DisableVertexAttribArray(%d)", a)
	g.enabled[a] = false
}

func (g *GL) DrawArrays(mode gles.Enum, first, count int) {
	g.record("DrawArrays(0x%x, %d, %d) program=%d fb=%d unit0=%d", uint32(mode), first, count, g.current, g.fb, g.units[0])
}

func (g *GL) EnableVertexAttribArray(a gles.Attrib) {
	g.record("EnableVertexAttribArray(%d)", a)
	g.enabled[a] = true
}

func (g *GL) FramebufferRenderbuffer(target, attachment, rbTarget gles.Enum, rb gles.Renderbuffer) {
	g.record("FramebufferRenderbuffer(%d)", rb)
	if fb, ok := g.framebuffers[g.fb]; ok {
		fb.depth = rb
	}
}

func (g *GL) FramebufferTexture2D(target, attachment, texTarget gles.Enum, t gles.Texture, level int) {
	g.record("FramebufferTexture2D(%d)", t)
	if fb, ok := g.framebuffers[g.fb]; ok {
		fb.color = t
	}
}

func (g *GL) GetAttribLocation(p gles.Program, name string) gles.Attrib {
	prog, ok := g.programs[p]
	if !ok || !prog.linked {
		return -1
	}
	if loc, ok := prog.attribs[name]; ok {
		return loc
	}
	return -1
}

func (g *GL) GetError() gles.Enum {
	if len(g.PendingErrors) == 0 {
		return gles.NO_ERROR
	}
	e := g.PendingErrors[0]
	g.PendingErrors = g.PendingErrors[1:]
	return e
}

func (g *GL) GetInteger(pname gles.Enum) int {
	switch pname {
	case gles.MAX_TEXTURE_SIZE:
		return g.MaxTextureSize
	case gles.MAX_RENDERBUFFER_SIZE:
		return g.MaxRenderbufferSize
	case gles.FRAMEBUFFER_BINDING:
		return int(g.fb)
	case gles.RENDERBUFFER_BINDING:
		return int(g.rb)
	case gles.TEXTURE_BINDING_2D:
		return int(g.units[g.activeUnit])
	case gles.ARRAY_BUFFER_BINDING:
		return int(g.arrayBuf)
	case gles.VERTEX_ARRAY_BINDING:
		return int(g.vao)
	case gles.CURRENT_PROGRAM:
		return int(g.current)
	case gles.ACTIVE_TEXTURE:
		return gles.TEXTURE0 + g.activeUnit
	}
	return 0
}

func (g *GL) GetProgrami(p gles.Program, pname gles.Enum) int {
	prog, ok := g.programs[p]
	if pname == gles.LINK_STATUS && ok && prog.linked {
		return gles.TRUE
	}
	return gles.FALSE
}

func (g *GL) GetProgramInfoLog(p gles.Program) string {
	return "fake: link failed"
}

func (g *GL) GetShaderi(s gles.Shader, pname gles.Enum) int {
	sh, ok := g.shaders[s]
	if pname == gles.COMPILE_STATUS && ok && sh.compiled {
		return gles.TRUE
	}
	return gles.FALSE
}

func (g *GL) GetShaderInfoLog(s gles.Shader) string {
	return "fake: #error directive"
}

func (g *GL) GetUniformLocation(p gles.Program, name string) gles.Uniform {
	prog, ok := g.programs[p]
	if !ok || !prog.linked {
		return -1
	}
	if loc, ok := prog.uniforms[name]; ok {
		return loc
	}
	return -1
}

func (g *GL) LinkProgram(p gles.Program) {
	g.record("LinkProgram(%d)", p)
	prog, ok := g.programs[p]
	if !ok {
		return
	}
	prog.attribs = make(map[string]gles.Attrib)
	prog.uniforms = make(map[string]gles.Uniform)
	var stages int
	for _, s := range prog.shaders {
		sh, ok := g.shaders[s]
		if !ok || !sh.compiled {
			return
		}
		stages++
		if sh.ty == gles.VERTEX_SHADER {
			for _, m := range attribRE.FindAllStringSubmatch(sh.src, -1) {
				if _, dup := prog.attribs[m[1]]; !dup {
					prog.attribs[m[1]] = gles.Attrib(len(prog.attribs))
				}
			}
		}
		for _, m := range uniformRE.FindAllStringSubmatch(sh.src, -1) {
			if _, dup := prog.uniforms[m[1]]; !dup {
				prog.uniforms[m[1]] = gles.Uniform(len(prog.uniforms))
			}
		}
	}
	prog.linked = stages == 2 && !g.FailLink
}

func (g *GL) ReadPixels(dst []byte, x, y, width, height int, format, ty gles.Enum) {
	g.record("ReadPixels(%d, %d, %d, %d) fb=%d", x, y, width, height, g.fb)
	fb, ok := g.framebuffers[g.fb]
	if !ok {
		return
	}
	tex := g.textures[fb.color]
	if tex == nil || tex.Data == nil {
		return
	}
	copy(dst, tex.Data)
}

func (g *GL) RenderbufferStorage(target, internalFormat gles.Enum, width, height int) {
	g.record("RenderbufferStorage(%d, %d)", width, height)
	if rb, ok := g.renderbuffers[g.rb]; ok {
		rb.width, rb.height = width, height
	}
}

func (g *GL) ShaderSource(s gles.Shader, src string) {
	if sh, ok := g.shaders[s]; ok {
		sh.src = src
	}
}

func (g *GL) TexImage2D(target gles.Enum, level int, internalFormat gles.Enum, width, height int, format, ty gles.Enum, data []byte) {
	g.record("TexImage2D(unit=%d, tex=%d, %dx%d, %d bytes)", g.activeUnit, g.units[g.activeUnit], width, height, len(data))
	tex := g.textures[g.units[g.activeUnit]]
	if tex == nil {
		return
	}
	tex.Width, tex.Height = width, height
	tex.Data = nil
	if data != nil {
		tex.Data = append([]byte(nil), data...)
	}
}

func (g *GL) TexParameteri(target, pname gles.Enum, param int) {
	g.record("TexParameteri(0x%x, 0x%x)", uint32(pname), param)
}

func (g *GL) TexSubImage2D(target gles.Enum, level int, x, y, width, height int, format, ty gles.Enum, data []byte) {
	g.record("TexSubImage2D(unit=%d, tex=%d, %dx%d)", g.activeUnit, g.units[g.activeUnit], width, height)
	tex := g.textures[g.units[g.activeUnit]]
	if tex == nil || x != 0 || y != 0 {
		return
	}
	if tex.Data == nil {
		tex.Data = make([]byte, tex.Width*tex.Height*4)
	}
	copy(tex.Data, data)
}

func (g *GL) Uniform1f(dst gles.Uniform, v float32) {
	g.record("Uniform1f(%d, %g)", dst, v)
}

func (g *GL) Uniform1i(dst gles.Uniform, v int) {
	g.record("Uniform1i(%d, %d)", dst, v)
}

func (g *GL) Uniform2f(dst gles.Uniform, v0, v1 float32) {
	g.record("Uniform2f(%d, %g, %g)", dst, v0, v1)
}

func (g *GL) Uniform2fv(dst gles.Uniform, v []float32) {
	g.record("Uniform2fv(%d, %v)", dst, v)
}

func (g *GL) Uniform3f(dst gles.Uniform, v0, v1, v2 float32) {
	g.record("Uniform3f(%d, %g, %g, %g)", dst, v0, v1, v2)
}

func (g *GL) Uniform4f(dst gles.Uniform, v0, v1, v2, v3 float32) {
	g.record("Uniform4f(%d, %g, %g, %g, %g)", dst, v0, v1, v2, v3)
}

func (g *GL) UniformMatrix3fv(dst gles.Uniform, m []float32) {
	g.record("UniformMatrix3fv(%d, %v)", dst, m)
}

func (g *GL) UniformMatrix4fv(dst gles.Uniform, m []float32) {
	g.record("UniformMatrix4fv(%d, %v)", dst, m)
}

func (g *GL) UseProgram(p gles.Program) {
	g.record("UseProgram(%d)", p)
	g.current = p
}

func (g *GL) VertexAttribPointer(dst gles.Attrib, size int, ty gles.Enum, normalized bool, stride, offset int) {
	g.record("VertexAttribPointer(%d, %d, %d, %d)", dst, size, stride, offset)
}

func (g *GL) Viewport(x, y, width, height int) {
	g.record("Viewport(%d, %d, %d, %d)", x, y, width, height)
}

var _ gles.Functions = (*GL)(nil)
