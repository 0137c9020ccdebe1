package gles_test

import (
	"testing"

	"github.com/richinsley/gpufilter/gles"
	"github.com/richinsley/gpufilter/gles/glestest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	vertexSrc = `#version 300 es
in highp vec4 aPosition;
void main() { gl_Position = aPosition; }
`
	fragmentSrc = `#version 300 es
precision mediump float;
uniform float level;
out vec4 fragColor;
void main() { fragColor = vec4(level); }
`
)

func TestCompileAndLink(t *testing.T) {
	gl := glestest.New()
	vs, err := gles.CompileShader(gl, gles.VERTEX_SHADER, vertexSrc)
	require.NoError(t, err)
	fs, err := gles.CompileShader(gl, gles.FRAGMENT_SHADER, fragmentSrc)
	require.NoError(t, err)
	p, err := gles.LinkProgram(gl, vs, fs)
	require.NoError(t, err)

	assert.Equal(t, gles.Attrib(0), gl.GetAttribLocation(p, "aPosition"))
	assert.Equal(t, gles.Uniform(0), gl.GetUniformLocation(p, "level"))
	assert.Equal(t, gles.Uniform(-1), gl.GetUniformLocation(p, "missing"))
	assert.Equal(t, 2, gl.Live("shader"))
	assert.Equal(t, 1, gl.Live("program"))
}

func TestCompileFailureDeletesShader(t *testing.T) {
	gl := glestest.New()
	_, err := gles.CompileShader(gl, gles.FRAGMENT_SHADER, "#error broken\n")
	require.ErrorIs(t, err, gles.ErrCompile)
	assert.Contains(t, err.Error(), "fragment shader")
	assert.Equal(t, 0, gl.Live(""))
}

func TestLinkFailureDeletesProgram(t *testing.T) {
	gl := glestest.New()
	gl.FailLink = true
	vs, err := gles.CompileShader(gl, gles.VERTEX_SHADER, vertexSrc)
	require.NoError(t, err)
	fs, err := gles.CompileShader(gl, gles.FRAGMENT_SHADER, fragmentSrc)
	require.NoError(t, err)

	_, err = gles.LinkProgram(gl, vs, fs)
	require.ErrorIs(t, err, gles.ErrLink)
	assert.Equal(t, 0, gl.Live("program"))
	assert.Equal(t, 2, gl.Live("shader"), "shaders stay with the caller")
}

func TestCheckError(t *testing.T) {
	gl := glestest.New()
	require.NoError(t, gles.CheckError(gl))

	gl.PendingErrors = []gles.Enum{gles.OUT_OF_MEMORY}
	err := gles.CheckError(gl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0x505")
	require.NoError(t, gles.CheckError(gl))
}

func TestSaveAndRestoreBindings(t *testing.T) {
	gl := glestest.New()
	fb := gl.CreateFramebuffer()
	rb := gl.CreateRenderbuffer()
	tex := gl.CreateTexture()
	gl.BindFramebuffer(gles.FRAMEBUFFER, fb)
	gl.BindRenderbuffer(gles.RENDERBUFFER, rb)
	gl.BindTexture(gles.TEXTURE_2D, tex)

	saved := gles.SaveBindings(gl)
	assert.Equal(t, gles.Bindings{Framebuffer: fb, Renderbuffer: rb, Texture: tex}, saved)

	gl.BindFramebuffer(gles.FRAMEBUFFER, 0)
	gl.BindRenderbuffer(gles.RENDERBUFFER, 0)
	gl.BindTexture(gles.TEXTURE_2D, 0)
	saved.Restore(gl)
	assert.Equal(t, saved, gl.Bindings())
}

func TestSetupSampler(t *testing.T) {
	gl := glestest.New()
	gles.SetupSampler(gl, gles.TEXTURE_2D, gles.LINEAR, gles.NEAREST)
	assert.Len(t, gl.CallsMatching("TexParameteri"), 4)
	assert.Contains(t, gl.Calls, "TexParameteri(0x2800, 0x2601)")
	assert.Contains(t, gl.Calls, "TexParameteri(0x2801, 0x2600)")
}
