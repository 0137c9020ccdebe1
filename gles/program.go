package gles

import (
	"errors"
	"fmt"
)

var (
	// ErrCompile and ErrLink are configuration errors: the shader text is
	// wrong for the driver and retrying cannot help.
	ErrCompile = errors.New("shader compilation failed")
	ErrLink    = errors.New("program link failed")
)

// CompileShader creates and compiles a shader of the given type. The shader is
// deleted again when compilation fails.
func CompileShader(f Functions, ty Enum, src string) (Shader, error) {
	s := f.CreateShader(ty)
	if s == 0 {
		return 0, fmt.Errorf("%w: could not create shader of type 0x%x", ErrCompile, uint32(ty))
	}
	f.ShaderSource(s, src)
	f.CompileShader(s)
	if f.GetShaderi(s, COMPILE_STATUS) == FALSE {
		log := f.GetShaderInfoLog(s)
		f.DeleteShader(s)
		return 0, fmt.Errorf("%w: %s shader: %s", ErrCompile, stageName(ty), log)
	}
	return s, nil
}

// LinkProgram creates a program from a compiled shader pair. The shaders stay
// owned by the caller.
func LinkProgram(f Functions, vs, fs Shader) (Program, error) {
	p := f.CreateProgram()
	if p == 0 {
		return 0, fmt.Errorf("%w: could not create program", ErrLink)
	}
	f.AttachShader(p, vs)
	f.AttachShader(p, fs)
	f.LinkProgram(p)
	if f.GetProgrami(p, LINK_STATUS) == FALSE {
		log := f.GetProgramInfoLog(p)
		f.DeleteProgram(p)
		return 0, fmt.Errorf("%w: %s", ErrLink, log)
	}
	return p, nil
}

func stageName(ty Enum) string {
	switch ty {
	case VERTEX_SHADER:
		return "vertex"
	case FRAGMENT_SHADER:
		return "fragment"
	default:
		return fmt.Sprintf("0x%x", uint32(ty))
	}
}
