package translator

import (
	"context"
	"fmt"
	"sync"

	gst "github.com/richinsley/goshadertranslator"
)

// Stage names understood by the translator.
const (
	Vertex   = "vertex"
	Fragment = "fragment"
)

var (
	once     sync.Once
	shared   *gst.ShaderTranslator
	errShare error
)

// Get returns the process-wide translator, creating it on first use.
func Get() (*gst.ShaderTranslator, error) {
	once.Do(func() {
		shared, errShare = gst.NewShaderTranslator(context.Background())
	})
	return shared, errShare
}

// Shader is a translated stage: the driver source and the names the
// translator gave each declared variable.
type Shader struct {
	Code  string
	Names map[string]string
}

// Translate converts ESSL 3.00 source into GLSL 4.10, or into ESSL for a
// GLES driver.
func Translate(src, stage string, es bool) (*Shader, error) {
	t, err := Get()
	if err != nil {
		return nil, fmt.Errorf("shader translator unavailable: %w", err)
	}
	format := gst.OutputFormatGLSL410
	if es {
		format = gst.OutputFormatESSL
	}
	res, err := t.TranslateShader(src, stage, gst.ShaderSpecWebGL2, format)
	if err != nil {
		return nil, fmt.Errorf("%s shader translation failed: %w", stage, err)
	}
	names := make(map[string]string, len(res.Variables))
	for name, v := range res.Variables {
		names[name] = v.MappedName
	}
	return &Shader{Code: res.Code, Names: names}, nil
}
