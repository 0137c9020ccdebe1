package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fragmentSrc = `#version 300 es
precision mediump float;
uniform float level;
out vec4 fragColor;
void main() {
	fragColor = vec4(level);
}
`

func TestTranslateDesktopAndES(t *testing.T) {
	desktop, err := Translate(fragmentSrc, Fragment, false)
	require.NoError(t, err)
	assert.Contains(t, desktop.Code, "#version 410")
	assert.Contains(t, desktop.Names, "level")

	es, err := Translate(fragmentSrc, Fragment, true)
	require.NoError(t, err)
	assert.Contains(t, es.Code, "#version 300 es")
	assert.Contains(t, es.Names, "level")
}

func TestTranslateError(t *testing.T) {
	_, err := Translate("#version 300 es\nvoid main() { undeclared = 1.0; }\n", Fragment, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fragment shader translation failed")
}
