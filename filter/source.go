package filter

// Source is the shader text of a filter plus the effect uniforms its draw
// hook sets. Uniform locations are resolved in the order of Uniforms, so a
// filter indexes them with its own constants.
type Source struct {
	Vertex   string
	Fragment string
	Uniforms []string
}

// Attribute and sampler names every filter program declares.
const (
	PositionAttrib = "aPosition"
	TexCoordAttrib = "aTextureCoord"
	SamplerUniform = "sTexture"
)

// DefaultVertex passes the quad through and forwards its texture coordinate
// as vTextureCoord.
const DefaultVertex = `#version 300 es
in highp vec4 aPosition;
in highp vec4 aTextureCoord;
out highp vec2 vTextureCoord;
void main() {
	gl_Position = aPosition;
	vTextureCoord = aTextureCoord.xy;
}
`

const fragmentHeader = `#version 300 es
precision mediump float;
in highp vec2 vTextureCoord;
uniform lowp sampler2D sTexture;
out vec4 fragColor;
`

// DefaultFragment samples the input unchanged.
const DefaultFragment = fragmentHeader + `void main() {
	fragColor = texture(sTexture, vTextureCoord);
}
`

// fragment prepends the common declarations to a fragment body.
func fragment(body string) string {
	return fragmentHeader + body
}

// quad is a full-screen triangle strip, X,Y,Z,U,V per vertex.
var quad = []float32{
	-1, 1, 0, 0, 1,
	1, 1, 0, 1, 1,
	-1, -1, 0, 0, 0,
	1, -1, 0, 1, 0,
}

const (
	floatSize     = 4
	positionSize  = 3
	texCoordSize  = 2
	vertexStride  = (positionSize + texCoordSize) * floatSize
	positionStart = 0
	texCoordStart = positionStart + positionSize*floatSize
	quadVertices  = 4
)
