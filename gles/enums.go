package gles

const (
	FALSE = 0
	TRUE  = 1

	NO_ERROR          = 0
	INVALID_ENUM      = 0x0500
	INVALID_VALUE     = 0x0501
	INVALID_OPERATION = 0x0502
	OUT_OF_MEMORY     = 0x0505

	DEPTH_BUFFER_BIT = 0x100
	COLOR_BUFFER_BIT = 0x4000

	TRIANGLES      = 0x0004
	TRIANGLE_STRIP = 0x0005

	UNSIGNED_BYTE = 0x1401
	FLOAT         = 0x1406

	RGBA  = 0x1908
	RGBA8 = 0x8058

	TEXTURE_2D         = 0x0DE1
	TEXTURE0           = 0x84C0
	TEXTURE_MAG_FILTER = 0x2800
	TEXTURE_MIN_FILTER = 0x2801
	TEXTURE_WRAP_S     = 0x2802
	TEXTURE_WRAP_T     = 0x2803
	NEAREST            = 0x2600
	LINEAR             = 0x2601
	CLAMP_TO_EDGE      = 0x812F

	ARRAY_BUFFER = 0x8892
	STATIC_DRAW  = 0x88E4

	FRAMEBUFFER          = 0x8D40
	RENDERBUFFER         = 0x8D41
	COLOR_ATTACHMENT0    = 0x8CE0
	DEPTH_ATTACHMENT     = 0x8D00
	DEPTH_COMPONENT16    = 0x81A5
	FRAMEBUFFER_COMPLETE = 0x8CD5

	FRAMEBUFFER_BINDING   = 0x8CA6
	RENDERBUFFER_BINDING  = 0x8CA7
	TEXTURE_BINDING_2D    = 0x8069
	ARRAY_BUFFER_BINDING  = 0x8894
	VERTEX_ARRAY_BINDING  = 0x85B5
	CURRENT_PROGRAM       = 0x8B8D
	ACTIVE_TEXTURE        = 0x84E0
	MAX_TEXTURE_SIZE      = 0x0D33
	MAX_RENDERBUFFER_SIZE = 0x84E8

	FRAGMENT_SHADER = 0x8B30
	VERTEX_SHADER   = 0x8B31
	COMPILE_STATUS  = 0x8B81
	LINK_STATUS     = 0x8B82
)
