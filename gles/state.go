package gles

// Bindings is a snapshot of the object bindings a resource setup may disturb.
type Bindings struct {
	Framebuffer  Framebuffer
	Renderbuffer Renderbuffer
	Texture      Texture
}

// SaveBindings queries the current framebuffer, renderbuffer and 2D texture
// bindings.
func SaveBindings(f Functions) Bindings {
	return Bindings{
		Framebuffer:  Framebuffer(f.GetInteger(FRAMEBUFFER_BINDING)),
		Renderbuffer: Renderbuffer(f.GetInteger(RENDERBUFFER_BINDING)),
		Texture:      Texture(f.GetInteger(TEXTURE_BINDING_2D)),
	}
}

// Restore rebinds the snapshot.
func (b Bindings) Restore(f Functions) {
	f.BindFramebuffer(FRAMEBUFFER, b.Framebuffer)
	f.BindRenderbuffer(RENDERBUFFER, b.Renderbuffer)
	f.BindTexture(TEXTURE_2D, b.Texture)
}
