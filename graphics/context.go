package graphics

// Context is a window surface with an OpenGL context the render loop draws
// into. Every method must be called from the thread that owns the context.
type Context interface {
	MakeCurrent()
	DetachCurrent()
	Shutdown()
	ShouldClose() bool
	// EndFrame presents the frame and processes window events.
	EndFrame()
	// PollEvents processes window events without presenting.
	PollEvents()
	GetFramebufferSize() (int, int)
	// IsGLES reports an OpenGL ES context, whose shaders stay ESSL.
	IsGLES() bool
	Time() float64
}
