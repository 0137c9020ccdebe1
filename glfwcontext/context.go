// Package glfwcontext provides the window surface the player renders into.
package glfwcontext

import (
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/gpufilter/graphics"
	"github.com/sirupsen/logrus"
)

// Context is a GLFW window with an OpenGL 4.1 core context.
type Context struct {
	window       *glfw.Window
	keyCallbacks map[glfw.Key]func()
}

// New creates a resizable window. Like every GLFW call it must run on the
// main thread.
func New(width, height int, title string) (*Context, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, err
	}

	c := &Context{
		window:       win,
		keyCallbacks: make(map[glfw.Key]func()),
	}
	win.SetKeyCallback(c.glfwKeyCallback)

	fbw, fbh := win.GetFramebufferSize()
	logrus.WithFields(logrus.Fields{
		"function":    "glfwcontext.New",
		"width":       width,
		"height":      height,
		"framebuffer": []int{fbw, fbh},
	}).Debug("window created")
	return c, nil
}

// RegisterKeyCallback runs f whenever key is pressed. Callbacks run during
// event polling on the render thread.
func (c *Context) RegisterKeyCallback(key glfw.Key, f func()) {
	c.keyCallbacks[key] = f
}

func (c *Context) glfwKeyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	if key == glfw.KeyEscape {
		w.SetShouldClose(true)
	}
	if callback, ok := c.keyCallbacks[key]; ok {
		callback()
	}
}

// MakeCurrent makes the context current on the calling thread.
func (c *Context) MakeCurrent() {
	c.window.MakeContextCurrent()
}

// DetachCurrent makes no context current on the calling thread.
func (c *Context) DetachCurrent() {
	glfw.DetachCurrentContext()
}

func (c *Context) Shutdown() {
	c.window.Destroy()
}

func (c *Context) ShouldClose() bool {
	return c.window.ShouldClose()
}

func (c *Context) EndFrame() {
	c.window.SwapBuffers()
	glfw.PollEvents()
}

func (c *Context) PollEvents() {
	glfw.PollEvents()
}

func (c *Context) GetFramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

func (c *Context) IsGLES() bool {
	return false
}

func (c *Context) Time() float64 {
	return glfw.GetTime()
}

// Window returns the underlying *glfw.Window.
func (c *Context) Window() *glfw.Window {
	return c.window
}

// InitGraphics initializes GLFW. Must be called from the main thread.
func InitGraphics() error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return err
	}
	logrus.WithField("function", "InitGraphics").Debug("GLFW initialized")
	return nil
}

// TerminateGraphics shuts GLFW down. Must be called from the main thread.
func TerminateGraphics() {
	glfw.Terminate()
	logrus.WithField("function", "TerminateGraphics").Debug("GLFW terminated")
}

var _ graphics.Context = (*Context)(nil)
