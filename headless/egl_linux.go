//go:build linux

// Package headless provides an off-screen EGL surface for rendering without a
// window, such as on a GPU server.
package headless

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/richinsley/gpufilter/graphics"
	"github.com/sirupsen/logrus"
)

/*
#cgo LDFLAGS: -lEGL
#include <EGL/egl.h>
#include <EGL/eglext.h>

static PFNEGLQUERYDEVICESEXTPROC queryDevicesPtr = NULL;
static PFNEGLGETPLATFORMDISPLAYEXTPROC platformDisplayPtr = NULL;

static void load_extensions() {
    queryDevicesPtr = (PFNEGLQUERYDEVICESEXTPROC) eglGetProcAddress("eglQueryDevicesEXT");
    platformDisplayPtr = (PFNEGLGETPLATFORMDISPLAYEXTPROC) eglGetProcAddress("eglGetPlatformDisplayEXT");
}

static EGLDisplay platform_display(EGLenum platform, void *native_display) {
    if (platformDisplayPtr) {
        return platformDisplayPtr(platform, native_display, NULL);
    }
    return EGL_NO_DISPLAY;
}

static EGLBoolean query_devices(EGLint max_devices, EGLDeviceEXT *devices, EGLint *num_devices) {
    if (queryDevicesPtr) {
        return queryDevicesPtr(max_devices, devices, num_devices);
    }
    return EGL_FALSE;
}
*/
import "C"

// Context is an OpenGL ES 3 context on a pbuffer surface. It never asks to
// close; the caller ends rendering through its context.
type Context struct {
	display C.EGLDisplay
	context C.EGLContext
	surface C.EGLSurface
	width   int
	height  int
	start   time.Time
}

// display picks the first EGL device, falling back to the default display
// when device enumeration is unavailable.
func display() (C.EGLDisplay, error) {
	C.load_extensions()
	log := logrus.WithField("function", "headless.display")

	var count C.EGLint
	if C.query_devices(0, nil, &count) == C.EGL_FALSE || count == 0 {
		log.Warn("EGL device query unavailable, using default display")
		d := C.eglGetDisplay(C.EGLNativeDisplayType(C.EGL_DEFAULT_DISPLAY))
		if d == C.EGLDisplay(C.EGL_NO_DISPLAY) {
			return d, fmt.Errorf("no default EGL display")
		}
		return d, nil
	}

	devices := make([]C.EGLDeviceEXT, count)
	if C.query_devices(count, &devices[0], &count) == C.EGL_FALSE {
		return C.EGLDisplay(C.EGL_NO_DISPLAY), fmt.Errorf("failed to query EGL devices")
	}
	for i := 0; i < int(count); i++ {
		d := C.platform_display(C.EGL_PLATFORM_DEVICE_EXT, unsafe.Pointer(devices[i]))
		if d != C.EGLDisplay(C.EGL_NO_DISPLAY) {
			log.WithField("device", i).Debug("using EGL device")
			return d, nil
		}
	}
	return C.EGLDisplay(C.EGL_NO_DISPLAY), fmt.Errorf("no EGL device provides a display")
}

// New creates the context and makes it current on the calling thread.
func New(width, height int) (*Context, error) {
	h := &Context{width: width, height: height, start: time.Now()}

	var err error
	if h.display, err = display(); err != nil {
		return nil, fmt.Errorf("failed to get EGL display: %w", err)
	}
	var major, minor C.EGLint
	if C.eglInitialize(h.display, &major, &minor) == C.EGL_FALSE {
		return nil, fmt.Errorf("failed to initialize EGL")
	}

	configAttribs := []C.EGLint{
		C.EGL_SURFACE_TYPE, C.EGL_PBUFFER_BIT,
		C.EGL_RED_SIZE, 8,
		C.EGL_GREEN_SIZE, 8,
		C.EGL_BLUE_SIZE, 8,
		C.EGL_ALPHA_SIZE, 8,
		C.EGL_DEPTH_SIZE, 24,
		C.EGL_RENDERABLE_TYPE, C.EGL_OPENGL_ES3_BIT,
		C.EGL_NONE,
	}
	var config C.EGLConfig
	var n C.EGLint
	if C.eglChooseConfig(h.display, &configAttribs[0], &config, 1, &n) == C.EGL_FALSE || n == 0 {
		h.Shutdown()
		return nil, fmt.Errorf("failed to choose EGL config")
	}

	pbufferAttribs := []C.EGLint{
		C.EGL_WIDTH, C.EGLint(width),
		C.EGL_HEIGHT, C.EGLint(height),
		C.EGL_NONE,
	}
	h.surface = C.eglCreatePbufferSurface(h.display, config, &pbufferAttribs[0])
	if h.surface == C.EGLSurface(C.EGL_NO_SURFACE) {
		h.Shutdown()
		return nil, fmt.Errorf("failed to create pbuffer surface")
	}

	contextAttribs := []C.EGLint{
		C.EGL_CONTEXT_CLIENT_VERSION, 3,
		C.EGL_NONE,
	}
	h.context = C.eglCreateContext(h.display, config, C.EGLContext(C.EGL_NO_CONTEXT), &contextAttribs[0])
	if h.context == C.EGLContext(C.EGL_NO_CONTEXT) {
		h.Shutdown()
		return nil, fmt.Errorf("failed to create EGL context")
	}
	h.MakeCurrent()

	logrus.WithFields(logrus.Fields{
		"function": "headless.New",
		"egl":      fmt.Sprintf("%d.%d", major, minor),
		"width":    width,
		"height":   height,
	}).Info("headless context created")
	return h, nil
}

func (h *Context) MakeCurrent() {
	C.eglMakeCurrent(h.display, h.surface, h.surface, h.context)
}

func (h *Context) DetachCurrent() {
	C.eglMakeCurrent(h.display, C.EGLSurface(C.EGL_NO_SURFACE), C.EGLSurface(C.EGL_NO_SURFACE), C.EGLContext(C.EGL_NO_CONTEXT))
}

func (h *Context) Shutdown() {
	if h.display == C.EGLDisplay(C.EGL_NO_DISPLAY) {
		return
	}
	h.DetachCurrent()
	if h.context != C.EGLContext(C.EGL_NO_CONTEXT) {
		C.eglDestroyContext(h.display, h.context)
	}
	if h.surface != C.EGLSurface(C.EGL_NO_SURFACE) {
		C.eglDestroySurface(h.display, h.surface)
	}
	C.eglTerminate(h.display)
	h.display = C.EGLDisplay(C.EGL_NO_DISPLAY)
}

func (h *Context) ShouldClose() bool { return false }

func (h *Context) EndFrame() {
	C.eglSwapBuffers(h.display, h.surface)
}

func (h *Context) PollEvents() {}

func (h *Context) GetFramebufferSize() (int, int) { return h.width, h.height }

func (h *Context) IsGLES() bool { return true }

func (h *Context) Time() float64 { return time.Since(h.start).Seconds() }

var _ graphics.Context = (*Context)(nil)
