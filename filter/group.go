package filter

import (
	"github.com/richinsley/gpufilter/framebuffer"
	"github.com/richinsley/gpufilter/gles"
	"github.com/sirupsen/logrus"
)

// Group runs filters in sequence, ping-ponging between two offscreen targets.
// The last filter draws into the caller's target.
type Group struct {
	filters []Filter
	targets [2]framebuffer.Target
	gl      gles.Functions
	width   int
	height  int
	// set once a skipped member has been reported for the current targets
	warned bool
}

func NewGroup(filters ...Filter) *Group {
	return &Group{filters: filters}
}

// Filters returns the members in draw order.
func (g *Group) Filters() []Filter { return g.filters }

// Setup sets up every member. A failing member leaves the others released.
func (g *Group) Setup(gl gles.Functions) error {
	g.gl = gl
	for i, f := range g.filters {
		if err := f.Setup(gl); err != nil {
			for _, done := range g.filters[:i] {
				done.Release()
			}
			return err
		}
	}
	if g.width > 0 && g.height > 0 {
		g.allocate()
	}
	return nil
}

func (g *Group) SetFrameSize(width, height int) {
	g.width, g.height = width, height
	for _, f := range g.filters {
		f.SetFrameSize(width, height)
	}
	if g.gl != nil {
		g.allocate()
	}
}

func (g *Group) allocate() {
	if len(g.filters) < 2 {
		return
	}
	g.warned = false
	for i := range g.targets {
		if err := g.targets[i].Setup(g.gl, g.width, g.height); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Group.SetFrameSize",
				"width":    g.width,
				"height":   g.height,
				"error":    err,
			}).Warn("filter group target unavailable")
		}
	}
}

func (g *Group) Draw(texture gles.Texture, target *framebuffer.Target) {
	in := texture
	last := len(g.filters) - 1
	for i, f := range g.filters {
		if i == last {
			if target != nil {
				target.Enable()
			} else {
				g.gl.BindFramebuffer(gles.FRAMEBUFFER, 0)
			}
			f.Draw(in, target)
			return
		}
		pass := &g.targets[i%2]
		if !pass.Allocated() {
			// no intermediate storage, skip straight to the last filter
			if !g.warned {
				g.warned = true
				logrus.WithFields(logrus.Fields{
					"function": "Group.Draw",
					"member":   i,
					"width":    g.width,
					"height":   g.height,
				}).Warn("filter group member skipped without an intermediate target")
			}
			continue
		}
		pass.Enable()
		g.gl.Clear(gles.COLOR_BUFFER_BIT)
		f.Draw(in, pass)
		in = pass.Texture()
	}
}

func (g *Group) Release() {
	for _, f := range g.filters {
		f.Release()
	}
	for i := range g.targets {
		g.targets[i].Release()
	}
}

// ReleaseImage forwards to members holding images.
func (g *Group) ReleaseImage() {
	for _, f := range g.filters {
		if r, ok := f.(ImageReleaser); ok {
			r.ReleaseImage()
		}
	}
}
