package source

import "sync"

// Frame is one decoded picture, RGBA, top row first.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
}

// mailbox hands the newest frame from a decoder to the render thread. Older
// frames not yet picked up are dropped, and ready signals coalesce into one.
type mailbox struct {
	mu    sync.Mutex
	frame *Frame
	spare *Frame
	ready chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{ready: make(chan struct{}, 1)}
}

// buffer returns a frame the decoder may fill, reusing the one the render
// thread last consumed when it has the right size.
func (m *mailbox) buffer(width, height int) *Frame {
	m.mu.Lock()
	f := m.spare
	m.spare = nil
	m.mu.Unlock()
	if f == nil || f.Width != width || f.Height != height {
		return &Frame{Pix: make([]byte, width*height*4), Width: width, Height: height}
	}
	return f
}

// post publishes f and signals the render side.
func (m *mailbox) post(f *Frame) {
	m.mu.Lock()
	m.frame = f
	m.mu.Unlock()
	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// take returns the pending frame, or nil.
func (m *mailbox) take() *Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := m.frame
	m.frame = nil
	return f
}

// recycle returns a consumed frame for reuse by buffer.
func (m *mailbox) recycle(f *Frame) {
	m.mu.Lock()
	m.spare = f
	m.mu.Unlock()
}
