package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/gpufilter/gles"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Still is a source showing one picture. The picture is uploaded on the first
// UpdateTexImage after Attach.
type Still struct {
	tex   texture
	box   *mailbox
	frame *Frame
}

// NewStill converts img to a frame.
func NewStill(img image.Image) *Still {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	return &Still{
		box:   newMailbox(),
		frame: &Frame{Pix: rgba.Pix, Width: b.Dx(), Height: b.Dy()},
	}
}

// LoadImage decodes a PNG, JPEG, BMP, TIFF or WebP file.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	logrus.WithFields(logrus.Fields{
		"function": "LoadImage",
		"path":     path,
		"format":   format,
		"size":     img.Bounds().Size().String(),
	}).Debug("image decoded")
	return img, nil
}

func (s *Still) Attach(gl gles.Functions) error {
	s.tex.attach(gl)
	s.box.post(s.frame)
	return nil
}

func (s *Still) Texture() gles.Texture { return s.tex.name }

func (s *Still) Frames() <-chan struct{} { return s.box.ready }

func (s *Still) UpdateTexImage() error {
	f := s.box.take()
	if f == nil {
		return nil
	}
	return s.tex.upload(f)
}

func (s *Still) TransformMatrix() mgl32.Mat4 { return flipVertical }

func (s *Still) Release() {
	s.tex.release()
}
