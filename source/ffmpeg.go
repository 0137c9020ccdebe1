package source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/gpufilter/gles"
	"github.com/sirupsen/logrus"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FFmpegConfig describes what the decoder reads and the frame size it emits.
type FFmpegConfig struct {
	Input      string
	Width      int
	Height     int
	FFmpegPath string
	// Realtime paces decoding at the input frame rate.
	Realtime bool
	// Loop restarts the input at its end.
	Loop bool
}

// FFmpeg decodes any input ffmpeg understands into RGBA frames scaled to the
// configured size.
type FFmpeg struct {
	cfg FFmpegConfig
	tex texture
	box *mailbox
}

func NewFFmpeg(cfg FFmpegConfig) (*FFmpeg, error) {
	if cfg.Input == "" {
		return nil, errors.New("no input given")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", cfg.Width, cfg.Height)
	}
	return &FFmpeg{cfg: cfg, box: newMailbox()}, nil
}

func (s *FFmpeg) args() (inputArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{}
	if s.cfg.Realtime {
		inputArgs["re"] = ""
	}
	if s.cfg.Loop {
		inputArgs["stream_loop"] = "-1"
	}
	outputArgs = ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": "rgba",
		"s":       fmt.Sprintf("%dx%d", s.cfg.Width, s.cfg.Height),
		"an":      "",
	}
	return
}

// Run decodes until the input ends or ctx is cancelled. It does not start
// ffmpeg before attached is closed, so no frame is produced for a texture that
// does not exist yet.
func (s *FFmpeg) Run(ctx context.Context, attached <-chan struct{}) error {
	select {
	case <-attached:
	case <-ctx.Done():
		return ctx.Err()
	}

	pipeReader, pipeWriter := io.Pipe()
	inputArgs, outputArgs := s.args()
	stream := ffmpeg.Input(s.cfg.Input, inputArgs).
		Output("pipe:", outputArgs).
		WithOutput(pipeWriter).
		ErrorToStdOut()
	if s.cfg.FFmpegPath != "" {
		stream = stream.SetFfmpegPath(s.cfg.FFmpegPath)
	}
	cmd := stream.Compile()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	go func() {
		pipeWriter.CloseWithError(cmd.Wait())
	}()
	stop := context.AfterFunc(ctx, func() {
		_ = cmd.Process.Kill()
	})
	defer stop()

	log := logrus.WithFields(logrus.Fields{
		"function": "FFmpeg.Run",
		"input":    s.cfg.Input,
	})
	log.Info("decoder started")

	frames := 0
	for {
		f := s.box.buffer(s.cfg.Width, s.cfg.Height)
		if _, err := io.ReadFull(pipeReader, f.Pix); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				log.WithField("frames", frames).Info("decoder finished")
				return nil
			}
			return fmt.Errorf("failed to read frame %d: %w", frames, err)
		}
		s.box.post(f)
		frames++
	}
}

func (s *FFmpeg) Attach(gl gles.Functions) error {
	s.tex.attach(gl)
	return nil
}

func (s *FFmpeg) Texture() gles.Texture { return s.tex.name }

func (s *FFmpeg) Frames() <-chan struct{} { return s.box.ready }

func (s *FFmpeg) UpdateTexImage() error {
	f := s.box.take()
	if f == nil {
		return nil
	}
	err := s.tex.upload(f)
	s.box.recycle(f)
	return err
}

func (s *FFmpeg) TransformMatrix() mgl32.Mat4 { return flipVertical }

func (s *FFmpeg) Release() {
	s.tex.release()
}
