package options

import (
	"flag"
	"time"
)

type PlayerOptions struct {
	Input      *string // Video file, stream URL, device or still image to play.
	Filter     *string // Comma separated filter names, applied in order.
	Curve      *string // Photoshop .acv tone curve file.
	LUT        *string // 512x512 or 512x32 lookup table image.
	Overlay    *string // Image blended over the video using its alpha.
	Width      *int
	Height     *int
	FFmpegPath *string
	Realtime   *bool // Decode at the input's native frame rate.
	Loop       *bool
	Headless   *bool // Render on an EGL pbuffer and write snapshots instead of opening a window.
	Frames     *int  // Snapshots to write in headless mode.
	Interval   *time.Duration
	Output     *string // Directory for headless snapshots.
	LogLevel   *string
	List       *bool
	Help       *bool
}

// Register defines the player flags on fs.
func Register(fs *flag.FlagSet) *PlayerOptions {
	return &PlayerOptions{
		Input:      fs.String("input", "", "Video file, URL or image to play"),
		Filter:     fs.String("filter", "", "Comma separated filters to apply (see -list)"),
		Curve:      fs.String("curve", "", "Tone curve (.acv) to apply"),
		LUT:        fs.String("lut", "", "Lookup table image to apply"),
		Overlay:    fs.String("overlay", "", "Image to blend over the video"),
		Width:      fs.Int("width", 1280, "Width of the window and decoded frames"),
		Height:     fs.Int("height", 720, "Height of the window and decoded frames"),
		FFmpegPath: fs.String("ffmpeg", "", "Path to ffmpeg executable"),
		Realtime:   fs.Bool("realtime", true, "Decode at the input frame rate"),
		Loop:       fs.Bool("loop", false, "Restart the input when it ends"),
		Headless:   fs.Bool("headless", false, "Render without a window and write PNG snapshots"),
		Frames:     fs.Int("frames", 10, "Number of snapshots to write in headless mode"),
		Interval:   fs.Duration("interval", time.Second, "Time between headless snapshots"),
		Output:     fs.String("output", "frames", "Directory for headless snapshots"),
		LogLevel:   fs.String("log-level", "info", "Log level (debug, info, warn, error)"),
		List:       fs.Bool("list", false, "List available filters and exit"),
		Help:       fs.Bool("help", false, "Show help message"),
	}
}
