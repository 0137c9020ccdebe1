package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/richinsley/gpufilter/filter"
	"github.com/richinsley/gpufilter/options"
	"github.com/richinsley/gpufilter/source"
	"github.com/richinsley/gpufilter/tonecurve"
)

var stillExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// isStill reports whether path names an image rather than a video.
func isStill(path string) bool {
	return stillExtensions[strings.ToLower(filepath.Ext(path))]
}

// buildFilter assembles the filters named on the command line in the order
// named filters, tone curve, lookup table, overlay. It returns nil when none
// is requested.
func buildFilter(opts *options.PlayerOptions) (filter.Filter, error) {
	var filters []filter.Filter

	for _, name := range strings.Split(*opts.Filter, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		f, err := filter.New(name)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}

	if *opts.Curve != "" {
		curves, err := readCurves(*opts.Curve)
		if err != nil {
			return nil, err
		}
		f, err := filter.NewToneCurve(curves)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}

	if *opts.LUT != "" {
		img, err := source.LoadImage(*opts.LUT)
		if err != nil {
			return nil, err
		}
		filters = append(filters, filter.NewLookupTable(img))
	}

	if *opts.Overlay != "" {
		img, err := source.LoadImage(*opts.Overlay)
		if err != nil {
			return nil, err
		}
		filters = append(filters, filter.NewOverlay(img))
	}

	switch len(filters) {
	case 0:
		return nil, nil
	case 1:
		return filters[0], nil
	default:
		return filter.NewGroup(filters...), nil
	}
}

func readCurves(path string) (tonecurve.Curves, error) {
	f, err := os.Open(path)
	if err != nil {
		return tonecurve.Curves{}, fmt.Errorf("failed to open curve file: %w", err)
	}
	defer f.Close()
	curves, err := tonecurve.ReadACV(f)
	if err != nil {
		return tonecurve.Curves{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return curves, nil
}

// newSource opens the input as a still image or an ffmpeg decoder. The
// decoder is returned separately so the caller can run it.
func newSource(opts *options.PlayerOptions) (source.Source, *source.FFmpeg, error) {
	if isStill(*opts.Input) {
		img, err := source.LoadImage(*opts.Input)
		if err != nil {
			return nil, nil, err
		}
		return source.NewStill(img), nil, nil
	}
	dec, err := source.NewFFmpeg(source.FFmpegConfig{
		Input:      *opts.Input,
		Width:      *opts.Width,
		Height:     *opts.Height,
		FFmpegPath: *opts.FFmpegPath,
		Realtime:   *opts.Realtime,
		Loop:       *opts.Loop,
	})
	if err != nil {
		return nil, nil, err
	}
	return dec, dec, nil
}
