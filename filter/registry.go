package filter

import (
	"errors"
	"fmt"
	"sort"

	"github.com/richinsley/gpufilter/tonecurve"
)

var ErrUnknownFilter = errors.New("unknown filter")

// registry maps CLI names to constructors of filters that need no external
// input. Image-backed filters (lookup, overlay) are built by the caller.
var registry = map[string]func() (Filter, error){
	"none":         func() (Filter, error) { return NewBasic(), nil },
	"bilateral":    func() (Filter, error) { return NewBilateral(), nil },
	"boxblur":      func() (Filter, error) { return NewBoxBlur(), nil },
	"brightness":   func() (Filter, error) { return NewBrightness(), nil },
	"bulge":        func() (Filter, error) { return NewBulgeDistortion(), nil },
	"contrast":     func() (Filter, error) { return NewContrast(), nil },
	"crosshatch":   func() (Filter, error) { return NewCrosshatch(), nil },
	"emboss":       func() (Filter, error) { return NewEmboss(), nil },
	"exposure":     func() (Filter, error) { return NewExposure(), nil },
	"gamma":        func() (Filter, error) { return NewGamma(), nil },
	"gaussian":     func() (Filter, error) { return NewGaussianBlur(), nil },
	"grayscale":    func() (Filter, error) { return NewGrayscale(), nil },
	"halftone":     func() (Filter, error) { return NewHalftone(), nil },
	"haze":         func() (Filter, error) { return NewHaze(), nil },
	"hue":          func() (Filter, error) { return NewHue(), nil },
	"invert":       func() (Filter, error) { return NewInvert(), nil },
	"laplacian":    func() (Filter, error) { return NewLaplacian(), nil },
	"monochrome":   func() (Filter, error) { return NewMonochrome(), nil },
	"opacity":      func() (Filter, error) { return NewOpacity(), nil },
	"pixelation":   func() (Filter, error) { return NewPixelation(), nil },
	"posterize":    func() (Filter, error) { return NewPosterize(), nil },
	"saturation":   func() (Filter, error) { return NewSaturation(), nil },
	"sepia":        func() (Filter, error) { return NewSepia(), nil },
	"sharpen":      func() (Filter, error) { return NewSharpen(), nil },
	"sobel":        func() (Filter, error) { return NewSobelEdge(), nil },
	"solarize":     func() (Filter, error) { return NewSolarize(), nil },
	"sphere":       func() (Filter, error) { return NewSphereRefraction(), nil },
	"swirl":        func() (Filter, error) { return NewSwirl(), nil },
	"tonecurve":    func() (Filter, error) { return NewToneCurve(tonecurve.Identity()) },
	"toon":         func() (Filter, error) { return NewToon(), nil },
	"vignette":     func() (Filter, error) { return NewVignette(), nil },
	"whitebalance": func() (Filter, error) { return NewWhiteBalance(), nil },
	"zoomblur":     func() (Filter, error) { return NewZoomBlur(), nil },
}

// New returns a fresh filter registered under name.
func New(name string) (Filter, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
	return ctor()
}

// Names lists the registered filter names in order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
