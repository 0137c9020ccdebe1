package tonecurve

import (
	"fmt"
)

// Size is the number of entries in a lookup table.
const Size = 256

// Curves holds the control points of the composite curve and of the three
// colour channels.
type Curves struct {
	Composite []Point
	Red       []Point
	Green     []Point
	Blue      []Point
}

// Identity returns the default curve set, which leaves colours unchanged.
func Identity() Curves {
	def := []Point{{0, 0}, {0.5, 0.5}, {1, 1}}
	return Curves{
		Composite: def,
		Red:       append([]Point(nil), def...),
		Green:     append([]Point(nil), def...),
		Blue:      append([]Point(nil), def...),
	}
}

// Table is a 256x1 RGBA lookup texture. Pix[i*4+c] is the output level of
// channel c for input level i; alpha is always 255.
type Table struct {
	Pix [Size * 4]byte
}

// Build computes the lookup table of a curve set. The composite curve is
// added to each channel curve.
func Build(c Curves) (*Table, error) {
	composite, err := Spline(c.Composite)
	if err != nil {
		return nil, fmt.Errorf("composite curve: %w", err)
	}
	channels := [3][]Point{c.Red, c.Green, c.Blue}
	var curves [3][]float32
	for ch, points := range channels {
		curves[ch], err = Spline(points)
		if err != nil {
			return nil, fmt.Errorf("%s curve: %w", channelNames[ch], err)
		}
	}

	t := &Table{}
	for i := 0; i < Size; i++ {
		for ch := 0; ch < 3; ch++ {
			t.Pix[i*4+ch] = level(float32(i) + curves[ch][i] + composite[i])
		}
		t.Pix[i*4+3] = 255
	}
	return t, nil
}

var channelNames = [3]string{"red", "green", "blue"}

func level(v float32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(int(v))
}
