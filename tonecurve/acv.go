package tonecurve

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// ErrTooFewCurves is returned for curve files that do not carry the
// composite, red, green and blue curves.
var ErrTooFewCurves = errors.New("curve file has fewer than four curves")

var pointRate = float32(1.0 / 255)

// ReadACV parses a Photoshop .acv curve file. The file is a sequence of
// big-endian int16: version, curve count, then per curve a point count
// followed by (output, input) pairs in 0..255. Curves past the fourth are
// ignored.
func ReadACV(r io.Reader) (Curves, error) {
	var header struct {
		Version int16
		Count   int16
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return Curves{}, fmt.Errorf("failed to read curve header: %w", unexpected(err))
	}
	if header.Count < 4 {
		return Curves{}, fmt.Errorf("%w: %d", ErrTooFewCurves, header.Count)
	}

	var curves [4][]Point
	for i := range curves {
		var n int16
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return Curves{}, fmt.Errorf("failed to read point count of curve %d: %w", i, unexpected(err))
		}
		if n < 0 {
			return Curves{}, fmt.Errorf("curve %d has negative point count %d", i, n)
		}
		pairs := make([][2]int16, n)
		if err := binary.Read(r, binary.BigEndian, pairs); err != nil {
			return Curves{}, fmt.Errorf("failed to read points of curve %d: %w", i, unexpected(err))
		}
		points := make([]Point, n)
		for j, p := range pairs {
			if p[0] < 0 || p[0] > 255 || p[1] < 0 || p[1] > 255 {
				return Curves{}, fmt.Errorf("%w: curve %d point %d is (%d, %d)", ErrPointOutOfRange, i, j, p[1], p[0])
			}
			points[j] = Point{X: float32(p[1]) * pointRate, Y: float32(p[0]) * pointRate}
		}
		curves[i] = points
	}

	logrus.WithFields(logrus.Fields{
		"function": "ReadACV",
		"version":  header.Version,
		"curves":   header.Count,
	}).Debug("curve file parsed")

	return Curves{
		Composite: curves[0],
		Red:       curves[1],
		Green:     curves[2],
		Blue:      curves[3],
	}, nil
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
