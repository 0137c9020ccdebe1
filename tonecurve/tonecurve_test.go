package tonecurve

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplineIdentity(t *testing.T) {
	for name, points := range map[string][]Point{
		"two points":   {{0, 0}, {1, 1}},
		"three points": {{0, 0}, {0.5, 0.5}, {1, 1}},
		"unsorted":     {{1, 1}, {0, 0}, {0.5, 0.5}},
	} {
		t.Run(name, func(t *testing.T) {
			curve, err := Spline(points)
			require.NoError(t, err)
			require.Len(t, curve, 256)
			for i, d := range curve {
				assert.Zerof(t, d, "level %d", i)
			}
		})
	}
}

func TestSplineInsufficientPoints(t *testing.T) {
	_, err := Spline(nil)
	require.ErrorIs(t, err, ErrInsufficientPoints)

	_, err = Spline([]Point{{0.5, 0.5}})
	require.ErrorIs(t, err, ErrInsufficientPoints)

	// both knots quantize to level 127
	_, err = Spline([]Point{{0.5, 0.1}, {0.5, 0.9}})
	require.ErrorIs(t, err, ErrInsufficientPoints)
}

func TestSplineRejectsPointsOutsideUnitRange(t *testing.T) {
	nan := float32(math.NaN())
	for _, points := range [][]Point{
		{{-0.1, 0}, {1, 1}},
		{{0, 0}, {1.2, 1}},
		{{0, -0.01}, {1, 1}},
		{{0, 0}, {1, 1.5}},
		{{nan, 0}, {1, 1}},
		{{0, 0}, {1, nan}},
	} {
		_, err := Spline(points)
		require.ErrorIs(t, err, ErrPointOutOfRange, "%v", points)
	}

	_, err := Build(Curves{
		Composite: Identity().Composite,
		Red:       []Point{{-0.1, 0}, {1, 1}},
		Green:     Identity().Green,
		Blue:      Identity().Blue,
	})
	require.ErrorIs(t, err, ErrPointOutOfRange)
	assert.Contains(t, err.Error(), "red")
}

func TestSplineCoversFullRange(t *testing.T) {
	curve, err := Spline([]Point{{0, 0.1}, {0.3, 0.6}, {0.7, 0.4}, {1, 0.9}})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(curve), 256)
	for i := 0; i < 256; i++ {
		out := float32(i) + curve[i]
		assert.GreaterOrEqual(t, out, float32(0))
		assert.LessOrEqual(t, out, float32(255))
	}
}

func TestSplineClampsOvershoot(t *testing.T) {
	curve, err := Spline([]Point{{0, 0}, {0.1, 1}, {0.2, 0}, {1, 1}})
	require.NoError(t, err)
	for i := 0; i < 256; i++ {
		out := float32(i) + curve[i]
		assert.GreaterOrEqual(t, out, float32(0), "level %d", i)
		assert.LessOrEqual(t, out, float32(255), "level %d", i)
	}
}

// A curve starting above level 0 is padded with zeros up to and including the
// first knot's level, then the knot itself follows, so the first knot's level
// appears twice and everything after it is shifted by one entry.
func TestSplineLowEndExtensionRepeatsFirstLevel(t *testing.T) {
	curve, err := Spline([]Point{{0.2, 0.2}, {1, 1}})
	require.NoError(t, err)
	require.Len(t, curve, 257)

	for i := 0; i <= 51; i++ {
		assert.Equal(t, float32(-i), curve[i], "level %d", i)
	}
	assert.Zero(t, curve[52])
	assert.Zero(t, curve[256])
}

// A curve ending below level 255 is saturated to 255 from the level after the
// last interpolated one, while the low end falls to 0.
func TestSplineHighEndExtension(t *testing.T) {
	curve, err := Spline([]Point{{0, 0}, {0.8, 0.8}})
	require.NoError(t, err)
	require.Len(t, curve, 256)

	assert.Zero(t, curve[0])
	assert.Zero(t, curve[203])
	for i := 204; i < 256; i++ {
		assert.Equal(t, float32(255-i), curve[i], "level %d", i)
	}
}

func TestBuildIdentity(t *testing.T) {
	table, err := Build(Identity())
	require.NoError(t, err)
	for i := 0; i < Size; i++ {
		assert.Equal(t, []byte{byte(i), byte(i), byte(i), 255}, table.Pix[i*4:i*4+4], "level %d", i)
	}
}

func TestBuildPerChannel(t *testing.T) {
	c := Identity()
	c.Red = []Point{{0, 1}, {1, 1}}
	c.Blue = []Point{{0, 0}, {1, 0}}

	table, err := Build(c)
	require.NoError(t, err)
	for i := 0; i < Size; i++ {
		assert.Equal(t, byte(255), table.Pix[i*4], "red %d", i)
		assert.Equal(t, byte(i), table.Pix[i*4+1], "green %d", i)
		assert.Equal(t, byte(0), table.Pix[i*4+2], "blue %d", i)
		assert.Equal(t, byte(255), table.Pix[i*4+3])
	}
}

func TestBuildRejectsBadChannel(t *testing.T) {
	c := Identity()
	c.Green = []Point{{0.3, 0.3}}
	_, err := Build(c)
	require.ErrorIs(t, err, ErrInsufficientPoints)
	assert.Contains(t, err.Error(), "green")
}

func writeACV(t *testing.T, version int16, curves [][][2]int16) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []int16{version, int16(len(curves))}))
	for _, c := range curves {
		require.NoError(t, binary.Write(&buf, binary.BigEndian, int16(len(c))))
		for _, p := range c {
			// stored as (output, input)
			require.NoError(t, binary.Write(&buf, binary.BigEndian, []int16{p[1], p[0]}))
		}
	}
	return buf.Bytes()
}

func TestReadACV(t *testing.T) {
	linear := [][2]int16{{0, 0}, {255, 255}}
	inverted := [][2]int16{{0, 255}, {255, 0}}
	data := writeACV(t, 4, [][][2]int16{linear, inverted, linear, linear, linear})

	curves, err := ReadACV(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []Point{{0, 0}, {1, 1}}, curves.Composite)
	assert.Equal(t, []Point{{0, 1}, {1, 0}}, curves.Red)
	assert.Len(t, curves.Blue, 2)

	table, err := Build(curves)
	require.NoError(t, err)
	assert.Equal(t, byte(255), table.Pix[0])
	assert.Equal(t, byte(0), table.Pix[255*4])
	assert.Equal(t, byte(255), table.Pix[255*4+1])
}

func TestReadACVTooFewCurves(t *testing.T) {
	linear := [][2]int16{{0, 0}, {255, 255}}
	data := writeACV(t, 1, [][][2]int16{linear, linear, linear})

	_, err := ReadACV(bytes.NewReader(data))
	require.ErrorIs(t, err, ErrTooFewCurves)
}

func TestReadACVRejectsOutOfRangeLevels(t *testing.T) {
	linear := [][2]int16{{0, 0}, {255, 255}}
	for _, bad := range [][][2]int16{
		{{-25, 0}, {255, 255}},
		{{0, 0}, {300, 255}},
		{{0, 0}, {255, 256}},
	} {
		data := writeACV(t, 1, [][][2]int16{linear, bad, linear, linear})
		_, err := ReadACV(bytes.NewReader(data))
		require.ErrorIs(t, err, ErrPointOutOfRange, "%v", bad)
	}
}

func TestReadACVTruncated(t *testing.T) {
	linear := [][2]int16{{0, 0}, {255, 255}}
	data := writeACV(t, 1, [][][2]int16{linear, linear, linear, linear})

	for _, n := range []int{0, 3, 10, len(data) - 1} {
		_, err := ReadACV(bytes.NewReader(data[:n]))
		require.ErrorIs(t, err, io.ErrUnexpectedEOF, "cut at %d", n)
	}
}
