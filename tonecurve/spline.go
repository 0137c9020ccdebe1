// Package tonecurve turns tone-curve control points into the 256-entry lookup
// table sampled by the tone-curve filter.
package tonecurve

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInsufficientPoints is returned for curves with fewer than two distinct
// control points after quantization to the 0..255 grid.
var ErrInsufficientPoints = errors.New("tone curve needs at least two distinct control points")

// ErrPointOutOfRange is returned for control points outside [0,1], including
// NaN coordinates.
var ErrPointOutOfRange = errors.New("tone curve control point outside [0,1]")

// Point is a control point in normalized [0,1] coordinates.
type Point struct {
	X, Y float32
}

type knot struct {
	x int
	y float64
}

// Spline interpolates a natural cubic spline through points and returns, for
// each integer input level, the signed distance of the curve from y=x.
//
// Levels below the first knot are pinned to 0 and levels above the last knot
// to 255. The low end re-emits the first knot's level, so a curve starting
// above 0 yields one entry more than 256.
func Spline(points []Point) ([]float32, error) {
	if len(points) < 2 {
		return nil, ErrInsufficientPoints
	}
	for _, p := range points {
		if !inUnit(p.X) || !inUnit(p.Y) {
			return nil, fmt.Errorf("%w: (%g, %g)", ErrPointOutOfRange, p.X, p.Y)
		}
	}
	knots := quantize(points)
	if len(knots) < 2 {
		return nil, ErrInsufficientPoints
	}

	sd := secondDerivative(knots)
	out := make([]knot, 0, 257)
	for i := 0; i < len(knots)-1; i++ {
		cur, next := knots[i], knots[i+1]
		h := float64(next.x - cur.x)
		for x := cur.x; x < next.x; x++ {
			t := float64(x-cur.x) / h
			a := 1 - t
			b := t
			y := a*cur.y + b*next.y + (h*h/6)*((a*a*a-a)*sd[i]+(b*b*b-b)*sd[i+1])
			if y > 255 {
				y = 255
			} else if y < 0 {
				y = 0
			}
			out = append(out, knot{x: x, y: math.Floor(y + 0.5)})
		}
	}
	if len(out) == 255 {
		out = append(out, knots[len(knots)-1])
	}

	if first := out[0]; first.x > 0 {
		low := make([]knot, 0, first.x+1+len(out))
		for x := 0; x <= first.x; x++ {
			low = append(low, knot{x: x})
		}
		out = append(low, out...)
	}
	if last := out[len(out)-1]; last.x < 255 {
		for x := last.x + 1; x <= 255; x++ {
			out = append(out, knot{x: x, y: 255})
		}
	}

	dist := make([]float32, len(out))
	for i, k := range out {
		dist[i] = float32(k.y - float64(k.x))
	}
	return dist, nil
}

func inUnit(v float32) bool {
	return v >= 0 && v <= 1
}

// quantize sorts points by x and maps them onto the integer grid. Knots that
// land on the same level collapse to the last one.
func quantize(points []Point) []knot {
	sorted := append([]Point(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	knots := make([]knot, 0, len(sorted))
	for _, p := range sorted {
		k := knot{x: int(p.X * 255), y: float64(int(p.Y * 255))}
		if n := len(knots); n > 0 && knots[n-1].x == k.x {
			knots[n-1] = k
			continue
		}
		knots = append(knots, k)
	}
	return knots
}

// secondDerivative solves the tridiagonal system of a natural cubic spline.
func secondDerivative(knots []knot) []float64 {
	n := len(knots)
	matrix := make([][3]float64, n)
	result := make([]float64, n)

	matrix[0][1] = 1
	for i := 1; i < n-1; i++ {
		p1, p2, p3 := knots[i-1], knots[i], knots[i+1]
		matrix[i][0] = float64(p2.x-p1.x) / 6
		matrix[i][1] = float64(p3.x-p1.x) / 3
		matrix[i][2] = float64(p3.x-p2.x) / 6
		result[i] = (p3.y-p2.y)/float64(p3.x-p2.x) - (p2.y-p1.y)/float64(p2.x-p1.x)
	}
	matrix[n-1][1] = 1

	for i := 1; i < n; i++ {
		k := matrix[i][0] / matrix[i-1][1]
		matrix[i][1] -= k * matrix[i-1][2]
		matrix[i][0] = 0
		result[i] -= k * result[i-1]
	}
	for i := n - 2; i >= 0; i-- {
		k := matrix[i][2] / matrix[i+1][1]
		matrix[i][1] -= k * matrix[i+1][0]
		matrix[i][2] = 0
		result[i] -= k * result[i+1]
	}

	sd := make([]float64, n)
	for i := range sd {
		sd[i] = result[i] / matrix[i][1]
	}
	return sd
}
