// Package hexgrid implements HECS coordinates for the game's hexagonal map.
//
// HECS (Hexagonal Efficient Coordinate System) addresses a hex grid as two
// interleaved rectangular arrays: A selects the array (0 or 1), R the row and
// C the column. Addition carries between the two arrays, which keeps A in
// {0, 1} and makes displacement composition a plain component sum.
package hexgrid

import "math"

// HecsCoord is a single hex cell (or a displacement between cells).
type HecsCoord struct {
	A int `json:"a"`
	R int `json:"r"`
	C int `json:"c"`
}

// Origin returns the zero coordinate.
func Origin() HecsCoord {
	return HecsCoord{}
}

// Add composes two coordinates. The carry rule (a.A & b.A added to both row
// and column) preserves the A ∈ {0, 1} invariant.
func Add(a, b HecsCoord) HecsCoord {
	return HecsCoord{
		A: a.A ^ b.A,
		R: a.R + b.R + (a.A & b.A),
		C: a.C + b.C + (a.A & b.A),
	}
}

// Sub returns the displacement from b to a, i.e. Add(b, Sub(a, b)) == a.
func Sub(a, b HecsCoord) HecsCoord {
	return Add(a, b.Negate())
}

// Negate returns the additive inverse: Add(h, h.Negate()) == Origin().
func (h HecsCoord) Negate() HecsCoord {
	return HecsCoord{A: h.A, R: -h.R - h.A, C: -h.C - h.A}
}

// Equals reports componentwise equality.
func (h HecsCoord) Equals(o HecsCoord) bool {
	return h.A == o.A && h.R == o.R && h.C == o.C
}

// Cartesian projects the coordinate onto the plane. Adjacent cells are
// exactly 1.0 apart under this projection.
func (h HecsCoord) Cartesian() (x, y float64) {
	x = 0.5*float64(h.A) + float64(h.C)
	y = math.Sqrt(3)/2*float64(h.A) + math.Sqrt(3)*float64(h.R)
	return x, y
}

// Norm is the Euclidean length of the Cartesian projection.
func (h HecsCoord) Norm() float64 {
	x, y := h.Cartesian()
	return math.Sqrt(x*x + y*y)
}

// DistanceTo returns planar distance between two cells.
func (h HecsCoord) DistanceTo(o HecsCoord) float64 {
	return Sub(o, h).Norm()
}

// UpRight returns the neighbor up and to the right.
func (h HecsCoord) UpRight() HecsCoord {
	return HecsCoord{A: 1 - h.A, R: h.R - (1 - h.A), C: h.C + h.A}
}

// Right returns the neighbor directly to the right.
func (h HecsCoord) Right() HecsCoord {
	return HecsCoord{A: h.A, R: h.R, C: h.C + 1}
}

// DownRight returns the neighbor down and to the right.
func (h HecsCoord) DownRight() HecsCoord {
	return HecsCoord{A: 1 - h.A, R: h.R + h.A, C: h.C + h.A}
}

// DownLeft returns the neighbor down and to the left.
func (h HecsCoord) DownLeft() HecsCoord {
	return HecsCoord{A: 1 - h.A, R: h.R + h.A, C: h.C - (1 - h.A)}
}

// Left returns the neighbor directly to the left.
func (h HecsCoord) Left() HecsCoord {
	return HecsCoord{A: h.A, R: h.R, C: h.C - 1}
}

// UpLeft returns the neighbor up and to the left.
func (h HecsCoord) UpLeft() HecsCoord {
	return HecsCoord{A: 1 - h.A, R: h.R - (1 - h.A), C: h.C - (1 - h.A)}
}

// Neighbors lists the six adjacent cells clockwise starting from up-right.
func (h HecsCoord) Neighbors() []HecsCoord {
	return []HecsCoord{
		h.UpRight(), h.Right(), h.DownRight(),
		h.DownLeft(), h.Left(), h.UpLeft(),
	}
}

// NeighborAtHeading returns the adjacent cell in the direction of the given
// heading in degrees. Headings snap to 60° sectors; 0° is up-right.
func (h HecsCoord) NeighborAtHeading(headingDegrees float64) HecsCoord {
	idx := int(math.Floor(headingDegrees/60.0)) % 6
	if idx < 0 {
		idx += 6
	}
	return h.Neighbors()[idx]
}
