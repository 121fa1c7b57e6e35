package valueobjects

import "math"

// Position represents a point in the weave's layout space.
// Z is 0 for 2D layouts; the transform boundary normalizes missing
// z components to 0 before a Position is ever constructed.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// NewPosition creates a position from coordinates
func NewPosition(x, y, z float64) Position {
	return Position{X: x, Y: y, Z: z}
}

// DistanceTo returns the Euclidean distance to another position
func (p Position) DistanceTo(other Position) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	dz := p.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Centroid returns the arithmetic-mean center of the given positions.
// Returns the zero position when the slice is empty.
func Centroid(positions []Position) Position {
	if len(positions) == 0 {
		return Position{}
	}

	var sum Position
	for _, p := range positions {
		sum.X += p.X
		sum.Y += p.Y
		sum.Z += p.Z
	}

	n := float64(len(positions))
	return Position{X: sum.X / n, Y: sum.Y / n, Z: sum.Z / n}
}

// MaxDistance returns the largest Euclidean distance from center to any
// of the given positions. Returns 0 for an empty slice.
func MaxDistance(center Position, positions []Position) float64 {
	max := 0.0
	for _, p := range positions {
		if d := center.DistanceTo(p); d > max {
			max = d
		}
	}
	return max
}
