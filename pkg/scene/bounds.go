package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/modelview/pkg/math"
)

// ErrDegenerateGeometry is reported when a graph has no measurable volume.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// DegenerateGeometryError describes bounds that had to be padded.
type DegenerateGeometryError struct {
	Measured   math.Box3
	Primitives int
}

func (e *DegenerateGeometryError) Error() string {
	if e.Primitives == 0 {
		return fmt.Sprintf("%v: no visible primitives", ErrDegenerateGeometry)
	}
	return fmt.Sprintf("%v: %d primitives span %v", ErrDegenerateGeometry, e.Primitives, e.Measured.Size())
}

func (e *DegenerateGeometryError) Unwrap() error {
	return ErrDegenerateGeometry
}

// MeasureBounds returns the world-space union of every visible primitive's
// bounds under root. The returned box is always sanitized; a
// *DegenerateGeometryError is returned alongside it when padding was needed.
func MeasureBounds(root *Node) (math.Box3, error) {
	box := math.EmptyBox3()
	count := 0

	root.Walk(func(n *Node, world mgl64.Mat4) bool {
		for _, p := range n.Primitives {
			if p.Bounds.IsEmpty() || !p.Bounds.IsFinite() {
				continue
			}
			box.Union(p.Bounds.Transform(world))
			count++
		}
		return true
	})

	if count == 0 || box.Degenerate() {
		return box.Sanitize(), &DegenerateGeometryError{Measured: box, Primitives: count}
	}
	return box, nil
}

// ComputeBounds is MeasureBounds with degeneracy absorbed: the result is
// always finite with MaxDimension() >= math.Epsilon.
func ComputeBounds(root *Node) math.Box3 {
	box, _ := MeasureBounds(root)
	return box
}
