// Package debug provides wireframe and capture helpers for inspecting
// framed assets.
package debug

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/modelview/pkg/math"
	"github.com/Faultbox/modelview/pkg/scene"
)

// Edge is one line segment of a wireframe.
type Edge [2]mgl64.Vec3

// BoxEdgeCount is the number of edges of a box wireframe.
const BoxEdgeCount = 12

// BoxEdges returns the 12 edges of b grown by padding on every side.
// An empty box has no edges.
func BoxEdges(b math.Box3, padding float64) []Edge {
	if b.IsEmpty() {
		return nil
	}
	p := mgl64.Vec3{padding, padding, padding}
	lo, hi := b.Min.Sub(p), b.Max.Add(p)
	// Negative padding can invert an axis; collapse it to its center.
	for i := 0; i < 3; i++ {
		if lo[i] > hi[i] {
			c := (lo[i] + hi[i]) / 2
			lo[i], hi[i] = c, c
		}
	}

	c := math.Box3{Min: lo, Max: hi}.Corners()
	// Corner index bits: 1 = max x, 2 = max y, 4 = max z.
	return []Edge{
		// Bottom face
		{c[0], c[1]}, {c[1], c[5]}, {c[5], c[4]}, {c[4], c[0]},
		// Top face
		{c[2], c[3]}, {c[3], c[7]}, {c[7], c[6]}, {c[6], c[2]},
		// Vertical edges
		{c[0], c[2]}, {c[1], c[3]}, {c[5], c[7]}, {c[4], c[6]},
	}
}

// PrimitiveBoxes returns the world-space box of every visible primitive
// under root, in traversal order.
func PrimitiveBoxes(root *scene.Node) []math.Box3 {
	var out []math.Box3
	root.Walk(func(n *scene.Node, world mgl64.Mat4) bool {
		for _, p := range n.Primitives {
			if p.Bounds.IsEmpty() || !p.Bounds.IsFinite() {
				continue
			}
			out = append(out, p.Bounds.Transform(world))
		}
		return true
	})
	return out
}

// Wireframe returns the box edges of every visible primitive under root.
func Wireframe(root *scene.Node) []Edge {
	boxes := PrimitiveBoxes(root)
	out := make([]Edge, 0, len(boxes)*BoxEdgeCount)
	for _, b := range boxes {
		out = append(out, BoxEdges(b, 0)...)
	}
	return out
}
