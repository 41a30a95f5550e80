// Package scene provides the in-memory scene graph that decoded assets are
// loaded into, plus read-only passes over it (bounds, decoration).
package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/modelview/pkg/math"
)

// Material holds the shading parameters a primitive was authored with.
// Nil factors mean the asset did not specify them.
type Material struct {
	Name      string
	Roughness *float64
	Metalness *float64
}

// Primitive is a renderable piece of geometry, described by its local-space bounds.
type Primitive struct {
	Bounds        math.Box3
	VertexCount   int
	Material      *Material
	CastShadow    bool
	ReceiveShadow bool
}

// Node is a transform in the scene graph with optional geometry.
// Loaded graphs are shared between viewers and must be treated as read-only.
type Node struct {
	ID         string
	Name       string
	Transform  mgl64.Mat4 // local, column-major
	Visible    bool
	Primitives []Primitive
	Children   []*Node
}

// NewNode creates a visible node with an identity transform.
func NewNode(id, name string) *Node {
	return &Node{
		ID:        id,
		Name:      name,
		Transform: mgl64.Ident4(),
		Visible:   true,
	}
}

// Add appends children and returns n for chaining.
func (n *Node) Add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// WalkFunc is called for every visited node with its world transform.
// Returning false skips the node's children.
type WalkFunc func(n *Node, world mgl64.Mat4) bool

// Walk visits visible nodes depth first, accumulating world transforms.
// Invisible nodes are skipped together with their subtrees.
func (n *Node) Walk(fn WalkFunc) {
	if n == nil {
		return
	}
	n.walk(mgl64.Ident4(), fn, make(map[*Node]bool))
}

func (n *Node) walk(parent mgl64.Mat4, fn WalkFunc, visiting map[*Node]bool) {
	if !n.Visible || visiting[n] {
		return
	}
	visiting[n] = true
	defer delete(visiting, n)

	world := parent.Mul4(n.Transform)
	if !fn(n, world) {
		return
	}
	for _, child := range n.Children {
		if child != nil {
			child.walk(world, fn, visiting)
		}
	}
}

// Count returns the number of visible nodes and primitives under n.
func (n *Node) Count() (nodes, primitives int) {
	n.Walk(func(node *Node, _ mgl64.Mat4) bool {
		nodes++
		primitives += len(node.Primitives)
		return true
	})
	return nodes, primitives
}
