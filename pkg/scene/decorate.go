package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// DecorateOptions selects the per-viewer presentation tweaks.
type DecorateOptions struct {
	Shadows          bool
	DefaultRoughness float64
	DefaultMetalness float64
}

// DefaultDecorateOptions enables shadows with the standard PBR fallbacks.
func DefaultDecorateOptions() DecorateOptions {
	return DecorateOptions{
		Shadows:          true,
		DefaultRoughness: 0.6,
		DefaultMetalness: 0.1,
	}
}

// PrimitiveKey identifies a primitive within a graph.
type PrimitiveKey struct {
	NodeID string
	Index  int
}

// Override is the effective presentation state of one primitive.
type Override struct {
	CastShadow    bool
	ReceiveShadow bool
	Roughness     float64
	Metalness     float64
}

// Decorated is a viewer-local view over a shared graph. The graph itself is
// never modified; all adjustments live in the override table.
type Decorated struct {
	Root      *Node
	overrides map[PrimitiveKey]Override
}

// Decorate builds the override table for root.
func Decorate(root *Node, opts DecorateOptions) *Decorated {
	d := &Decorated{
		Root:      root,
		overrides: make(map[PrimitiveKey]Override),
	}
	root.Walk(func(n *Node, _ mgl64.Mat4) bool {
		for i, p := range n.Primitives {
			o := Override{
				CastShadow:    p.CastShadow,
				ReceiveShadow: p.ReceiveShadow,
				Roughness:     opts.DefaultRoughness,
				Metalness:     opts.DefaultMetalness,
			}
			if opts.Shadows {
				o.CastShadow = true
				o.ReceiveShadow = true
			}
			if m := p.Material; m != nil {
				if m.Roughness != nil {
					o.Roughness = *m.Roughness
				}
				if m.Metalness != nil {
					o.Metalness = *m.Metalness
				}
			}
			o.Roughness = mgl64.Clamp(o.Roughness, 0, 1)
			o.Metalness = mgl64.Clamp(o.Metalness, 0, 1)
			d.overrides[PrimitiveKey{NodeID: n.ID, Index: i}] = o
		}
		return true
	})
	return d
}

// Override returns the presentation state for a primitive.
func (d *Decorated) Override(nodeID string, index int) (Override, bool) {
	o, ok := d.overrides[PrimitiveKey{NodeID: nodeID, Index: index}]
	return o, ok
}

// Len returns the number of decorated primitives.
func (d *Decorated) Len() int {
	return len(d.overrides)
}
