// glTF 2.0 (.gltf / .glb) import into the scene graph.
package formats

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/modelview/pkg/math"
	"github.com/Faultbox/modelview/pkg/scene"
)

// glTF import errors.
var (
	ErrGLTFNoScene      = errors.New("glTF document has no scene")
	ErrGLTFBadReference = errors.New("glTF index out of range")
)

// ParseGLTF decodes a glTF or GLB stream. fsys resolves external buffer
// references and may be nil for self-contained files.
func ParseGLTF(r io.Reader, fsys fs.FS) (*scene.Node, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoderFS(r, fsys).Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding glTF: %w", err)
	}
	return SceneFromGLTF(doc)
}

// ParseGLTFFile decodes a glTF or GLB file from disk.
func ParseGLTFFile(path string) (*scene.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()
	return ParseGLTF(f, os.DirFS(filepath.Dir(path)))
}

// SceneFromGLTF converts the default scene of doc into a scene graph.
// Documents without an explicit default use their first scene.
func SceneFromGLTF(doc *gltf.Document) (*scene.Node, error) {
	if len(doc.Scenes) == 0 {
		return nil, ErrGLTFNoScene
	}
	sceneIdx := 0
	if doc.Scene != nil {
		sceneIdx = *doc.Scene
	}
	if sceneIdx < 0 || sceneIdx >= len(doc.Scenes) {
		return nil, fmt.Errorf("%w: scene %d", ErrGLTFBadReference, sceneIdx)
	}
	sc := doc.Scenes[sceneIdx]

	b := &gltfBuilder{doc: doc, visiting: make(map[int]bool)}
	root := scene.NewNode(fmt.Sprintf("scene/%d", sceneIdx), sc.Name)
	for _, idx := range sc.Nodes {
		child, err := b.node(idx)
		if err != nil {
			return nil, err
		}
		root.Add(child)
	}
	return root, nil
}

type gltfBuilder struct {
	doc       *gltf.Document
	visiting  map[int]bool
	materials map[int]*scene.Material
}

func (b *gltfBuilder) node(idx int) (*scene.Node, error) {
	if idx < 0 || idx >= len(b.doc.Nodes) {
		return nil, fmt.Errorf("%w: node %d", ErrGLTFBadReference, idx)
	}
	if b.visiting[idx] {
		return nil, fmt.Errorf("%w: node %d is its own ancestor", ErrGLTFBadReference, idx)
	}
	b.visiting[idx] = true
	defer delete(b.visiting, idx)

	src := b.doc.Nodes[idx]
	n := scene.NewNode(fmt.Sprintf("node/%d", idx), src.Name)
	n.Transform = gltfLocalMatrix(src)

	if src.Mesh != nil {
		prims, err := b.mesh(*src.Mesh)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", idx, err)
		}
		n.Primitives = prims
	}

	for _, c := range src.Children {
		child, err := b.node(c)
		if err != nil {
			return nil, err
		}
		n.Add(child)
	}
	return n, nil
}

func (b *gltfBuilder) mesh(idx int) ([]scene.Primitive, error) {
	if idx < 0 || idx >= len(b.doc.Meshes) {
		return nil, fmt.Errorf("%w: mesh %d", ErrGLTFBadReference, idx)
	}
	var out []scene.Primitive
	for i, p := range b.doc.Meshes[idx].Primitives {
		posIdx, ok := p.Attributes["POSITION"]
		if !ok {
			continue
		}
		if posIdx < 0 || posIdx >= len(b.doc.Accessors) {
			return nil, fmt.Errorf("%w: mesh %d primitive %d accessor %d", ErrGLTFBadReference, idx, i, posIdx)
		}
		acc := b.doc.Accessors[posIdx]
		box, err := b.accessorBounds(acc)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", idx, i, err)
		}
		prim := scene.Primitive{Bounds: box, VertexCount: acc.Count}
		if p.Material != nil {
			prim.Material = b.material(*p.Material)
		}
		out = append(out, prim)
	}
	return out, nil
}

// accessorBounds prefers the min/max the format requires on POSITION
// accessors and falls back to reading the vertex data.
func (b *gltfBuilder) accessorBounds(acc *gltf.Accessor) (math.Box3, error) {
	if len(acc.Min) >= 3 && len(acc.Max) >= 3 {
		return math.NewBox3(
			mgl64.Vec3{acc.Min[0], acc.Min[1], acc.Min[2]},
			mgl64.Vec3{acc.Max[0], acc.Max[1], acc.Max[2]},
		), nil
	}
	positions, err := modeler.ReadPosition(b.doc, acc, nil)
	if err != nil {
		return math.Box3{}, fmt.Errorf("reading positions: %w", err)
	}
	box := math.EmptyBox3()
	for _, p := range positions {
		box.ExpandByPoint(mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])})
	}
	return box, nil
}

func (b *gltfBuilder) material(idx int) *scene.Material {
	if idx < 0 || idx >= len(b.doc.Materials) {
		return nil
	}
	if m, ok := b.materials[idx]; ok {
		return m
	}
	src := b.doc.Materials[idx]
	m := &scene.Material{Name: src.Name}
	if pbr := src.PBRMetallicRoughness; pbr != nil {
		m.Roughness = pbr.RoughnessFactor
		m.Metalness = pbr.MetallicFactor
	}
	if b.materials == nil {
		b.materials = make(map[int]*scene.Material)
	}
	b.materials[idx] = m
	return m
}

// gltfLocalMatrix returns the node's matrix, or composes T*R*S when the
// node is specified with separate components.
func gltfLocalMatrix(n *gltf.Node) mgl64.Mat4 {
	m := mgl64.Mat4(n.MatrixOrDefault())
	if m != mgl64.Ident4() {
		return m
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	rot := mgl64.Quat{W: r[3], V: mgl64.Vec3{r[0], r[1], r[2]}}.Normalize()
	return mgl64.Translate3D(t[0], t[1], t[2]).
		Mul4(rot.Mat4()).
		Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
}
