// Wavefront OBJ import. Only geometry extents are needed for framing, so
// vertices are grouped per object/group and faces only mark groups as used.
package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/modelview/pkg/math"
	"github.com/Faultbox/modelview/pkg/scene"
)

// OBJ import errors.
var (
	ErrOBJMalformedVertex = errors.New("malformed OBJ vertex")
	ErrOBJBadFaceIndex    = errors.New("OBJ face index out of range")
)

type objGroup struct {
	name  string
	box   math.Box3
	faces int
	verts int
}

// ParseOBJ reads an OBJ stream. Each "o"/"g" section becomes a child node
// whose primitive spans the vertices its faces reference.
func ParseOBJ(r io.Reader) (*scene.Node, error) {
	var (
		positions []mgl64.Vec3
		groups    []*objGroup
		current   *objGroup
	)
	open := func(name string) {
		current = &objGroup{name: name, box: math.EmptyBox3()}
		groups = append(groups, current)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: %w", line, ErrOBJMalformedVertex)
			}
			var v mgl64.Vec3
			for i := 0; i < 3; i++ {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w: %v", line, ErrOBJMalformedVertex, err)
				}
				v[i] = f
			}
			positions = append(positions, v)
		case "o", "g":
			open(strings.Join(fields[1:], " "))
		case "f":
			if current == nil {
				open("default")
			}
			for _, ref := range fields[1:] {
				idx, err := objVertexIndex(ref, len(positions))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				current.box.ExpandByPoint(positions[idx])
				current.verts++
			}
			current.faces++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	root := scene.NewNode("obj", "")
	for i, g := range groups {
		if g.faces == 0 {
			continue
		}
		n := scene.NewNode(fmt.Sprintf("obj/%d", i), g.name)
		n.Primitives = []scene.Primitive{{Bounds: g.box, VertexCount: g.verts}}
		root.Add(n)
	}
	return root, nil
}

// ParseOBJFile reads an OBJ file from disk.
func ParseOBJFile(path string) (*scene.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()
	return ParseOBJ(f)
}

// objVertexIndex resolves "v", "v/vt", "v//vn" or "v/vt/vn" to a zero-based
// position index. Negative indices count back from the latest vertex.
func objVertexIndex(ref string, count int) (int, error) {
	if slash := strings.IndexByte(ref, '/'); slash >= 0 {
		ref = ref[:slash]
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrOBJBadFaceIndex, ref)
	}
	idx := n - 1
	if n < 0 {
		idx = count + n
	}
	if n == 0 || idx < 0 || idx >= count {
		return 0, fmt.Errorf("%w: %d of %d", ErrOBJBadFaceIndex, n, count)
	}
	return idx, nil
}
