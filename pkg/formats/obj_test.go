package formats

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/modelview/pkg/scene"
)

const twoGroupOBJ = `# two boxes
v 0 0 0
v 1 0 0
v 1 1 0
o first
f 1 2 3
v 5 5 5
v 6 5 5
v 6 7 9
g second
f -3/1 -2/2/2 -1//3
o unused
`

func TestParseOBJ(t *testing.T) {
	root, err := ParseOBJ(strings.NewReader(twoGroupOBJ))
	if err != nil {
		t.Fatalf("ParseOBJ() error = %v", err)
	}
	if len(root.Children) != 2 {
		t.Fatalf("got %d groups, want 2", len(root.Children))
	}
	if root.Children[0].Name != "first" || root.Children[1].Name != "second" {
		t.Errorf("group names = %q, %q", root.Children[0].Name, root.Children[1].Name)
	}
	second := root.Children[1].Primitives[0].Bounds
	if second.Min != (mgl64.Vec3{5, 5, 5}) || second.Max != (mgl64.Vec3{6, 7, 9}) {
		t.Errorf("second bounds = %v", second)
	}

	box := scene.ComputeBounds(root)
	if box.MaxDimension() != 9 {
		t.Errorf("MaxDimension() = %v, want 9", box.MaxDimension())
	}
}

func TestParseOBJErrors(t *testing.T) {
	_, err := ParseOBJ(strings.NewReader("v 1 2\n"))
	if !errors.Is(err, ErrOBJMalformedVertex) {
		t.Errorf("short vertex: error = %v", err)
	}
	_, err = ParseOBJ(strings.NewReader("v 1 2 3\nf 1 2 3\n"))
	if !errors.Is(err, ErrOBJBadFaceIndex) {
		t.Errorf("bad face: error = %v", err)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"model.glb", FormatGLB, false},
		{"https://cdn.example.com/a/Model.GLTF?sig=abc", FormatGLTF, false},
		{"/tmp/mesh.obj", FormatOBJ, false},
		{"scan.usdz", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("DetectFormat(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("DetectFormat(%q) error = %v, want ErrUnsupportedFormat", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("DetectFormat(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
