package formats

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/Faultbox/modelview/pkg/scene"
)

// ErrUnsupportedFormat is returned for extensions no parser handles.
var ErrUnsupportedFormat = errors.New("unsupported model format")

// Format identifies a model file format by its canonical extension.
type Format string

// Supported formats.
const (
	FormatGLB  Format = "glb"
	FormatGLTF Format = "gltf"
	FormatOBJ  Format = "obj"
)

// DetectFormat returns the format implied by a file name or URL path.
// Query strings and fragments are ignored.
func DetectFormat(name string) (Format, error) {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	switch Format(ext) {
	case FormatGLB, FormatGLTF, FormatOBJ:
		return Format(ext), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// Decode parses r as the given format. fsys resolves external references
// for formats that have them and may be nil.
func Decode(format Format, r io.Reader, fsys fs.FS) (*scene.Node, error) {
	switch format {
	case FormatGLB, FormatGLTF:
		return ParseGLTF(r, fsys)
	case FormatOBJ:
		return ParseOBJ(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}
