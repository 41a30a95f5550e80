package renderer

import (
	"image"
	"image/color"
	"image/draw"
	gomath "math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/Faultbox/modelview/internal/engine/camera"
	"github.com/Faultbox/modelview/internal/engine/debug"
)

// Rasterizer is a software Backend that draws a wireframe preview into
// an RGBA image: backdrop, contact shadow, primitive boxes, and overlay.
type Rasterizer struct {
	image *image.RGBA
	ras   *vector.Rasterizer

	// LineWidth in pixels.
	LineWidth float32
}

// NewRasterizer creates a rasterizer; the image is sized by the first frame.
func NewRasterizer() *Rasterizer {
	return &Rasterizer{ras: &vector.Rasterizer{}, LineWidth: 1.5}
}

// Image returns the last drawn frame.
func (r *Rasterizer) Image() *image.RGBA { return r.image }

// Draw renders f into the image, reallocating it when the size changed.
func (r *Rasterizer) Draw(f Frame) error {
	w, h := f.Width, f.Height
	if w <= 0 || h <= 0 {
		return nil
	}
	if r.image == nil || r.image.Bounds().Dx() != w || r.image.Bounds().Dy() != h {
		r.image = image.NewRGBA(image.Rect(0, 0, w, h))
	}

	bg := f.Environment.Background()
	draw.Draw(r.image, r.image.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	if f.View != nil && f.Camera.Sized() {
		if f.Shadows != nil {
			r.drawContactShadow(f)
		}
		r.drawWireframe(f)
	}

	if f.Overlay != "" {
		fg := color.RGBA{0x33, 0x33, 0x33, 0xff}
		if f.Err != nil {
			fg = color.RGBA{0xc6, 0x28, 0x28, 0xff}
		} else if luma(bg) < 0x80 {
			fg = color.RGBA{0xee, 0xee, 0xee, 0xff}
		}
		r.drawLabel(f.Overlay, fg)
	}
	return nil
}

func (r *Rasterizer) drawContactShadow(f Frame) {
	sh := f.Shadows
	center := f.Bounds.Center()
	ground := f.Bounds.Min[1]
	size := f.Bounds.Size()
	radius := gomath.Max(size[0], size[2]) * 0.6

	const segments = 32
	pts := make([][2]float32, 0, segments)
	for i := 0; i < segments; i++ {
		a := 2 * gomath.Pi * float64(i) / segments
		p := mgl64.Vec3{center[0] + radius*gomath.Cos(a), ground, center[2] + radius*gomath.Sin(a)}
		x, y, ok := f.Camera.Project(p, f.Width, f.Height)
		if !ok {
			return
		}
		pts = append(pts, [2]float32{float32(x), float32(y)})
	}

	c := sh.Color
	c.A = uint8(mgl64.Clamp(sh.Opacity, 0, 1) * 255)
	r.fillPolygon(pts, color.NRGBA{c.R, c.G, c.B, c.A})
}

func (r *Rasterizer) drawWireframe(f Frame) {
	shade := f.Rig.Shade(f.Camera.Forward().Mul(-1)) * f.Environment.Exposure()
	v := uint8(0x20 + (1-mgl64.Clamp(shade, 0, 1))*0x60)
	edgeColor := color.RGBA{v, v, v + 0x10, 0xff}

	for _, e := range debug.Wireframe(f.View.Root) {
		r.drawEdge(&f.Camera, e, f.Width, f.Height, edgeColor)
	}
}

func (r *Rasterizer) drawEdge(cam *camera.PerspectiveCamera, e debug.Edge, w, h int, c color.Color) {
	x0, y0, ok0 := cam.Project(e[0], w, h)
	x1, y1, ok1 := cam.Project(e[1], w, h)
	if !ok0 || !ok1 {
		return
	}
	dx, dy := x1-x0, y1-y0
	l := gomath.Hypot(dx, dy)
	if l < 1e-9 {
		return
	}
	// Perpendicular offset for a quad of LineWidth pixels.
	half := float64(r.LineWidth) / 2
	nx, ny := -dy/l*half, dx/l*half
	r.fillPolygon([][2]float32{
		{float32(x0 + nx), float32(y0 + ny)},
		{float32(x1 + nx), float32(y1 + ny)},
		{float32(x1 - nx), float32(y1 - ny)},
		{float32(x0 - nx), float32(y0 - ny)},
	}, c)
}

func (r *Rasterizer) fillPolygon(pts [][2]float32, c color.Color) {
	if len(pts) < 3 {
		return
	}
	b := r.image.Bounds()
	r.ras.Reset(b.Dx(), b.Dy())
	r.ras.DrawOp = draw.Over
	r.ras.MoveTo(pts[0][0], pts[0][1])
	for _, p := range pts[1:] {
		r.ras.LineTo(p[0], p[1])
	}
	r.ras.ClosePath()
	r.ras.Draw(r.image, b, image.NewUniform(c), image.Point{})
}

func (r *Rasterizer) drawLabel(text string, c color.Color) {
	// The bitmap face only covers ASCII.
	text = strings.ReplaceAll(text, "…", "...")

	d := &font.Drawer{
		Dst:  r.image,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
	}
	b := r.image.Bounds()
	width := d.MeasureString(text).Ceil()
	x := (b.Dx() - width) / 2
	if x < 0 {
		x = 0
	}
	y := b.Dy()/2 + basicfont.Face7x13.Ascent/2
	d.Dot = fixed.P(x, y)
	d.DrawString(text)
}

func luma(c color.RGBA) int {
	return (299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000
}
