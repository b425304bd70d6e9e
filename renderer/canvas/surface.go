package canvasrenderer

import (
	"image"
	"image/color"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/textdeco/richtext"
	"github.com/ByLCY/textdeco/textkit"
)

var transparent = color.RGBA{0, 0, 0, 0}

// Surface adapts a canvas context to textkit.TextSurface. Coordinates are in
// millimetres with the origin at the top left (canvas.CartesianIV).
type Surface struct {
	ctx *canvas.Context
	r   *Renderer
	err error
}

var _ textkit.TextSurface = (*Surface)(nil)

// NewSurface wraps ctx; r supplies the fonts used by FillText.
func NewSurface(ctx *canvas.Context, r *Renderer) *Surface {
	return &Surface{ctx: ctx, r: r}
}

// Err returns the first error met while drawing text.
func (s *Surface) Err() error { return s.err }

func (s *Surface) Save()                        { s.ctx.Push() }
func (s *Surface) Restore()                     { s.ctx.Pop() }
func (s *Surface) SetFillColor(c color.Color)   { s.ctx.SetFillColor(c) }
func (s *Surface) SetStrokeColor(c color.Color) { s.ctx.SetStrokeColor(c) }
func (s *Surface) SetLineWidth(w float64)       { s.ctx.SetStrokeWidth(w) }
func (s *Surface) SetDash(lengths ...float64)   { s.ctx.SetDashes(0, lengths...) }

func (s *Surface) FillRect(r textkit.Rect, radius float64) {
	if !r.Visible() {
		return
	}
	path := canvas.Rectangle(r.W, r.H)
	if radius > 0 {
		path = canvas.RoundedRectangle(r.W, r.H, radius)
	}
	s.ctx.Push()
	s.ctx.SetStrokeColor(transparent)
	s.ctx.DrawPath(r.X, r.Y, path)
	s.ctx.Pop()
}

func (s *Surface) StrokeRect(r textkit.Rect) {
	s.ctx.Push()
	s.ctx.SetFillColor(transparent)
	s.ctx.DrawPath(r.X, r.Y, canvas.Rectangle(r.W, r.H))
	s.ctx.Pop()
}

func (s *Surface) StrokeLine(from, to textkit.Point) {
	path := &canvas.Path{}
	path.MoveTo(0, 0)
	path.LineTo(to.X-from.X, to.Y-from.Y)
	s.ctx.Push()
	s.ctx.SetFillColor(transparent)
	s.ctx.DrawPath(from.X, from.Y, path)
	s.ctx.Pop()
}

// FillText draws str with its baseline starting at baseline.
func (s *Surface) FillText(font richtext.Font, c color.Color, str string, baseline textkit.Point) {
	face, err := s.r.fontFace(font, c)
	if err != nil {
		if s.err == nil {
			s.err = err
		}
		return
	}
	line := canvas.NewTextLine(face, str, canvas.Left)
	s.ctx.DrawText(baseline.X, baseline.Y, line)
}

// DrawImage scales img to the width of r.
func (s *Surface) DrawImage(img image.Image, r textkit.Rect) {
	if img == nil || r.W <= 0 {
		return
	}
	dpmm := float64(img.Bounds().Dx()) / r.W
	if dpmm <= 0 {
		dpmm = 1
	}
	s.ctx.DrawImage(r.X, r.Y, img, canvas.DPMM(dpmm))
}
