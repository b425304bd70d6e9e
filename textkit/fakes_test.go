package textkit

import (
	"fmt"
	"image/color"
	"slices"

	"github.com/ByLCY/textdeco/richtext"
)

// fakeLayout places one glyph per character on fixed 10 wide cells, perLine
// cells per 20 high line, baseline at 15. Spaces have no visible extent.
type fakeLayout struct {
	text    *richtext.Text
	perLine int

	defaultFont   richtext.Font
	sizer         AttachmentSizer
	container     Size
	invalidations int
	drawn         []string
}

var _ Layout = (*fakeLayout)(nil)

func newFakeLayout(text *richtext.Text, perLine int) *fakeLayout {
	return &fakeLayout{text: text, perLine: perLine}
}

func (f *fakeLayout) Text() *richtext.Text { return f.text }
func (f *fakeLayout) NumberOfGlyphs() int  { return f.text.Len() }

func (f *fakeLayout) GlyphAt(g int) GlyphID {
	switch r := f.text.RuneAt(g); r {
	case 0, '\n':
		return 0
	case richtext.AttachmentChar:
		return AttachmentGlyph
	default:
		return GlyphID(r)
	}
}

func (f *fakeLayout) Location(g int) Point {
	return Point{X: float64(g%f.perLine) * 10, Y: 15}
}

func (f *fakeLayout) line(n int) LineFragment {
	start := n * f.perLine
	end := min(start+f.perLine, f.text.Len())
	return LineFragment{
		Rect:     Rect{X: 0, Y: float64(n) * 20, W: 200, H: 20},
		UsedRect: Rect{X: 0, Y: float64(n) * 20, W: float64(end-start) * 10, H: 20},
		Glyphs:   richtext.MakeRange(start, end),
	}
}

func (f *fakeLayout) LineFragmentAt(g int) (LineFragment, bool) {
	if g < 0 || g >= f.text.Len() {
		return LineFragment{}, false
	}
	return f.line(g / f.perLine), true
}

func (f *fakeLayout) LineFragments(glyphs richtext.Range) []LineFragment {
	var out []LineFragment
	if glyphs.IsEmpty() {
		return out
	}
	for n := glyphs.Location / f.perLine; n <= (glyphs.End()-1)/f.perLine; n++ {
		out = append(out, f.line(n))
	}
	return out
}

func (f *fakeLayout) BoundingRect(glyphs richtext.Range) Rect {
	g := glyphs.Location
	loc := f.Location(g)
	switch f.text.RuneAt(g) {
	case 0, '\n', ' ':
		return Rect{}
	case richtext.AttachmentChar:
		s := f.AttachmentSize(g)
		return Rect{X: loc.X, W: s.W, H: s.H}
	default:
		return Rect{X: loc.X, W: 8, H: 13}
	}
}

func (f *fakeLayout) GlyphBounds(richtext.Font, GlyphID) Rect {
	return Rect{X: 0, Y: -3, W: 8, H: 13}
}

func (f *fakeLayout) FontAt(g int) richtext.Font {
	v, _ := f.text.Attribute(richtext.KeyFont, g)
	if font, ok := v.(richtext.Font); ok {
		return font
	}
	return f.defaultFont
}

func (f *fakeLayout) AttachmentSize(g int) Size {
	a := attachmentAt(f.text, g)
	if a == nil {
		return Size{}
	}
	if f.sizer != nil {
		return f.sizer.AttachmentBounds(a, g).Size()
	}
	return a.Bounds().Size()
}

func (f *fakeLayout) CharacterIndex(g int) int                            { return g }
func (f *fakeLayout) GlyphRange(chars richtext.Range) richtext.Range      { return chars }
func (f *fakeLayout) CharacterRange(glyphs richtext.Range) richtext.Range { return glyphs }

func (f *fakeLayout) UsedRect() Rect {
	n := f.text.Len()
	lines := (n + f.perLine - 1) / f.perLine
	return Rect{W: float64(min(n, f.perLine)) * 10, H: float64(lines) * 20}
}

func (f *fakeLayout) SetContainerSize(s Size)              { f.container = s }
func (f *fakeLayout) Invalidate()                          { f.invalidations++ }
func (f *fakeLayout) SetAttachmentSizer(s AttachmentSizer) { f.sizer = s }

func (f *fakeLayout) DrawBackground(glyphs richtext.Range, origin Point, _ Surface) {
	f.drawn = append(f.drawn, fmt.Sprintf("background %v %v", glyphs, origin))
}

func (f *fakeLayout) DrawGlyphs(glyphs richtext.Range, origin Point, _ Surface) {
	f.drawn = append(f.drawn, fmt.Sprintf("glyphs %v %v", glyphs, origin))
}

type surfaceOp struct {
	name   string
	rect   Rect
	radius float64
	from   Point
	to     Point
	width  float64
	dash   []float64
	color  color.Color
}

// recSurface records every call in order.
type recSurface struct {
	ops   []surfaceOp
	depth int
}

func (s *recSurface) Save() {
	s.depth++
	s.ops = append(s.ops, surfaceOp{name: "save"})
}

func (s *recSurface) Restore() {
	s.depth--
	s.ops = append(s.ops, surfaceOp{name: "restore"})
}

func (s *recSurface) SetFillColor(c color.Color) {
	s.ops = append(s.ops, surfaceOp{name: "fillColor", color: c})
}

func (s *recSurface) SetStrokeColor(c color.Color) {
	s.ops = append(s.ops, surfaceOp{name: "strokeColor", color: c})
}

func (s *recSurface) SetLineWidth(w float64) {
	s.ops = append(s.ops, surfaceOp{name: "lineWidth", width: w})
}

func (s *recSurface) SetDash(lengths ...float64) {
	s.ops = append(s.ops, surfaceOp{name: "dash", dash: lengths})
}

func (s *recSurface) FillRect(r Rect, radius float64) {
	s.ops = append(s.ops, surfaceOp{name: "fill", rect: r, radius: radius})
}

func (s *recSurface) StrokeRect(r Rect) {
	s.ops = append(s.ops, surfaceOp{name: "strokeRect", rect: r})
}

func (s *recSurface) StrokeLine(from, to Point) {
	s.ops = append(s.ops, surfaceOp{name: "line", from: from, to: to})
}

func (s *recSurface) named(name string) []surfaceOp {
	var out []surfaceOp
	for _, op := range s.ops {
		if op.name == name {
			out = append(out, op)
		}
	}
	return out
}

type fakeContent struct {
	frame Rect
	fit   Size
	draws int
}

func (c *fakeContent) Frame() Rect        { return c.frame }
func (c *fakeContent) SetFrame(r Rect)    { c.frame = r }
func (c *fakeContent) SizeThatFits() Size { return c.fit }
func (c *fakeContent) Draw(Surface)       { c.draws++ }

type fakeContainer struct {
	attached []Content
	raised   int
}

func (c *fakeContainer) Attach(x Content) { c.attached = append(c.attached, x) }

func (c *fakeContainer) Detach(x Content) {
	c.attached = slices.DeleteFunc(c.attached, func(o Content) bool { return o == x })
}

func (c *fakeContainer) Attached(x Content) bool { return slices.Contains(c.attached, x) }
func (c *fakeContainer) RaiseOverlays()          { c.raised++ }

// countingGenerator returns a generator producing fakeContent and a pointer
// to its invocation count.
func countingGenerator(fit Size) (Generator, *int) {
	n := 0
	return func() Content {
		n++
		return &fakeContent{fit: fit}
	}, &n
}
