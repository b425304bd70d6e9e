package textkit

import (
	"image"
	"image/color"

	"github.com/ByLCY/textdeco/richtext"
)

// LineFragment is one laid out line. Rect and UsedRect are in container
// coordinates; Glyphs is the full glyph range of the line.
type LineFragment struct {
	Rect     Rect           `json:"rect"`
	UsedRect Rect           `json:"usedRect"`
	Glyphs   richtext.Range `json:"glyphs"`
}

// Layout is the glyph layout engine the decorations are drawn against. It is
// queried by glyph index or range and never mutated by this package except
// through SetContainerSize, Invalidate and SetAttachmentSizer.
type Layout interface {
	Text() *richtext.Text
	NumberOfGlyphs() int
	// GlyphAt returns the glyph id, 0 when there is none.
	GlyphAt(glyph int) GlyphID
	// Location is relative to the origin of the glyph's line fragment; Y is
	// the baseline for text glyphs and the bottom edge for attachments.
	Location(glyph int) Point
	LineFragmentAt(glyph int) (LineFragment, bool)
	LineFragments(glyphs richtext.Range) []LineFragment
	BoundingRect(glyphs richtext.Range) Rect
	// GlyphBounds is the font bounding box of one glyph with y growing up
	// from the baseline: Y is the lowest extent.
	GlyphBounds(font richtext.Font, glyph GlyphID) Rect
	// FontAt is the font the engine measured glyph with, including its
	// default for text without a font attribute.
	FontAt(glyph int) richtext.Font
	AttachmentSize(glyph int) Size
	CharacterIndex(glyph int) int
	GlyphRange(chars richtext.Range) richtext.Range
	CharacterRange(glyphs richtext.Range) richtext.Range
	UsedRect() Rect
	SetContainerSize(size Size)
	Invalidate()
	SetAttachmentSizer(s AttachmentSizer)
	// DrawBackground and DrawGlyphs are the engine's own drawing.
	DrawBackground(glyphs richtext.Range, origin Point, s Surface)
	DrawGlyphs(glyphs richtext.Range, origin Point, s Surface)
}

// LayoutFunc builds a private layout engine over text with the given line
// fragment padding.
type LayoutFunc func(text *richtext.Text, padding float64) Layout

// AttachmentSizer resolves the bounds a layout engine should reserve for an
// attachment placed at charIndex.
type AttachmentSizer interface {
	AttachmentBounds(a *Attachment, charIndex int) Rect
}

// Surface is the drawing target of one draw pass.
type Surface interface {
	Save()
	Restore()
	SetFillColor(c color.Color)
	SetStrokeColor(c color.Color)
	SetLineWidth(w float64)
	// SetDash sets the dash pattern; no lengths means solid.
	SetDash(lengths ...float64)
	FillRect(r Rect, radius float64)
	StrokeRect(r Rect)
	StrokeLine(from, to Point)
}

// TextSurface is implemented by surfaces the layout engine can draw text and
// attachment payloads on.
type TextSurface interface {
	Surface
	FillText(font richtext.Font, c color.Color, s string, baseline Point)
	DrawImage(img image.Image, r Rect)
}

// Content is an embedded sub-view hosted for a view backed attachment.
// Implementations must be comparable, typically pointers.
type Content interface {
	Frame() Rect
	SetFrame(r Rect)
	SizeThatFits() Size
}

// Drawer is implemented by content that paints itself onto the surface after
// being positioned.
type Drawer interface {
	Draw(s Surface)
}

// Tappable is implemented by content that reacts to taps.
type Tappable interface {
	Tap()
}

// Container hosts embedded content on behalf of a surface.
type Container interface {
	Attach(c Content)
	Detach(c Content)
	Attached(c Content) bool
	// RaiseOverlays moves selection or caret overlays above all content.
	RaiseOverlays()
}
