package textkit

import "github.com/ByLCY/textdeco/richtext"

// Resolver turns glyph indices into visual items.
type Resolver struct {
	layout Layout
}

// NewResolver returns a resolver reading geometry from l.
func NewResolver(l Layout) *Resolver {
	return &Resolver{layout: l}
}

// Resolve returns the visual item of glyph on the line whose origin is
// lineOrigin, for a draw pass at drawOrigin. It reports false for invalid
// glyphs and glyphs without visible extent.
func (r *Resolver) Resolve(glyph int, lineOrigin, drawOrigin Point) (VisualItem, bool) {
	l := r.layout
	id := l.GlyphAt(glyph)
	if id == 0 {
		return VisualItem{}, false
	}
	if !l.BoundingRect(richtext.Range{Location: glyph, Length: 1}).Visible() {
		return VisualItem{}, false
	}

	text := l.Text()
	ci := l.CharacterIndex(glyph)
	font := l.FontAt(glyph)
	loc := l.Location(glyph)

	var rect Rect
	size := l.AttachmentSize(glyph)
	if a := attachmentAt(text, ci); a != nil && size.Visible() {
		y := a.Bounds().Y
		loc.Y += y
		rect = Rect{X: 0, Y: y, W: size.W, H: size.H}
	} else {
		rect = l.GlyphBounds(font, id)
	}

	loc.X += lineOrigin.X + drawOrigin.X
	loc.Y += lineOrigin.Y + drawOrigin.Y
	rect.X += loc.X
	rect.Y = loc.Y - rect.Y - rect.H
	return VisualItem{Rect: rect, Location: loc, Glyph: id, Font: font}, true
}

func attachmentAt(text *richtext.Text, ci int) *Attachment {
	if text == nil {
		return nil
	}
	v, _ := text.Attribute(richtext.KeyAttachment, ci)
	a, _ := v.(*Attachment)
	return a
}
