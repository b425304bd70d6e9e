package textkit

import "github.com/ByLCY/textdeco/richtext"

// Phase selects the draw pass a painter runs in.
type Phase int

const (
	// Background painters run after the engine's background drawing.
	Background Phase = iota
	// Foreground painters run after glyphs and attachments are drawn.
	Foreground
)

func (p Phase) String() string {
	switch p {
	case Background:
		return "background"
	case Foreground:
		return "foreground"
	default:
		return "unknown"
	}
}

// VisualItem is the drawable geometry of one glyph or attachment in surface
// coordinates. Rect is top-left relative; Location is the baseline point the
// glyph was placed at.
type VisualItem struct {
	Rect     Rect          `json:"rect"`
	Location Point         `json:"location"`
	Glyph    GlyphID       `json:"glyph"`
	Font     richtext.Font `json:"font"`
}

// LineVisualInfo describes the line a painter is invoked for. Baseline is the
// y of the first visual item, or 0 when there is none.
type LineVisualInfo struct {
	Rect     Rect    `json:"rect"`
	UsedRect Rect    `json:"usedRect"`
	Baseline float64 `json:"baseline"`
}

// DrawFunc draws a decoration. key is the attribute the painter was found
// under. The surface state is saved before and restored after each call.
type DrawFunc func(key richtext.Key, s Surface, line LineVisualInfo, items []VisualItem)

// Painter is an attribute value that decorates the characters it covers.
// Store it as *Painter so runs compare by identity.
type Painter struct {
	Phase   Phase
	ZOrder  int
	Handler DrawFunc
}

// NewPainter returns a painter for phase with the given z-order.
func NewPainter(phase Phase, zOrder int, handler DrawFunc) *Painter {
	return &Painter{Phase: phase, ZOrder: zOrder, Handler: handler}
}
