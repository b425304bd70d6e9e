package textkit

import (
	"image/color"

	"github.com/ByLCY/textdeco/richtext"
)

// Stroke configures the stroking helpers. Width <= 0 means 1; an empty Dash
// draws solid lines.
type Stroke struct {
	Color color.Color
	Width float64
	Dash  []float64
}

func (st Stroke) apply(s Surface) {
	s.SetStrokeColor(st.Color)
	w := st.Width
	if w <= 0 {
		w = 1
	}
	s.SetLineWidth(w)
	if len(st.Dash) > 0 {
		s.SetDash(st.Dash...)
	}
}

// Fill configures the filling helpers. A positive CornerFactor overrides
// Corner with CornerFactor times the filled rectangle's height.
type Fill struct {
	Color        color.Color
	Corner       float64
	CornerFactor float64
	Insets       Insets
}

func (f Fill) radius(height float64) float64 {
	if f.CornerFactor > 0 {
		return f.CornerFactor * height
	}
	return f.Corner
}

// Combine returns a handler running each of handlers in order, each inside
// its own saved surface state.
func Combine(handlers ...DrawFunc) DrawFunc {
	return func(key richtext.Key, s Surface, line LineVisualInfo, items []VisualItem) {
		for _, h := range handlers {
			if h == nil {
				continue
			}
			s.Save()
			h(key, s, line, items)
			s.Restore()
		}
	}
}

// StrokeBaseline draws a horizontal line across the used rect at the baseline.
func StrokeBaseline(c color.Color, width float64) DrawFunc {
	st := Stroke{Color: c, Width: width}
	return func(_ richtext.Key, s Surface, line LineVisualInfo, _ []VisualItem) {
		st.apply(s)
		s.StrokeLine(
			Point{X: line.UsedRect.MinX(), Y: line.Baseline},
			Point{X: line.UsedRect.MaxX(), Y: line.Baseline},
		)
	}
}

// StrokeOutline strokes the rect of every item.
func StrokeOutline(st Stroke) DrawFunc {
	return func(_ richtext.Key, s Surface, _ LineVisualInfo, items []VisualItem) {
		st.apply(s)
		for _, it := range items {
			s.StrokeRect(it.Rect)
		}
	}
}

// StrokeLineUsedRect strokes the used rect of the line.
func StrokeLineUsedRect(st Stroke) DrawFunc {
	return func(_ richtext.Key, s Surface, line LineVisualInfo, _ []VisualItem) {
		st.apply(s)
		s.StrokeRect(line.UsedRect)
	}
}

// FillLineUsedRect fills the inset used rect of the line.
func FillLineUsedRect(f Fill) DrawFunc {
	return func(_ richtext.Key, s Surface, line LineVisualInfo, _ []VisualItem) {
		s.SetFillColor(f.Color)
		r := line.UsedRect.Inset(f.Insets)
		s.FillRect(r, f.radius(r.H))
	}
}

// FillCombinedGlyphRects fills the union of all item rects as one rectangle.
// The corner factor applies to the union before insetting.
func FillCombinedGlyphRects(f Fill) DrawFunc {
	return func(_ richtext.Key, s Surface, _ LineVisualInfo, items []VisualItem) {
		if len(items) == 0 {
			return
		}
		r := items[0].Rect
		for _, it := range items[1:] {
			r = r.Union(it.Rect)
		}
		s.SetFillColor(f.Color)
		s.FillRect(r.Inset(f.Insets), f.radius(r.H))
	}
}

// FillIndependentGlyphRect fills every item rect on its own.
func FillIndependentGlyphRect(f Fill) DrawFunc {
	return func(_ richtext.Key, s Surface, _ LineVisualInfo, items []VisualItem) {
		s.SetFillColor(f.Color)
		for _, it := range items {
			r := it.Rect.Inset(f.Insets)
			s.FillRect(r, f.radius(r.H))
		}
	}
}
