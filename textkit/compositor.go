package textkit

import (
	"cmp"
	"slices"

	"github.com/ByLCY/textdeco/richtext"
)

// Compositor runs the painters found on a line in z-order.
type Compositor struct {
	layout   Layout
	resolver *Resolver
}

// NewCompositor returns a compositor over l using resolver for geometry.
func NewCompositor(l Layout, resolver *Resolver) *Compositor {
	return &Compositor{layout: l, resolver: resolver}
}

type paintJob struct {
	key     richtext.Key
	items   []VisualItem
	painter *Painter
}

// Composite invokes every painter of phase attached to chars, the character
// range of line, for a draw pass at origin.
//
// Each painter occurrence is handled once over its longest run inside the
// line. Jobs are stably sorted by ZOrder; ties keep discovery order, which is
// character position then attribute key.
func (c *Compositor) Composite(s Surface, line LineFragment, chars richtext.Range, origin Point, phase Phase) {
	text := c.layout.Text()
	if text == nil || chars.IsEmpty() {
		return
	}
	working := text.Slice(chars)
	whole := richtext.Range{Length: working.Len()}

	var jobs []paintJob
	for i := 0; i < working.Len(); i++ {
		for _, key := range working.KeysAt(i) {
			v, eff := working.LongestEffectiveRange(key, i, whole)
			p, ok := v.(*Painter)
			if !ok || p == nil || p.Phase != phase {
				continue
			}
			working.RemoveAttribute(key, eff)
			glyphs := c.layout.GlyphRange(eff.Offset(chars.Location))
			jobs = append(jobs, paintJob{key: key, items: c.items(glyphs, line, origin), painter: p})
		}
	}
	slices.SortStableFunc(jobs, func(a, b paintJob) int {
		return cmp.Compare(a.painter.ZOrder, b.painter.ZOrder)
	})

	for _, job := range jobs {
		if job.painter.Handler == nil {
			continue
		}
		info := LineVisualInfo{
			Rect:     line.Rect.Offset(origin.X, origin.Y),
			UsedRect: line.UsedRect.Offset(origin.X, origin.Y),
		}
		if len(job.items) > 0 {
			info.Baseline = job.items[0].Location.Y
		}
		s.Save()
		job.painter.Handler(job.key, s, info, job.items)
		s.Restore()
	}
}

// CompositeGlyphs composites every line fragment touched by glyphs.
func (c *Compositor) CompositeGlyphs(s Surface, glyphs richtext.Range, origin Point, phase Phase) {
	for _, line := range c.layout.LineFragments(glyphs) {
		c.Composite(s, line, c.layout.CharacterRange(line.Glyphs), origin, phase)
	}
}

func (c *Compositor) items(glyphs richtext.Range, line LineFragment, origin Point) []VisualItem {
	items := make([]VisualItem, 0, glyphs.Length)
	for g := glyphs.Location; g < glyphs.End(); g++ {
		item, ok := c.resolver.Resolve(g, line.Rect.Origin(), origin)
		if !ok || !item.Rect.Visible() {
			continue
		}
		items = append(items, item)
	}
	return items
}
