package textkit

import (
	"slices"

	"github.com/ByLCY/textdeco/richtext"
)

// textView is the content generated for interactive nested rich text. It lays
// out its own copy of the text, hosts the text's attachments itself and keeps
// their frames in its own coordinate space.
type textView struct {
	frame   Rect
	text    *richtext.Text
	layout  Layout
	manager *Manager
	insets  Insets
	tap     func(*richtext.Text)

	children []Content
}

var (
	_ Content   = (*textView)(nil)
	_ Drawer    = (*textView)(nil)
	_ Tappable  = (*textView)(nil)
	_ Container = (*textView)(nil)
)

func newTextView(text *richtext.Text, opts TextOptions) *textView {
	v := &textView{
		text:   text,
		layout: opts.Layout(text, opts.Padding),
		insets: opts.Insets,
		tap:    opts.Tap,
	}
	v.manager = NewManager(v.layout)
	v.manager.SetContainer(v)
	return v
}

func (v *textView) Frame() Rect { return v.frame }

func (v *textView) SetFrame(r Rect) { v.frame = r }

func (v *textView) SizeThatFits() Size {
	used := v.layout.UsedRect().Size()
	return Size{
		W: v.insets.Left + used.W + v.insets.Right,
		H: v.insets.Top + used.H + v.insets.Bottom,
	}
}

// Draw lays the text out inside the inset frame and draws it, then moves the
// frames of hosted children from surface coordinates into the view's own.
func (v *textView) Draw(s Surface) {
	v.layout.SetContainerSize(v.frame.Inset(v.insets).Size())
	origin := Point{X: v.frame.X + v.insets.Left, Y: v.frame.Y + v.insets.Top}
	glyphs := v.layout.GlyphRange(richtext.Range{Length: v.text.Len()})
	v.manager.DrawBackground(glyphs, origin, s)
	v.manager.DrawGlyphs(glyphs, origin, s)
	for _, c := range v.children {
		c.SetFrame(c.Frame().Offset(-v.frame.X, -v.frame.Y))
	}
}

func (v *textView) Tap() {
	if v.tap != nil {
		v.tap(v.text)
	}
}

func (v *textView) Attach(c Content) {
	if !v.Attached(c) {
		v.children = append(v.children, c)
	}
}

func (v *textView) Detach(c Content) {
	v.children = slices.DeleteFunc(v.children, func(o Content) bool { return o == c })
}

func (v *textView) Attached(c Content) bool {
	return slices.Contains(v.children, c)
}

func (v *textView) RaiseOverlays() {}
