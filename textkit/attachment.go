package textkit

import (
	"image"
	"math"
	"sync/atomic"

	"github.com/ByLCY/textdeco/richtext"
)

// Kind is the closed set of attachment behaviours, fixed at construction.
type Kind int

const (
	KindEmpty Kind = iota
	KindView
	KindPainted
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindView:
		return "view"
	case KindPainted:
		return "painted"
	default:
		return "unknown"
	}
}

// Generator creates the embedded content of a view backed attachment.
type Generator func() Content

// PaintFunc draws a custom painted attachment into r.
type PaintFunc func(s Surface, r Rect)

var lastAttachmentID atomic.Uint64

// Attachment is inline content occupying one character. Its Bounds origin Y
// is the baseline offset, positive moving up; its size is the content size.
type Attachment struct {
	id        uint64
	kind      Kind
	bounds    Rect
	explicit  bool
	generator Generator
	paint     PaintFunc
	payload   image.Image

	// textBounds is the measured frame of nested rich text.
	textBounds *Rect
}

// AttachmentOption configures an attachment at construction.
type AttachmentOption func(*Attachment)

// WithBounds sets explicit bounds. View backed attachments with explicit
// bounds are never asked to size themselves.
func WithBounds(r Rect) AttachmentOption {
	return func(a *Attachment) {
		a.bounds = r
		a.explicit = true
	}
}

func newAttachment(kind Kind, opts []AttachmentOption) *Attachment {
	a := &Attachment{id: lastAttachmentID.Add(1), kind: kind}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewEmptyAttachment returns an attachment with zero bounds that draws nothing.
func NewEmptyAttachment() *Attachment {
	return newAttachment(KindEmpty, nil)
}

// NewViewAttachment returns an attachment backed by content from gen. gen is
// called at most once per (attachment, character index) and host.
func NewViewAttachment(gen Generator, opts ...AttachmentOption) *Attachment {
	a := newAttachment(KindView, opts)
	a.generator = gen
	return a
}

// NewPaintedAttachment returns an attachment drawn by paint on every pass.
func NewPaintedAttachment(paint PaintFunc, opts ...AttachmentOption) *Attachment {
	a := newAttachment(KindPainted, opts)
	a.paint = paint
	return a
}

// NewPayloadAttachment returns an attachment carrying a native image. Such an
// attachment cannot be customized: the layout engine sizes and draws it.
func NewPayloadAttachment(img image.Image, bounds Rect) *Attachment {
	a := newAttachment(KindEmpty, []AttachmentOption{WithBounds(bounds)})
	a.payload = img
	return a
}

// ID returns the identity token assigned at construction.
func (a *Attachment) ID() uint64 { return a.id }

// Kind returns the behaviour chosen at construction.
func (a *Attachment) Kind() Kind { return a.kind }

// Payload returns the native image, if any.
func (a *Attachment) Payload() image.Image { return a.payload }

// SetPayload attaches a native image produced elsewhere. From then on the
// attachment is left to the layout engine.
func (a *Attachment) SetPayload(img image.Image) { a.payload = img }

// CanCustomize reports whether this package may size and draw the attachment.
func (a *Attachment) CanCustomize() bool { return a.payload == nil }

// Bounds returns the measured frame of nested rich text while customizable,
// otherwise the assigned bounds.
func (a *Attachment) Bounds() Rect {
	if a.CanCustomize() && a.textBounds != nil {
		return *a.textBounds
	}
	return a.bounds
}

// SetBounds assigns explicit bounds.
func (a *Attachment) SetBounds(r Rect) {
	a.bounds = r
	a.explicit = true
}

// HasExplicitBounds reports whether bounds were assigned by the caller.
func (a *Attachment) HasExplicitBounds() bool {
	return a.explicit || a.textBounds != nil
}

// sizedByContent reports whether a view backed attachment takes its size from
// the generated content. Bounds carrying only a baseline offset keep the
// offset and are fitted; an all-zero explicit rect stays empty.
func (a *Attachment) sizedByContent() bool {
	if a.kind != KindView || !a.CanCustomize() {
		return false
	}
	if !a.HasExplicitBounds() {
		return true
	}
	b := a.Bounds()
	return b.W == 0 && b.H == 0 && b.Y != 0
}

// BaselineMode positions nested rich text against the surrounding baseline.
// The zero value is TextBaseline(0).
type BaselineMode struct {
	kind baselineKind
	Diff float64
}

type baselineKind int

const (
	baselineText baselineKind = iota
	baselineLineBottom
	baselineAttachmentBottom
)

// TextBaseline aligns the nested text's first baseline with the outer one.
func TextBaseline(diff float64) BaselineMode { return BaselineMode{kind: baselineText, Diff: diff} }

// LineBottom aligns the bottom of the nested used rect, minus the bottom
// inset, with the outer baseline.
func LineBottom(diff float64) BaselineMode { return BaselineMode{kind: baselineLineBottom, Diff: diff} }

// AttachmentBottom aligns the attachment's bottom edge with the outer baseline.
func AttachmentBottom(diff float64) BaselineMode {
	return BaselineMode{kind: baselineAttachmentBottom, Diff: diff}
}

func (m BaselineMode) originY(firstBaseline, usedHeight float64, in Insets) float64 {
	switch m.kind {
	case baselineLineBottom:
		return -in.Bottom + m.Diff
	case baselineAttachmentBottom:
		return m.Diff
	default:
		return firstBaseline - usedHeight - in.Bottom + m.Diff
	}
}

// TextOptions configures NewTextAttachment.
type TextOptions struct {
	// Layout builds the private engine. Required.
	Layout   LayoutFunc
	Padding  float64
	Insets   Insets
	Baseline BaselineMode
	// Tap makes the attachment interactive; it receives the nested text.
	Tap func(text *richtext.Text)
}

// NewTextAttachment embeds text as a single inline attachment. The text is
// measured once, unbounded. The result is view backed when the text itself
// holds view backed attachments or a tap action is given, custom painted
// otherwise. Empty text yields an empty attachment.
func NewTextAttachment(text *richtext.Text, opts TextOptions) *Attachment {
	if opts.Layout == nil {
		panic("textkit: NewTextAttachment requires a LayoutFunc")
	}
	if text == nil || text.Len() == 0 {
		a := newAttachment(KindEmpty, nil)
		a.textBounds = &Rect{}
		return a
	}

	storage := text.Copy()
	sub := opts.Layout(storage, opts.Padding)
	sub.SetContainerSize(Size{W: math.MaxFloat64, H: math.MaxFloat64})
	manager := NewManager(sub)
	firstBaseline := sub.Location(0).Y
	used := sub.UsedRect().Size()

	in := opts.Insets
	bounds := Rect{
		X: 0,
		Y: opts.Baseline.originY(firstBaseline, used.H, in),
		W: in.Left + used.W + in.Right,
		H: in.Top + used.H + in.Bottom,
	}

	var a *Attachment
	if opts.Tap != nil || containsViewAttachment(storage) {
		manager.Close()
		a = newAttachment(KindView, nil)
		a.generator = func() Content { return newTextView(storage.Copy(), opts) }
	} else {
		glyphs := sub.GlyphRange(richtext.Range{Length: storage.Len()})
		a = newAttachment(KindPainted, nil)
		a.paint = func(s Surface, r Rect) {
			sub.SetContainerSize(r.Inset(in).Size())
			origin := Point{X: r.X + in.Left, Y: r.Y + in.Top}
			manager.DrawBackground(glyphs, origin, s)
			manager.DrawGlyphs(glyphs, origin, s)
		}
	}
	a.textBounds = &bounds
	return a
}

func containsViewAttachment(text *richtext.Text) bool {
	for i := 0; i < text.Len(); i++ {
		if a := attachmentAt(text, i); a != nil && a.kind == KindView {
			return true
		}
	}
	return false
}
