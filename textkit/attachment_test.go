package textkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/textdeco/richtext"
)

// capturingLayout returns a LayoutFunc building fake layouts and records
// every layout it built.
func capturingLayout(built *[]*fakeLayout) LayoutFunc {
	return func(text *richtext.Text, _ float64) Layout {
		l := newFakeLayout(text, 100)
		*built = append(*built, l)
		return l
	}
}

var nestedInsets = Insets{Top: 2, Left: 3, Bottom: 4, Right: 5}

func TestNewTextAttachmentRequiresLayout(t *testing.T) {
	assert.Panics(t, func() {
		NewTextAttachment(richtext.New("a", nil), TextOptions{})
	})
}

func TestNewTextAttachmentEmpty(t *testing.T) {
	var built []*fakeLayout
	a := NewTextAttachment(richtext.New("", nil), TextOptions{Layout: capturingLayout(&built)})

	assert.Equal(t, KindEmpty, a.Kind())
	assert.Equal(t, Rect{}, a.Bounds())
	assert.True(t, a.HasExplicitBounds())
	assert.Empty(t, built)
}

func TestNewTextAttachmentBaselineModes(t *testing.T) {
	tests := []struct {
		name string
		mode BaselineMode
		y    float64
	}{
		{"text baseline", TextBaseline(1), -8},
		{"zero value", BaselineMode{}, -9},
		{"line bottom", LineBottom(2), -2},
		{"attachment bottom", AttachmentBottom(-1), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var built []*fakeLayout
			a := NewTextAttachment(richtext.New("abc", nil), TextOptions{
				Layout:   capturingLayout(&built),
				Insets:   nestedInsets,
				Baseline: tt.mode,
			})
			assert.Equal(t, Rect{X: 0, Y: tt.y, W: 38, H: 26}, a.Bounds())
		})
	}
}

func TestNewTextAttachmentPainted(t *testing.T) {
	var built []*fakeLayout
	a := NewTextAttachment(richtext.New("abc", nil), TextOptions{
		Layout: capturingLayout(&built),
		Insets: nestedInsets,
	})
	require.Equal(t, KindPainted, a.Kind())
	require.Len(t, built, 1)
	sub := built[0]

	h := NewHost()
	h.Place(&recSurface{}, a, 0, Rect{X: 10, Y: 10, W: 38, H: 26})

	assert.Equal(t, Size{W: 30, H: 20}, sub.container)
	assert.Equal(t, []string{"background {0 3} {13 12}", "glyphs {0 3} {13 12}"}, sub.drawn)
}

func TestNewTextAttachmentCopiesText(t *testing.T) {
	var built []*fakeLayout
	text := richtext.New("abc", nil)
	a := NewTextAttachment(text, TextOptions{Layout: capturingLayout(&built)})

	text.AppendString("def", nil)

	assert.Equal(t, "abc", built[0].Text().String())
	assert.Equal(t, 30.0, a.Bounds().W)
}

func TestNewTextAttachmentTapMakesView(t *testing.T) {
	var built []*fakeLayout
	var tapped string
	a := NewTextAttachment(richtext.New("abc", nil), TextOptions{
		Layout: capturingLayout(&built),
		Insets: nestedInsets,
		Tap:    func(text *richtext.Text) { tapped = text.String() },
	})
	require.Equal(t, KindView, a.Kind())

	content := a.generator()
	assert.Equal(t, Size{W: 38, H: 26}, content.SizeThatFits())
	content.(Tappable).Tap()
	assert.Equal(t, "abc", tapped)
}

func TestNewTextAttachmentWithViewChildIsView(t *testing.T) {
	gen, n := countingGenerator(Size{W: 1, H: 1})
	child := NewViewAttachment(gen, WithBounds(Rect{W: 4, H: 4}))
	text := richtext.New("a", nil)
	text.Append(richtext.NewAttachmentText(child, nil))

	var built []*fakeLayout
	a := NewTextAttachment(text, TextOptions{Layout: capturingLayout(&built), Insets: nestedInsets})
	require.Equal(t, KindView, a.Kind())

	view := a.generator().(*textView)
	view.SetFrame(Rect{X: 100, Y: 100, W: 22, H: 26})
	view.Draw(&recSurface{})

	assert.Equal(t, 1, *n)
	require.Len(t, view.children, 1)
	assert.Equal(t, Rect{X: 13, Y: 13, W: 4, H: 4}, view.children[0].Frame())
}

func TestNestedAttachmentHostedByManager(t *testing.T) {
	var built []*fakeLayout
	nested := NewTextAttachment(richtext.New("abc", nil), TextOptions{
		Layout: capturingLayout(&built),
		Tap:    func(*richtext.Text) {},
	})
	l := newFakeLayout(textWithAttachment(nested), 10)
	m := NewManager(l)
	c := &fakeContainer{}
	m.SetContainer(c)

	drawAll(m, &recSurface{})

	require.Len(t, c.attached, 1)
	assert.Equal(t, Rect{X: 20, Y: -5, W: 30, H: 20}, c.attached[0].Frame())
}

func TestPayloadDisablesCustomization(t *testing.T) {
	var built []*fakeLayout
	a := NewTextAttachment(richtext.New("abc", nil), TextOptions{Layout: capturingLayout(&built)})
	require.True(t, a.CanCustomize())
	measured := a.Bounds()

	a.SetPayload(solidImage())

	assert.False(t, a.CanCustomize())
	assert.Equal(t, Rect{}, a.Bounds())
	a.SetPayload(nil)
	assert.Equal(t, measured, a.Bounds())
}

func TestAttachmentIdentity(t *testing.T) {
	a, b := NewEmptyAttachment(), NewEmptyAttachment()
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, AttachmentKey{ID: a.ID(), CharIndex: 3}, KeyFor(a, 3))
	assert.Equal(t, "painted", KindPainted.String())
}
