package textkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/textdeco/richtext"
)

type invocation struct {
	key   richtext.Key
	line  LineVisualInfo
	items []VisualItem
}

func recordingPainter(phase Phase, z int, calls *[]invocation) *Painter {
	return NewPainter(phase, z, func(key richtext.Key, _ Surface, line LineVisualInfo, items []VisualItem) {
		*calls = append(*calls, invocation{key: key, line: line, items: items})
	})
}

func keysOf(calls []invocation) []richtext.Key {
	out := make([]richtext.Key, len(calls))
	for i, c := range calls {
		out[i] = c.key
	}
	return out
}

func TestCompositeOrdersByZOrderThenDiscovery(t *testing.T) {
	var calls []invocation
	text := richtext.New("abcdef", nil)
	text.AddAttribute("z.hi", recordingPainter(Background, 2, &calls), richtext.MakeRange(0, 3))
	text.AddAttribute("a.lo", recordingPainter(Background, -1, &calls), richtext.MakeRange(2, 5))
	text.AddAttribute("m.mid", recordingPainter(Background, 0, &calls), richtext.MakeRange(0, 6))
	text.AddAttribute("b.tie", recordingPainter(Background, 0, &calls), richtext.MakeRange(0, 6))

	l := newFakeLayout(text, 10)
	c := NewCompositor(l, NewResolver(l))
	s := &recSurface{}
	c.CompositeGlyphs(s, richtext.Range{Length: 6}, Point{}, Background)

	assert.Equal(t, []richtext.Key{"a.lo", "b.tie", "m.mid", "z.hi"}, keysOf(calls))

	first := keysOf(calls)
	calls = nil
	c.CompositeGlyphs(s, richtext.Range{Length: 6}, Point{}, Background)
	assert.Equal(t, first, keysOf(calls), "ties resolve the same way on every pass")
}

func TestCompositeFiltersPhase(t *testing.T) {
	var calls []invocation
	text := richtext.New("abc", nil)
	text.AddAttribute("under", recordingPainter(Background, 0, &calls), richtext.MakeRange(0, 3))
	text.AddAttribute("over", recordingPainter(Foreground, 0, &calls), richtext.MakeRange(0, 3))

	l := newFakeLayout(text, 10)
	c := NewCompositor(l, NewResolver(l))
	c.CompositeGlyphs(&recSurface{}, richtext.Range{Length: 3}, Point{}, Foreground)

	assert.Equal(t, []richtext.Key{"over"}, keysOf(calls))
}

func TestCompositeInvokesOncePerRun(t *testing.T) {
	var calls []invocation
	p := recordingPainter(Background, 0, &calls)
	text := richtext.New("abcdef", nil)
	text.AddAttribute("hl", p, richtext.MakeRange(0, 2))
	text.AddAttribute("hl", p, richtext.MakeRange(2, 4))
	text.AddAttribute("hl", p, richtext.MakeRange(5, 6))

	l := newFakeLayout(text, 10)
	c := NewCompositor(l, NewResolver(l))
	c.CompositeGlyphs(&recSurface{}, richtext.Range{Length: 6}, Point{X: 1, Y: 2}, Background)

	require.Len(t, calls, 2)
	assert.Len(t, calls[0].items, 4)
	assert.Len(t, calls[1].items, 1)
	assert.Equal(t, 17.0, calls[0].line.Baseline)
	assert.Equal(t, Rect{X: 1, Y: 2, W: 200, H: 20}, calls[0].line.Rect)
	assert.Equal(t, Rect{X: 1, Y: 2, W: 60, H: 20}, calls[0].line.UsedRect)
	assert.Equal(t, 51.0, calls[1].items[0].Rect.X)
}

func TestCompositeSplitsAcrossLines(t *testing.T) {
	var calls []invocation
	text := richtext.New("abcdef", nil)
	text.AddAttribute("hl", recordingPainter(Foreground, 0, &calls), richtext.MakeRange(1, 5))

	l := newFakeLayout(text, 3)
	c := NewCompositor(l, NewResolver(l))
	c.CompositeGlyphs(&recSurface{}, richtext.Range{Length: 6}, Point{}, Foreground)

	require.Len(t, calls, 2)
	assert.Len(t, calls[0].items, 2)
	assert.Len(t, calls[1].items, 2)
	assert.Equal(t, 15.0, calls[0].line.Baseline)
	assert.Equal(t, 35.0, calls[1].line.Baseline)
}

func TestCompositeEmptyItemsHaveZeroBaseline(t *testing.T) {
	var calls []invocation
	text := richtext.New("a   b", nil)
	text.AddAttribute("gap", recordingPainter(Background, 0, &calls), richtext.MakeRange(1, 4))

	l := newFakeLayout(text, 10)
	c := NewCompositor(l, NewResolver(l))
	c.CompositeGlyphs(&recSurface{}, richtext.Range{Length: 5}, Point{}, Background)

	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].items)
	assert.Zero(t, calls[0].line.Baseline)
}

func TestCompositeIsolatesSurfaceState(t *testing.T) {
	text := richtext.New("ab", nil)
	text.AddAttribute("a", NewPainter(Background, 0, func(_ richtext.Key, s Surface, _ LineVisualInfo, _ []VisualItem) {
		s.SetLineWidth(4)
	}), richtext.MakeRange(0, 2))
	text.AddAttribute("b", NewPainter(Background, 1, func(_ richtext.Key, s Surface, _ LineVisualInfo, _ []VisualItem) {
		s.SetDash(1, 1)
	}), richtext.MakeRange(0, 2))

	l := newFakeLayout(text, 10)
	c := NewCompositor(l, NewResolver(l))
	s := &recSurface{}
	c.CompositeGlyphs(s, richtext.Range{Length: 2}, Point{}, Background)

	names := make([]string, len(s.ops))
	for i, op := range s.ops {
		names[i] = op.name
	}
	assert.Equal(t, []string{"save", "lineWidth", "restore", "save", "dash", "restore"}, names)
	assert.Zero(t, s.depth)
}

func TestCompositeLeavesTextUntouched(t *testing.T) {
	var calls []invocation
	p := recordingPainter(Background, 0, &calls)
	text := richtext.New("abc", nil)
	text.AddAttribute("hl", p, richtext.MakeRange(0, 3))

	l := newFakeLayout(text, 10)
	c := NewCompositor(l, NewResolver(l))
	c.CompositeGlyphs(&recSurface{}, richtext.Range{Length: 3}, Point{}, Background)

	v, r := text.Attribute("hl", 1)
	assert.Same(t, p, v)
	assert.Equal(t, richtext.MakeRange(0, 3), r)
}
