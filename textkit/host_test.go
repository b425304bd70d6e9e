package textkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/textdeco/richtext"
)

func hostWith(t *testing.T, a *Attachment, indices ...int) (*Host, *fakeContainer, map[int]Content) {
	t.Helper()
	h := NewHost()
	c := &fakeContainer{}
	h.SetContainer(c)
	contents := map[int]Content{}
	for _, i := range indices {
		h.Ensure(a, i)
		content, ok := h.Get(a, i)
		require.True(t, ok)
		c.Attach(content)
		contents[i] = content
	}
	return h, c, contents
}

func charIndices(keys []AttachmentKey) []int {
	out := make([]int, len(keys))
	for i, k := range keys {
		out[i] = k.CharIndex
	}
	return out
}

func TestReconcileInsertion(t *testing.T) {
	gen, _ := countingGenerator(Size{W: 1, H: 1})
	a := NewViewAttachment(gen)
	h, c, before := hostWith(t, a, 2, 5, 8)

	h.Reconcile(richtext.Range{Location: 5}, 3)

	assert.Equal(t, []int{2, 8, 11}, charIndices(h.Keys()))
	for old, now := range map[int]int{2: 2, 5: 8, 8: 11} {
		got, ok := h.Get(a, now)
		require.True(t, ok)
		assert.Same(t, before[old], got, "entry from %d", old)
	}
	assert.True(t, c.Attached(before[2]))
	assert.False(t, c.Attached(before[5]))
	assert.False(t, c.Attached(before[8]))
}

func TestReconcileDeletion(t *testing.T) {
	gen, _ := countingGenerator(Size{W: 1, H: 1})
	a := NewViewAttachment(gen)
	h, c, before := hostWith(t, a, 2, 5, 7, 10, 12)

	h.Reconcile(richtext.Range{Location: 5, Length: 5}, -5)

	assert.Equal(t, []int{2, 5, 7}, charIndices(h.Keys()))
	got, _ := h.Get(a, 5)
	assert.Same(t, before[10], got)
	got, _ = h.Get(a, 7)
	assert.Same(t, before[12], got)
	assert.False(t, c.Attached(before[5]))
	assert.False(t, c.Attached(before[7]))
	assert.Equal(t, 3, h.Len())
}

func TestReconcileReplacement(t *testing.T) {
	gen, _ := countingGenerator(Size{W: 1, H: 1})
	a := NewViewAttachment(gen)
	b := NewViewAttachment(gen)
	h := NewHost()
	h.Ensure(a, 1)
	h.Ensure(b, 4)

	h.Reconcile(richtext.Range{Location: 1, Length: 2}, 3)

	_, ok := h.Get(a, 1)
	assert.False(t, ok)
	_, ok = h.Get(b, 7)
	assert.True(t, ok)
	assert.Equal(t, 1, h.Len())
}

func TestEnsureIsIdempotent(t *testing.T) {
	gen, n := countingGenerator(Size{W: 3, H: 4})
	a := NewViewAttachment(gen)
	h := NewHost()

	h.Ensure(a, 0)
	first, _ := h.Get(a, 0)
	h.Ensure(a, 0)
	second, _ := h.Get(a, 0)

	assert.Equal(t, 1, *n)
	assert.Equal(t, 1, h.Len())
	assert.Same(t, first, second)
	fitted, ok := h.fitted(a, 0)
	require.True(t, ok)
	assert.Equal(t, Size{W: 3, H: 4}, fitted)
}

func TestEnsureIgnoresUncustomizable(t *testing.T) {
	gen, n := countingGenerator(Size{W: 1, H: 1})
	a := NewViewAttachment(gen)
	a.SetPayload(solidImage())
	h := NewHost()

	h.Ensure(a, 0)
	h.Ensure(NewPaintedAttachment(func(Surface, Rect) {}), 1)
	h.Ensure(nil, 2)

	assert.Zero(t, *n)
	assert.Zero(t, h.Len())
}

func TestPlaceAttachesAndFrames(t *testing.T) {
	gen, n := countingGenerator(Size{W: 1, H: 1})
	a := NewViewAttachment(gen)
	h := NewHost()
	c := &fakeContainer{}
	h.SetContainer(c)
	s := &recSurface{}

	r := Rect{X: 1, Y: 2, W: 3, H: 4}
	h.Place(s, a, 0, r)
	h.Place(s, a, 0, r)

	content, ok := h.Get(a, 0)
	require.True(t, ok)
	assert.Equal(t, 1, *n)
	assert.Equal(t, []Content{content}, c.attached)
	assert.Equal(t, r, content.Frame())
	assert.Equal(t, 2, content.(*fakeContent).draws)
	assert.Equal(t, 2, c.raised)
	assert.Zero(t, s.depth)
}

func TestPlaceWithoutContainerGeneratesNothing(t *testing.T) {
	gen, n := countingGenerator(Size{W: 1, H: 1})
	a := NewViewAttachment(gen)
	h := NewHost()

	h.Place(&recSurface{}, a, 0, Rect{W: 1, H: 1})

	assert.Zero(t, *n)
	assert.Zero(t, h.Len())
}

func TestPlacePaintedDrawsInsideSavedState(t *testing.T) {
	var got Rect
	a := NewPaintedAttachment(func(s Surface, r Rect) {
		got = r
		s.SetFillColor(red)
		s.FillRect(r, 0)
	})
	h := NewHost()
	s := &recSurface{}

	h.Place(s, a, 3, Rect{X: 4, Y: 5, W: 6, H: 7})

	assert.Equal(t, Rect{X: 4, Y: 5, W: 6, H: 7}, got)
	require.Len(t, s.ops, 4)
	assert.Equal(t, "save", s.ops[0].name)
	assert.Equal(t, "restore", s.ops[3].name)
	assert.Zero(t, h.Len())
}

func TestHideKeepsContent(t *testing.T) {
	gen, _ := countingGenerator(Size{W: 1, H: 1})
	a := NewViewAttachment(gen)
	h, c, before := hostWith(t, a, 4)

	h.Hide(a, 4)

	assert.False(t, c.Attached(before[4]))
	_, ok := h.Get(a, 4)
	assert.True(t, ok)
}

func TestHostCloseDetachesEverything(t *testing.T) {
	gen, _ := countingGenerator(Size{W: 1, H: 1})
	a := NewViewAttachment(gen)
	h, c, _ := hostWith(t, a, 1, 2, 3)

	h.Close()

	assert.Empty(t, c.attached)
	assert.Zero(t, h.Len())
}

func TestSetContainerDetachesFromPrevious(t *testing.T) {
	gen, _ := countingGenerator(Size{W: 1, H: 1})
	a := NewViewAttachment(gen)
	h, old, _ := hostWith(t, a, 0, 1)

	next := &fakeContainer{}
	h.SetContainer(next)

	assert.Empty(t, old.attached)
	assert.Same(t, next, h.Container())
	assert.Equal(t, 2, h.Len())
}
