package richtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditEventPreEditRange(t *testing.T) {
	ev := EditEvent{Range: Range{Location: 5, Length: 3}, Delta: 3}
	assert.Equal(t, Range{Location: 5, Length: 0}, ev.PreEditRange())

	ev = EditEvent{Range: Range{Location: 5, Length: 0}, Delta: -5}
	assert.Equal(t, Range{Location: 5, Length: 5}, ev.PreEditRange())
}

func TestLongestEffectiveRangeMergesAdjacentRuns(t *testing.T) {
	txt := New("abcdefgh", nil)
	marker := &struct{ name string }{"m"}
	txt.AddAttribute("deco", marker, MakeRange(0, 3))
	txt.AddAttribute("deco", marker, MakeRange(3, 6))
	txt.AddAttribute("font", Font{Size: 4}, MakeRange(2, 4))

	v, eff := txt.LongestEffectiveRange("deco", 4, Range{Length: txt.Len()})
	assert.Same(t, marker, v)
	assert.Equal(t, MakeRange(0, 6), eff)

	_, clipped := txt.LongestEffectiveRange("deco", 4, MakeRange(2, 5))
	assert.Equal(t, MakeRange(2, 5), clipped)

	v, _ = txt.LongestEffectiveRange("deco", 7, Range{Length: txt.Len()})
	assert.Nil(t, v)
}

func TestLongestEffectiveRangeSeparatesDistinctValues(t *testing.T) {
	txt := New("abcdef", nil)
	a, b := &struct{ n int }{1}, &struct{ n int }{1}
	txt.AddAttribute("deco", a, MakeRange(0, 3))
	txt.AddAttribute("deco", b, MakeRange(3, 6))

	_, eff := txt.LongestEffectiveRange("deco", 1, Range{Length: 6})
	assert.Equal(t, MakeRange(0, 3), eff)
}

func TestUncomparableValuesDoNotPanic(t *testing.T) {
	txt := New("abcd", nil)
	txt.AddAttribute("dash", []float64{1, 2}, MakeRange(0, 2))
	txt.AddAttribute("dash", []float64{1, 2}, MakeRange(2, 4))
	_, eff := txt.LongestEffectiveRange("dash", 0, Range{Length: 4})
	assert.Equal(t, MakeRange(0, 2), eff)
}

func TestReplaceShiftsAndSplitsRuns(t *testing.T) {
	txt := New("0123456789", nil)
	txt.AddAttribute("k", "v", MakeRange(2, 8))

	var got []EditEvent
	remove := txt.AddObserver(EditObserverFunc(func(ev EditEvent) { got = append(got, ev) }))

	ev := txt.Insert(5, New("xyz", nil))
	assert.Equal(t, EditEvent{Range: Range{Location: 5, Length: 3}, Delta: 3}, ev)
	assert.Equal(t, "01234xyz56789", txt.String())

	_, r := txt.Attribute("k", 2)
	assert.Equal(t, MakeRange(2, 5), r)
	v, _ := txt.Attribute("k", 6)
	assert.Nil(t, v)
	_, r = txt.Attribute("k", 9)
	assert.Equal(t, MakeRange(8, 11), r)

	ev = txt.Delete(MakeRange(3, 9))
	assert.Equal(t, -6, ev.Delta)
	assert.Equal(t, "0126789", txt.String())
	require.Len(t, got, 2)

	remove()
	txt.AppendString("!", nil)
	assert.Len(t, got, 2)
}

func TestReplaceStringInheritsPreviousAttributes(t *testing.T) {
	txt := New("ab", Attributes{KeyFont: Font{Family: "Body", Size: 4}})
	txt.Append(NewAttachmentText("att", nil))
	txt.ReplaceString(Range{Location: 3}, "cd")

	assert.Equal(t, Font{Family: "Body", Size: 4}, txt.Attributes(1)[KeyFont])
	attrs := txt.Attributes(3)
	assert.NotContains(t, attrs, KeyAttachment)
	assert.Equal(t, "att", txt.Attributes(2)[KeyAttachment])
}

func TestSliceRebasesRuns(t *testing.T) {
	txt := New("hello world", nil)
	txt.AddAttribute("k", 1, MakeRange(4, 8))
	sub := txt.Slice(MakeRange(6, 11))
	assert.Equal(t, "world", sub.String())
	_, r := sub.Attribute("k", 0)
	assert.Equal(t, MakeRange(0, 2), r)

	sub.RemoveAttribute("k", MakeRange(0, 1))
	_, r = txt.Attribute("k", 6)
	assert.Equal(t, MakeRange(4, 8), r)
	assert.Equal(t, []Key{"k"}, sub.KeysAt(1))
	assert.Empty(t, sub.KeysAt(0))
}

func TestOutOfRangeQueries(t *testing.T) {
	txt := New("abc", nil)
	assert.Equal(t, rune(0), txt.RuneAt(10))
	assert.Equal(t, "", txt.Substring(MakeRange(5, 9)))
	assert.Empty(t, txt.Attributes(-1))
	ev := txt.Delete(MakeRange(2, 10))
	assert.Equal(t, -1, ev.Delta)
}
