// Package richtext stores text together with attribute runs and reports
// character edits as explicit events.
package richtext

import (
	"reflect"
	"slices"
)

// Key names an attribute. Callers pick their own keys for decorations; two
// values can only coexist on the same characters under distinct keys.
type Key string

// Well-known attribute keys consumed by the layout engine.
const (
	KeyFont        Key = "font"
	KeyForeground  Key = "foreground"
	KeyBackground  Key = "background"
	KeyAttachment  Key = "attachment"
	KeyLineSpacing Key = "lineSpacing"
)

// AttachmentChar is the placeholder character carrying an attachment.
const AttachmentChar = '\uFFFC'

// Font references a face by family, style and size (millimetres).
type Font struct {
	Family string  `json:"family"`
	Style  string  `json:"style,omitempty"`
	Size   float64 `json:"size"`
}

// Attributes maps keys to values at a single character.
type Attributes map[Key]any

type span struct {
	r Range
	v any
}

type observerEntry struct {
	id int
	o  EditObserver
}

// Text is a mutable attributed string. It is not safe for concurrent use.
type Text struct {
	runes     []rune
	attrs     map[Key][]span
	observers []observerEntry
	nextID    int
}

// New returns a Text holding s with attrs applied to all of it.
func New(s string, attrs Attributes) *Text {
	t := &Text{runes: []rune(s), attrs: map[Key][]span{}}
	t.AddAttributes(attrs, Range{Length: len(t.runes)})
	return t
}

// NewAttachmentText returns a one-character Text carrying attachment under
// KeyAttachment, plus attrs.
func NewAttachmentText(attachment any, attrs Attributes) *Text {
	t := New(string(AttachmentChar), attrs)
	t.AddAttribute(KeyAttachment, attachment, Range{Length: 1})
	return t
}

// Len returns the number of characters.
func (t *Text) Len() int { return len(t.runes) }

// String returns the plain characters.
func (t *Text) String() string { return string(t.runes) }

// RuneAt returns the character at i, or 0 when i is out of range.
func (t *Text) RuneAt(i int) rune {
	if i < 0 || i >= len(t.runes) {
		return 0
	}
	return t.runes[i]
}

// Substring returns the plain characters in r.
func (t *Text) Substring(r Range) string {
	r = t.clamp(r)
	return string(t.runes[r.Location:r.End()])
}

// Keys returns every key that has at least one run, sorted.
func (t *Text) Keys() []Key {
	keys := make([]Key, 0, len(t.attrs))
	for k := range t.attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// AddObserver registers o for edit events and returns a function removing it.
func (t *Text) AddObserver(o EditObserver) (remove func()) {
	t.nextID++
	id := t.nextID
	t.observers = append(t.observers, observerEntry{id: id, o: o})
	return func() {
		t.observers = slices.DeleteFunc(t.observers, func(e observerEntry) bool { return e.id == id })
	}
}

// AddAttribute sets key to value over r, replacing any previous value there.
func (t *Text) AddAttribute(key Key, value any, r Range) {
	r = t.clamp(r)
	if r.IsEmpty() {
		return
	}
	list := carve(t.attrs[key], r)
	list = append(list, span{r: r, v: value})
	sortSpans(list)
	t.attrs[key] = list
}

// AddAttributes applies every entry of attrs over r.
func (t *Text) AddAttributes(attrs Attributes, r Range) {
	for k, v := range attrs {
		t.AddAttribute(k, v, r)
	}
}

// RemoveAttribute clears key over r.
func (t *Text) RemoveAttribute(key Key, r Range) {
	list, ok := t.attrs[key]
	if !ok {
		return
	}
	list = carve(list, t.clamp(r))
	if len(list) == 0 {
		delete(t.attrs, key)
		return
	}
	t.attrs[key] = list
}

// Attribute returns the value of key at i and the run it belongs to.
func (t *Text) Attribute(key Key, i int) (any, Range) {
	for _, s := range t.attrs[key] {
		if s.r.Contains(i) {
			return s.v, s.r
		}
	}
	return nil, Range{Location: i}
}

// Attributes returns all values present at i.
func (t *Text) Attributes(i int) Attributes {
	out := Attributes{}
	for k, list := range t.attrs {
		for _, s := range list {
			if s.r.Contains(i) {
				out[k] = s.v
				break
			}
		}
	}
	return out
}

// KeysAt returns the keys with a value at i, sorted.
func (t *Text) KeysAt(i int) []Key {
	var keys []Key
	for k, list := range t.attrs {
		for _, s := range list {
			if s.r.Contains(i) {
				keys = append(keys, k)
				break
			}
		}
	}
	slices.Sort(keys)
	return keys
}

// LongestEffectiveRange returns the value of key at i together with the
// longest range, limited to within, over which adjacent runs hold the same
// value.
func (t *Text) LongestEffectiveRange(key Key, i int, within Range) (any, Range) {
	list := t.attrs[key]
	idx := slices.IndexFunc(list, func(s span) bool { return s.r.Contains(i) })
	if idx < 0 {
		return nil, Range{Location: i}
	}
	v := list[idx].v
	start, end := list[idx].r.Location, list[idx].r.End()
	for j := idx - 1; j >= 0 && list[j].r.End() == start && sameValue(list[j].v, v); j-- {
		start = list[j].r.Location
	}
	for j := idx + 1; j < len(list) && list[j].r.Location == end && sameValue(list[j].v, v); j++ {
		end = list[j].r.End()
	}
	return v, MakeRange(start, end).Intersection(within)
}

// Slice returns an independent copy of the characters and attributes in r,
// re-based at index 0. Observers are not copied.
func (t *Text) Slice(r Range) *Text {
	r = t.clamp(r)
	out := &Text{runes: slices.Clone(t.runes[r.Location:r.End()]), attrs: map[Key][]span{}}
	for k, list := range t.attrs {
		var cut []span
		for _, s := range list {
			if in := s.r.Intersection(r); !in.IsEmpty() {
				cut = append(cut, span{r: in.Offset(-r.Location), v: s.v})
			}
		}
		if len(cut) > 0 {
			out.attrs[k] = cut
		}
	}
	return out
}

// Copy returns an independent copy of t without observers.
func (t *Text) Copy() *Text { return t.Slice(Range{Length: t.Len()}) }

// Replace substitutes the characters in r with the characters and attributes
// of with, notifies observers and returns the edit event.
func (t *Text) Replace(r Range, with *Text) EditEvent {
	r = t.clamp(r)
	if with == nil {
		with = New("", nil)
	}
	n := with.Len()
	delta := n - r.Length

	runes := make([]rune, 0, len(t.runes)+delta)
	runes = append(runes, t.runes[:r.Location]...)
	runes = append(runes, with.runes...)
	runes = append(runes, t.runes[r.End():]...)
	t.runes = runes

	for k, list := range t.attrs {
		list = carve(list, r)
		for i := range list {
			if list[i].r.Location >= r.End() {
				list[i].r = list[i].r.Offset(delta)
			}
		}
		if len(list) == 0 {
			delete(t.attrs, k)
			continue
		}
		t.attrs[k] = list
	}
	for k, list := range with.attrs {
		merged := t.attrs[k]
		for _, s := range list {
			merged = append(merged, span{r: s.r.Offset(r.Location), v: s.v})
		}
		sortSpans(merged)
		t.attrs[k] = merged
	}

	ev := EditEvent{Range: Range{Location: r.Location, Length: n}, Delta: delta}
	for _, e := range slices.Clone(t.observers) {
		e.o.ProcessEditing(ev)
	}
	return ev
}

// ReplaceString substitutes the characters in r with s. The new characters
// take the attributes of the character before r, except any attachment.
func (t *Text) ReplaceString(r Range, s string) EditEvent {
	r = t.clamp(r)
	src := r.Location - 1
	if src < 0 {
		src = r.Location
	}
	attrs := Attributes{}
	if src < t.Len() {
		attrs = t.Attributes(src)
		delete(attrs, KeyAttachment)
	}
	return t.Replace(r, New(s, attrs))
}

// Insert places with before index i.
func (t *Text) Insert(i int, with *Text) EditEvent {
	return t.Replace(Range{Location: i}, with)
}

// Delete removes the characters in r.
func (t *Text) Delete(r Range) EditEvent {
	return t.Replace(r, nil)
}

// Append adds with at the end.
func (t *Text) Append(with *Text) EditEvent {
	return t.Replace(Range{Location: t.Len()}, with)
}

// AppendString adds s with attrs at the end.
func (t *Text) AppendString(s string, attrs Attributes) EditEvent {
	return t.Append(New(s, attrs))
}

func (t *Text) clamp(r Range) Range {
	start := min(max(r.Location, 0), len(t.runes))
	end := min(max(r.End(), start), len(t.runes))
	return MakeRange(start, end)
}

// carve returns a new run list with r cut out of every run. An empty r still
// splits the run straddling r.Location.
func carve(list []span, r Range) []span {
	out := make([]span, 0, len(list)+1)
	for _, s := range list {
		if s.r.End() <= r.Location || s.r.Location >= r.End() {
			out = append(out, s)
			continue
		}
		if s.r.Location < r.Location {
			out = append(out, span{r: MakeRange(s.r.Location, r.Location), v: s.v})
		}
		if s.r.End() > r.End() {
			out = append(out, span{r: MakeRange(r.End(), s.r.End()), v: s.v})
		}
	}
	return out
}

func sortSpans(list []span) {
	slices.SortStableFunc(list, func(a, b span) int { return a.r.Location - b.r.Location })
}

// sameValue compares attribute values without panicking on uncomparable types.
func sameValue(a, b any) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == nil || ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
