package richtext

// Range is a half-open span [Location, Location+Length) of character or
// glyph indices.
type Range struct {
	Location int `json:"location"`
	Length   int `json:"length"`
}

// MakeRange returns the range covering [start, end).
func MakeRange(start, end int) Range {
	if end < start {
		end = start
	}
	return Range{Location: start, Length: end - start}
}

// End returns the first index after the range.
func (r Range) End() int { return r.Location + r.Length }

// IsEmpty reports whether the range covers no index.
func (r Range) IsEmpty() bool { return r.Length <= 0 }

// Contains reports whether i lies inside the range.
func (r Range) Contains(i int) bool { return i >= r.Location && i < r.End() }

// Intersection returns the overlap of r and o. The result is empty when they
// do not overlap.
func (r Range) Intersection(o Range) Range {
	start := max(r.Location, o.Location)
	end := min(r.End(), o.End())
	if end <= start {
		return Range{Location: start}
	}
	return Range{Location: start, Length: end - start}
}

// Offset returns r moved by delta.
func (r Range) Offset(delta int) Range {
	return Range{Location: r.Location + delta, Length: r.Length}
}

// EditEvent describes one character mutation of a Text. Range is the range the
// new characters occupy after the edit, Delta the net change in length.
type EditEvent struct {
	Range Range `json:"range"`
	Delta int   `json:"delta"`
}

// PreEditRange returns the span of the characters the edit replaced, in
// pre-edit coordinates.
func (e EditEvent) PreEditRange() Range {
	return Range{Location: e.Range.Location, Length: e.Range.Length - e.Delta}
}

// EditObserver receives edit events synchronously while the mutating call is
// still running.
type EditObserver interface {
	ProcessEditing(ev EditEvent)
}

// EditObserverFunc adapts a function to EditObserver.
type EditObserverFunc func(ev EditEvent)

// ProcessEditing calls f(ev).
func (f EditObserverFunc) ProcessEditing(ev EditEvent) { f(ev) }
